package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config содержит настройки приложения
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Catalog     CatalogConfig
	Maintenance MaintenanceConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// CatalogConfig - настройки клиента внешнего справочника.
// Пустой BaseURL означает работу без внешнего справочника.
type CatalogConfig struct {
	BaseURL  string
	APIToken string
}

// MaintenanceConfig - настройки разовых служебных проходов
type MaintenanceConfig struct {
	// RepairTimesOnStart запускает ремонт времён часовых
	// записей при старте процесса
	RepairTimesOnStart bool
}

// DSN возвращает строку подключения к PostgreSQL
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Load загружает конфигурацию из .env (если есть) и переменных окружения
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "worksheets"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Catalog: CatalogConfig{
			BaseURL:  getEnv("CATALOG_BASE_URL", ""),
			APIToken: getEnv("CATALOG_API_TOKEN", ""),
		},
		Maintenance: MaintenanceConfig{
			RepairTimesOnStart: getEnv("REPAIR_TIMES_ON_START", "false") == "true",
		},
	}
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
