package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShiftType - тип смены, задаёт фиксированную таблицу часовых слотов
type ShiftType string

const (
	ShiftNormal8H    ShiftType = "NORMAL_8H"
	ShiftExtended95H ShiftType = "EXTENDED_9_5H"
	ShiftOvertime11H ShiftType = "OVERTIME_11H"
)

// KnownShiftType проверяет, что тип смены входит в допустимый набор
func KnownShiftType(s ShiftType) bool {
	switch s {
	case ShiftNormal8H, ShiftExtended95H, ShiftOvertime11H:
		return true
	}
	return false
}

// WorksheetStatus - статус жизненного цикла наряда
type WorksheetStatus string

const (
	WorksheetActive    WorksheetStatus = "ACTIVE"
	WorksheetCompleted WorksheetStatus = "COMPLETED"
	WorksheetCancelled WorksheetStatus = "CANCELLED"
)

// KnownWorksheetStatus проверяет допустимость статуса наряда
func KnownWorksheetStatus(s WorksheetStatus) bool {
	switch s {
	case WorksheetActive, WorksheetCompleted, WorksheetCancelled:
		return true
	}
	return false
}

// RecordStatus - статус часовой записи
type RecordStatus string

const (
	RecordPlanned RecordStatus = "PLANNED"
	RecordFilled  RecordStatus = "FILLED"
	RecordSkipped RecordStatus = "SKIPPED"
)

// KnownRecordStatus проверяет допустимость статуса часовой записи
func KnownRecordStatus(s RecordStatus) bool {
	switch s {
	case RecordPlanned, RecordFilled, RecordSkipped:
		return true
	}
	return false
}

// CauseType - категория причины отклонения выработки
type CauseType string

const (
	CauseMaterials  CauseType = "MATERIALS"
	CauseTechnology CauseType = "TECHNOLOGY"
	CauseQuality    CauseType = "QUALITY"
	CauseMachinery  CauseType = "MACHINERY"
	CauseOther      CauseType = "OTHER"
)

// KnownCauseType проверяет допустимость категории причины
func KnownCauseType(c CauseType) bool {
	switch c {
	case CauseMaterials, CauseTechnology, CauseQuality, CauseMachinery, CauseOther:
		return true
	}
	return false
}

// Worksheet представляет сменный наряд одной группы на одну календарную дату.
// Уникален по паре (date, group_id); физически не удаляется,
// только переводится в статус CANCELLED.
type Worksheet struct {
	ID                   string           `json:"id" gorm:"type:uuid;primaryKey"`
	Date                 time.Time        `json:"date" gorm:"type:date;not null;uniqueIndex:idx_worksheets_date_group"`
	GroupID              string           `json:"group_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_worksheets_date_group"`
	ShiftType            ShiftType        `json:"shift_type" gorm:"type:varchar(20);not null"`
	Status               WorksheetStatus  `json:"status" gorm:"type:varchar(20);not null;default:ACTIVE"`
	TotalWorkers         int              `json:"total_workers" gorm:"not null"`
	PlannedOutputPerHour *decimal.Decimal `json:"planned_output_per_hour" gorm:"type:numeric(12,3)"`
	CreatedAt            time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt            time.Time        `json:"updated_at" gorm:"autoUpdateTime"`

	Items []WorksheetItem `json:"items,omitempty" gorm:"foreignKey:WorksheetID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (Worksheet) TableName() string {
	return "worksheets"
}

// BeforeCreate генерирует идентификатор наряда
func (w *Worksheet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// WorksheetItem представляет назначение одного работника внутри наряда:
// изделие, операция и индивидуальная часовая норма. Привязка к работнику
// неизменна после создания; изделие/операция/норма меняются, пока наряд ACTIVE.
type WorksheetItem struct {
	ID                  string          `json:"id" gorm:"type:uuid;primaryKey"`
	WorksheetID         string          `json:"worksheet_id" gorm:"type:uuid;not null;index"`
	WorkerID            string          `json:"worker_id" gorm:"type:varchar(64);not null"`
	ProductID           string          `json:"product_id" gorm:"type:varchar(64);not null"`
	ProcessID           string          `json:"process_id" gorm:"type:varchar(64);not null"`
	TargetOutputPerHour decimal.Decimal `json:"target_output_per_hour" gorm:"type:numeric(12,3);not null"`
	CreatedAt           time.Time       `json:"created_at" gorm:"autoCreateTime"`

	Records []HourRecord `json:"records,omitempty" gorm:"foreignKey:WorksheetItemID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (WorksheetItem) TableName() string {
	return "worksheet_items"
}

// BeforeCreate генерирует идентификатор назначения
func (i *WorksheetItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// HourRecord представляет один часовой слот назначения: ожидаемая и
// фактическая выработка за час. Инварианты: StartAt < EndAt; календарная
// дата StartAt в UTC совпадает с датой наряда; hour_index плотный,
// начинается с 1.
type HourRecord struct {
	ID              string          `json:"id" gorm:"type:uuid;primaryKey"`
	WorksheetItemID string          `json:"worksheet_item_id" gorm:"type:uuid;not null;uniqueIndex:idx_hour_records_item_hour"`
	HourIndex       int             `json:"hour_index" gorm:"not null;uniqueIndex:idx_hour_records_item_hour"`
	StartAt         time.Time       `json:"start_at" gorm:"not null"`
	EndAt           time.Time       `json:"end_at" gorm:"not null"`
	ExpectedOutput  decimal.Decimal `json:"expected_output" gorm:"type:numeric(12,3);not null"`
	ActualOutput    decimal.Decimal `json:"actual_output" gorm:"type:numeric(12,3);not null;default:0"`
	Status          RecordStatus    `json:"status" gorm:"type:varchar(20);not null;default:PLANNED"`
	Note            string          `json:"note" gorm:"type:varchar(500)"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"autoUpdateTime"`

	Causes []CauseEntry `json:"causes,omitempty" gorm:"foreignKey:HourRecordID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (HourRecord) TableName() string {
	return "hour_records"
}

// BeforeCreate генерирует идентификатор записи
func (r *HourRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// CauseEntry представляет причину отклонения выработки по одной часовой
// записи. Сумма дельт намеренно не сверяется с разницей план/факт -
// это свободная аннотация оператора.
type CauseEntry struct {
	ID           string          `json:"id" gorm:"type:uuid;primaryKey"`
	HourRecordID string          `json:"hour_record_id" gorm:"type:uuid;not null;index"`
	CauseType    CauseType       `json:"cause_type" gorm:"type:varchar(20);not null"`
	Delta        decimal.Decimal `json:"delta" gorm:"type:numeric(12,3);not null"`
	Note         string          `json:"note" gorm:"type:varchar(500)"`
	CreatedAt    time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName задаёт имя таблицы для GORM
func (CauseEntry) TableName() string {
	return "cause_entries"
}

// BeforeCreate генерирует идентификатор причины
func (c *CauseEntry) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
