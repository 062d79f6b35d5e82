package catalog

import "context"

// Catalog - внешний справочник изделий, операций и работников.
// Ядро не дублирует его содержимое и проверяет только существование
// ссылок; полномочия вызывающего уже разрешены выше по стеку.
type Catalog interface {
	WorkerExists(ctx context.Context, workerID string) (bool, error)
	ProductExists(ctx context.Context, productID string) (bool, error)
	ProcessExists(ctx context.Context, processID string) (bool, error)
}

// Static - справочник с фиксированным набором ссылок. Используется в
// тестах и в развёртываниях без внешнего сервиса справочников.
type Static struct {
	Workers   map[string]bool
	Products  map[string]bool
	Processes map[string]bool
}

// NewStatic создаёт справочник из перечисленных идентификаторов
func NewStatic(workers, products, processes []string) *Static {
	s := &Static{
		Workers:   make(map[string]bool, len(workers)),
		Products:  make(map[string]bool, len(products)),
		Processes: make(map[string]bool, len(processes)),
	}
	for _, id := range workers {
		s.Workers[id] = true
	}
	for _, id := range products {
		s.Products[id] = true
	}
	for _, id := range processes {
		s.Processes[id] = true
	}
	return s
}

func (s *Static) WorkerExists(ctx context.Context, workerID string) (bool, error) {
	return s.Workers[workerID], nil
}

func (s *Static) ProductExists(ctx context.Context, productID string) (bool, error) {
	return s.Products[productID], nil
}

func (s *Static) ProcessExists(ctx context.Context, processID string) (bool, error) {
	return s.Processes[processID], nil
}

// Permissive - справочник, принимающий любой непустой идентификатор.
// Применяется, когда проверка ссылок делегирована внешней системе целиком.
type Permissive struct{}

func (Permissive) WorkerExists(ctx context.Context, workerID string) (bool, error) {
	return workerID != "", nil
}

func (Permissive) ProductExists(ctx context.Context, productID string) (bool, error) {
	return productID != "", nil
}

func (Permissive) ProcessExists(ctx context.Context, processID string) (bool, error) {
	return processID != "", nil
}
