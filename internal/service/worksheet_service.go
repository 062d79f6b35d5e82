package service

import (
	"context"
	"time"

	"github.com/shift-worksheet-api/internal/catalog"
	"github.com/shift-worksheet-api/internal/domain"
	"github.com/shift-worksheet-api/internal/dto"
	"github.com/shift-worksheet-api/internal/repository"
	"github.com/shift-worksheet-api/internal/schedule"
	"github.com/shift-worksheet-api/internal/target"
)

const dateLayout = "2006-01-02"

// WorksheetService определяет интерфейс бизнес-логики нарядов: создание,
// жизненный цикл и обновления полей, одиночные и групповые.
type WorksheetService interface {
	Create(ctx context.Context, req *dto.CreateWorksheetRequest) (*domain.Worksheet, error)
	Get(ctx context.Context, id string) (*domain.Worksheet, error)
	Update(ctx context.Context, id string, req *dto.UpdateWorksheetRequest) (*domain.Worksheet, error)
	BulkUpdateGroup(ctx context.Context, req *dto.BulkUpdateWorksheetsRequest) (int, error)
}

type worksheetService struct {
	repo    repository.WorksheetRepository
	catalog catalog.Catalog
}

// NewWorksheetService создаёт новый экземпляр сервиса
func NewWorksheetService(repo repository.WorksheetRepository, cat catalog.Catalog) WorksheetService {
	return &worksheetService{repo: repo, catalog: cat}
}

// Create создаёт наряд вместе с назначениями и часовыми записями в одной
// транзакции: по записи на каждый слот расписания для каждого работника.
// Ожидание записи сеется индивидуальной нормой работника, плановая
// выработка группы - нормой на работника либо переданным override.
func (s *worksheetService) Create(ctx context.Context, req *dto.CreateWorksheetRequest) (*domain.Worksheet, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, err
	}

	shift := domain.ShiftType(req.ShiftType)
	if !domain.KnownShiftType(shift) {
		return nil, domain.ErrUnknownShiftType
	}
	if len(req.Members) == 0 {
		return nil, domain.ErrEmptyMembers
	}

	// Ссылки на справочник проверяются до открытия транзакции
	for _, m := range req.Members {
		if err := s.checkMember(ctx, m.WorkerID, m.ProductID, m.ProcessID); err != nil {
			return nil, err
		}
	}

	exists, err := s.repo.ExistsByDateAndGroup(ctx, date, req.GroupID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateWorksheet
	}

	groupTarget := target.GroupTarget(req.StandardOutputPerHour, len(req.Members), req.PlannedOutputPerHour)

	ws := &domain.Worksheet{
		Date:                 date,
		GroupID:              req.GroupID,
		ShiftType:            shift,
		Status:               domain.WorksheetActive,
		TotalWorkers:         len(req.Members),
		PlannedOutputPerHour: &groupTarget,
	}

	slots := schedule.Generate(shift, date)
	for _, m := range req.Members {
		item := domain.WorksheetItem{
			WorkerID:            m.WorkerID,
			ProductID:           m.ProductID,
			ProcessID:           m.ProcessID,
			TargetOutputPerHour: m.TargetOutputPerHour,
		}
		for _, slot := range slots {
			item.Records = append(item.Records, domain.HourRecord{
				HourIndex:      slot.HourIndex,
				StartAt:        slot.Start,
				EndAt:          slot.End,
				ExpectedOutput: target.IndividualExpected(m.TargetOutputPerHour, 1),
				Status:         domain.RecordPlanned,
			})
		}
		ws.Items = append(ws.Items, item)
	}

	if err := s.repo.CreateWithChildren(ctx, ws); err != nil {
		return nil, err
	}

	return ws, nil
}

func (s *worksheetService) Get(ctx context.Context, id string) (*domain.Worksheet, error) {
	return s.repo.GetByID(ctx, id)
}

// Update меняет поля наряда, пока он ACTIVE. Смена типа смены при уже
// существующих часовых записях перегенерирует их набор уничтожающе;
// зафиксированный факт переносится на слоты с совпадающим hour_index,
// факт отрезанных слотов теряется.
func (s *worksheetService) Update(ctx context.Context, id string, req *dto.UpdateWorksheetRequest) (*domain.Worksheet, error) {
	ws, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	upd, err := s.buildUpdate(ctx, ws, req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ApplyWorksheetUpdates(ctx, []repository.WorksheetUpdate{*upd}); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

// BulkUpdateGroup применяет один и тот же набор изменений ко всем ACTIVE
// нарядам пары (дата, группа) в одной транзакции.
func (s *worksheetService) BulkUpdateGroup(ctx context.Context, req *dto.BulkUpdateWorksheetsRequest) (int, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return 0, err
	}

	worksheets, err := s.repo.ListByDateAndGroup(ctx, date, req.GroupID)
	if err != nil {
		return 0, err
	}
	if len(worksheets) == 0 {
		return 0, domain.ErrWorksheetNotFound
	}

	var updates []repository.WorksheetUpdate
	for i := range worksheets {
		if worksheets[i].Status != domain.WorksheetActive {
			continue
		}
		full, err := s.repo.GetByID(ctx, worksheets[i].ID)
		if err != nil {
			return 0, err
		}
		upd, err := s.buildUpdate(ctx, full, &req.UpdateWorksheetRequest)
		if err != nil {
			return 0, err
		}
		updates = append(updates, *upd)
	}
	if len(updates) == 0 {
		return 0, domain.ErrWorksheetNotActive
	}

	if err := s.repo.ApplyWorksheetUpdates(ctx, updates); err != nil {
		return 0, err
	}
	return len(updates), nil
}

// buildUpdate валидирует запрошенные изменения против текущего состояния
// наряда и собирает атомарный набор записей. Сам ничего не пишет.
func (s *worksheetService) buildUpdate(ctx context.Context, ws *domain.Worksheet, req *dto.UpdateWorksheetRequest) (*repository.WorksheetUpdate, error) {
	if ws.Status != domain.WorksheetActive {
		return nil, domain.ErrWorksheetNotActive
	}

	upd := &repository.WorksheetUpdate{Worksheet: ws}

	if req.Status != nil {
		next := domain.WorksheetStatus(*req.Status)
		if !domain.KnownWorksheetStatus(next) {
			return nil, domain.ErrStatusTransition
		}
		// Из ACTIVE разрешены только терминальные переходы
		if next != domain.WorksheetCompleted && next != domain.WorksheetCancelled {
			return nil, domain.ErrStatusTransition
		}
		ws.Status = next
	}

	if req.PlannedOutputPerHour != nil {
		planned := *req.PlannedOutputPerHour
		ws.PlannedOutputPerHour = &planned
	}

	if req.ProductID != nil || req.ProcessID != nil {
		if req.ProductID != nil {
			ok, err := s.catalog.ProductExists(ctx, *req.ProductID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, domain.ErrProductNotFound
			}
		}
		if req.ProcessID != nil {
			ok, err := s.catalog.ProcessExists(ctx, *req.ProcessID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, domain.ErrProcessNotFound
			}
		}
		for i := range ws.Items {
			if req.ProductID != nil {
				ws.Items[i].ProductID = *req.ProductID
			}
			if req.ProcessID != nil {
				ws.Items[i].ProcessID = *req.ProcessID
			}
			upd.Items = append(upd.Items, &ws.Items[i])
		}
	}

	if req.ShiftType != nil && domain.ShiftType(*req.ShiftType) != ws.ShiftType {
		shift := domain.ShiftType(*req.ShiftType)
		if !domain.KnownShiftType(shift) {
			return nil, domain.ErrUnknownShiftType
		}
		ws.ShiftType = shift
		upd.Regenerate = true
		upd.Regenerated = regenerateRecords(ws, shift)
	}

	return upd, nil
}

// regenerateRecords строит часовые записи всех назначений наряда под новую
// таблицу слотов, перенося факт и статус по совпадающему hour_index.
func regenerateRecords(ws *domain.Worksheet, shift domain.ShiftType) []domain.HourRecord {
	slots := schedule.Generate(shift, ws.Date)

	var records []domain.HourRecord
	for i := range ws.Items {
		item := &ws.Items[i]
		old := make(map[int]*domain.HourRecord, len(item.Records))
		for j := range item.Records {
			old[item.Records[j].HourIndex] = &item.Records[j]
		}
		for _, slot := range slots {
			rec := domain.HourRecord{
				WorksheetItemID: item.ID,
				HourIndex:       slot.HourIndex,
				StartAt:         slot.Start,
				EndAt:           slot.End,
				ExpectedOutput:  target.IndividualExpected(item.TargetOutputPerHour, 1),
				Status:          domain.RecordPlanned,
			}
			if prev, ok := old[slot.HourIndex]; ok {
				rec.ActualOutput = prev.ActualOutput
				rec.Status = prev.Status
				rec.Note = prev.Note
			}
			records = append(records, rec)
		}
	}
	return records
}

func (s *worksheetService) checkMember(ctx context.Context, workerID, productID, processID string) error {
	ok, err := s.catalog.WorkerExists(ctx, workerID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrMemberNotFound
	}

	ok, err = s.catalog.ProductExists(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrProductNotFound
	}

	ok, err = s.catalog.ProcessExists(ctx, processID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrProcessNotFound
	}
	return nil
}
