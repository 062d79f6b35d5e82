package service

import (
	"context"

	"github.com/shift-worksheet-api/internal/domain"
	"github.com/shift-worksheet-api/internal/dto"
	"github.com/shift-worksheet-api/internal/repository"
)

// OutputService принимает пакеты фактической выработки. Пакет фиксируется
// целиком: одна битая ссылка откатывает все записи пакета. Повторная
// отправка того же пакета - чистая перезапись без побочных эффектов.
type OutputService interface {
	SubmitBatch(ctx context.Context, req *dto.BatchSubmitRequest) (*dto.BatchSubmitResponse, error)
}

type outputService struct {
	repo repository.WorksheetRepository
}

// NewOutputService создаёт новый экземпляр сервиса
func NewOutputService(repo repository.WorksheetRepository) OutputService {
	return &outputService{repo: repo}
}

func (s *outputService) SubmitBatch(ctx context.Context, req *dto.BatchSubmitRequest) (*dto.BatchSubmitResponse, error) {
	if len(req.Entries) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	// Форма пакета проверяется до любого обращения к базе
	recordIDs := make([]string, 0, len(req.Entries))
	for _, e := range req.Entries {
		if e.ActualOutput.IsNegative() {
			return nil, domain.ErrNegativeOutput
		}
		if e.Status != nil && !domain.KnownRecordStatus(domain.RecordStatus(*e.Status)) {
			return nil, domain.ErrUnknownRecordStatus
		}
		recordIDs = append(recordIDs, e.RecordID)
	}

	records, err := s.repo.GetRecordsByIDs(ctx, recordIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.HourRecord, len(records))
	for i := range records {
		byID[records[i].ID] = &records[i]
	}
	for _, id := range recordIDs {
		if _, ok := byID[id]; !ok {
			return nil, domain.ErrRecordNotFound
		}
	}

	// Наряды всех затронутых записей должны быть ACTIVE
	itemIDs := uniqueItemIDs(records)
	items, err := s.repo.GetItemsByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	itemByID := make(map[string]*domain.WorksheetItem, len(items))
	wsIDs := make([]string, 0, len(items))
	for i := range items {
		itemByID[items[i].ID] = &items[i]
		wsIDs = append(wsIDs, items[i].WorksheetID)
	}
	// Запись без назначения - осиротевшая строка, пакет не принимается
	for i := range records {
		if _, ok := itemByID[records[i].WorksheetItemID]; !ok {
			return nil, domain.ErrItemNotFound
		}
	}
	worksheets, err := s.repo.GetWorksheetsByIDs(ctx, unique(wsIDs))
	if err != nil {
		return nil, err
	}
	for i := range worksheets {
		if worksheets[i].Status != domain.WorksheetActive {
			return nil, domain.ErrWorksheetNotActive
		}
	}

	var (
		changedRecords []*domain.HourRecord
		changedItems   = make(map[string]*domain.WorksheetItem)
	)
	for _, e := range req.Entries {
		rec := byID[e.RecordID]
		rec.ActualOutput = e.ActualOutput
		if e.Status != nil {
			rec.Status = domain.RecordStatus(*e.Status)
		} else {
			rec.Status = domain.RecordFilled
		}
		if e.PlannedOutputOverride != nil {
			rec.ExpectedOutput = *e.PlannedOutputOverride
		}
		if e.Note != nil {
			rec.Note = *e.Note
		}
		changedRecords = append(changedRecords, rec)

		// Смена задания посреди смены: переназначение изделия/операции
		if e.ProductID != nil || e.ProcessID != nil {
			item := itemByID[rec.WorksheetItemID]
			if e.ProductID != nil {
				item.ProductID = *e.ProductID
			}
			if e.ProcessID != nil {
				item.ProcessID = *e.ProcessID
			}
			changedItems[item.ID] = item
		}
	}

	reassigned := make([]*domain.WorksheetItem, 0, len(changedItems))
	for _, item := range changedItems {
		reassigned = append(reassigned, item)
	}

	if err := s.repo.ApplyBatch(ctx, changedRecords, reassigned); err != nil {
		return nil, err
	}

	return &dto.BatchSubmitResponse{
		UpdatedRecords:  len(changedRecords),
		ReassignedItems: len(reassigned),
	}, nil
}

func uniqueItemIDs(records []domain.HourRecord) []string {
	ids := make([]string, 0, len(records))
	for i := range records {
		ids = append(ids, records[i].WorksheetItemID)
	}
	return unique(ids)
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	result := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
	}
	return result
}
