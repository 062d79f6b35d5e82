package service

import (
	"context"

	"github.com/shift-worksheet-api/internal/domain"
	"github.com/shift-worksheet-api/internal/dto"
	"github.com/shift-worksheet-api/internal/repository"
)

// CauseService ведёт причины отклонений выработки. Набор причин записи
// заменяется всегда целиком; дельты ни с чем не сверяются - это
// свободная аннотация оператора.
type CauseService interface {
	UpsertCauses(ctx context.Context, recordID string, req *dto.UpsertCausesRequest) error
}

type causeService struct {
	repo repository.WorksheetRepository
}

// NewCauseService создаёт новый экземпляр сервиса
func NewCauseService(repo repository.WorksheetRepository) CauseService {
	return &causeService{repo: repo}
}

func (s *causeService) UpsertCauses(ctx context.Context, recordID string, req *dto.UpsertCausesRequest) error {
	for _, c := range req.Causes {
		if !domain.KnownCauseType(domain.CauseType(c.CauseType)) {
			return domain.ErrUnknownCauseType
		}
	}

	rec, err := s.repo.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}

	items, err := s.repo.GetItemsByIDs(ctx, []string{rec.WorksheetItemID})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return domain.ErrItemNotFound
	}
	ws, err := s.repo.GetLean(ctx, items[0].WorksheetID)
	if err != nil {
		return err
	}
	if ws.Status != domain.WorksheetActive {
		return domain.ErrWorksheetNotActive
	}

	causes := make([]domain.CauseEntry, 0, len(req.Causes))
	for _, c := range req.Causes {
		causes = append(causes, domain.CauseEntry{
			CauseType: domain.CauseType(c.CauseType),
			Delta:     c.Delta,
			Note:      c.Note,
		})
	}

	return s.repo.ReplaceCauses(ctx, recordID, causes)
}
