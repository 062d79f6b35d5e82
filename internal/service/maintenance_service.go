package service

import (
	"context"
	"log/slog"

	"github.com/shift-worksheet-api/internal/repository"
	"github.com/shift-worksheet-api/internal/wallclock"
)

// RepairFailure - одна запись, которую не удалось починить
type RepairFailure struct {
	RecordID string `json:"record_id"`
	Error    string `json:"error"`
}

// RepairReport - итог ремонтного прохода по временам часовых записей
type RepairReport struct {
	Scanned  int             `json:"scanned"`
	Repaired int             `json:"repaired"`
	Failures []RepairFailure `json:"failures,omitempty"`
}

// MaintenanceService - разовый ремонт повреждённых моментов времени:
// записи, чьи моменты уехали с календарной даты наряда из-за сборки в
// локальной зоне. Библиотечная процедура, не часть боевых запросов.
type MaintenanceService interface {
	RepairRecordTimes(ctx context.Context) (*RepairReport, error)
	RepairWorksheet(ctx context.Context, worksheetID string) (int, error)
}

type maintenanceService struct {
	repo   repository.WorksheetRepository
	logger *slog.Logger
}

// NewMaintenanceService создаёт новый экземпляр сервиса
func NewMaintenanceService(repo repository.WorksheetRepository, logger *slog.Logger) MaintenanceService {
	return &maintenanceService{repo: repo, logger: logger}
}

// RepairRecordTimes проходит по всем часовым записям базы: массовое
// чтение соединённых строк, чистое преобразование, точечное обновление
// только изменившихся. Ошибки отдельных записей копятся в отчёте, а не
// прерывают проход - на большом бэклоге важен частичный прогресс.
func (s *maintenanceService) RepairRecordTimes(ctx context.Context) (*RepairReport, error) {
	rows, err := s.repo.JoinedTimeRows(ctx)
	if err != nil {
		return nil, err
	}

	report := &RepairReport{Scanned: len(rows)}
	for _, row := range rows {
		start, end, fixed, fellBack := wallclock.Reanchor(row.Date, row.HourIndex, row.StartAt, row.EndAt)
		if fellBack {
			s.logger.Warn("repair: unreadable wall clock, slot default used",
				slog.String("record_id", row.RecordID),
				slog.Int("hour_index", row.HourIndex),
			)
		}
		if !fixed {
			continue
		}
		if err := s.repo.UpdateRecordTimes(ctx, row.RecordID, start, end); err != nil {
			s.logger.Warn("repair: record update failed",
				slog.String("record_id", row.RecordID),
				slog.Any("error", err),
			)
			report.Failures = append(report.Failures, RepairFailure{
				RecordID: row.RecordID,
				Error:    err.Error(),
			})
			continue
		}
		report.Repaired++
	}

	s.logger.Info("repair: pass finished",
		slog.Int("scanned", report.Scanned),
		slog.Int("repaired", report.Repaired),
		slog.Int("failed", len(report.Failures)),
	)
	return report, nil
}

// RepairWorksheet чинит времена одного наряда через обход его графа.
// Возвращает число исправленных записей.
func (s *maintenanceService) RepairWorksheet(ctx context.Context, worksheetID string) (int, error) {
	ws, err := s.repo.GetByID(ctx, worksheetID)
	if err != nil {
		return 0, err
	}

	changed, fellBack := wallclock.ReanchorWorksheet(ws)
	if fellBack > 0 {
		s.logger.Warn("repair: unreadable wall clock, slot defaults used",
			slog.String("worksheet_id", worksheetID),
			slog.Int("records", fellBack),
		)
	}
	if changed == 0 {
		return 0, nil
	}

	for i := range ws.Items {
		for j := range ws.Items[i].Records {
			rec := &ws.Items[i].Records[j]
			if err := s.repo.UpdateRecordTimes(ctx, rec.ID, rec.StartAt, rec.EndAt); err != nil {
				return 0, err
			}
		}
	}
	return changed, nil
}
