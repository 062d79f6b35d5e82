package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shift-worksheet-api/internal/domain"
	"gorm.io/gorm"
)

// WorksheetUpdate - набор изменений одного наряда, применяемый атомарно:
// поля самого наряда, изменённые назначения и, при смене типа смены,
// полностью перегенерированный набор часовых записей.
type WorksheetUpdate struct {
	Worksheet   *domain.Worksheet
	Items       []*domain.WorksheetItem
	Regenerate  bool
	Regenerated []domain.HourRecord
}

// WorksheetRepository определяет интерфейс для работы с нарядами и их
// дочерними сущностями. Все многострочные записи идут в одной транзакции:
// наполовину записанный наряд не должен быть виден никому.
type WorksheetRepository interface {
	CreateWithChildren(ctx context.Context, ws *domain.Worksheet) error
	GetByID(ctx context.Context, id string) (*domain.Worksheet, error)
	GetLean(ctx context.Context, id string) (*domain.Worksheet, error)
	ExistsByDateAndGroup(ctx context.Context, date time.Time, groupID string) (bool, error)
	ListByDateAndGroup(ctx context.Context, date time.Time, groupID string) ([]domain.Worksheet, error)
	ApplyWorksheetUpdates(ctx context.Context, updates []WorksheetUpdate) error

	GetRecordsByIDs(ctx context.Context, ids []string) ([]domain.HourRecord, error)
	GetItemsByIDs(ctx context.Context, ids []string) ([]domain.WorksheetItem, error)
	GetWorksheetsByIDs(ctx context.Context, ids []string) ([]domain.Worksheet, error)
	ApplyBatch(ctx context.Context, records []*domain.HourRecord, items []*domain.WorksheetItem) error

	GetRecord(ctx context.Context, id string) (*domain.HourRecord, error)
	ReplaceCauses(ctx context.Context, recordID string, causes []domain.CauseEntry) error

	JoinedTimeRows(ctx context.Context) ([]RecordTimeRow, error)
	UpdateRecordTimes(ctx context.Context, recordID string, start, end time.Time) error
}

type worksheetRepository struct {
	db *gorm.DB
}

// NewWorksheetRepository создаёт новый экземпляр репозитория
func NewWorksheetRepository(db *gorm.DB) WorksheetRepository {
	return &worksheetRepository{db: db}
}

func (r *worksheetRepository) CreateWithChildren(ctx context.Context, ws *domain.Worksheet) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(ws).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateWorksheet
		}
		return err
	}
	return nil
}

func (r *worksheetRepository) GetByID(ctx context.Context, id string) (*domain.Worksheet, error) {
	var ws domain.Worksheet
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Items.Records", func(db *gorm.DB) *gorm.DB {
			return db.Order("hour_index ASC")
		}).
		Preload("Items.Records.Causes").
		First(&ws, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWorksheetNotFound
		}
		return nil, err
	}
	return &ws, nil
}

func (r *worksheetRepository) GetLean(ctx context.Context, id string) (*domain.Worksheet, error) {
	var ws domain.Worksheet
	err := r.db.WithContext(ctx).First(&ws, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWorksheetNotFound
		}
		return nil, err
	}
	return &ws, nil
}

func (r *worksheetRepository) ExistsByDateAndGroup(ctx context.Context, date time.Time, groupID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Worksheet{}).
		Where("date = ? AND group_id = ?", date, groupID).
		Count(&count).Error
	return count > 0, err
}

func (r *worksheetRepository) ListByDateAndGroup(ctx context.Context, date time.Time, groupID string) ([]domain.Worksheet, error) {
	var worksheets []domain.Worksheet
	err := r.db.WithContext(ctx).
		Where("date = ? AND group_id = ?", date, groupID).
		Order("created_at ASC").
		Find(&worksheets).Error
	return worksheets, err
}

// ApplyWorksheetUpdates применяет изменения одного или нескольких нарядов
// в одной транзакции. Перегенерация удаляет старые часовые записи наряда
// и вставляет новый набор.
func (r *worksheetRepository) ApplyWorksheetUpdates(ctx context.Context, updates []WorksheetUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, upd := range updates {
			if err := tx.Omit("Items").Save(upd.Worksheet).Error; err != nil {
				return err
			}
			for _, item := range upd.Items {
				if err := tx.Omit("Records").Save(item).Error; err != nil {
					return err
				}
			}
			if !upd.Regenerate {
				continue
			}
			itemIDs := tx.Model(&domain.WorksheetItem{}).
				Select("id").
				Where("worksheet_id = ?", upd.Worksheet.ID)
			if err := tx.Where("worksheet_item_id IN (?)", itemIDs).
				Delete(&domain.HourRecord{}).Error; err != nil {
				return err
			}
			if len(upd.Regenerated) > 0 {
				records := upd.Regenerated
				if err := tx.Create(&records).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *worksheetRepository) GetRecordsByIDs(ctx context.Context, ids []string) ([]domain.HourRecord, error) {
	var records []domain.HourRecord
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&records).Error
	return records, err
}

func (r *worksheetRepository) GetItemsByIDs(ctx context.Context, ids []string) ([]domain.WorksheetItem, error) {
	var items []domain.WorksheetItem
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *worksheetRepository) GetWorksheetsByIDs(ctx context.Context, ids []string) ([]domain.Worksheet, error) {
	var worksheets []domain.Worksheet
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&worksheets).Error
	return worksheets, err
}

// ApplyBatch фиксирует пакет изменений записей и переназначений изделий
// атомарно: либо записывается весь пакет, либо ничего.
func (r *worksheetRepository) ApplyBatch(ctx context.Context, records []*domain.HourRecord, items []*domain.WorksheetItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range records {
			if err := tx.Omit("Causes").Save(rec).Error; err != nil {
				return err
			}
		}
		for _, item := range items {
			if err := tx.Omit("Records").Save(item).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *worksheetRepository) GetRecord(ctx context.Context, id string) (*domain.HourRecord, error) {
	var rec domain.HourRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ReplaceCauses целиком заменяет набор причин записи: удаление и вставка
// в одной транзакции, без инкрементального дописывания.
func (r *worksheetRepository) ReplaceCauses(ctx context.Context, recordID string, causes []domain.CauseEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("hour_record_id = ?", recordID).
			Delete(&domain.CauseEntry{}).Error; err != nil {
			return err
		}
		if len(causes) == 0 {
			return nil
		}
		for i := range causes {
			causes[i].HourRecordID = recordID
		}
		return tx.Create(&causes).Error
	})
}
