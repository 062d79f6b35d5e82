package service_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shift-worksheet-api/internal/catalog"
	"github.com/shift-worksheet-api/internal/domain"
	"github.com/shift-worksheet-api/internal/dto"
	"github.com/shift-worksheet-api/internal/repository"
	"github.com/shift-worksheet-api/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Worksheet{},
		&domain.WorksheetItem{},
		&domain.HourRecord{},
		&domain.CauseEntry{},
	))
	return db
}

func testCatalog() catalog.Catalog {
	return catalog.NewStatic(
		[]string{"worker-1", "worker-2", "worker-3"},
		[]string{"product-a", "product-b"},
		[]string{"process-x", "process-y"},
	)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string {
	return &s
}

func findItem(ws *domain.Worksheet, itemID string) *domain.WorksheetItem {
	for i := range ws.Items {
		if ws.Items[i].ID == itemID {
			return &ws.Items[i]
		}
	}
	return nil
}

func findRecord(ws *domain.Worksheet, recordID string) *domain.HourRecord {
	for i := range ws.Items {
		for j := range ws.Items[i].Records {
			if ws.Items[i].Records[j].ID == recordID {
				return &ws.Items[i].Records[j]
			}
		}
	}
	return nil
}

func createRequest() *dto.CreateWorksheetRequest {
	return &dto.CreateWorksheetRequest{
		Date:                  "2024-03-11",
		GroupID:               "group-7",
		ShiftType:             string(domain.ShiftNormal8H),
		StandardOutputPerHour: dec("10"),
		Members: []dto.MemberAssignment{
			{WorkerID: "worker-1", ProductID: "product-a", ProcessID: "process-x", TargetOutputPerHour: dec("10")},
			{WorkerID: "worker-2", ProductID: "product-a", ProcessID: "process-x", TargetOutputPerHour: dec("12.5")},
		},
	}
}

func TestCreateWorksheetSeedsScheduleAndTargets(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	svc := service.NewWorksheetService(repo, testCatalog())
	ctx := context.Background()

	ws, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)
	require.NotEmpty(t, ws.ID)

	full, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.WorksheetActive, full.Status)
	assert.Equal(t, 2, full.TotalWorkers)
	require.NotNil(t, full.PlannedOutputPerHour)
	assert.True(t, full.PlannedOutputPerHour.Equal(dec("20")), "group target: round(10 x 2)")

	require.Len(t, full.Items, 2)
	for _, item := range full.Items {
		require.Len(t, item.Records, 7)
		for i, rec := range item.Records {
			assert.Equal(t, i+1, rec.HourIndex)
			assert.True(t, rec.ExpectedOutput.Equal(item.TargetOutputPerHour))
			assert.True(t, rec.StartAt.Before(rec.EndAt))

			y, m, d := rec.StartAt.UTC().Date()
			assert.Equal(t, "2024-03-11", fmt.Sprintf("%04d-%02d-%02d", y, m, d))
		}
	}
}

func TestCreateWorksheetPlannedOverrideWins(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	svc := service.NewWorksheetService(repo, testCatalog())

	req := createRequest()
	req.PlannedOutputPerHour = decPtr("25")

	ws, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, ws.PlannedOutputPerHour)
	assert.True(t, ws.PlannedOutputPerHour.Equal(dec("25")))
}

func TestCreateWorksheetDuplicateLeavesFirstUntouched(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	svc := service.NewWorksheetService(repo, testCatalog())
	ctx := context.Background()

	first, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	second := createRequest()
	second.StandardOutputPerHour = dec("99")
	_, err = svc.Create(ctx, second)
	assert.ErrorIs(t, err, domain.ErrDuplicateWorksheet)

	reloaded, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.PlannedOutputPerHour.Equal(dec("20")))
	assert.Len(t, reloaded.Items, 2)
}

func TestCreateWorksheetRejectsUnknownReferences(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	svc := service.NewWorksheetService(repo, testCatalog())
	ctx := context.Background()

	req := createRequest()
	req.Members[0].WorkerID = "stranger"
	_, err := svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)

	req = createRequest()
	req.Members[1].ProductID = "product-z"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	req = createRequest()
	req.ShiftType = "NIGHT_6H"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrUnknownShiftType)

	req = createRequest()
	req.Members = nil
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrEmptyMembers)
}

func TestSubmitBatchWritesOutput(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	wsSvc := service.NewWorksheetService(repo, testCatalog())
	outSvc := service.NewOutputService(repo)
	ctx := context.Background()

	ws, err := wsSvc.Create(ctx, createRequest())
	require.NoError(t, err)
	full, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)

	rec1 := full.Items[0].Records[0]
	rec2 := full.Items[1].Records[0]

	result, err := outSvc.SubmitBatch(ctx, &dto.BatchSubmitRequest{
		Entries: []dto.OutputEntry{
			{RecordID: rec1.ID, ActualOutput: dec("9"), Note: strPtr("slow start")},
			{RecordID: rec2.ID, ActualOutput: dec("14"), ProductID: strPtr("product-b")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.UpdatedRecords)
	assert.Equal(t, 1, result.ReassignedItems)

	reloaded, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)
	got1 := findRecord(reloaded, rec1.ID)
	require.NotNil(t, got1)
	assert.True(t, got1.ActualOutput.Equal(dec("9")))
	assert.Equal(t, domain.RecordFilled, got1.Status)
	assert.Equal(t, "slow start", got1.Note)
	// Переназначение изделия посреди смены
	reassigned := findItem(reloaded, rec2.WorksheetItemID)
	require.NotNil(t, reassigned)
	assert.Equal(t, "product-b", reassigned.ProductID)
}

func TestSubmitBatchAtomicRollback(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	wsSvc := service.NewWorksheetService(repo, testCatalog())
	outSvc := service.NewOutputService(repo)
	ctx := context.Background()

	ws, err := wsSvc.Create(ctx, createRequest())
	require.NoError(t, err)
	full, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)

	entries := []dto.OutputEntry{
		{RecordID: full.Items[0].Records[0].ID, ActualOutput: dec("9")},
		{RecordID: full.Items[0].Records[1].ID, ActualOutput: dec("8")},
		{RecordID: "00000000-0000-0000-0000-000000000000", ActualOutput: dec("7")},
	}

	_, err = outSvc.SubmitBatch(ctx, &dto.BatchSubmitRequest{Entries: entries})
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	// Пакет не прошёл - ни одна запись не изменилась
	reloaded, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)
	for _, item := range reloaded.Items {
		for _, rec := range item.Records {
			assert.True(t, rec.ActualOutput.IsZero())
			assert.Equal(t, domain.RecordPlanned, rec.Status)
		}
	}
}

func TestSubmitBatchIdempotentResubmit(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	wsSvc := service.NewWorksheetService(repo, testCatalog())
	outSvc := service.NewOutputService(repo)
	ctx := context.Background()

	ws, err := wsSvc.Create(ctx, createRequest())
	require.NoError(t, err)
	full, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)

	req := &dto.BatchSubmitRequest{
		Entries: []dto.OutputEntry{
			{RecordID: full.Items[0].Records[2].ID, ActualOutput: dec("11"), PlannedOutputOverride: decPtr("12")},
		},
	}

	_, err = outSvc.SubmitBatch(ctx, req)
	require.NoError(t, err)
	_, err = outSvc.SubmitBatch(ctx, req)
	require.NoError(t, err)

	reloaded, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)
	rec := findRecord(reloaded, req.Entries[0].RecordID)
	require.NotNil(t, rec)
	assert.True(t, rec.ActualOutput.Equal(dec("11")))
	assert.True(t, rec.ExpectedOutput.Equal(dec("12")))
}

func TestSubmitBatchValidation(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	outSvc := service.NewOutputService(repo)
	ctx := context.Background()

	_, err := outSvc.SubmitBatch(ctx, &dto.BatchSubmitRequest{})
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)

	_, err = outSvc.SubmitBatch(ctx, &dto.BatchSubmitRequest{
		Entries: []dto.OutputEntry{{RecordID: "x", ActualOutput: dec("-1")}},
	})
	assert.ErrorIs(t, err, domain.ErrNegativeOutput)

	_, err = outSvc.SubmitBatch(ctx, &dto.BatchSubmitRequest{
		Entries: []dto.OutputEntry{{RecordID: "x", ActualOutput: dec("1"), Status: strPtr("BROKEN")}},
	})
	assert.ErrorIs(t, err, domain.ErrUnknownRecordStatus)
}

func TestSubmitBatchRejectsOrphanedRecord(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	wsSvc := service.NewWorksheetService(repo, testCatalog())
	outSvc := service.NewOutputService(repo)
	ctx := context.Background()

	ws, err := wsSvc.Create(ctx, createRequest())
	require.NoError(t, err)
	full, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)

	// Строка назначения пропала, запись осталась висеть без родителя
	orphan := full.Items[0].Records[0]
	require.NoError(t, db.Exec("DELETE FROM worksheet_items WHERE id = ?", orphan.WorksheetItemID).Error)

	_, err = outSvc.SubmitBatch(ctx, &dto.BatchSubmitRequest{
		Entries: []dto.OutputEntry{{RecordID: orphan.ID, ActualOutput: dec("5")}},
	})
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestSubmitBatchRejectsCompletedWorksheet(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	wsSvc := service.NewWorksheetService(repo, testCatalog())
	outSvc := service.NewOutputService(repo)
	ctx := context.Background()

	ws, err := wsSvc.Create(ctx, createRequest())
	require.NoError(t, err)
	full, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)

	_, err = wsSvc.Update(ctx, ws.ID, &dto.UpdateWorksheetRequest{Status: strPtr("COMPLETED")})
	require.NoError(t, err)

	_, err = outSvc.SubmitBatch(ctx, &dto.BatchSubmitRequest{
		Entries: []dto.OutputEntry{{RecordID: full.Items[0].Records[0].ID, ActualOutput: dec("5")}},
	})
	assert.ErrorIs(t, err, domain.ErrWorksheetNotActive)
}

func TestUpdateStatusLifecycle(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	svc := service.NewWorksheetService(repo, testCatalog())
	ctx := context.Background()

	ws, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	// ACTIVE -> ACTIVE не переход
	_, err = svc.Update(ctx, ws.ID, &dto.UpdateWorksheetRequest{Status: strPtr("ACTIVE")})
	assert.ErrorIs(t, err, domain.ErrStatusTransition)

	updated, err := svc.Update(ctx, ws.ID, &dto.UpdateWorksheetRequest{Status: strPtr("CANCELLED")})
	require.NoError(t, err)
	assert.Equal(t, domain.WorksheetCancelled, updated.Status)

	// Терминальный статус закрывает любые правки
	_, err = svc.Update(ctx, ws.ID, &dto.UpdateWorksheetRequest{PlannedOutputPerHour: decPtr("30")})
	assert.ErrorIs(t, err, domain.ErrWorksheetNotActive)
}

func TestUpdateShiftTypeRegeneratesWithCarryOver(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	wsSvc := service.NewWorksheetService(repo, testCatalog())
	outSvc := service.NewOutputService(repo)
	ctx := context.Background()

	ws, err := wsSvc.Create(ctx, createRequest())
	require.NoError(t, err)
	full, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)

	filled := full.Items[0].Records[1]
	_, err = outSvc.SubmitBatch(ctx, &dto.BatchSubmitRequest{
		Entries: []dto.OutputEntry{
			{RecordID: filled.ID, ActualOutput: dec("8")},
		},
	})
	require.NoError(t, err)

	updated, err := wsSvc.Update(ctx, ws.ID, &dto.UpdateWorksheetRequest{
		ShiftType: strPtr(string(domain.ShiftExtended95H)),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftExtended95H, updated.ShiftType)

	require.Len(t, updated.Items, 2)
	for _, item := range updated.Items {
		assert.Len(t, item.Records, 10)
	}

	// Факт второго часа перенесён на новый набор записей
	owner := findItem(updated, filled.WorksheetItemID)
	require.NotNil(t, owner)
	carried := owner.Records[1]
	assert.Equal(t, 2, carried.HourIndex)
	assert.True(t, carried.ActualOutput.Equal(dec("8")))
	assert.Equal(t, domain.RecordFilled, carried.Status)
}

func TestUpdatePropagatesProductToItems(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	svc := service.NewWorksheetService(repo, testCatalog())
	ctx := context.Background()

	ws, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, ws.ID, &dto.UpdateWorksheetRequest{
		ProductID: strPtr("product-b"),
		ProcessID: strPtr("process-y"),
	})
	require.NoError(t, err)

	for _, item := range updated.Items {
		assert.Equal(t, "product-b", item.ProductID)
		assert.Equal(t, "process-y", item.ProcessID)
	}

	_, err = svc.Update(ctx, ws.ID, &dto.UpdateWorksheetRequest{ProductID: strPtr("product-z")})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestBulkUpdateGroup(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	svc := service.NewWorksheetService(repo, testCatalog())
	ctx := context.Background()

	ws, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	req := &dto.BulkUpdateWorksheetsRequest{Date: "2024-03-11", GroupID: "group-7"}
	req.PlannedOutputPerHour = decPtr("42")

	updated, err := svc.BulkUpdateGroup(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	reloaded, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.PlannedOutputPerHour.Equal(dec("42")))

	// Ни одного наряда на дату - NotFound
	missing := &dto.BulkUpdateWorksheetsRequest{Date: "2024-03-12", GroupID: "group-7"}
	_, err = svc.BulkUpdateGroup(ctx, missing)
	assert.ErrorIs(t, err, domain.ErrWorksheetNotFound)
}

func TestUpsertCausesFullReplace(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	wsSvc := service.NewWorksheetService(repo, testCatalog())
	causeSvc := service.NewCauseService(repo)
	ctx := context.Background()

	ws, err := wsSvc.Create(ctx, createRequest())
	require.NoError(t, err)
	full, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)
	recID := full.Items[0].Records[0].ID

	err = causeSvc.UpsertCauses(ctx, recID, &dto.UpsertCausesRequest{
		Causes: []dto.CauseInput{
			{CauseType: "MATERIALS", Delta: dec("-3"), Note: "late delivery"},
			{CauseType: "MACHINERY", Delta: dec("-1")},
		},
	})
	require.NoError(t, err)

	err = causeSvc.UpsertCauses(ctx, recID, &dto.UpsertCausesRequest{
		Causes: []dto.CauseInput{
			{CauseType: "QUALITY", Delta: dec("-2")},
		},
	})
	require.NoError(t, err)

	reloaded, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)
	causes := findRecord(reloaded, recID).Causes
	require.Len(t, causes, 1, "полная замена, не накопление")
	assert.Equal(t, domain.CauseQuality, causes[0].CauseType)

	err = causeSvc.UpsertCauses(ctx, recID, &dto.UpsertCausesRequest{
		Causes: []dto.CauseInput{{CauseType: "WEATHER", Delta: dec("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrUnknownCauseType)

	err = causeSvc.UpsertCauses(ctx, "00000000-0000-0000-0000-000000000000", &dto.UpsertCausesRequest{})
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestUpsertCausesRejectsInactiveWorksheet(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	wsSvc := service.NewWorksheetService(repo, testCatalog())
	causeSvc := service.NewCauseService(repo)
	ctx := context.Background()

	ws, err := wsSvc.Create(ctx, createRequest())
	require.NoError(t, err)
	full, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)
	recID := full.Items[0].Records[0].ID

	_, err = wsSvc.Update(ctx, ws.ID, &dto.UpdateWorksheetRequest{Status: strPtr("COMPLETED")})
	require.NoError(t, err)

	err = causeSvc.UpsertCauses(ctx, recID, &dto.UpsertCausesRequest{
		Causes: []dto.CauseInput{{CauseType: "MATERIALS", Delta: dec("-1")}},
	})
	assert.ErrorIs(t, err, domain.ErrWorksheetNotActive)
}

func TestRepairRecordTimes(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	wsSvc := service.NewWorksheetService(repo, testCatalog())
	maintSvc := service.NewMaintenanceService(repo, testLogger())
	ctx := context.Background()

	ws, err := wsSvc.Create(ctx, createRequest())
	require.NoError(t, err)
	full, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)

	// Портим момент: настенное время то же, дата уехала на сутки
	victim := full.Items[0].Records[3]
	badStart := victim.StartAt.AddDate(0, 0, -1)
	badEnd := victim.EndAt.AddDate(0, 0, -1)
	require.NoError(t, repo.UpdateRecordTimes(ctx, victim.ID, badStart, badEnd))

	// Вторая жертва: моменты обнулены, настенного текста нет вовсе
	wiped := full.Items[1].Records[4]
	require.NoError(t, repo.UpdateRecordTimes(ctx, wiped.ID, time.Time{}, time.Time{}))

	report, err := maintSvc.RepairRecordTimes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 14, report.Scanned)
	assert.Equal(t, 2, report.Repaired)
	assert.Empty(t, report.Failures)

	reloaded, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)
	fixed := findRecord(reloaded, victim.ID)
	require.NotNil(t, fixed)
	assert.True(t, fixed.StartAt.Equal(victim.StartAt), "момент возвращён на дату наряда")

	// Обнулённая запись восстановлена из резервного времени её слота
	restored := findRecord(reloaded, wiped.ID)
	require.NotNil(t, restored)
	assert.True(t, restored.StartAt.Equal(time.Date(2024, 3, 11, 13, 0, 0, 0, time.UTC)),
		"start %s", restored.StartAt)
	assert.True(t, restored.EndAt.Equal(restored.StartAt.Add(time.Hour)))

	// Повторный проход ничего не находит
	report, err = maintSvc.RepairRecordTimes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Repaired)
}

func TestRepairWorksheetGraph(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewWorksheetRepository(db)
	wsSvc := service.NewWorksheetService(repo, testCatalog())
	maintSvc := service.NewMaintenanceService(repo, testLogger())
	ctx := context.Background()

	ws, err := wsSvc.Create(ctx, createRequest())
	require.NoError(t, err)
	full, err := repo.GetByID(ctx, ws.ID)
	require.NoError(t, err)

	victim := full.Items[1].Records[0]
	require.NoError(t, repo.UpdateRecordTimes(ctx, victim.ID,
		victim.StartAt.AddDate(0, 0, 2), victim.EndAt.AddDate(0, 0, 2)))

	changed, err := maintSvc.RepairWorksheet(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	changed, err = maintSvc.RepairWorksheet(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
}
