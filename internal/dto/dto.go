package dto

import (
	"github.com/shopspring/decimal"
)

// MemberAssignment - назначение одного работника при создании наряда
type MemberAssignment struct {
	WorkerID            string          `json:"worker_id" validate:"required,min=1,max=64"`
	ProductID           string          `json:"product_id" validate:"required,min=1,max=64"`
	ProcessID           string          `json:"process_id" validate:"required,min=1,max=64"`
	TargetOutputPerHour decimal.Decimal `json:"target_output_per_hour" validate:"required"`
}

// CreateWorksheetRequest - запрос на создание наряда со всеми назначениями
type CreateWorksheetRequest struct {
	Date                  string             `json:"date" validate:"required,datetime=2006-01-02"`
	GroupID               string             `json:"group_id" validate:"required,min=1,max=64"`
	ShiftType             string             `json:"shift_type" validate:"required"`
	StandardOutputPerHour decimal.Decimal    `json:"standard_output_per_hour" validate:"required"`
	PlannedOutputPerHour  *decimal.Decimal   `json:"planned_output_per_hour"`
	Members               []MemberAssignment `json:"members" validate:"required,dive"`
}

// UpdateWorksheetRequest - запрос на обновление наряда; nil-поля не трогаются
type UpdateWorksheetRequest struct {
	Status               *string          `json:"status" validate:"omitempty,min=1"`
	ShiftType            *string          `json:"shift_type" validate:"omitempty,min=1"`
	PlannedOutputPerHour *decimal.Decimal `json:"planned_output_per_hour"`
	ProductID            *string          `json:"product_id" validate:"omitempty,min=1,max=64"`
	ProcessID            *string          `json:"process_id" validate:"omitempty,min=1,max=64"`
}

// BulkUpdateWorksheetsRequest - групповое обновление всех нарядов
// пары (дата, группа)
type BulkUpdateWorksheetsRequest struct {
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	GroupID string `json:"group_id" validate:"required,min=1,max=64"`
	UpdateWorksheetRequest
}

// OutputEntry - одна строка пакета фактической выработки
type OutputEntry struct {
	RecordID              string           `json:"record_id" validate:"required,uuid4"`
	ActualOutput          decimal.Decimal  `json:"actual_output"`
	Status                *string          `json:"status" validate:"omitempty,min=1"`
	PlannedOutputOverride *decimal.Decimal `json:"planned_output_override"`
	ProductID             *string          `json:"product_id" validate:"omitempty,min=1,max=64"`
	ProcessID             *string          `json:"process_id" validate:"omitempty,min=1,max=64"`
	Note                  *string          `json:"note" validate:"omitempty,max=500"`
}

// BatchSubmitRequest - пакет фактической выработки; фиксируется целиком
// или не фиксируется вовсе
type BatchSubmitRequest struct {
	Entries []OutputEntry `json:"entries" validate:"required,dive"`
}

// CauseInput - одна причина отклонения выработки
type CauseInput struct {
	CauseType string          `json:"cause_type" validate:"required"`
	Delta     decimal.Decimal `json:"delta"`
	Note      string          `json:"note" validate:"omitempty,max=500"`
}

// UpsertCausesRequest - полная замена набора причин часовой записи
type UpsertCausesRequest struct {
	Causes []CauseInput `json:"causes" validate:"dive"`
}

// CauseResponse - причина отклонения в ответе
type CauseResponse struct {
	ID        string          `json:"id"`
	CauseType string          `json:"cause_type"`
	Delta     decimal.Decimal `json:"delta"`
	Note      string          `json:"note,omitempty"`
}

// HourRecordResponse - часовая запись в ответе. Моменты времени наружу
// уходят только как настенный текст "HH:MM:SS".
type HourRecordResponse struct {
	ID             string          `json:"id"`
	HourIndex      int             `json:"hour_index"`
	StartTime      *string         `json:"start_time"`
	EndTime        *string         `json:"end_time"`
	ExpectedOutput decimal.Decimal `json:"expected_output"`
	ActualOutput   decimal.Decimal `json:"actual_output"`
	Efficiency     decimal.Decimal `json:"efficiency"`
	Status         string          `json:"status"`
	Note           string          `json:"note,omitempty"`
	Causes         []CauseResponse `json:"causes,omitempty"`
}

// WorksheetItemResponse - назначение работника в ответе
type WorksheetItemResponse struct {
	ID                  string               `json:"id"`
	WorkerID            string               `json:"worker_id"`
	ProductID           string               `json:"product_id"`
	ProcessID           string               `json:"process_id"`
	TargetOutputPerHour decimal.Decimal      `json:"target_output_per_hour"`
	ExpectedTotal       decimal.Decimal      `json:"expected_total"`
	ActualTotal         decimal.Decimal      `json:"actual_total"`
	Efficiency          decimal.Decimal      `json:"efficiency"`
	Records             []HourRecordResponse `json:"records,omitempty"`
}

// WorksheetResponse - наряд в ответе. Абсолютные моменты наружу не
// отдаются: дата как "YYYY-MM-DD", времена записей как настенный текст.
type WorksheetResponse struct {
	ID                   string                  `json:"id"`
	Date                 string                  `json:"date"`
	GroupID              string                  `json:"group_id"`
	ShiftType            string                  `json:"shift_type"`
	Status               string                  `json:"status"`
	TotalWorkers         int                     `json:"total_workers"`
	PlannedOutputPerHour *decimal.Decimal        `json:"planned_output_per_hour"`
	Items                []WorksheetItemResponse `json:"items,omitempty"`
}

// BatchSubmitResponse - итог фиксации пакета
type BatchSubmitResponse struct {
	UpdatedRecords  int `json:"updated_records"`
	ReassignedItems int `json:"reassigned_items"`
}

// BulkUpdateResponse - итог группового обновления
type BulkUpdateResponse struct {
	UpdatedWorksheets int `json:"updated_worksheets"`
}

// ErrorResponse - стандартный ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
