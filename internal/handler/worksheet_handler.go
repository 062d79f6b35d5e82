package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shift-worksheet-api/internal/domain"
	"github.com/shift-worksheet-api/internal/dto"
	"github.com/shift-worksheet-api/internal/service"
	"github.com/shift-worksheet-api/internal/target"
	"github.com/shift-worksheet-api/internal/wallclock"
)

type WorksheetHandler struct {
	wsService     service.WorksheetService
	outputService service.OutputService
	causeService  service.CauseService
	validator     *validator.Validate
	logger        *slog.Logger
}

func NewWorksheetHandler(
	wsService service.WorksheetService,
	outputService service.OutputService,
	causeService service.CauseService,
	logger *slog.Logger,
) *WorksheetHandler {
	return &WorksheetHandler{
		wsService:     wsService,
		outputService: outputService,
		causeService:  causeService,
		validator:     validator.New(),
		logger:        logger,
	}
}

func (h *WorksheetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWorksheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	ws, err := h.wsService.Create(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, h.toWorksheetResponse(ws))
}

func (h *WorksheetHandler) GetByID(w http.ResponseWriter, r *http.Request, id string) {
	ws, err := h.wsService.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.toWorksheetResponse(ws))
}

func (h *WorksheetHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	var req dto.UpdateWorksheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	ws, err := h.wsService.Update(r.Context(), id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.toWorksheetResponse(ws))
}

func (h *WorksheetHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkUpdateWorksheetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	updated, err := h.wsService.BulkUpdateGroup(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.BulkUpdateResponse{UpdatedWorksheets: updated})
}

func (h *WorksheetHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	result, err := h.outputService.SubmitBatch(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

func (h *WorksheetHandler) UpsertCauses(w http.ResponseWriter, r *http.Request, recordID string) {
	var req dto.UpsertCausesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	if err := h.causeService.UpsertCauses(r.Context(), recordID, &req); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toWorksheetResponse собирает ответ по графу наряда. Моменты времени
// пересекают границу только как настенный текст.
func (h *WorksheetHandler) toWorksheetResponse(ws *domain.Worksheet) dto.WorksheetResponse {
	resp := dto.WorksheetResponse{
		ID:                   ws.ID,
		Date:                 ws.Date.UTC().Format("2006-01-02"),
		GroupID:              ws.GroupID,
		ShiftType:            string(ws.ShiftType),
		Status:               string(ws.Status),
		TotalWorkers:         ws.TotalWorkers,
		PlannedOutputPerHour: ws.PlannedOutputPerHour,
	}

	for i := range ws.Items {
		resp.Items = append(resp.Items, h.toItemResponse(&ws.Items[i]))
	}
	return resp
}

func (h *WorksheetHandler) toItemResponse(item *domain.WorksheetItem) dto.WorksheetItemResponse {
	resp := dto.WorksheetItemResponse{
		ID:                  item.ID,
		WorkerID:            item.WorkerID,
		ProductID:           item.ProductID,
		ProcessID:           item.ProcessID,
		TargetOutputPerHour: item.TargetOutputPerHour,
	}

	expected := target.IndividualExpected(item.TargetOutputPerHour, len(item.Records))
	for i := range item.Records {
		rec := &item.Records[i]
		resp.ActualTotal = resp.ActualTotal.Add(rec.ActualOutput)
		resp.Records = append(resp.Records, h.toRecordResponse(rec))
	}
	resp.ExpectedTotal = expected
	resp.Efficiency = target.Efficiency(resp.ActualTotal, expected)
	return resp
}

func (h *WorksheetHandler) toRecordResponse(rec *domain.HourRecord) dto.HourRecordResponse {
	resp := dto.HourRecordResponse{
		ID:             rec.ID,
		HourIndex:      rec.HourIndex,
		StartTime:      wallclock.Clock(&rec.StartAt),
		EndTime:        wallclock.Clock(&rec.EndAt),
		ExpectedOutput: rec.ExpectedOutput,
		ActualOutput:   rec.ActualOutput,
		Efficiency:     target.Efficiency(rec.ActualOutput, rec.ExpectedOutput),
		Status:         string(rec.Status),
		Note:           rec.Note,
	}

	for _, c := range rec.Causes {
		resp.Causes = append(resp.Causes, dto.CauseResponse{
			ID:        c.ID,
			CauseType: string(c.CauseType),
			Delta:     c.Delta,
			Note:      c.Note,
		})
	}
	return resp
}

func (h *WorksheetHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrWorksheetNotFound):
		h.respondError(w, http.StatusNotFound, "worksheet not found", "")
	case errors.Is(err, domain.ErrRecordNotFound):
		h.respondError(w, http.StatusNotFound, "hour record not found", "")
	case errors.Is(err, domain.ErrItemNotFound):
		h.respondError(w, http.StatusNotFound, "worksheet item not found", "")
	case errors.Is(err, domain.ErrMemberNotFound):
		h.respondError(w, http.StatusNotFound, "worker reference not found", "")
	case errors.Is(err, domain.ErrProductNotFound):
		h.respondError(w, http.StatusNotFound, "product reference not found", "")
	case errors.Is(err, domain.ErrProcessNotFound):
		h.respondError(w, http.StatusNotFound, "process reference not found", "")
	case errors.Is(err, domain.ErrDuplicateWorksheet):
		h.respondError(w, http.StatusConflict, "worksheet already exists for this date and group", "")
	case errors.Is(err, domain.ErrWorksheetNotActive):
		h.respondError(w, http.StatusConflict, "worksheet is not in ACTIVE status", "")
	case errors.Is(err, domain.ErrStatusTransition):
		h.respondError(w, http.StatusConflict, "status transition is not allowed", "")
	case errors.Is(err, domain.ErrEmptyMembers):
		h.respondError(w, http.StatusBadRequest, "worksheet requires at least one member", "")
	case errors.Is(err, domain.ErrEmptyBatch):
		h.respondError(w, http.StatusBadRequest, "output batch is empty", "")
	case errors.Is(err, domain.ErrNegativeOutput):
		h.respondError(w, http.StatusBadRequest, "actual output cannot be negative", "")
	case errors.Is(err, domain.ErrUnknownShiftType):
		h.respondError(w, http.StatusBadRequest, "unknown shift type", "")
	case errors.Is(err, domain.ErrUnknownCauseType):
		h.respondError(w, http.StatusBadRequest, "unknown cause type", "")
	case errors.Is(err, domain.ErrUnknownRecordStatus):
		h.respondError(w, http.StatusBadRequest, "unknown hour record status", "")
	default:
		h.logger.Error("internal error", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

func (h *WorksheetHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h *WorksheetHandler) respondError(w http.ResponseWriter, status int, errMsg, details string) {
	w.WriteHeader(status)
	resp := dto.ErrorResponse{Error: errMsg}
	if details != "" {
		resp.Message = details
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode error response", slog.Any("error", err))
	}
}
