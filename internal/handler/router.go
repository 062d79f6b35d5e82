package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shift-worksheet-api/internal/middleware"
)

// Router настраивает маршруты API
type Router struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	wsHandler *WorksheetHandler
}

// NewRouter создаёт новый роутер
func NewRouter(wsHandler *WorksheetHandler, logger *slog.Logger) *Router {
	return &Router{
		mux:       http.NewServeMux(),
		logger:    logger,
		wsHandler: wsHandler,
	}
}

// Setup настраивает все маршруты
func (r *Router) Setup() http.Handler {
	r.mux.HandleFunc("/worksheets", r.worksheetsRouter)
	r.mux.HandleFunc("/worksheets/", r.worksheetsRouter)
	r.mux.HandleFunc("/output/batch", r.outputRouter)
	r.mux.HandleFunc("/records/", r.recordsRouter)

	// Health check
	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Применяем middleware
	handler := middleware.ContentType(r.mux)
	handler = middleware.Logger(r.logger)(handler)
	handler = middleware.Recoverer(r.logger)(handler)

	return handler
}

// worksheetsRouter обрабатывает все запросы к /worksheets
func (r *Router) worksheetsRouter(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/worksheets")
	path = strings.Trim(path, "/")

	// POST /worksheets - создание наряда
	if path == "" && req.Method == http.MethodPost {
		r.wsHandler.Create(w, req)
		return
	}

	// POST /worksheets/bulk - групповое обновление
	if path == "bulk" && req.Method == http.MethodPost {
		r.wsHandler.BulkUpdate(w, req)
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) == 1 && parts[0] != "" {
		// /worksheets/{id}
		switch req.Method {
		case http.MethodGet:
			r.wsHandler.GetByID(w, req, parts[0])
		case http.MethodPatch:
			r.wsHandler.Update(w, req, parts[0])
		default:
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		}
		return
	}

	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}

// outputRouter обрабатывает пакеты фактической выработки
func (r *Router) outputRouter(w http.ResponseWriter, req *http.Request) {
	if req.Method == http.MethodPost {
		r.wsHandler.SubmitBatch(w, req)
		return
	}
	http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
}

// recordsRouter обрабатывает запросы к /records/{id}/causes
func (r *Router) recordsRouter(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/records/")
	path = strings.Trim(path, "/")

	parts := strings.Split(path, "/")
	if len(parts) == 2 && parts[1] == "causes" && parts[0] != "" {
		if req.Method == http.MethodPut {
			r.wsHandler.UpsertCauses(w, req, parts[0])
			return
		}
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}
