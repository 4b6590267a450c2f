// Package handlers implements the HTTP API over in-memory sessions: create
// and reset sessions, upload statements for background extraction, edit the
// merged ledger, and read derived statistics or export files.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/finlens/ledgerscan/internal/api/middleware"
	"github.com/finlens/ledgerscan/internal/export"
	"github.com/finlens/ledgerscan/internal/jobs"
	"github.com/finlens/ledgerscan/internal/model"
	"github.com/finlens/ledgerscan/internal/session"
	"github.com/finlens/ledgerscan/internal/stats"
)

// SessionsHandler handles session lifecycle endpoints.
type SessionsHandler struct {
	store *session.Store
	log   zerolog.Logger
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(store *session.Store, log zerolog.Logger) *SessionsHandler {
	return &SessionsHandler{store: store, log: log}
}

// CreateSession handles POST /api/sessions
func (h *SessionsHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.store.Create()
	h.log.Info().Str("session_id", s.ID).Msg("Session created")
	middleware.WriteJSON(w, http.StatusCreated, s)
}

// GetSession handles GET /api/sessions/{id}
func (h *SessionsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store.Get(r.PathValue("id"))
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, s)
}

// ResetSession handles POST /api/sessions/{id}/reset
func (h *SessionsHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	s, _, exists := h.store.Mutate(r.PathValue("id"), func(cur session.Session) (session.Session, bool) {
		return cur.Reset(), true
	})
	if !exists {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}
	h.log.Info().Str("session_id", s.ID).Msg("Session reset")
	middleware.WriteJSON(w, http.StatusOK, s)
}

// DeleteSession handles DELETE /api/sessions/{id}
func (h *SessionsHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.store.Get(id); !ok {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}
	h.store.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// DocumentsHandler accepts statement uploads and enqueues extraction.
type DocumentsHandler struct {
	store     *session.Store
	publisher jobs.Publisher
	uploadDir string
	log       zerolog.Logger
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(store *session.Store, publisher jobs.Publisher, uploadDir string, log zerolog.Logger) *DocumentsHandler {
	return &DocumentsHandler{
		store:     store,
		publisher: publisher,
		uploadDir: uploadDir,
		log:       log,
	}
}

// maxUploadMemory bounds the multipart parse buffer; larger parts spill to
// temp files.
const maxUploadMemory = 32 << 20

// UploadDocuments handles POST /api/sessions/{id}/documents. It saves the
// multipart "files" parts to the upload directory in form order and enqueues
// one extraction job for the whole batch.
func (h *DocumentsHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if _, ok := h.store.Get(sessionID); !ok {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "At least one file is required")
		return
	}

	paths := make([]string, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		path, err := h.saveUpload(fh)
		if err != nil {
			h.log.Error().Err(err).Str("filename", fh.Filename).Msg("Failed to save upload")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to save uploaded file")
			return
		}
		paths = append(paths, path)
	}

	job := &jobs.ExtractStatementJob{
		SessionID: sessionID,
		Paths:     paths,
	}
	if err := h.publisher.PublishExtractStatement(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to enqueue extraction job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue extraction job")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Str("session_id", sessionID).
		Int("files", len(paths)).
		Msg("Extraction job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":     job.JobID,
		"session_id": sessionID,
		"status":     string(job.Status),
		"files":      len(paths),
	})
}

func (h *DocumentsHandler) saveUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	// Keep the original extension so the recognizer can dispatch on it.
	name := uuid.NewString() + "-" + filepath.Base(fh.Filename)
	path := filepath.Join(h.uploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return path, nil
}

// TransactionsHandler handles ledger edit endpoints.
type TransactionsHandler struct {
	store *session.Store
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(store *session.Store, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: store, log: log}
}

// ListTransactions handles GET /api/sessions/{id}/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store.Get(r.PathValue("id"))
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	transactions := s.Transactions
	if transactions == nil {
		transactions = []model.TransactionRecord{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// UpdateTransaction handles PATCH /api/sessions/{id}/transactions/{txnID}
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	txnID := r.PathValue("txnID")

	var patch model.TransactionUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, applied, exists := h.store.Mutate(r.PathValue("id"), func(cur session.Session) (session.Session, bool) {
		return cur.Update(txnID, patch)
	})
	if !exists {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}
	if !applied {
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	for _, t := range s.Transactions {
		if t.ID == txnID {
			middleware.WriteJSON(w, http.StatusOK, t)
			return
		}
	}
}

// DeleteTransaction handles DELETE /api/sessions/{id}/transactions/{txnID}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	txnID := r.PathValue("txnID")

	_, applied, exists := h.store.Mutate(r.PathValue("id"), func(cur session.Session) (session.Session, bool) {
		return cur.Delete(txnID)
	})
	if !exists {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}
	if !applied {
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatsHandler serves derived statistics.
type StatsHandler struct {
	store *session.Store
	log   zerolog.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(store *session.Store, log zerolog.Logger) *StatsHandler {
	return &StatsHandler{store: store, log: log}
}

// GetStats handles GET /api/sessions/{id}/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store.Get(r.PathValue("id"))
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	st := stats.Compute(s.Transactions)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"stats":   st,
		"summary": stats.SummaryText(st, s.BankName, s.Period),
	})
}

// ExportHandler serves ledger downloads.
type ExportHandler struct {
	store *session.Store
	log   zerolog.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(store *session.Store, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{store: store, log: log}
}

// Export handles GET /api/sessions/{id}/export?format=csv|xlsx|json
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store.Get(r.PathValue("id"))
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	var err error
	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
		writer := &export.CSVWriter{IncludeMetadata: true}
		err = writer.Write(w, s.Transactions, s.BankName, s.Period)
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.xlsx"`)
		writer := &export.XLSXWriter{}
		err = writer.Write(w, s.Transactions, s.BankName, s.Period)
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.json"`)
		writer := &export.JSONWriter{}
		err = writer.Write(w, s.Transactions, s.BankName, s.Period)
	default:
		middleware.WriteError(w, http.StatusBadRequest, "Unsupported export format: "+format)
		return
	}

	if err != nil {
		// Headers are already out; all we can do is log.
		h.log.Error().Err(err).Str("format", format).Msg("Export failed mid-stream")
	}
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		SessionID: query.Get("session_id"),
		Status:    jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
