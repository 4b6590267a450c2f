// Package api wires the HTTP handlers into a single routed handler with
// the standard middleware chain applied.
package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/finlens/ledgerscan/internal/api/handlers"
	"github.com/finlens/ledgerscan/internal/api/middleware"
	"github.com/finlens/ledgerscan/internal/jobs"
	"github.com/finlens/ledgerscan/internal/session"
)

// Deps holds everything the API needs to serve requests.
type Deps struct {
	Sessions  *session.Store
	Publisher jobs.Publisher
	Jobs      jobs.JobStore
	UploadDir string
	Log       zerolog.Logger
}

// NewRouter builds the routed handler with logging, recovery, request IDs
// and CORS applied.
func NewRouter(deps Deps) http.Handler {
	sessionsHandler := handlers.NewSessionsHandler(deps.Sessions, deps.Log)
	documentsHandler := handlers.NewDocumentsHandler(deps.Sessions, deps.Publisher, deps.UploadDir, deps.Log)
	transactionsHandler := handlers.NewTransactionsHandler(deps.Sessions, deps.Log)
	statsHandler := handlers.NewStatsHandler(deps.Sessions, deps.Log)
	exportHandler := handlers.NewExportHandler(deps.Sessions, deps.Log)
	jobsHandler := handlers.NewJobsHandler(deps.Jobs, deps.Log)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/sessions", sessionsHandler.CreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", sessionsHandler.GetSession)
	mux.HandleFunc("POST /api/sessions/{id}/reset", sessionsHandler.ResetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", sessionsHandler.DeleteSession)

	mux.HandleFunc("POST /api/sessions/{id}/documents", documentsHandler.UploadDocuments)

	mux.HandleFunc("GET /api/sessions/{id}/transactions", transactionsHandler.ListTransactions)
	mux.HandleFunc("PATCH /api/sessions/{id}/transactions/{txnID}", transactionsHandler.UpdateTransaction)
	mux.HandleFunc("DELETE /api/sessions/{id}/transactions/{txnID}", transactionsHandler.DeleteTransaction)

	mux.HandleFunc("GET /api/sessions/{id}/stats", statsHandler.GetStats)
	mux.HandleFunc("GET /api/sessions/{id}/export", exportHandler.Export)

	mux.HandleFunc("GET /api/jobs", jobsHandler.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", jobsHandler.GetJob)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.Recovery(deps.Log)(
		middleware.Logger(deps.Log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)
}
