package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/finlens/ledgerscan/internal/api"
	"github.com/finlens/ledgerscan/internal/extract"
	"github.com/finlens/ledgerscan/internal/jobs"
	"github.com/finlens/ledgerscan/internal/jobs/inmemory"
	"github.com/finlens/ledgerscan/internal/recognize"
	"github.com/finlens/ledgerscan/internal/session"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serves the session API: create sessions, upload statements for
background extraction, edit the merged ledger, and download stats or
export files. All state is in memory and lost on exit.`,
		RunE: runServe,
	}

	cmd.Flags().String("port", "8080", "HTTP server port")
	cmd.Flags().String("upload-dir", "", "directory for uploaded statements (default: temp dir)")
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.upload_dir", cmd.Flags().Lookup("upload-dir"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := newLogger()

	uploadDir := viper.GetString("server.upload_dir")
	if uploadDir == "" {
		dir, err := os.MkdirTemp("", "ledgerscan-uploads-")
		if err != nil {
			return fmt.Errorf("failed to create upload directory: %w", err)
		}
		uploadDir = dir
	} else if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	extractor, err := extract.NewGeminiExtractor(ctx, viper.GetString("gemini.api_key"), viper.GetString("gemini.model"), log)
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}

	sessions := session.NewStore()
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := newExtractJobHandler(sessions, jobStore, extractor, log)

	if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
		return fmt.Errorf("failed to start job worker: %w", err)
	}
	log.Info().Msg("Job worker started")

	handler := api.NewRouter(api.Deps{
		Sessions:  sessions,
		Publisher: jobQueue,
		Jobs:      jobStore,
		UploadDir: uploadDir,
		Log:       log,
	})

	port := viper.GetString("server.port")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("port", port).Str("upload_dir", uploadDir).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	cancelWorker()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
	return nil
}

// newExtractJobHandler builds the worker callback that runs the extraction
// pipeline for one uploaded batch and merges the result into the session.
// Ledger edits made while a job is running for the same session may be
// overwritten by the merge; the session model assumes one writer at a time.
func newExtractJobHandler(
	sessions *session.Store,
	jobStore jobs.JobStore,
	extractor extract.Extractor,
	log zerolog.Logger,
) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.ExtractStatementJob) error {
		s, ok := sessions.Get(job.SessionID)
		if !ok {
			job.Error = "Session not found"
			return fmt.Errorf("session %s not found", job.SessionID)
		}

		progress := func(fileIndex, fileCount int, frac float64) {
			job.Progress = (float64(fileIndex) + frac) / float64(fileCount)
			_ = jobStore.SaveJob(ctx, job)
		}

		next, results, err := session.IngestFiles(ctx, s, job.Paths, recognize.Auto{}, extractor, progress, log)

		for _, res := range results {
			if res.Err != nil {
				job.FilesFailed++
			}
			os.Remove(res.Path)
		}

		if err != nil {
			job.Error = extract.UserMessage(err)
			return err
		}

		sessions.Put(next)

		log.Info().
			Str("job_id", job.JobID).
			Str("session_id", job.SessionID).
			Int("transactions", len(next.Transactions)).
			Int("files_failed", job.FilesFailed).
			Msg("Extraction job completed")
		return nil
	}
}
