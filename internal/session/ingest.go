package session

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/finlens/ledgerscan/internal/extract"
	"github.com/finlens/ledgerscan/internal/model"
	"github.com/finlens/ledgerscan/internal/recognize"
)

// ProgressFunc reports multi-file progress: the index of the file currently
// being processed, the total count, and the fractional progress within that
// file.
type ProgressFunc func(fileIndex, fileCount int, frac float64)

// FileResult records the outcome of one file in a batch. Err is nil when
// the file's transactions were merged.
type FileResult struct {
	Path string
	Err  error
}

// IngestFiles recognizes and extracts each file in order, merging
// successful batches into the session. Files are processed strictly
// sequentially; each extraction call is awaited before the next begins, so
// progress reporting stays well-defined and the remote service sees at most
// one in-flight call.
//
// A failed file is dropped and logged; the operation fails only when every
// file fails, and then the prior session is returned untouched.
// FilesProcessed advances by the attempted count, so a later batch never
// reuses an ID offset even when an earlier file failed.
func IngestFiles(
	ctx context.Context,
	s Session,
	paths []string,
	rec recognize.Recognizer,
	ex extract.Extractor,
	progress ProgressFunc,
	log zerolog.Logger,
) (Session, []FileResult, error) {
	if len(paths) == 0 {
		return s, nil, nil
	}

	next := s
	results := make([]FileResult, 0, len(paths))
	succeeded := 0

	for i, path := range paths {
		if progress != nil {
			progress(i, len(paths), 0)
		}

		offset := next.FilesProcessed
		batch, err := ingestOne(ctx, path, offset, rec, ex, func(frac float64) {
			if progress != nil {
				progress(i, len(paths), frac)
			}
		})
		next.FilesProcessed = offset + 1

		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("File dropped from batch")
			results = append(results, FileResult{Path: path, Err: err})
			continue
		}

		next = next.Merge(batch)
		succeeded++
		results = append(results, FileResult{Path: path})

		log.Info().
			Str("file", path).
			Int("transactions", len(batch.Transactions)).
			Int("batch_offset", offset).
			Msg("File merged into session")

		if progress != nil {
			progress(i, len(paths), 1)
		}
	}

	if succeeded == 0 {
		return s, results, fmt.Errorf("ingest: all %d files failed: %w", len(paths), results[0].Err)
	}
	return next, results, nil
}

func ingestOne(
	ctx context.Context,
	path string,
	batchOffset int,
	rec recognize.Recognizer,
	ex extract.Extractor,
	progress recognize.ProgressFunc,
) (*model.ExtractionResult, error) {
	text, err := rec.Recognize(ctx, path, progress)
	if err != nil {
		return nil, fmt.Errorf("recognize %s: %v: %w", filepath.Base(path), err, extract.ErrUpstreamInput)
	}
	return ex.Extract(ctx, text, batchOffset)
}
