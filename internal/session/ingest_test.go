package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finlens/ledgerscan/internal/extract"
	"github.com/finlens/ledgerscan/internal/model"
	"github.com/finlens/ledgerscan/internal/recognize"
)

// fakeRecognizer returns canned text per path.
type fakeRecognizer struct {
	texts map[string]string
	errs  map[string]error
}

func (f *fakeRecognizer) Recognize(_ context.Context, path string, progress recognize.ProgressFunc) (string, error) {
	if err, ok := f.errs[path]; ok {
		return "", err
	}
	if progress != nil {
		progress(1)
	}
	return f.texts[path], nil
}

// fakeExtractor yields one record per call, tagged with the batch offset so
// tests can observe ID bookkeeping. Texts listed in fail produce a parse
// failure.
type fakeExtractor struct {
	fail  map[string]bool
	calls []int
}

func (f *fakeExtractor) Extract(_ context.Context, recognized string, batchOffset int) (*model.ExtractionResult, error) {
	f.calls = append(f.calls, batchOffset)
	if f.fail[recognized] {
		return nil, fmt.Errorf("extract: %w", extract.ErrParseFailure)
	}
	return &model.ExtractionResult{
		Transactions: []model.TransactionRecord{
			{ID: fmt.Sprintf("txn_0_%d_0", batchOffset), Description: recognized},
		},
	}, nil
}

func TestIngestFiles_MergesAllInOrder(t *testing.T) {
	rec := &fakeRecognizer{texts: map[string]string{"one.pdf": "first", "two.pdf": "second"}}
	ex := &fakeExtractor{}

	s, results, err := IngestFiles(context.Background(), New(), []string{"one.pdf", "two.pdf"}, rec, ex, nil, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, s.Transactions, 2)
	assert.Equal(t, "first", s.Transactions[0].Description)
	assert.Equal(t, "second", s.Transactions[1].Description)
	assert.Equal(t, 2, s.FilesProcessed)
	assert.Equal(t, []int{0, 1}, ex.calls)

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[1].Err)
}

func TestIngestFiles_PartialFailureDropsFileOnly(t *testing.T) {
	rec := &fakeRecognizer{texts: map[string]string{"good.pdf": "good", "bad.pdf": "bad"}}
	ex := &fakeExtractor{fail: map[string]bool{"bad": true}}

	s, results, err := IngestFiles(context.Background(), New(), []string{"good.pdf", "bad.pdf"}, rec, ex, nil, zerolog.Nop())
	require.NoError(t, err)

	// The failed file is dropped, but still counts toward the offset.
	require.Len(t, s.Transactions, 1)
	assert.Equal(t, "good", s.Transactions[0].Description)
	assert.Equal(t, 2, s.FilesProcessed)

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, extract.ErrParseFailure)
}

func TestIngestFiles_OffsetsNeverCollide(t *testing.T) {
	rec := &fakeRecognizer{texts: map[string]string{"a.pdf": "a", "b.pdf": "bad", "c.pdf": "c"}}
	ex := &fakeExtractor{fail: map[string]bool{"bad": true}}

	s, _, err := IngestFiles(context.Background(), New(), []string{"a.pdf", "b.pdf"}, rec, ex, nil, zerolog.Nop())
	require.NoError(t, err)

	// Second batch starts after the failed attempt, so the offset advances
	// past it and no ID repeats.
	s, _, err = IngestFiles(context.Background(), s, []string{"c.pdf"}, rec, ex, nil, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, ex.calls)
	assert.Equal(t, 3, s.FilesProcessed)

	seen := make(map[string]bool)
	for _, txn := range s.Transactions {
		assert.False(t, seen[txn.ID], "duplicate ID %s", txn.ID)
		seen[txn.ID] = true
	}
}

func TestIngestFiles_AllFailedLeavesSessionUntouched(t *testing.T) {
	prior := New().Merge(&model.ExtractionResult{
		Transactions: []model.TransactionRecord{{ID: "keep", Description: "existing"}},
	})
	prior.FilesProcessed = 1

	rec := &fakeRecognizer{
		texts: map[string]string{"b.pdf": "bad"},
		errs:  map[string]error{"a.pdf": errors.New("unreadable scan")},
	}
	ex := &fakeExtractor{fail: map[string]bool{"bad": true}}

	s, results, err := IngestFiles(context.Background(), prior, []string{"a.pdf", "b.pdf"}, rec, ex, nil, zerolog.Nop())
	require.Error(t, err)

	// Prior state survives entirely, counter included.
	assert.Equal(t, prior, s)
	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, extract.ErrUpstreamInput)
	assert.ErrorIs(t, results[1].Err, extract.ErrParseFailure)
}

func TestIngestFiles_RecognitionFailureIsUpstream(t *testing.T) {
	rec := &fakeRecognizer{errs: map[string]error{"a.pdf": errors.New("no text layer")}}
	ex := &fakeExtractor{}

	_, results, err := IngestFiles(context.Background(), New(), []string{"a.pdf"}, rec, ex, nil, zerolog.Nop())
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, extract.ErrUpstreamInput)
	assert.Empty(t, ex.calls)
}

func TestIngestFiles_NoPaths(t *testing.T) {
	s, results, err := IngestFiles(context.Background(), New(), nil, &fakeRecognizer{}, &fakeExtractor{}, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Zero(t, s.FilesProcessed)
}

func TestIngestFiles_ProgressReported(t *testing.T) {
	rec := &fakeRecognizer{texts: map[string]string{"a.pdf": "a", "b.pdf": "b"}}
	ex := &fakeExtractor{}

	type tick struct {
		index int
		count int
		frac  float64
	}
	var ticks []tick

	_, _, err := IngestFiles(context.Background(), New(), []string{"a.pdf", "b.pdf"}, rec, ex,
		func(fileIndex, fileCount int, frac float64) {
			ticks = append(ticks, tick{fileIndex, fileCount, frac})
		}, zerolog.Nop())
	require.NoError(t, err)

	require.NotEmpty(t, ticks)
	assert.Equal(t, tick{0, 2, 0}, ticks[0])
	assert.Equal(t, tick{1, 2, 1}, ticks[len(ticks)-1])
}
