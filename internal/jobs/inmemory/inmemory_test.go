package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finlens/ledgerscan/internal/jobs"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.ExtractStatementJob {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("job %s never reached status %s", jobID, want)
		case <-time.After(5 * time.Millisecond):
			job, err := store.GetJob(context.Background(), jobID)
			if err == nil && job.Status == want {
				return job
			}
		}
	}
}

func TestQueue_ProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	processed := make(chan string, 1)
	require.NoError(t, q.Start(context.Background(), func(_ context.Context, job *jobs.ExtractStatementJob) error {
		processed <- job.SessionID
		return nil
	}))

	job := &jobs.ExtractStatementJob{SessionID: "s1", Paths: []string{"a.pdf", "b.pdf"}}
	require.NoError(t, q.PublishExtractStatement(context.Background(), job))

	assert.NotEmpty(t, job.JobID)
	assert.Equal(t, 2, job.FilesTotal)

	select {
	case sid := <-processed:
		assert.Equal(t, "s1", sid)
	case <-time.After(5 * time.Second):
		t.Fatal("job was never handled")
	}

	final := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	assert.Equal(t, 1.0, final.Progress)
	assert.NotNil(t, final.StartedAt)
	assert.NotNil(t, final.CompletedAt)
	assert.Empty(t, final.Error)
}

func TestQueue_FailedJobIsTerminal(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	attempts := 0
	require.NoError(t, q.Start(context.Background(), func(_ context.Context, job *jobs.ExtractStatementJob) error {
		attempts++
		job.Error = "Invalid API key. Please check your Gemini API key."
		return errors.New("credential rejected")
	}))

	job := &jobs.ExtractStatementJob{SessionID: "s1", Paths: []string{"a.pdf"}}
	require.NoError(t, q.PublishExtractStatement(context.Background(), job))

	final := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	assert.Equal(t, "Invalid API key. Please check your Gemini API key.", final.Error)

	// No retry: one attempt only, even after waiting.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, attempts)
}

func TestQueue_SequentialProcessing(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	var inFlight, maxInFlight int
	done := make(chan struct{}, 3)
	require.NoError(t, q.Start(context.Background(), func(_ context.Context, _ *jobs.ExtractStatementJob) error {
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		time.Sleep(10 * time.Millisecond)
		inFlight--
		done <- struct{}{}
		return nil
	}))

	for i := 0; i < 3; i++ {
		require.NoError(t, q.PublishExtractStatement(context.Background(), &jobs.ExtractStatementJob{SessionID: "s"}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("jobs did not finish")
		}
	}

	assert.Equal(t, 1, maxInFlight)
}

func TestQueue_ClosedRejectsPublish(t *testing.T) {
	q := NewQueue(1, NewStore())
	require.NoError(t, q.Close())

	err := q.PublishExtractStatement(context.Background(), &jobs.ExtractStatementJob{})
	assert.Error(t, err)
}

func TestStore_CopySemantics(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.ExtractStatementJob{JobID: "j1", SessionID: "s1", Status: jobs.JobStatusPending}
	require.NoError(t, store.SaveJob(ctx, job))

	// Mutating the caller's copy does not affect the stored one.
	job.Status = jobs.JobStatusFailed

	got, err := store.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusPending, got.Status)

	// Mutating a retrieved copy does not either.
	got.Status = jobs.JobStatusRunning
	again, err := store.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusPending, again.Status)
}

func TestStore_SaveRequiresID(t *testing.T) {
	store := NewStore()
	err := store.SaveJob(context.Background(), &jobs.ExtractStatementJob{})
	assert.Error(t, err)
}

func TestStore_GetMissing(t *testing.T) {
	store := NewStore()
	_, err := store.GetJob(context.Background(), "nope")
	assert.Error(t, err)
}

func TestStore_ListJobsFiltering(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.SaveJob(ctx, &jobs.ExtractStatementJob{JobID: "j1", SessionID: "s1", Status: jobs.JobStatusPending}))
	require.NoError(t, store.SaveJob(ctx, &jobs.ExtractStatementJob{JobID: "j2", SessionID: "s1", Status: jobs.JobStatusCompleted}))
	require.NoError(t, store.SaveJob(ctx, &jobs.ExtractStatementJob{JobID: "j3", SessionID: "s2", Status: jobs.JobStatusPending}))

	bySession, err := store.ListJobs(ctx, jobs.JobFilter{SessionID: "s1"})
	require.NoError(t, err)
	assert.Len(t, bySession, 2)

	byStatus, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusPending})
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	both, err := store.ListJobs(ctx, jobs.JobFilter{SessionID: "s1", Status: jobs.JobStatusPending})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "j1", both[0].JobID)

	limited, err := store.ListJobs(ctx, jobs.JobFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	offside, err := store.ListJobs(ctx, jobs.JobFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, offside)
}
