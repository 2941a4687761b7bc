package enrichrunner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"companywatch/internal/adapters/memory"
	"companywatch/internal/domain"
	"companywatch/internal/logging"
	"companywatch/internal/ports/portsmock"
)

func submission(id string) domain.Submission {
	return domain.Submission{SubmissionID: id, Query: domain.Query{RegistrationNumber: domain.Ptr("552100554")}}
}

func startRunner(t *testing.T, run func(ctx context.Context)) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		run(ctx)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("runner did not stop")
		}
	}
}

func TestRun_ProcessesQueuedJobs(t *testing.T) {
	ctx := context.Background()
	queue := memory.NewJobQueue()
	okID, err := queue.Enqueue(ctx, submission("ok"))
	require.NoError(t, err)
	badID, err := queue.Enqueue(ctx, submission("bad"))
	require.NoError(t, err)

	var mu sync.Mutex
	seen := map[string]bool{}
	processor := ProcessorFunc(func(_ context.Context, job domain.EnrichmentJob) error {
		mu.Lock()
		seen[job.Submission.SubmissionID] = true
		mu.Unlock()
		if job.Submission.SubmissionID == "bad" {
			return errors.New("persist enrichment result: disk full")
		}
		return nil
	})

	stop := startRunner(t, func(ctx context.Context) {
		Run(ctx, queue, processor, 2, 10*time.Millisecond, logging.Nop())
	})
	assert.Eventually(t, func() bool {
		ok, _ := queue.Get(ctx, okID)
		bad, _ := queue.Get(ctx, badID)
		return ok.Status == domain.JobCompleted && bad.Status == domain.JobFailed
	}, 2*time.Second, 10*time.Millisecond)
	stop()

	bad, err := queue.Get(ctx, badID)
	require.NoError(t, err)
	require.NotNil(t, bad.LastError)
	assert.Contains(t, *bad.LastError, "disk full")
	assert.Equal(t, 1, bad.Attempts)
	mu.Lock()
	assert.True(t, seen["ok"])
	assert.True(t, seen["bad"])
	mu.Unlock()
}

func TestRun_RespectsConcurrency(t *testing.T) {
	ctx := context.Background()
	queue := memory.NewJobQueue()
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		_, err := queue.Enqueue(ctx, submission(id))
		require.NoError(t, err)
	}

	var active, peak, done atomic.Int32
	processor := ProcessorFunc(func(context.Context, domain.EnrichmentJob) error {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
		done.Add(1)
		return nil
	})

	stop := startRunner(t, func(ctx context.Context) {
		Run(ctx, queue, processor, 2, 5*time.Millisecond, logging.Nop())
	})
	assert.Eventually(t, func() bool { return done.Load() == 6 }, 2*time.Second, 10*time.Millisecond)
	stop()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRun_ClaimErrorKeepsPolling(t *testing.T) {
	jobs := new(portsmock.Jobs)
	jobs.On("ClaimNext", mock.Anything).Return(domain.EnrichmentJob{}, false, errors.New("connection reset")).Once()
	jobs.On("ClaimNext", mock.Anything).Return(domain.EnrichmentJob{ID: "j1", Submission: submission("s1")}, true, nil).Once()
	jobs.On("ClaimNext", mock.Anything).Return(domain.EnrichmentJob{}, false, nil)
	completed := make(chan struct{})
	jobs.On("MarkCompleted", mock.Anything, "j1").Return(nil).Run(func(mock.Arguments) { close(completed) })

	stop := startRunner(t, func(ctx context.Context) {
		Run(ctx, jobs, ProcessorFunc(func(context.Context, domain.EnrichmentJob) error { return nil }), 1, 5*time.Millisecond, logging.Nop())
	})
	select {
	case <-completed:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not completed")
	}
	stop()
	jobs.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_NoWorkers(t *testing.T) {
	jobs := new(portsmock.Jobs)
	Run(context.Background(), jobs, ProcessorFunc(func(context.Context, domain.EnrichmentJob) error { return nil }), 0, time.Millisecond, logging.Nop())
	jobs.AssertNotCalled(t, "ClaimNext", mock.Anything)
}
