package jobqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendhack/dashboard/internal/pkg/testutil"
)

const jobQueueTestRedisDB = 14

// TestNewQueue tests the queue constructor
func TestNewQueue(t *testing.T) {
	tests := []struct {
		name            string
		workers         int
		expectedWorkers int
	}{
		{"Valid worker count", 5, 5},
		{"Zero workers", 0, 3},
		{"Negative workers", -1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := NewQueue(nil, tt.workers)

			assert.NotNil(t, queue)
			assert.Equal(t, tt.expectedWorkers, queue.workers)
			assert.Equal(t, tt.expectedWorkers, cap(queue.workerPool))
			assert.NotNil(t, queue.stopCh)
			assert.NotNil(t, queue.handlers)
			assert.False(t, queue.running)
		})
	}
}

func TestConstants(t *testing.T) {
	assert.Equal(t, "job:", JobKeyPrefix)
	assert.Equal(t, "job_queue", JobQueueKey)
	assert.Equal(t, "job_processing", JobProcessingKey)
	assert.Equal(t, "job_stats", JobStatsKey)

	assert.Equal(t, 3, DefaultMaxRetries)
	assert.Equal(t, 24*time.Hour, JobTTL)
}

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	q := NewQueue(testutil.RedisClient(t, jobQueueTestRedisDB), 1)
	q.retryDelay = func(int) time.Duration { return 10 * time.Millisecond }
	return q
}

// dequeue pops the next job the way a worker would
func dequeue(t *testing.T, q *Queue) *Job {
	t.Helper()
	job, err := q.dequeueJob(context.Background())
	require.NoError(t, err)
	return job
}

func TestEnqueueAndProcess(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	var got uint
	q.Register(JobTypeRefreshMetrics, func(_ context.Context, job *Job) error {
		p, err := RefreshMetricsJobPayloadFromMap(job.Payload)
		got = p.UserID
		return err
	})

	require.NoError(t, q.EnqueueRefreshMetrics(ctx, 9))
	size, err := q.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)

	job := dequeue(t, q)
	processing, err := q.GetProcessingSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), processing)

	q.processJob(ctx, job)
	assert.Equal(t, uint(9), got)

	processing, err = q.GetProcessingSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, processing)

	_, err = q.GetJob(ctx, job.ID)
	assert.Error(t, err, "completed jobs are removed")

	stats, err := q.GetJobStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[JobStatusPending])
	assert.Equal(t, int64(1), stats[JobStatusCompleted])
}

func TestProcessRetriesThenFails(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	attempts := 0
	q.Register(JobTypeMirrorMedia, func(context.Context, *Job) error {
		attempts++
		return errors.New("upstream down")
	})

	require.NoError(t, q.EnqueueMirror(ctx, "profile", 1, "https://cdn.example.com/a.jpg"))

	for i := 0; i < DefaultMaxRetries; i++ {
		job, err := q.client.BRPopLPush(ctx, JobQueueKey, JobProcessingKey, 2*time.Second).Result()
		require.NoError(t, err, "attempt %d", i+1)
		stored, err := q.GetJob(ctx, job)
		require.NoError(t, err)
		q.processJob(ctx, stored)
	}
	assert.Equal(t, DefaultMaxRetries, attempts)

	size, err := q.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)

	stats, err := q.GetJobStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[JobStatusFailed])
}

func TestProcessWithoutHandlerFailsPermanently(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	job, err := q.EnqueueJob(ctx, JobType("unknown"), nil)
	require.NoError(t, err)
	q.processJob(ctx, dequeue(t, q))

	stored, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorMsg, "no handler")
}

func TestRecoverStuck(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	job, err := q.EnqueueJob(ctx, JobTypeRefreshMetrics, RefreshMetricsJobPayload{UserID: 1}.ToMap())
	require.NoError(t, err)
	stuck := dequeue(t, q)
	stuck.MarkAsProcessing()
	q.updateJob(ctx, stuck)

	n, err := q.recoverStuck(ctx, 10*time.Minute, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n, "fresh jobs stay in processing")

	n, err = q.recoverStuck(ctx, 10*time.Minute, time.Now().Add(11*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, stored.Status)

	size, err := q.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}

func TestStartStopRunsWorkers(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	done := make(chan uint, 1)
	q.Register(JobTypeRefreshMetrics, func(_ context.Context, job *Job) error {
		p, err := RefreshMetricsJobPayloadFromMap(job.Payload)
		done <- p.UserID
		return err
	})

	q.Start()
	defer q.Stop()
	require.NoError(t, q.EnqueueRefreshMetrics(ctx, 5))

	select {
	case id := <-done:
		assert.Equal(t, uint(5), id)
	case <-time.After(5 * time.Second):
		t.Fatal("job was not processed")
	}
}
