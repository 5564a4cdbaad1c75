package worker

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
)

// Job is one retryable unit of background work.
type Job func(ctx context.Context) error

// Queue dispatches jobs to a fixed-size worker pool with at-least-once
// semantics: a failing job is retried up to the configured number of times
// with a delay between attempts.
type Queue struct {
	pool       *ants.Pool
	maxRetries int
	retryDelay time.Duration
	wg         sync.WaitGroup
}

func NewQueue(workers, maxRetries int, retryDelay time.Duration) (*Queue, error) {
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(v interface{}) {
		log.Error().Interface("panic", v).Msg("Worker panic recovered")
	}))
	if err != nil {
		return nil, err
	}
	return &Queue{
		pool:       pool,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}, nil
}

// Enqueue submits a job for background execution. The job runs once plus up
// to maxRetries further attempts; the last error is logged and dropped after
// exhaustion, with the job itself responsible for recording terminal state.
func (q *Queue) Enqueue(name string, job Job) error {
	q.wg.Add(1)
	err := q.pool.Submit(func() {
		defer q.wg.Done()
		q.run(name, job)
	})
	if err != nil {
		q.wg.Done()
	}
	return err
}

func (q *Queue) run(name string, job Job) {
	ctx := context.Background()
	var err error
	for attempt := 0; attempt <= q.maxRetries; attempt++ {
		if attempt > 0 {
			log.Warn().
				Str("job", name).
				Int("attempt", attempt).
				Err(err).
				Msg("Retrying job")
			time.Sleep(q.retryDelay)
		}
		if err = job(ctx); err == nil {
			return
		}
	}
	log.Error().Str("job", name).Err(err).Msg("Job failed after retries")
}

// Wait blocks until all enqueued jobs have finished.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Release shuts the pool down.
func (q *Queue) Release() {
	q.pool.Release()
}
