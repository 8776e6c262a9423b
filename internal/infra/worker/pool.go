package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"subscription-storefront/internal/domain/ports/adapter"
	"subscription-storefront/internal/infra/metrics"
)

type Task func(ctx context.Context) error

// Pool runs submitted tasks on a fixed number of goroutines. Submit never
// blocks; when the queue is full the task is rejected and the caller decides
// whether to retry or fall back to a synchronous send.
type Pool struct {
	wg   sync.WaitGroup
	jobs chan Task
	quit chan struct{}
	n    int
	log  *zerolog.Logger
}

func NewPool(workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	poolLog := logger.With().Str("component", "WorkerPool").Logger()
	return &Pool{
		jobs: make(chan Task, workers*4),
		quit: make(chan struct{}),
		n:    workers,
		log:  &poolLog,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.jobs:
					if task == nil {
						continue
					}
					metrics.SetMailQueueDepth(len(p.jobs))
					if err := task(ctx); err != nil {
						p.log.Error().Err(err).Int("worker", id).Msg("task failed")
					}
				}
			}
		}(i)
	}
}

func (p *Pool) Stop() {
	close(p.quit)
	p.wg.Wait()
}

func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case p.jobs <- task:
		metrics.SetMailQueueDepth(len(p.jobs))
		return nil
	default:
		return errors.New("worker queue full")
	}
}

var _ adapter.Mailer = (*QueuedMailer)(nil)

// QueuedMailer sends mail through the pool so request handlers never wait on
// the mail provider. When the queue is saturated it sends inline instead of
// dropping the message.
type QueuedMailer struct {
	inner adapter.Mailer
	pool  *Pool
	log   *zerolog.Logger
}

func NewQueuedMailer(inner adapter.Mailer, pool *Pool, logger *zerolog.Logger) *QueuedMailer {
	qmLog := logger.With().Str("component", "QueuedMailer").Logger()
	return &QueuedMailer{inner: inner, pool: pool, log: &qmLog}
}

func (q *QueuedMailer) Send(ctx context.Context, mail adapter.Mail) error {
	err := q.pool.Submit(func(taskCtx context.Context) error {
		if err := q.inner.Send(taskCtx, mail); err != nil {
			metrics.IncMailSent("error")
			return err
		}
		metrics.IncMailSent("ok")
		return nil
	})
	if err != nil {
		q.log.Warn().Err(err).Msg("queue full, sending inline")
		if err := q.inner.Send(ctx, mail); err != nil {
			metrics.IncMailSent("error")
			return err
		}
		metrics.IncMailSent("ok")
	}
	return nil
}
