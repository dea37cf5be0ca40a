// Package queue implements the bounded ingestion queue articles pass
// through after validation, and the worker pool that drains it into
// storage. The queue shape mirrors the donor's post queue
// (internal/processor/PostQueue.go in go-pugleaf: a buffered channel
// drained by a supervised worker loop), generalized to a typed,
// capacity-bounded queue per
// original_source/tests/integration/resource_exhaustion.rs's
// ArticleQueue API (new(capacity), submit, receiver/try_recv).
package queue

import (
	"context"
	"errors"
	"log"

	"github.com/go-while/nntp-ingestd/internal/models"
	"golang.org/x/sync/errgroup"
)

// ErrFull is returned by Submit when the queue is at capacity and the
// caller did not block for room.
var ErrFull = errors.New("queue: full")

// ErrEmpty is returned by TryRecv when no article is immediately
// available.
var ErrEmpty = errors.New("queue: empty")

// ArticleQueue is a fixed-capacity FIFO of validated articles awaiting
// storage. It is safe for concurrent Submit/TryRecv from multiple
// goroutines.
type ArticleQueue struct {
	ch chan models.QueuedArticle
}

// NewArticleQueue returns a queue that holds up to capacity articles
// before Submit starts failing with ErrFull.
func NewArticleQueue(capacity int) *ArticleQueue {
	return &ArticleQueue{ch: make(chan models.QueuedArticle, capacity)}
}

// Submit enqueues an article without blocking, failing immediately
// with ErrFull if the queue is at capacity.
func (q *ArticleQueue) Submit(a models.QueuedArticle) error {
	select {
	case q.ch <- a:
		return nil
	default:
		return ErrFull
	}
}

// SubmitWait enqueues an article, blocking until room is available or
// ctx is done.
func (q *ArticleQueue) SubmitWait(ctx context.Context, a models.QueuedArticle) error {
	select {
	case q.ch <- a:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryRecv dequeues an article without blocking, failing immediately
// with ErrEmpty if none is available.
func (q *ArticleQueue) TryRecv() (models.QueuedArticle, error) {
	select {
	case a := <-q.ch:
		return a, nil
	default:
		return models.QueuedArticle{}, ErrEmpty
	}
}

// Len reports the number of articles currently buffered.
func (q *ArticleQueue) Len() int {
	return len(q.ch)
}

// Handler stores a validated article; it is the terminal step a worker
// runs for each dequeued article.
type Handler func(ctx context.Context, a models.QueuedArticle) error

// Pool runs a fixed number of workers draining an ArticleQueue,
// supervised by an errgroup, the same lifecycle shape the donor's
// PostQueueWorker gives a single worker goroutine. A handler error is
// logged and that article is dropped without a retry; the worker keeps
// draining.
type Pool struct {
	queue   *ArticleQueue
	handle  Handler
	workers int
}

// NewPool builds a worker pool of the given size draining queue with
// handle.
func NewPool(queue *ArticleQueue, workers int, handle Handler) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{queue: queue, handle: handle, workers: workers}
}

// Run starts the pool and blocks until ctx is done and every worker
// has stopped, then returns ctx's error.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			return p.runWorker(ctx)
		})
	}
	return g.Wait()
}

func (p *Pool) runWorker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a := <-p.queue.ch:
			if err := p.handle(ctx, a); err != nil {
				log.Printf("queue: worker: article %s: %v", a.Message.MessageID(), err)
			}
		}
	}
}
