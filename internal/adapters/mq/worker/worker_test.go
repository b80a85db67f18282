package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/internal/adapters/mq/queue"
	"github.com/okian/touchdown/internal/adapters/mq/worker"
	"github.com/okian/touchdown/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan *queue.Job
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan *queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan *queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	close(mq.jobs)
	return nil
}

type mockHandler struct {
	mu      sync.Mutex
	handled []string
	errs    map[string]error
	block   chan struct{}
}

func newMockHandler() *mockHandler {
	return &mockHandler{errs: make(map[string]error)}
}

func (h *mockHandler) Handle(ctx context.Context, job model.GameJob) error {
	if h.block != nil {
		select {
		case <-h.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if job.GameID == "panic" {
		panic("boom")
	}
	h.handled = append(h.handled, job.GameID)
	return h.errs[job.GameID]
}

func (h *mockHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.handled...)
}

func submit(q *mockQueue, id string) <-chan error {
	res := make(chan error, 1)
	q.jobs <- queue.NewJob(model.GameJob{CycleID: "c1", GameID: id}, func(err error) { res <- err })
	return res
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		q := newMockQueue()
		h := newMockHandler()
		w := worker.NewInMemoryWorker(q, h, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job succeeds", func() {
			res := submit(q, "401")

			convey.Convey("Then the handler ran and the producer is told", func() {
				convey.So(<-res, convey.ShouldBeNil)
				convey.So(h.seen(), convey.ShouldResemble, []string{"401"})
			})
		})

		convey.Convey("When a job fails", func() {
			h.errs["402"] = errors.New("feed unavailable")
			res := submit(q, "402")

			convey.Convey("Then the error reaches the producer", func() {
				convey.So(<-res, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When a handler panics", func() {
			res := submit(q, "panic")
			next := submit(q, "403")

			convey.Convey("Then the job fails and the worker keeps going", func() {
				convey.So(<-res, convey.ShouldNotBeNil)
				convey.So(<-next, convey.ShouldBeNil)
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer shutdownCancel()

			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a worker with a job timeout", t, func() {
		q := newMockQueue()
		h := newMockHandler()
		h.block = make(chan struct{})
		w := worker.NewInMemoryWorker(q, h, worker.WithJobTimeout(20*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		res := submit(q, "slow")

		convey.Convey("Then a stuck job is cancelled", func() {
			convey.So(errors.Is(<-res, context.DeadlineExceeded), convey.ShouldBeTrue)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		h := newMockHandler()
		p := worker.NewPool(3, q, h)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p.Start(ctx)

		convey.So(p.Size(), convey.ShouldEqual, 3)

		convey.Convey("When a cycle enqueues several games", func() {
			var wg sync.WaitGroup
			ids := []string{"1", "2", "3", "4", "5"}
			for _, id := range ids {
				wg.Add(1)
				j := queue.NewJob(model.GameJob{CycleID: "c1", GameID: id}, func(error) { wg.Done() })
				convey.So(q.Enqueue(ctx, j), convey.ShouldBeNil)
			}
			wg.Wait()

			convey.Convey("Then every game is handled once", func() {
				convey.So(h.seen(), convey.ShouldHaveLength, len(ids))
				convey.So(p.Active(), convey.ShouldEqual, 0)
			})

			convey.Convey("And the pool shuts down cleanly", func() {
				convey.So(p.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		p := worker.NewPool(0, newMockQueue(), newMockHandler())

		convey.So(p.Size(), convey.ShouldBeGreaterThan, 0)
	})
}
