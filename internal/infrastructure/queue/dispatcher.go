package queue

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/storerate/rating-client/internal/core/domain"
	"github.com/storerate/rating-client/internal/core/ports"
)

const (
	defaultWorkers = 2
	channelBuffer  = 16
)

// RefreshJob asks for one collection to be refetched with the given filters.
type RefreshJob struct {
	Collection ports.Collection
	Filters    domain.Filters
}

// RefreshResult reports a finished job. Failure is nil on success.
type RefreshResult struct {
	Job     RefreshJob
	Size    int
	Failure *domain.Failure
}

type task struct {
	ctx  context.Context
	job  RefreshJob
	done chan<- RefreshResult
}

// Dispatcher routes cache refreshes to a fixed set of workers using
// consistent hashing on the collection name, so refreshes of one collection
// apply in enqueue order while different collections load concurrently.
type Dispatcher struct {
	workers []chan task
	svc     ports.SyncService
	log     zerolog.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, svc ports.SyncService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan task, numWorkers),
		svc:     svc,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan task, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Stop closes the queues and waits for in-flight jobs. Enqueue must not be
// called afterwards.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		for _, ch := range d.workers {
			close(ch)
		}
	})
	d.wg.Wait()
}

// Enqueue hands a job to the worker responsible for its collection. The
// returned channel receives exactly one result. If ctx ends before the job
// is queued, the result carries a transport failure.
func (d *Dispatcher) Enqueue(ctx context.Context, job RefreshJob) <-chan RefreshResult {
	done := make(chan RefreshResult, 1)
	select {
	case d.workers[d.shardIndex(job.Collection)] <- task{ctx: ctx, job: job, done: done}:
	case <-ctx.Done():
		done <- RefreshResult{Job: job, Failure: domain.TransportFailure()}
	}
	return done
}

// RefreshAll enqueues every job and waits for all of them. Results are in
// job order.
func (d *Dispatcher) RefreshAll(ctx context.Context, jobs ...RefreshJob) []RefreshResult {
	pending := make([]<-chan RefreshResult, len(jobs))
	for i, j := range jobs {
		pending[i] = d.Enqueue(ctx, j)
	}
	out := make([]RefreshResult, len(jobs))
	for i, ch := range pending {
		out[i] = <-ch
	}
	return out
}

// shardIndex maps a collection deterministically to a worker index.
func (d *Dispatcher) shardIndex(c ports.Collection) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(c))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan task) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(ch)
			return
		case t, ok := <-ch:
			if !ok {
				return
			}
			res := d.run(t)
			if res.Failure != nil {
				d.log.Warn().
					Str("collection", string(t.job.Collection)).
					Int("worker_id", id).
					Str("reason", res.Failure.Message).
					Msg("refresh failed")
			}
			t.done <- res
		}
	}
}

// drain answers queued jobs after shutdown so no caller blocks forever.
func (d *Dispatcher) drain(ch <-chan task) {
	for {
		select {
		case t, ok := <-ch:
			if !ok {
				return
			}
			t.done <- RefreshResult{Job: t.job, Failure: domain.TransportFailure()}
		default:
			return
		}
	}
}

func (d *Dispatcher) run(t task) RefreshResult {
	res := RefreshResult{Job: t.job}
	switch t.job.Collection {
	case ports.CollectionUsers:
		r := d.svc.FetchUsers(t.ctx, t.job.Filters)
		res.Size, res.Failure = len(r.Value), r.Failure
	case ports.CollectionStores:
		r := d.svc.FetchStores(t.ctx, t.job.Filters)
		res.Size, res.Failure = len(r.Value), r.Failure
	default:
		res.Failure = domain.NewFailure(domain.KindValidation, "unknown collection "+string(t.job.Collection))
	}
	return res
}
