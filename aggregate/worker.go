package aggregate

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/chatpack/chatpack/blob"
	"github.com/chatpack/chatpack/errs"
	"github.com/chatpack/chatpack/pipeline"
)

// blockRequest asks the worker to compute one block. The delta carries only
// the filter categories the provider has not yet synchronized.
type blockRequest struct {
	key   BlockKey
	delta filterDelta
}

// blockResult is the worker's answer to one blockRequest.
type blockResult struct {
	key  BlockKey
	data any
	err  error
}

// backend is the provider's view of the computation side; Worker is its
// production implementation, tests substitute their own.
type backend interface {
	// Request hands one computation to the backend. Callers must keep at
	// most one request outstanding. Returns an error when the backend can
	// no longer accept work.
	Request(req blockRequest) error
	// Ready delivers exactly one value: nil once the backend has decoded
	// the dataset, or the startup error.
	Ready() <-chan error
	// Results delivers one blockResult per request, in request order. The
	// channel closes after Close.
	Results() <-chan blockResult
	// Close stops the backend and waits for its goroutine to exit.
	Close()
}

// Worker owns the decoded dataset and runs block computations on a single
// long-lived background goroutine. Computations are strictly sequential;
// combined with the provider's single-flight policy this guarantees no two
// aggregations ever run concurrently.
type Worker struct {
	requests chan blockRequest
	results  chan blockResult
	ready    chan error
	done     chan struct{}

	// aborted is closed when startup fails; nobody will ever read requests
	// after that.
	aborted chan struct{}

	wg        conc.WaitGroup
	closeOnce sync.Once
	log       zerolog.Logger
}

var _ backend = (*Worker)(nil)

// NewWorker starts the background goroutine. It decodes data asynchronously;
// listen on Ready for the outcome before sending requests.
func NewWorker(data []byte, report *pipeline.Report, logger zerolog.Logger) *Worker {
	w := &Worker{
		requests: make(chan blockRequest, 1),
		results:  make(chan blockResult, 1),
		ready:    make(chan error, 1),
		done:     make(chan struct{}),
		aborted:  make(chan struct{}),
		log:      logger.With().Str("component", "aggregate-worker").Logger(),
	}

	w.wg.Go(func() { w.run(data, report) })

	return w
}

func (w *Worker) run(data []byte, report *pipeline.Report) {
	defer close(w.results)

	ds, err := blob.Decode(data)
	if err != nil {
		// Close before delivering, so a Ready observer never races a
		// still-accepting Request.
		close(w.aborted)
		w.ready <- fmt.Errorf("decode dataset: %w", err)
		return
	}

	ctx, err := newComputeContext(ds, report)
	if err != nil {
		close(w.aborted)
		w.ready <- fmt.Errorf("prepare compute context: %w", err)
		return
	}

	w.log.Debug().
		Int("channels", ds.ChannelCount()).
		Uint32("messages", ds.MessageCount()).
		Msg("dataset decoded, worker ready")
	w.ready <- nil

	for {
		select {
		case <-w.done:
			return
		case req := <-w.requests:
			ctx.filters.apply(req.delta)

			data, err := ctx.compute(req.key)
			if err != nil {
				w.log.Error().Err(err).Str("block", string(req.key)).Msg("block computation failed")
			}

			w.results <- blockResult{key: req.key, data: data, err: err}
		}
	}
}

// Request submits one computation. Returns errs.ErrWorkerClosed after
// Close, and errs.ErrWorkerNotReady when startup failed and the worker will
// never serve requests.
func (w *Worker) Request(req blockRequest) error {
	// Checked first: the buffered send below could otherwise win the
	// select against an already-terminal worker.
	select {
	case <-w.done:
		return errs.ErrWorkerClosed
	case <-w.aborted:
		return errs.ErrWorkerNotReady
	default:
	}

	select {
	case w.requests <- req:
		return nil
	case <-w.aborted:
		return errs.ErrWorkerNotReady
	case <-w.done:
		return errs.ErrWorkerClosed
	}
}

// Ready delivers the startup outcome once.
func (w *Worker) Ready() <-chan error {
	return w.ready
}

// Results delivers computation results in request order.
func (w *Worker) Results() <-chan blockResult {
	return w.results
}

// Close stops the worker and waits for its goroutine; an in-flight
// computation runs to completion first. Close is idempotent.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
	})
}
