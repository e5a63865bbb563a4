package anchors

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
)

// Sink receives sensing events on behalf of the controller actor. Both
// callbacks must be non-blocking enqueues; the ingestor never mutates lab
// state itself.
type Sink interface {
	EnqueueAnchor(ev AnchorEvent) error
	EnqueueHand(ev HandEvent) error
}

// Ingestor runs the background sensing workers: one draining anchor events,
// one draining hand events, both pushing into the controller inbox. The
// workers are long-lived and cancellable; leaving mixed reality stops them
// and the controller tears their entities down synchronously.
type Ingestor struct {
	source Source
	sink   Sink
	logger log.Log

	cancel context.CancelFunc
	group  *errgroup.Group
}

func NewIngestor(source Source, sink Sink, logger log.Log) *Ingestor {
	if logger == nil {
		logger = log.Provide()
	}
	return &Ingestor{source: source, sink: sink, logger: logger}
}

// Start launches the workers. Calling Start on a running ingestor is a
// no-op.
func (in *Ingestor) Start(ctx context.Context) {
	if in.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	in.cancel = cancel
	in.group, ctx = errgroup.WithContext(ctx)

	in.group.Go(func() error { return in.drainAnchors(ctx) })
	in.group.Go(func() error { return in.drainHands(ctx) })
	in.logger.Info("sensing ingestion started")
}

// Stop cancels the workers and waits for them to exit.
func (in *Ingestor) Stop() {
	if in.cancel == nil {
		return
	}
	in.cancel()
	_ = in.group.Wait()
	in.cancel = nil
	in.group = nil
	in.logger.Info("sensing ingestion stopped")
}

// Running reports whether the workers are live.
func (in *Ingestor) Running() bool { return in.cancel != nil }

func (in *Ingestor) drainAnchors(ctx context.Context) error {
	ch := in.source.Anchors()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := in.sink.EnqueueAnchor(ev); err != nil {
				in.logger.Warn("anchor event dropped", log.String("id", ev.ID), log.Error(err))
			}
		}
	}
}

func (in *Ingestor) drainHands(ctx context.Context) error {
	ch := in.source.Hands()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := in.sink.EnqueueHand(ev); err != nil {
				in.logger.Warn("hand event dropped", log.Error(err))
			}
		}
	}
}
