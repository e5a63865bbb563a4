package anchors

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
)

type stubSource struct {
	anchors chan AnchorEvent
	hands   chan HandEvent
}

func newStubSource() *stubSource {
	return &stubSource{
		anchors: make(chan AnchorEvent, 8),
		hands:   make(chan HandEvent, 8),
	}
}

func (s *stubSource) Anchors() <-chan AnchorEvent { return s.anchors }
func (s *stubSource) Hands() <-chan HandEvent     { return s.hands }

type recordingSink struct {
	mu      sync.Mutex
	anchors []AnchorEvent
	hands   []HandEvent
	fail    error
}

func (r *recordingSink) EnqueueAnchor(ev AnchorEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.anchors = append(r.anchors, ev)
	return nil
}

func (r *recordingSink) EnqueueHand(ev HandEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.hands = append(r.hands, ev)
	return nil
}

func (r *recordingSink) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.anchors), len(r.hands)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestIngestorForwardsEvents(t *testing.T) {
	src := newStubSource()
	sink := &recordingSink{}
	in := NewIngestor(src, sink, log.Nop())

	in.Start(context.Background())
	defer in.Stop()
	require.True(t, in.Running())

	src.anchors <- AnchorEvent{ID: "plane-1", Kind: Added, Position: mgl32.Vec3{0, 0, -1}}
	src.hands <- HandEvent{Chirality: RightHand, Tracked: true, Joints: []mgl32.Vec3{{0, 1, 0}}}

	waitFor(t, func() bool {
		a, h := sink.counts()
		return a == 1 && h == 1
	})

	sink.mu.Lock()
	require.Equal(t, "plane-1", sink.anchors[0].ID)
	require.Equal(t, RightHand, sink.hands[0].Chirality)
	sink.mu.Unlock()
}

func TestIngestorStop(t *testing.T) {
	src := newStubSource()
	sink := &recordingSink{}
	in := NewIngestor(src, sink, log.Nop())

	in.Start(context.Background())
	in.Stop()
	require.False(t, in.Running())

	// Events arriving after Stop stay in the source channel.
	src.anchors <- AnchorEvent{ID: "late", Kind: Added}
	time.Sleep(20 * time.Millisecond)
	a, _ := sink.counts()
	require.Zero(t, a)

	// Stop on a stopped ingestor is a no-op, Start brings it back.
	in.Stop()
	in.Start(context.Background())
	defer in.Stop()
	waitFor(t, func() bool {
		a, _ := sink.counts()
		return a == 1
	})
}

func TestIngestorRestartCycle(t *testing.T) {
	src := newStubSource()
	sink := &recordingSink{}
	in := NewIngestor(src, sink, log.Nop())

	for i := 0; i < 3; i++ {
		in.Start(context.Background())
		require.True(t, in.Running())
		in.Stop()
		require.False(t, in.Running())
	}
}

func TestIngestorClosedSource(t *testing.T) {
	src := newStubSource()
	sink := &recordingSink{}
	in := NewIngestor(src, sink, log.Nop())

	in.Start(context.Background())
	close(src.anchors)
	close(src.hands)

	// Workers exit on channel close; Stop must not hang on them.
	done := make(chan struct{})
	go func() {
		in.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after source close")
	}
}

func TestIngestorSinkErrors(t *testing.T) {
	src := newStubSource()
	sink := &recordingSink{fail: errors.New("inbox full")}
	in := NewIngestor(src, sink, log.Nop())

	in.Start(context.Background())
	defer in.Stop()

	// A rejected event is dropped, not retried, and the worker keeps
	// draining.
	src.anchors <- AnchorEvent{ID: "dropped", Kind: Added}
	time.Sleep(10 * time.Millisecond)

	sink.mu.Lock()
	sink.fail = nil
	sink.mu.Unlock()

	src.anchors <- AnchorEvent{ID: "accepted", Kind: Added}
	waitFor(t, func() bool {
		a, _ := sink.counts()
		return a == 1
	})
	sink.mu.Lock()
	require.Equal(t, "accepted", sink.anchors[0].ID)
	sink.mu.Unlock()
}
