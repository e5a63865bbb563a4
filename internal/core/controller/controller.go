package controller

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/anchors"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/environment"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/events/bus"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/geometry"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/gesture"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/objects"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/physics"
	"github.com/Lucalangella/NEWTON-LAB/pkg/sequence"
)

var ErrInboxFull = errors.New("controller inbox full")

// MeshLoader is the external asset collaborator. A load failure means no
// object is created; there is no retry.
type MeshLoader interface {
	Load(path string) (*geometry.TriMesh, error)
}

const (
	inboxCapacity = 256
	spawnJitter   = 0.15
)

// spawnAnchor is where new objects appear and where void-lost objects
// teleport back to.
var spawnAnchor = mgl32.Vec3{0, 1.5, -2}

// Controller is the single logical actor of the lab. Every mutation of
// objects, sessions and config happens inside Tick, which drains the
// command inbox, runs gestures and broadcast effects, then publishes an
// immutable snapshot. Tick is re-entrancy guarded: an overlapping
// invocation is skipped rather than queued.
type Controller struct {
	cfg            physics.Config
	configuredMode objects.BodyMode

	reg     *objects.Registry
	machine *gesture.Machine
	caster  *physics.Broadcaster
	env     *environment.Environment
	host    physics.Host
	events  bus.EventBus
	loader  MeshLoader

	ingestor   *anchors.Ingestor
	handJoints map[anchors.Chirality][]objects.Handle

	inbox    chan any
	inTick   atomic.Bool
	tick     uint64
	stepDT   float32
	snapshot atomic.Pointer[Snapshot]

	ctx    context.Context
	logger log.Log
}

// Options carries optional collaborators.
type Options struct {
	Loader       MeshLoader
	AnchorSource anchors.Source
	Events       bus.EventBus
	Logger       log.Log
}

func New(host physics.Host, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = log.Provide()
	}
	events := opts.Events
	if events == nil {
		events = bus.New()
	}

	reg := objects.NewRegistry(logger)
	c := &Controller{
		cfg:            physics.DefaultConfig(),
		configuredMode: objects.ModeDynamic,
		reg:            reg,
		machine:        gesture.NewMachine(reg, host, logger),
		caster:         physics.NewBroadcaster(host, logger),
		host:           host,
		events:         events,
		loader:         opts.Loader,
		handJoints:     make(map[anchors.Chirality][]objects.Handle),
		inbox:          make(chan any, inboxCapacity),
		ctx:            context.Background(),
		logger:         logger,
	}
	c.env = environment.New(reg, host, logger)
	c.env.OnRulesChanged(c.rebroadcast)
	c.machine.SetFloor(c.env.FloorMinY())
	c.machine.OnRelease(func(h objects.Handle, vel mgl32.Vec3) {
		_ = events.Publish(bus.NewEvent(bus.TypeObjectReleased, "controller", ObjectState{
			Handle: uint64(h),
			Speed:  vel.Len(),
		}))
	})
	if opts.AnchorSource != nil {
		c.ingestor = anchors.NewIngestor(opts.AnchorSource, (*ingestSink)(c), logger)
	}
	c.publishSnapshot()
	return c
}

// Events returns the control/telemetry bus.
func (c *Controller) Events() bus.EventBus { return c.events }

// Registry exposes the object registry for same-actor collaborators.
func (c *Controller) Registry() *objects.Registry { return c.reg }

// Gestures exposes the gesture machine for same-actor collaborators.
func (c *Controller) Gestures() *gesture.Machine { return c.machine }

// Environment exposes the environment config.
func (c *Controller) Environment() *environment.Environment { return c.env }

// Enqueue pushes a command into the bounded inbox without blocking. A full
// inbox rejects the command; gesture floods degrade rather than stall the
// frame loop.
func (c *Controller) Enqueue(cmd any) error {
	select {
	case c.inbox <- cmd:
		return nil
	default:
		c.logger.Warn("command dropped, inbox full")
		return ErrInboxFull
	}
}

// ingestSink adapts the controller inbox for the sensing workers.
type ingestSink Controller

func (s *ingestSink) EnqueueAnchor(ev anchors.AnchorEvent) error {
	return (*Controller)(s).Enqueue(anchorCommand{ev: ev})
}

func (s *ingestSink) EnqueueHand(ev anchors.HandEvent) error {
	return (*Controller)(s).Enqueue(handCommand{ev: ev})
}

// Run drives Tick at the given interval until the context ends. A Steppable
// host is advanced inside each tick, keeping every host access on this
// goroutine.
func (c *Controller) Run(ctx context.Context, interval time.Duration) error {
	c.ctx = ctx
	c.stepDT = float32(interval.Seconds())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if c.ingestor != nil {
				c.ingestor.Stop()
			}
			return ctx.Err()
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick runs one frame: drain the inbox, run per-tick broadcast effects,
// publish a snapshot. Returns false when skipped by the re-entrancy guard.
func (c *Controller) Tick() bool {
	if !c.inTick.CompareAndSwap(false, true) {
		c.logger.Warn("tick overlapped previous invocation, skipped")
		return false
	}
	defer c.inTick.Store(false)

	c.drainInbox()
	if s, ok := c.host.(physics.Steppable); ok && c.stepDT > 0 {
		s.Step(c.stepDT)
	}
	c.caster.Step(c.cfg, c.reg)
	c.tick++
	c.publishSnapshot()
	return true
}

func (c *Controller) drainInbox() {
	for {
		select {
		case cmd := <-c.inbox:
			c.apply(cmd)
		default:
			return
		}
	}
}

// Config returns the active physics property set.
func (c *Controller) Config() physics.Config { return c.cfg }

// Snapshot returns the most recently published state view. Safe from any
// goroutine.
func (c *Controller) Snapshot() *Snapshot { return c.snapshot.Load() }

// CurrentSpeed returns the live speed of the most recently interacted
// object, for display.
func (c *Controller) CurrentSpeed() float32 {
	h := c.machine.LastInteracted()
	if _, ok := c.reg.Get(h); !ok {
		return 0
	}
	return c.host.LinearVelocity(h).Len()
}

func (c *Controller) rebroadcast() {
	c.caster.ApplyProperties(c.cfg, c.reg, c.reg.ForEachTarget())
}

func (c *Controller) publishSnapshot() {
	snap := &Snapshot{
		Tick:            c.tick,
		Time:            time.Now(),
		Config:          c.cfg,
		GlobalMode:      c.configuredMode.String(),
		EnvironmentMode: c.env.Mode().String(),
		Scanned:         c.env.Scanned(),
		RampEnabled:     c.env.RampEnabled(),
		WallsEnabled:    c.env.WallsEnabled(),
		WallHeight:      c.env.WallHeight(),
		CurrentSpeed:    c.CurrentSpeed(),
	}
	rel := c.machine.LastReleaseVelocity()
	snap.LastRelease = [3]float32{rel.X(), rel.Y(), rel.Z()}

	c.reg.Each(func(obj *objects.SimulatedObject) {
		st := ObjectState{
			Handle:      uint64(obj.Handle),
			Kind:        kindName(obj.Kind),
			Shape:       obj.Shape.Kind.String(),
			Mode:        obj.Mode.String(),
			Position:    [3]float32{obj.Position.X(), obj.Position.Y(), obj.Position.Z()},
			Orientation: [4]float32{obj.Orientation.W, obj.Orientation.X(), obj.Orientation.Y(), obj.Orientation.Z()},
			Scale:       [3]float32{obj.Scale.X(), obj.Scale.Y(), obj.Scale.Z()},
			Selected:    c.reg.Selected(obj.Handle),
		}
		if obj.Kind.Simulated() {
			st.Speed = c.host.LinearVelocity(obj.Handle).Len()
		}
		snap.Objects = append(snap.Objects, st)
	})
	snap.ObjectCount = len(snap.Objects)

	c.snapshot.Store(snap)
	_ = c.events.Publish(bus.NewEvent(bus.TypeTelemetryFrame, "controller", snap))
}

func kindName(k objects.Kind) string {
	switch k {
	case objects.KindInteractive:
		return "interactive"
	case objects.KindGround:
		return "ground"
	case objects.KindWall:
		return "wall"
	case objects.KindFloor:
		return "floor"
	case objects.KindTraceMarker:
		return "trace_marker"
	case objects.KindHandJoint:
		return "hand_joint"
	case objects.KindAnchor:
		return "anchor"
	default:
		return "unknown"
	}
}

// broadcastTo fans properties out to a single handle, used right after a
// spawn so the new body starts with the active material and damping rules.
func (c *Controller) broadcastTo(h objects.Handle) {
	c.caster.ApplyProperties(c.cfg, c.reg, sequence.From([]objects.Handle{h}))
}
