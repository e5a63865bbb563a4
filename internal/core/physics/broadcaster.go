package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/geometry"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/objects"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
	"github.com/Lucalangella/NEWTON-LAB/pkg/sequence"
)

const (
	// VoidAltitude is the Y below which an object counts as lost and is
	// teleported back to its spawn anchor.
	VoidAltitude = -5.0
	// TraceSpacing is the minimum travel distance between trace markers.
	TraceSpacing = 0.05
	// speedEpsilon gates the advanced drag force; near-resting bodies get
	// no force applied.
	speedEpsilon = 0.001
)

// Broadcaster fans physics property edits out to target bodies and runs the
// per-tick effects (aerodynamic drag, void safety net, path tracing, gravity
// propagation). It runs on the controller actor only.
type Broadcaster struct {
	host      Host
	traceLast map[objects.Handle]mgl32.Vec3
	logger    log.Log
}

func NewBroadcaster(host Host, logger log.Log) *Broadcaster {
	if logger == nil {
		logger = log.Provide()
	}
	return &Broadcaster{
		host:      host,
		traceLast: make(map[objects.Handle]mgl32.Vec3),
		logger:    logger,
	}
}

// ApplyProperties applies the config to every target handle. One shared
// material descriptor is regenerated per broadcast; mass is recomputed per
// target while preserving the center of mass derived at spawn, so a live
// mass edit never makes an object visually jump. Linear damping is forced to
// zero while advanced drag is on (the drag force is applied manually every
// tick instead), and angular damping is always zero so objects stay free to
// roll and spin.
func (b *Broadcaster) ApplyProperties(cfg Config, reg *objects.Registry, targets *sequence.Iterator[objects.Handle]) {
	mat := MaterialFrom(cfg)
	linearDamping := cfg.LinearDamping
	if cfg.AdvancedDrag {
		linearDamping = 0
	}

	applied := 0
	for h := range targets.Seq() {
		obj, ok := reg.Get(h)
		if !ok {
			continue
		}
		obj.MassProps = obj.MassProps.WithMass(cfg.Mass)
		b.host.SetMassProperties(h, obj.MassProps)
		b.host.SetMaterial(h, mat)
		b.host.SetDamping(h, linearDamping, 0)
		applied++
	}

	b.logger.Debug("properties broadcast",
		log.Int("targets", applied),
		log.Float32("mass", cfg.Mass),
		log.Bool("advanced_drag", cfg.AdvancedDrag))
}

// traceMarkerRadius sizes the registry entry for a dropped marker.
const traceMarkerRadius = 0.005

// Step runs the per-tick effects over every live simulated object,
// independent of explicit property edits.
func (b *Broadcaster) Step(cfg Config, reg *objects.Registry) {
	b.host.SetGravity(mgl32.Vec3{0, cfg.GravityY, 0})

	// Markers found this tick are spawned after the sweep; the registry
	// must not grow mid-iteration.
	var markers []mgl32.Vec3

	reg.Each(func(obj *objects.SimulatedObject) {
		if !obj.Kind.Simulated() {
			return
		}
		h := obj.Handle

		if cfg.AdvancedDrag && obj.Mode == objects.ModeDynamic {
			v := b.host.LinearVelocity(h)
			if speed := v.Len(); speed > speedEpsilon {
				magnitude := 0.5 * cfg.AirDensity * speed * speed *
					geometry.DragCoefficient(obj.Shape.Kind) * obj.Shape.CrossSectionalArea()
				b.host.ApplyForce(h, v.Mul(-magnitude/speed))
			}
		}

		pos := b.host.Position(h)
		if pos.Y() < VoidAltitude {
			b.host.SetLinearVelocity(h, mgl32.Vec3{})
			b.host.SetAngularVelocity(h, mgl32.Vec3{})
			b.host.ApplyTransform(h, obj.SpawnPosition, obj.Orientation, obj.Scale)
			obj.Position = obj.SpawnPosition
			delete(b.traceLast, h)
			b.logger.Info("object fell through the void, respawned",
				log.Uint64("handle", uint64(h)))
			return
		}
		obj.Position = pos

		if cfg.TraceEnabled {
			last, seen := b.traceLast[h]
			if !seen {
				b.traceLast[h] = pos
			} else if pos.Sub(last).Len() > TraceSpacing {
				markers = append(markers, pos)
				b.traceLast[h] = pos
			}
		}
	})

	for _, pos := range markers {
		b.host.PlaceTraceMarker(pos)
		reg.SpawnScenery(objects.KindTraceMarker,
			geometry.Collision{Kind: geometry.CollisionSphere, Radius: traceMarkerRadius},
			pos, 0)
	}
}

// ResetTraces forgets marker bookkeeping and removes every placed marker
// from both the host and the registry, used on scene reset.
func (b *Broadcaster) ResetTraces(reg *objects.Registry) {
	b.traceLast = make(map[objects.Handle]mgl32.Vec3)
	b.host.ClearTraceMarkers()
	for _, h := range reg.Handles(func(k objects.Kind) bool { return k == objects.KindTraceMarker }) {
		reg.Delete(h)
	}
}

// Forget drops per-object bookkeeping for a deleted handle.
func (b *Broadcaster) Forget(h objects.Handle) {
	delete(b.traceLast, h)
}
