package controller

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/anchors"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/environment"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/events/bus"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/geometry"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/objects"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
)

func (c *Controller) apply(cmd any) {
	switch m := cmd.(type) {
	case SpawnCommand:
		c.applySpawn(m)
	case ImportCommand:
		c.applyImport(m)
	case DeleteCommand:
		c.deleteObject(m.Target)
	case ResetCommand:
		c.applyReset()
	case ConfigCommand:
		c.cfg = m.Config
		c.rebroadcast()
		_ = c.events.Publish(bus.NewEvent(bus.TypeConfigChanged, "controller", c.cfg))
	case GlobalModeCommand:
		c.applyGlobalMode(m.Mode)
	case SelectionModeCommand:
		c.reg.SetSelectionMode(m.Enabled)
	case DeleteModeCommand:
		c.reg.SetDeleteMode(m.Enabled)
	case EnvironmentCommand:
		c.applyEnvironment(m.Mode)
	case RampToggleCommand:
		c.env.SetRampEnabled(m.Enabled)
	case RampParamsCommand:
		c.env.SetRampParams(m.Params)
	case WallsToggleCommand:
		c.env.SetWallsEnabled(m.Enabled)
	case WallHeightCommand:
		c.env.SetWallHeight(m.Height)
	case GestureCommand:
		c.machine.Handle(m.Event)
	case TapCommand:
		c.applyTap(m)
	case anchorCommand:
		c.applyAnchor(m.ev)
	case handCommand:
		c.applyHand(m.ev)
	default:
		c.logger.Warn("unknown command discarded")
	}
}

func (c *Controller) applySpawn(cmd SpawnCommand) {
	desc := geometry.DefaultDescriptor(cmd.Shape)
	if cmd.Desc != nil {
		desc = *cmd.Desc
	}
	c.spawnInteractive(desc, geometry.FitAuto)
}

func (c *Controller) applyImport(cmd ImportCommand) {
	if c.loader == nil {
		c.logger.Warn("import ignored, no mesh loader configured", log.String("path", cmd.Path))
		return
	}
	mesh, err := c.loader.Load(cmd.Path)
	if err != nil {
		c.logger.Warn("import failed", log.String("path", cmd.Path), log.Error(err))
		return
	}
	c.spawnInteractive(geometry.NewMesh(mesh), cmd.Fit)
}

func (c *Controller) spawnInteractive(desc geometry.Descriptor, fit geometry.FitMode) {
	h, err := c.reg.Spawn(desc, objects.SpawnConfig{
		Kind:     objects.KindInteractive,
		Position: spawnAnchor,
		Jitter:   spawnJitter,
		Mass:     c.cfg.Mass,
		Mode:     c.env.SpawnMode(c.configuredMode),
		Fit:      fit,
	})
	if err != nil {
		return
	}
	obj, _ := c.reg.Get(h)
	c.host.UpsertEntity(h, obj.Collision)
	c.host.ApplyTransform(h, obj.Position, obj.Orientation, obj.Scale)
	c.host.SetBodyMode(h, obj.Mode)
	c.broadcastTo(h)
	_ = c.events.Publish(bus.NewEvent(bus.TypeObjectSpawned, "controller", uint64(h)))
}

func (c *Controller) deleteObject(h objects.Handle) {
	if _, ok := c.reg.Get(h); !ok {
		return
	}
	c.host.RemoveEntity(h)
	c.caster.Forget(h)
	c.reg.Delete(h)
	_ = c.events.Publish(bus.NewEvent(bus.TypeObjectDeleted, "controller", uint64(h)))
}

// applyReset clears the spawned objects while the environment scenery
// (floor, ramp, walls, anchors) stays in place.
func (c *Controller) applyReset() {
	for _, h := range c.reg.Handles(func(k objects.Kind) bool { return k == objects.KindInteractive }) {
		c.host.RemoveEntity(h)
		c.caster.Forget(h)
		c.reg.Delete(h)
	}
	c.caster.ResetTraces(c.reg)
	c.machine.Reset()
	_ = c.events.Publish(bus.NewEvent(bus.TypeSceneReset, "controller", nil))
}

// applyGlobalMode changes the steady-state mode immediately for every
// object without an open gesture; held objects pick it up on release.
func (c *Controller) applyGlobalMode(mode objects.BodyMode) {
	c.configuredMode = mode
	c.machine.SetConfiguredMode(mode)
	c.reg.Each(func(obj *objects.SimulatedObject) {
		if !obj.Kind.Simulated() || c.machine.OpenSessions(obj.Handle) > 0 {
			return
		}
		obj.Mode = c.env.SpawnMode(mode)
		c.host.SetBodyMode(obj.Handle, obj.Mode)
	})
	_ = c.events.Publish(bus.NewEvent(bus.TypeGlobalMode, "controller", mode.String()))
}

func (c *Controller) applyEnvironment(mode environment.Mode) {
	if mode == c.env.Mode() {
		return
	}
	c.env.SetMode(mode)
	c.machine.SetFloor(c.env.FloorMinY())

	switch mode {
	case environment.MixedReality:
		if c.ingestor != nil {
			c.ingestor.Start(c.ctx)
		}
		// Until the first reconstruction anchor lands, dynamic objects
		// hold kinematic so nothing falls through an unscanned room.
		c.holdOrReleaseKinematic()
	case environment.Virtual:
		if c.ingestor != nil {
			c.ingestor.Stop()
		}
		c.teardownSensed()
		c.holdOrReleaseKinematic()
	}
	_ = c.events.Publish(bus.NewEvent(bus.TypeEnvironmentMode, "controller", mode.String()))
}

// holdOrReleaseKinematic reapplies the effective body mode to every
// simulated object without an open gesture session.
func (c *Controller) holdOrReleaseKinematic() {
	c.reg.Each(func(obj *objects.SimulatedObject) {
		if !obj.Kind.Simulated() || c.machine.OpenSessions(obj.Handle) > 0 {
			return
		}
		want := c.env.SpawnMode(c.configuredMode)
		if obj.Mode == want {
			return
		}
		obj.Mode = want
		c.host.SetBodyMode(obj.Handle, want)
	})
}

// teardownSensed drops all reconstruction scenery and hand joints, used
// when leaving mixed reality.
func (c *Controller) teardownSensed() {
	sensed := func(k objects.Kind) bool {
		return k == objects.KindAnchor || k == objects.KindHandJoint
	}
	for _, h := range c.reg.Handles(sensed) {
		c.host.RemoveEntity(h)
		c.reg.Delete(h)
	}
	c.handJoints = make(map[anchors.Chirality][]objects.Handle)
}

func (c *Controller) applyTap(cmd TapCommand) {
	obj, ok := c.reg.Get(cmd.Target)
	if !ok || !obj.Kind.Interactive() {
		return
	}
	switch {
	case c.reg.DeleteMode():
		c.deleteObject(cmd.Target)
	case c.reg.SelectionMode():
		if c.reg.Selected(cmd.Target) {
			c.reg.Deselect(cmd.Target)
		} else {
			c.reg.Select(cmd.Target)
		}
	}
}

func (c *Controller) applyAnchor(ev anchors.AnchorEvent) {
	tag := objects.AnchorTag(ev.ID)
	existing, found := c.reg.FindByAnchorTag(tag)

	if ev.Kind == anchors.Removed {
		if found {
			c.host.RemoveEntity(existing)
			c.reg.Delete(existing)
		}
		return
	}

	col, err := anchorCollision(ev.Mesh)
	if err != nil {
		c.logger.Warn("anchor mesh rejected", log.String("anchor", ev.ID), log.Error(err))
		return
	}

	if found {
		obj, _ := c.reg.Get(existing)
		obj.Position = ev.Position
		obj.Orientation = ev.Orient
		obj.Collision = col
		c.host.UpsertEntity(existing, col)
		c.host.ApplyTransform(existing, ev.Position, ev.Orient, mgl32.Vec3{1, 1, 1})
	} else {
		h := c.reg.SpawnScenery(objects.KindAnchor, col, ev.Position, tag)
		obj, _ := c.reg.Get(h)
		obj.Orientation = ev.Orient
		c.host.UpsertEntity(h, col)
		c.host.ApplyTransform(h, ev.Position, ev.Orient, mgl32.Vec3{1, 1, 1})
	}

	if !c.env.Scanned() {
		c.env.MarkScanned()
		c.holdOrReleaseKinematic()
	}
}

// anchorCollision fits static collision to a reconstruction surface. Plain
// anchors without geometry get a thin slab so hands and objects still rest
// against them.
func anchorCollision(mesh *geometry.TriMesh) (geometry.Collision, error) {
	if mesh == nil {
		return geometry.Collision{
			Kind:        geometry.CollisionBox,
			HalfExtents: mgl32.Vec3{0.1, 0.005, 0.1},
		}, nil
	}
	return geometry.GenerateFromMesh(mesh, geometry.FitConvex)
}

const handJointRadius = 0.01

func (c *Controller) applyHand(ev anchors.HandEvent) {
	handles := c.handJoints[ev.Chirality]

	if !ev.Tracked {
		for _, h := range handles {
			c.host.RemoveEntity(h)
			c.reg.Delete(h)
		}
		delete(c.handJoints, ev.Chirality)
		return
	}

	jointCol := geometry.Collision{Kind: geometry.CollisionSphere, Radius: handJointRadius}
	for i, pos := range ev.Joints {
		if i < len(handles) {
			h := handles[i]
			if obj, ok := c.reg.Get(h); ok {
				obj.Position = pos
				c.host.ApplyTransform(h, pos, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1})
				continue
			}
		}
		h := c.reg.SpawnScenery(objects.KindHandJoint, jointCol, pos, 0)
		c.host.UpsertEntity(h, jointCol)
		c.host.ApplyTransform(h, pos, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1})
		if i < len(handles) {
			handles[i] = h
		} else {
			handles = append(handles, h)
		}
	}
	// A shorter joint list retires the extra markers.
	for _, h := range handles[min(len(ev.Joints), len(handles)):] {
		c.host.RemoveEntity(h)
		c.reg.Delete(h)
	}
	handles = handles[:min(len(ev.Joints), len(handles))]
	c.handJoints[ev.Chirality] = handles
}
