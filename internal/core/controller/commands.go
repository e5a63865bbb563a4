package controller

import (
	"time"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/anchors"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/environment"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/geometry"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/gesture"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/objects"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/physics"
)

// Commands are the discrete messages drained by the controller once per
// frame. UI surfaces never mutate lab state directly; they enqueue one of
// these instead.
type (
	// SpawnCommand creates a new interactive object at the spawn anchor.
	// Desc overrides the default dimensions when non-nil.
	SpawnCommand struct {
		Shape geometry.ShapeKind
		Desc  *geometry.Descriptor
	}

	// ImportCommand loads a model file through the mesh loader and spawns
	// it. Load failures create nothing.
	ImportCommand struct {
		Path string
		Fit  geometry.FitMode
	}

	// DeleteCommand removes one object.
	DeleteCommand struct {
		Target objects.Handle
	}

	// ResetCommand deletes every spawned object and clears trace history.
	ResetCommand struct{}

	// ConfigCommand replaces the physics property set and re-broadcasts it
	// to the current targets. Last write wins.
	ConfigCommand struct {
		Config physics.Config
	}

	// GlobalModeCommand changes the steady-state body mode. Objects held
	// kinematic by an open gesture pick the new mode up on release.
	GlobalModeCommand struct {
		Mode objects.BodyMode
	}

	// SelectionModeCommand toggles selection mode; enabling it leaves
	// delete mode.
	SelectionModeCommand struct {
		Enabled bool
	}

	// DeleteModeCommand toggles delete mode; enabling it leaves selection
	// mode and clears the selection.
	DeleteModeCommand struct {
		Enabled bool
	}

	// EnvironmentCommand switches Virtual and MixedReality.
	EnvironmentCommand struct {
		Mode environment.Mode
	}

	// RampToggleCommand enables or disables the procedural ramp.
	RampToggleCommand struct {
		Enabled bool
	}

	// RampParamsCommand rebuilds the ramp wedge.
	RampParamsCommand struct {
		Params environment.RampParams
	}

	// WallsToggleCommand enables or disables the boundary walls.
	WallsToggleCommand struct {
		Enabled bool
	}

	// WallHeightCommand rebuilds the walls at a new height.
	WallHeightCommand struct {
		Height float32
	}

	// GestureCommand forwards one continuous gesture event.
	GestureCommand struct {
		Event gesture.Event
	}

	// TapCommand selects or deletes an object depending on the active
	// mode. Ignored outside selection/delete mode.
	TapCommand struct {
		Target objects.Handle
		At     time.Time
	}

	// anchorCommand and handCommand wrap sensing events pushed by the
	// ingestion workers.
	anchorCommand struct {
		ev anchors.AnchorEvent
	}

	handCommand struct {
		ev anchors.HandEvent
	}
)
