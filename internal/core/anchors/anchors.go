package anchors

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/geometry"
)

// EventKind distinguishes anchor stream updates.
type EventKind uint8

const (
	Added EventKind = iota
	Updated
	Removed
)

// AnchorEvent is one scene-reconstruction update from the environment
// sensing collaborator: a real-world surface appeared, moved or vanished.
type AnchorEvent struct {
	ID       string
	Kind     EventKind
	Position mgl32.Vec3
	Orient   mgl32.Quat
	Mesh     *geometry.TriMesh
}

// Chirality tags a tracked hand.
type Chirality uint8

const (
	LeftHand Chirality = iota
	RightHand
)

// HandEvent is one hand-tracking update: joint positions in world space and
// whether the hand is currently tracked at all.
type HandEvent struct {
	Chirality Chirality
	Joints    []mgl32.Vec3
	Tracked   bool
}

// Source is the sensing collaborator. Both channels are owned by the source
// and close when it stops producing.
type Source interface {
	Anchors() <-chan AnchorEvent
	Hands() <-chan HandEvent
}
