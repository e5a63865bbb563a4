package objects

import (
	"errors"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/geometry"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
	"github.com/Lucalangella/NEWTON-LAB/pkg/sequence"
)

var (
	ErrUnknownHandle = errors.New("unknown object handle")
	ErrSpawnFailed   = errors.New("spawn failed")
)

// SpawnConfig parameterizes a spawn. Position is the spawn anchor; the
// actual position is jittered by up to Jitter in X and Z so stacked spawns
// don't interpenetrate perfectly.
type SpawnConfig struct {
	Kind     Kind
	Position mgl32.Vec3
	Jitter   float32
	Mass     float32
	Mode     BodyMode
	Fit      geometry.FitMode
}

// Registry owns every simulated object in a flat slot arena plus the
// selection set. All access happens on the controller actor; the registry
// itself is not safe for concurrent use.
type Registry struct {
	slots []arenaSlot
	free  []uint32
	count int

	selection     map[Handle]struct{}
	selectionMode bool
	deleteMode    bool

	rng    *rand.Rand
	logger log.Log
}

type arenaSlot struct {
	obj        SimulatedObject
	generation uint32
	live       bool
}

func NewRegistry(logger log.Log) *Registry {
	if logger == nil {
		logger = log.Provide()
	}
	return &Registry{
		selection: make(map[Handle]struct{}),
		rng:       rand.New(rand.NewSource(1)),
		logger:    logger,
	}
}

// Seed reseeds the spawn jitter source. Tests use a fixed seed.
func (r *Registry) Seed(seed int64) {
	r.rng = rand.New(rand.NewSource(seed))
}

// Spawn creates a simulated object from a shape descriptor. Collision
// geometry and mass properties are derived up front; if either derivation
// fails no object is registered and the failure is only logged and returned.
func (r *Registry) Spawn(shape geometry.Descriptor, cfg SpawnConfig) (Handle, error) {
	var (
		col geometry.Collision
		err error
	)
	if shape.Kind == geometry.ShapeMesh {
		col, err = geometry.GenerateFromMesh(shape.Mesh, cfg.Fit)
	} else {
		col, err = geometry.Generate(shape)
	}
	if err != nil {
		r.logger.Warn("spawn abandoned, collision geometry failed",
			log.String("shape", shape.Kind.String()), log.Error(err))
		return NilHandle, errors.Join(ErrSpawnFailed, err)
	}

	mass := cfg.Mass
	if mass <= 0 {
		mass = 1
	}
	props, err := geometry.DeriveMass(col, mass)
	if err != nil {
		r.logger.Warn("spawn abandoned, mass derivation failed",
			log.String("shape", shape.Kind.String()), log.Error(err))
		return NilHandle, errors.Join(ErrSpawnFailed, err)
	}

	pos := cfg.Position
	if cfg.Jitter > 0 {
		pos[0] += (r.rng.Float32()*2 - 1) * cfg.Jitter
		pos[2] += (r.rng.Float32()*2 - 1) * cfg.Jitter
	}

	h := r.allocate()
	slot := &r.slots[h.slot()]
	slot.obj = SimulatedObject{
		Handle:        h,
		Kind:          cfg.Kind,
		Shape:         shape,
		Collision:     col,
		MassProps:     props,
		Position:      pos,
		Orientation:   mgl32.QuatIdent(),
		Scale:         mgl32.Vec3{1, 1, 1},
		Mode:          cfg.Mode,
		SpawnPosition: cfg.Position,
	}
	r.logger.Debug("object spawned",
		log.Uint64("handle", uint64(h)),
		log.String("shape", shape.Kind.String()),
		log.String("mode", cfg.Mode.String()))
	return h, nil
}

// SpawnScenery registers a non-interactive entity (walls, floor, ramp, trace
// markers, anchor meshes, hand joints) with pre-built collision geometry.
func (r *Registry) SpawnScenery(kind Kind, col geometry.Collision, pos mgl32.Vec3, anchorTag uint64) Handle {
	h := r.allocate()
	slot := &r.slots[h.slot()]
	slot.obj = SimulatedObject{
		Handle:        h,
		Kind:          kind,
		Collision:     col,
		Position:      pos,
		Orientation:   mgl32.QuatIdent(),
		Scale:         mgl32.Vec3{1, 1, 1},
		Mode:          ModeStatic,
		SpawnPosition: pos,
		AnchorTag:     anchorTag,
	}
	return h
}

func (r *Registry) allocate() Handle {
	if n := len(r.free); n > 0 {
		idx := r.free[n-1]
		r.free = r.free[:n-1]
		r.slots[idx].live = true
		r.count++
		return makeHandle(idx, r.slots[idx].generation)
	}
	r.slots = append(r.slots, arenaSlot{generation: 1, live: true})
	r.count++
	return makeHandle(uint32(len(r.slots)-1), 1)
}

// Get returns the object for a handle. Stale and never-created handles
// report false.
func (r *Registry) Get(h Handle) (*SimulatedObject, bool) {
	idx := h.slot()
	if int(idx) >= len(r.slots) {
		return nil, false
	}
	slot := &r.slots[idx]
	if !slot.live || slot.generation != h.generation() {
		return nil, false
	}
	return &slot.obj, true
}

// Delete removes an object and drops it from the selection set. Unknown
// handles are a no-op.
func (r *Registry) Delete(h Handle) {
	if _, ok := r.Get(h); !ok {
		return
	}
	idx := h.slot()
	r.slots[idx].live = false
	r.slots[idx].generation++
	r.slots[idx].obj = SimulatedObject{}
	r.free = append(r.free, idx)
	r.count--
	delete(r.selection, h)
}

// Reset deletes every object and clears the selection.
func (r *Registry) Reset() {
	r.slots = r.slots[:0]
	r.free = r.free[:0]
	r.count = 0
	r.selection = make(map[Handle]struct{})
}

// Len returns the number of live objects of any kind.
func (r *Registry) Len() int { return r.count }

// Each calls fn for every live object.
func (r *Registry) Each(fn func(*SimulatedObject)) {
	for i := range r.slots {
		if r.slots[i].live {
			fn(&r.slots[i].obj)
		}
	}
}

// Handles returns the live handles for a kind filter; a nil filter matches
// everything.
func (r *Registry) Handles(filter func(Kind) bool) []Handle {
	out := make([]Handle, 0, r.count)
	for i := range r.slots {
		if !r.slots[i].live {
			continue
		}
		if filter == nil || filter(r.slots[i].obj.Kind) {
			out = append(out, r.slots[i].obj.Handle)
		}
	}
	return out
}

// FindByAnchorTag returns the scenery object correlated with an AR anchor.
func (r *Registry) FindByAnchorTag(tag uint64) (Handle, bool) {
	for i := range r.slots {
		if r.slots[i].live && r.slots[i].obj.AnchorTag == tag {
			return r.slots[i].obj.Handle, true
		}
	}
	return NilHandle, false
}

// ForEachTarget yields the broadcast fan-out: the selection set when
// non-empty, otherwise every live interactive object. Every "apply to
// selection or all" operation goes through here.
func (r *Registry) ForEachTarget() *sequence.Iterator[Handle] {
	if len(r.selection) > 0 {
		return sequence.FromMapKeys(r.selection)
	}
	return sequence.From(r.Handles(func(k Kind) bool { return k.Simulated() }))
}

// Select adds an object to the selection set. Unknown handles are ignored.
func (r *Registry) Select(h Handle) {
	if _, ok := r.Get(h); ok {
		r.selection[h] = struct{}{}
	}
}

// Deselect removes an object from the selection set.
func (r *Registry) Deselect(h Handle) {
	delete(r.selection, h)
}

// Selected reports whether the object is currently selected.
func (r *Registry) Selected(h Handle) bool {
	_, ok := r.selection[h]
	return ok
}

// SelectionSize returns the number of selected objects.
func (r *Registry) SelectionSize() int { return len(r.selection) }

// ClearSelection empties the selection set.
func (r *Registry) ClearSelection() {
	for h := range r.selection {
		delete(r.selection, h)
	}
}

// SetSelectionMode toggles selection mode. Selection and delete mode are
// mutually exclusive; enabling one clears the other.
func (r *Registry) SetSelectionMode(enabled bool) {
	r.selectionMode = enabled
	if enabled {
		r.deleteMode = false
	}
}

// SetDeleteMode toggles delete mode and clears selection mode and the
// selection set when enabled.
func (r *Registry) SetDeleteMode(enabled bool) {
	r.deleteMode = enabled
	if enabled {
		r.selectionMode = false
		r.ClearSelection()
	}
}

func (r *Registry) SelectionMode() bool { return r.selectionMode }
func (r *Registry) DeleteMode() bool    { return r.deleteMode }
