// Package app owns the viewer's application state and its hot-restart
// lifecycle. State is split into a persistent region, which survives a
// restart unchanged, and a transient region bound to the live render context,
// which is torn down and rebuilt on every restart.
package app

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/cloudview/internal/cloud"
)

// Default viewer parameters, used when no config or persisted session
// overrides them.
const (
	DefaultTargetFPS    = 30
	DefaultSearchRadius = 2.0
	DefaultZoom         = 1.0
)

// ViewParams are the user-adjustable view transform inputs. They belong to
// the persistent region; the actual camera/projection math lives outside the
// core.
type ViewParams struct {
	Zoom       float64 `json:"zoom"`
	PanX       float64 `json:"pan_x"`
	PanY       float64 `json:"pan_y"`
	RotationX  float64 `json:"rotation_x"`
	RotationY  float64 `json:"rotation_y"`
	TargetFPS  int     `json:"target_fps"`
	SearchRad  float64 `json:"search_radius"`
	SessionTag string  `json:"session_tag,omitempty"`
}

// State is the persistent region: everything that must be handed intact
// across a hot restart. It is guarded by one mutex rather than per-field
// locks so the single-writer discipline stays auditable; producers never
// touch it except through the ingest queue, which has its own lock.
type State struct {
	mu sync.Mutex

	SessionID string
	View      ViewParams

	Queue  *cloud.IngestQueue
	Store  *cloud.Store
	Result *cloud.Result
}

// NewState creates a fresh persistent region with default view parameters
// and an empty queue and store.
func NewState() *State {
	return &State{
		SessionID: uuid.New().String(),
		View: ViewParams{
			Zoom:      DefaultZoom,
			TargetFPS: DefaultTargetFPS,
			SearchRad: DefaultSearchRadius,
		},
		Queue: cloud.NewIngestQueue(),
		Store: cloud.NewStore(nil),
	}
}

// Lock takes the state mutex. Held by the consumer cycle for the duration of
// each tick and by the restart quiesce; snapshot readers take it briefly.
func (st *State) Lock()   { st.mu.Lock() }
func (st *State) Unlock() { st.mu.Unlock() }

// Correspond runs correspondence between two promoted clouds at the current
// search radius and replaces the stored result wholesale. On error (including
// ErrInsufficientClouds) the previous result is left untouched. Caller must
// hold the state lock (consumer cycle).
func (st *State) Correspond(source, target cloud.Handle) error {
	res, err := st.Store.Correspond(source, target, st.View.SearchRad)
	if err != nil {
		return err
	}
	st.Result = &res
	return nil
}

// CorrespondLatest corresponds the two most recently promoted clouds, the
// viewer's default user action. Caller must hold the state lock.
func (st *State) CorrespondLatest() error {
	entries := st.Store.All()
	if len(entries) < 2 {
		return cloud.ErrInsufficientClouds
	}
	a := entries[len(entries)-2].Handle
	b := entries[len(entries)-1].Handle
	return st.Correspond(a, b)
}

// Snapshot is a point-in-time copy of the persistent region for readers
// outside the consumer cycle (monitor endpoints, persistence).
type Snapshot struct {
	SessionID string        `json:"session_id"`
	View      ViewParams    `json:"view"`
	Clouds    []cloud.Entry `json:"clouds"`
	Result    *cloud.Result `json:"result,omitempty"`
	QueueLen  int           `json:"queue_len"`
}

// Snapshot copies the persistent region under the state lock. The cloud
// payloads themselves are shared; they are immutable.
func (st *State) Snapshot() Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()

	snap := Snapshot{
		SessionID: st.SessionID,
		View:      st.View,
		Clouds:    st.Store.All(),
		QueueLen:  st.Queue.Len(),
	}
	if st.Result != nil {
		res := *st.Result
		res.Matches = append([]cloud.Match(nil), st.Result.Matches...)
		snap.Result = &res
	}
	return snap
}

// UpdateView applies a partial view-parameter update under the state lock.
func (st *State) UpdateView(fn func(*ViewParams)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&st.View)
	if st.View.TargetFPS < 1 {
		st.View.TargetFPS = 1
	}
	if st.View.SearchRad < 0 {
		st.View.SearchRad = 0
	}
}

// activeState is the process-wide reference to the current application
// state. It exists only for the process-entry boundary (signal handlers,
// command loop startup); everything else receives *State explicitly.
var (
	activeMu    sync.Mutex
	activeState *State
)

// ActiveState returns the process-wide active state, or nil before bootstrap.
func ActiveState() *State {
	activeMu.Lock()
	defer activeMu.Unlock()
	return activeState
}

func setActiveState(st *State) {
	activeMu.Lock()
	activeState = st
	activeMu.Unlock()
}

// String identifies a state for log lines.
func (st *State) String() string {
	return fmt.Sprintf("state[session=%s]", st.SessionID)
}
