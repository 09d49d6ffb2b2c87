package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/cloudview/internal/cloud"
	"github.com/banshee-data/cloudview/internal/monitoring"
)

// Phase is the restart state machine position.
type Phase int32

const (
	// PhaseIdle means no consumer loop is running (before bootstrap or after
	// a clean stop).
	PhaseIdle Phase = iota
	// PhaseRunning is the normal consumer cycle.
	PhaseRunning
	// PhaseShuttingDown means a restart was observed and the loop has exited;
	// the transient region is being torn down.
	PhaseShuttingDown
	// PhaseRestarted means a fresh transient region exists and the loop is
	// about to resume with the persistent region unchanged.
	PhaseRestarted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseShuttingDown:
		return "shutting-down"
	case PhaseRestarted:
		return "restarted"
	}
	return fmt.Sprintf("phase(%d)", int32(p))
}

// errRestartRequested signals a clean loop exit for a hot restart. Never
// escapes Run.
var errRestartRequested = errors.New("restart requested")

// execTimeout bounds how long a submitted command waits for the consumer
// cycle before being reported as stuck.
const execTimeout = 10 * time.Second

type op struct {
	fn   func(*State) error
	done chan error
}

// Supervisor runs the consumer cycle and drives the restart state machine:
// Running → ShuttingDown → Restarted → Running. A restart request sets a flag
// that the loop observes at the top of a cycle, so teardown never happens
// mid-frame. The persistent State crosses the transition untouched; the
// transient region is invalidated and rebuilt from scratch.
type Supervisor struct {
	state   *State
	restart atomic.Bool
	phase   atomic.Int32
	started atomic.Bool
	ops     chan op

	trMu      sync.Mutex
	transient *Transient

	// Bootstrap, when set, is launched in a new goroutine if a restart is
	// requested before the consumer loop has ever started.
	Bootstrap func()

	// OnCycle, when set, is invoked once per cycle after the queue drain with
	// the state lock held. The renderer hangs off this hook; the core never
	// draws.
	OnCycle func(*State, *Transient)
}

// NewSupervisor wraps a persistent state for supervised running.
func NewSupervisor(st *State) *Supervisor {
	return &Supervisor{state: st, ops: make(chan op, 32)}
}

// State returns the supervised persistent region.
func (s *Supervisor) State() *State { return s.state }

// Phase returns the current restart-machine phase.
func (s *Supervisor) Phase() Phase { return Phase(s.phase.Load()) }

// Transient returns the live transient region, or nil before the first loop
// start.
func (s *Supervisor) Transient() *Transient {
	s.trMu.Lock()
	defer s.trMu.Unlock()
	return s.transient
}

func (s *Supervisor) setTransient(tr *Transient) {
	s.trMu.Lock()
	s.transient = tr
	s.trMu.Unlock()
}

// RequestRestart asks for a hot restart. While the loop runs, the flag is
// picked up at the top of the next cycle. Before the loop has ever started,
// the whole bootstrap is relaunched in a new goroutine instead.
func (s *Supervisor) RequestRestart() {
	if s.started.Load() {
		s.restart.Store(true)
		return
	}
	if s.Bootstrap != nil {
		go s.Bootstrap()
	}
}

// Exec runs fn on the consumer goroutine under the state lock, preserving
// the single-writer discipline for store mutation and correspondence. Before
// the loop starts there is no competing writer, so fn runs inline.
func (s *Supervisor) Exec(fn func(*State) error) error {
	if !s.started.Load() {
		s.state.Lock()
		defer s.state.Unlock()
		return fn(s.state)
	}
	o := op{fn: fn, done: make(chan error, 1)}
	select {
	case s.ops <- o:
	case <-time.After(execTimeout):
		return fmt.Errorf("consumer cycle not accepting commands after %v", execTimeout)
	}
	select {
	case err := <-o.done:
		return err
	case <-time.After(execTimeout):
		return fmt.Errorf("consumer cycle did not run command within %v", execTimeout)
	}
}

// Run drives the consumer loop until ctx is cancelled, restarting the
// transient region whenever a restart is requested. Blocking; a clean return
// means ctx ended.
func (s *Supervisor) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("supervisor already running")
	}
	defer s.started.Store(false)
	defer s.phase.Store(int32(PhaseIdle))

	for {
		tr := NewTransient()
		s.setTransient(tr)

		// Rebuild backing resources for every cloud that survived in the
		// persistent region, under the fresh render context.
		s.state.Lock()
		errs := s.state.Store.Replace(tr.Allocator())
		s.state.Unlock()
		for _, err := range errs {
			monitoring.Logf("restart: dropping cloud: %v", err)
		}

		setActiveState(s.state)
		s.phase.Store(int32(PhaseRunning))
		monitoring.Logf("consumer loop starting: %s context=%s", s.state, tr.ContextID())

		err := s.loop(ctx, tr)
		if !errors.Is(err, errRestartRequested) {
			return err
		}

		// Quiesce: the loop has exited cleanly, so taking the state lock
		// gives exclusive access to everything except the producer-facing
		// queue, which is persistent and keeps accepting.
		s.phase.Store(int32(PhaseShuttingDown))
		s.state.Lock()
		tr.Invalidate()
		s.state.Unlock()
		s.restart.Store(false)
		s.phase.Store(int32(PhaseRestarted))
		monitoring.Logf("restart: transient region rebuilt, persistent region carried over")
	}
}

// loop ticks at the target frame rate. Each tick observes the restart flag
// first, then drains the queue and promotes the batch. User commands arrive
// between ticks on the ops channel and run on this goroutine.
func (s *Supervisor) loop(ctx context.Context, tr *Transient) error {
	fps := s.currentFPS()
	ticker := time.NewTicker(tickInterval(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case o := <-s.ops:
			s.state.Lock()
			err := o.fn(s.state)
			s.state.Unlock()
			o.done <- err
		case <-ticker.C:
			if s.restart.Load() {
				return errRestartRequested
			}
			s.cycle(tr)
			if next := s.currentFPS(); next != fps {
				fps = next
				ticker.Reset(tickInterval(fps))
			}
		}
	}
}

func (s *Supervisor) currentFPS() int {
	s.state.Lock()
	defer s.state.Unlock()
	return s.state.View.TargetFPS
}

func tickInterval(fps int) time.Duration {
	if fps < 1 {
		fps = 1
	}
	return time.Second / time.Duration(fps)
}

// cycle is one consumer tick: drain the ingest queue, promote each cloud,
// hand the frame to the render hook. Promotion failures are reported and the
// cloud is dropped; the queue is never replayed.
func (s *Supervisor) cycle(tr *Transient) {
	s.state.Lock()
	defer s.state.Unlock()

	for _, c := range s.state.Queue.DrainAll() {
		h, err := s.state.Store.Promote(c)
		if err != nil {
			var resErr *cloud.ResourceAllocationError
			if errors.As(err, &resErr) {
				monitoring.Logf("promotion failed, cloud dropped: %v", err)
				continue
			}
			monitoring.Logf("promotion failed: %v", err)
			continue
		}
		monitoring.Logf("promoted cloud %d (%d points)", h, len(c.Points))
	}

	if s.OnCycle != nil {
		s.OnCycle(s.state, tr)
	}
}
