package depth

import (
	"io"

	"github.com/banshee-data/cloudview/internal/cloud"
)

// MockSource replays canned snapshots and errors in order, then reports EOF.
// It stands in for sensor hardware in tests and dev mode.
type MockSource struct {
	frames []mockFrame
	pos    int
	closed bool
}

type mockFrame struct {
	snap Snapshot
	err  error
}

// NewMockSource creates an empty mock; add frames with AddSnapshot/AddError.
func NewMockSource() *MockSource {
	return &MockSource{}
}

// AddSnapshot queues a good frame.
func (m *MockSource) AddSnapshot(snap Snapshot) *MockSource {
	m.frames = append(m.frames, mockFrame{snap: snap})
	return m
}

// AddError queues a failed acquisition.
func (m *MockSource) AddError(err error) *MockSource {
	m.frames = append(m.frames, mockFrame{err: err})
	return m
}

// Acquire returns the next canned frame.
func (m *MockSource) Acquire() (Snapshot, error) {
	if m.pos >= len(m.frames) {
		return Snapshot{}, &cloud.AcquisitionError{Source: "mock", Err: io.EOF}
	}
	f := m.frames[m.pos]
	m.pos++
	if f.err != nil {
		return Snapshot{}, &cloud.AcquisitionError{Source: "mock", Err: f.err}
	}
	return f.snap, nil
}

// Close marks the mock closed.
func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called (for producer lifecycle tests).
func (m *MockSource) Closed() bool { return m.closed }
