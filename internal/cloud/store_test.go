package cloud

import (
	"errors"
	"testing"
)

// trackingAllocator records alloc/release calls and can be told to fail.
type trackingAllocator struct {
	allocs   map[Handle]int
	releases map[Handle]int
	failNext error
}

func newTrackingAllocator() *trackingAllocator {
	return &trackingAllocator{allocs: map[Handle]int{}, releases: map[Handle]int{}}
}

func (a *trackingAllocator) Alloc(h Handle, c Cloud) error {
	if a.failNext != nil {
		err := a.failNext
		a.failNext = nil
		return err
	}
	a.allocs[h]++
	return nil
}

func (a *trackingAllocator) Release(h Handle) { a.releases[h]++ }

func TestStore_HandlesUnique(t *testing.T) {
	s := NewStore(nil)
	seen := make(map[Handle]bool)
	for i := 0; i < 100; i++ {
		h, err := s.Promote(NewCloud(RGB{}, []Point{{float64(i), 0, 0}}))
		if err != nil {
			t.Fatalf("promote %d: %v", i, err)
		}
		if seen[h] {
			t.Fatalf("handle %d issued twice", h)
		}
		seen[h] = true
	}
	if s.Len() != 100 {
		t.Errorf("store has %d clouds, want 100", s.Len())
	}
}

func TestStore_HandlesSurviveClear(t *testing.T) {
	s := NewStore(nil)
	h1, _ := s.Promote(NewCloud(RGB{}, nil))
	s.Clear()
	h2, _ := s.Promote(NewCloud(RGB{}, nil))
	if h2 <= h1 {
		t.Errorf("handle %d reissued after clear (previous %d)", h2, h1)
	}
}

func TestStore_PromoteFailureInstallsNothing(t *testing.T) {
	alloc := newTrackingAllocator()
	alloc.failNext = errors.New("out of buffer memory")

	s := NewStore(alloc)
	_, err := s.Promote(NewCloud(RGB{}, []Point{{1, 2, 3}}))

	var resErr *ResourceAllocationError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResourceAllocationError, got %v", err)
	}
	if resErr.Points != 1 {
		t.Errorf("error reports %d points, want 1", resErr.Points)
	}
	if s.Len() != 0 {
		t.Errorf("failed promotion installed a cloud; store has %d", s.Len())
	}

	// A handle burned by a failed allocation is never reissued either way;
	// the next promotion must still succeed.
	h, err := s.Promote(NewCloud(RGB{}, nil))
	if err != nil {
		t.Fatalf("promote after failure: %v", err)
	}
	if h == 0 {
		t.Error("zero handle issued")
	}
}

func TestStore_ClearReleasesBackingResources(t *testing.T) {
	alloc := newTrackingAllocator()
	s := NewStore(alloc)
	h1, _ := s.Promote(NewCloud(RGB{}, nil))
	h2, _ := s.Promote(NewCloud(RGB{}, nil))

	s.Clear()

	for _, h := range []Handle{h1, h2} {
		if alloc.releases[h] != 1 {
			t.Errorf("handle %d released %d times, want 1", h, alloc.releases[h])
		}
	}
	if s.Len() != 0 {
		t.Errorf("store not empty after clear: %d", s.Len())
	}
}

func TestStore_ReplaceReallocatesUnderSameHandles(t *testing.T) {
	s := NewStore(newTrackingAllocator())
	h, _ := s.Promote(NewCloud(RGB{R: 1}, []Point{{1, 2, 3}}))

	fresh := newTrackingAllocator()
	if errs := s.Replace(fresh); len(errs) != 0 {
		t.Fatalf("replace errors: %v", errs)
	}
	if fresh.allocs[h] != 1 {
		t.Errorf("handle %d re-allocated %d times on fresh context, want 1", h, fresh.allocs[h])
	}
	if _, ok := s.Get(h); !ok {
		t.Errorf("cloud lost across allocator replacement")
	}
}

func TestStore_AllSortedByHandle(t *testing.T) {
	s := NewStore(nil)
	for i := 0; i < 10; i++ {
		s.Promote(NewCloud(RGB{}, nil))
	}
	entries := s.All()
	for i := 1; i < len(entries); i++ {
		if entries[i].Handle <= entries[i-1].Handle {
			t.Fatalf("snapshot not sorted: %d before %d", entries[i-1].Handle, entries[i].Handle)
		}
	}
}
