package cloud

import "sort"

// Handle identifies a promoted cloud's backing resource. Handles are unique
// within a process lifetime and never reused while their cloud is live. In a
// real renderer this stands for a GPU buffer id; headless it is just an
// incrementing integer.
type Handle uint64

// ResourceAllocator performs the backing-resource side effect of promotion
// (e.g. a GPU vertex buffer upload). Alloc may fail; on failure the cloud is
// not installed. Release is called once per live handle on Clear.
type ResourceAllocator interface {
	Alloc(h Handle, c Cloud) error
	Release(h Handle)
}

// NopAllocator is a ResourceAllocator with no backing resource. Used headless
// and in tests.
type NopAllocator struct{}

func (NopAllocator) Alloc(Handle, Cloud) error { return nil }
func (NopAllocator) Release(Handle)            {}

// Store maps handles to promoted clouds. It is owned by the consumer cycle:
// only that single goroutine may call Promote, Clear or Replace. Readers on
// the same goroutine use All/Get; cross-goroutine access goes through the
// snapshots the consumer publishes, not through the store itself.
type Store struct {
	alloc  ResourceAllocator
	next   Handle
	clouds map[Handle]Cloud
}

// Entry pairs a handle with its cloud for snapshot iteration.
type Entry struct {
	Handle Handle `json:"handle"`
	Cloud  Cloud  `json:"cloud"`
}

// NewStore creates an empty store. A nil allocator is replaced with
// NopAllocator.
func NewStore(alloc ResourceAllocator) *Store {
	if alloc == nil {
		alloc = NopAllocator{}
	}
	return &Store{alloc: alloc, clouds: make(map[Handle]Cloud)}
}

// Promote allocates a fresh handle and backing resource for the cloud and
// installs it. On allocation failure the cloud is dropped, not retried, and a
// ResourceAllocationError is returned.
func (s *Store) Promote(c Cloud) (Handle, error) {
	h := s.next + 1
	if err := s.alloc.Alloc(h, c); err != nil {
		return 0, &ResourceAllocationError{Points: len(c.Points), Err: err}
	}
	s.next = h
	s.clouds[h] = c
	return h, nil
}

// Get returns the cloud for a handle.
func (s *Store) Get(h Handle) (Cloud, bool) {
	c, ok := s.clouds[h]
	return c, ok
}

// Len returns the number of promoted clouds.
func (s *Store) Len() int { return len(s.clouds) }

// All returns a snapshot of every promoted cloud sorted by handle. The slice
// is freshly allocated; the clouds themselves are shared (they are immutable).
func (s *Store) All() []Entry {
	entries := make([]Entry, 0, len(s.clouds))
	for h, c := range s.clouds {
		entries = append(entries, Entry{Handle: h, Cloud: c})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Handle < entries[j].Handle })
	return entries
}

// Clear releases every backing resource and empties the store. The handle
// counter is not reset: handles stay unique for the process lifetime.
func (s *Store) Clear() {
	for h := range s.clouds {
		s.alloc.Release(h)
	}
	s.clouds = make(map[Handle]Cloud)
}

// Replace swaps the allocator and re-allocates backing resources for every
// live cloud under its existing handle. Used when the transient render
// context is rebuilt after a hot restart: cloud data and handles survive,
// backing resources do not. Clouds whose re-allocation fails are dropped and
// their handles retired, mirroring Promote's no-retry policy.
func (s *Store) Replace(alloc ResourceAllocator) []error {
	if alloc == nil {
		alloc = NopAllocator{}
	}
	s.alloc = alloc
	var errs []error
	for h, c := range s.clouds {
		if err := alloc.Alloc(h, c); err != nil {
			delete(s.clouds, h)
			errs = append(errs, &ResourceAllocationError{Points: len(c.Points), Err: err})
		}
	}
	return errs
}
