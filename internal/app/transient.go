package app

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/banshee-data/cloudview/internal/cloud"
)

// Transient is the render-context-bound region. It is destroyed and rebuilt
// on every restart and must never be touched once invalidated: doing so is a
// programming error and panics rather than returning an error.
type Transient struct {
	contextID   string
	invalidated atomic.Bool

	mu        sync.Mutex
	resources map[cloud.Handle]uint64
	nextRes   uint64
}

// NewTransient creates a fresh transient region with a new context token.
func NewTransient() *Transient {
	return &Transient{
		contextID: uuid.New().String(),
		resources: make(map[cloud.Handle]uint64),
	}
}

// ContextID returns the render-context token.
func (tr *Transient) ContextID() string {
	tr.check()
	return tr.contextID
}

// Invalidate marks the region dead. Idempotent; every access afterwards
// panics.
func (tr *Transient) Invalidate() {
	tr.invalidated.Store(true)
}

// Invalidated reports whether the region has been torn down. This is the one
// accessor that stays legal after invalidation, so supervision code can
// assert on lifecycle without tripping the guard itself.
func (tr *Transient) Invalidated() bool {
	return tr.invalidated.Load()
}

func (tr *Transient) check() {
	if tr.invalidated.Load() {
		panic("app: transient region accessed after teardown")
	}
}

// Allocator returns a ResourceAllocator bound to this render context.
// Backing resource ids live in the transient region and die with it.
func (tr *Transient) Allocator() cloud.ResourceAllocator {
	return &transientAllocator{tr: tr}
}

// Resource returns the backing resource id for a handle, for the renderer.
func (tr *Transient) Resource(h cloud.Handle) (uint64, bool) {
	tr.check()
	tr.mu.Lock()
	defer tr.mu.Unlock()
	id, ok := tr.resources[h]
	return id, ok
}

type transientAllocator struct {
	tr *Transient
}

func (a *transientAllocator) Alloc(h cloud.Handle, c cloud.Cloud) error {
	a.tr.check()
	a.tr.mu.Lock()
	defer a.tr.mu.Unlock()
	a.tr.nextRes++
	a.tr.resources[h] = a.tr.nextRes
	return nil
}

func (a *transientAllocator) Release(h cloud.Handle) {
	a.tr.check()
	a.tr.mu.Lock()
	defer a.tr.mu.Unlock()
	delete(a.tr.resources, h)
}
