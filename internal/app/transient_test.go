package app

import (
	"testing"

	"github.com/banshee-data/cloudview/internal/cloud"
)

func TestTransient_AllocTracksResources(t *testing.T) {
	tr := NewTransient()
	alloc := tr.Allocator()

	if err := alloc.Alloc(1, cloud.Cloud{}); err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if _, ok := tr.Resource(1); !ok {
		t.Error("no backing resource recorded for handle 1")
	}

	alloc.Release(1)
	if _, ok := tr.Resource(1); ok {
		t.Error("resource survived release")
	}
}

func TestTransient_AccessAfterInvalidatePanics(t *testing.T) {
	tr := NewTransient()
	alloc := tr.Allocator()
	alloc.Alloc(1, cloud.Cloud{})

	tr.Invalidate()
	if !tr.Invalidated() {
		t.Fatal("Invalidated() should report true")
	}

	for name, access := range map[string]func(){
		"ContextID": func() { tr.ContextID() },
		"Resource":  func() { tr.Resource(1) },
		"Alloc":     func() { alloc.Alloc(2, cloud.Cloud{}) },
		"Release":   func() { alloc.Release(1) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s after invalidate did not panic", name)
				}
			}()
			access()
		}()
	}
}

func TestTransient_FreshContextIDs(t *testing.T) {
	a := NewTransient()
	b := NewTransient()
	if a.ContextID() == b.ContextID() {
		t.Error("two transient regions share a context id")
	}
}
