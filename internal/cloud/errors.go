package cloud

import (
	"errors"
	"fmt"
)

// ErrInsufficientClouds is returned when correspondence is requested with
// fewer than two clouds promoted. It is reported, non-fatal, and leaves any
// previous correspondence result untouched.
var ErrInsufficientClouds = errors.New("correspondence requires at least two clouds")

// AcquisitionError wraps a producer-side acquisition failure (e.g. a depth
// sensor returning an error instead of a snapshot). The producer reports it
// and does not enqueue; no core state is affected.
type AcquisitionError struct {
	Source string
	Err    error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquisition from %s failed: %v", e.Source, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// ResourceAllocationError reports a failed backing-resource allocation during
// cloud promotion. The cloud is not installed in the store and is not retried.
type ResourceAllocationError struct {
	Points int
	Err    error
}

func (e *ResourceAllocationError) Error() string {
	return fmt.Sprintf("allocating backing resource for %d-point cloud: %v", e.Points, e.Err)
}

func (e *ResourceAllocationError) Unwrap() error { return e.Err }
