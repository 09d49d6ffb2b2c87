package depth

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/banshee-data/cloudview/internal/cloud"
)

type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }

func sourceFromString(s string) *SerialSource {
	return newSerialSource(nopCloser{strings.NewReader(s)}, "test")
}

func TestSerialSource_ParsesFrames(t *testing.T) {
	src := sourceFromString("2,100,0,0,40\n\n3,1,2,3\n")

	snap, err := src.Acquire()
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if snap.Width != 2 || len(snap.Samples) != 4 {
		t.Errorf("first frame: width=%d samples=%d, want 2/4", snap.Width, len(snap.Samples))
	}

	// The blank line between frames is skipped.
	snap, err = src.Acquire()
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if snap.Width != 3 || len(snap.Samples) != 3 {
		t.Errorf("second frame: width=%d samples=%d, want 3/3", snap.Width, len(snap.Samples))
	}
}

func TestSerialSource_EOFIsAcquisitionError(t *testing.T) {
	src := sourceFromString("")
	_, err := src.Acquire()
	var acqErr *cloud.AcquisitionError
	if !errors.As(err, &acqErr) {
		t.Fatalf("got %v, want AcquisitionError", err)
	}
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected wrapped io.EOF, got %v", err)
	}
}

func TestSerialSource_MalformedFrames(t *testing.T) {
	for _, line := range []string{
		"notanumber,1,2",
		"0,1,2",
		"2,1,2,3", // 3 samples not a multiple of width 2
		"2,1,x",
		"5",
	} {
		src := sourceFromString(line + "\n")
		_, err := src.Acquire()
		var acqErr *cloud.AcquisitionError
		if !errors.As(err, &acqErr) {
			t.Errorf("frame %q: got %v, want AcquisitionError", line, err)
		}
	}
}
