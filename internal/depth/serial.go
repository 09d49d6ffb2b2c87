package depth

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.bug.st/serial"

	"github.com/banshee-data/cloudview/internal/cloud"
)

// maxFrameBytes bounds a single depth frame line. A 640x480 frame of short
// decimal samples stays well under this.
const maxFrameBytes = 8 * 1024 * 1024

// SerialSource reads depth frames from a serial-attached sensor. The sensor
// emits one frame per line: the image width, then the row-major samples,
// comma-separated ("320,0,0,612.5,...").
type SerialSource struct {
	port    io.ReadCloser
	scanner *bufio.Scanner
	name    string
}

// OpenSerialSource opens the sensor's serial device.
func OpenSerialSource(device string, baudRate int) (*SerialSource, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("opening depth sensor %s: %w", device, err)
	}
	return newSerialSource(port, device), nil
}

// newSerialSource wraps any reader as a source; split out so tests can feed
// canned frames without hardware.
func newSerialSource(r io.ReadCloser, name string) *SerialSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxFrameBytes)
	return &SerialSource{port: r, scanner: scanner, name: name}
}

// Acquire blocks until the next full frame arrives, then parses it. Blank
// lines are skipped; a malformed frame is an acquisition error, not a parse
// of a partial cloud.
func (s *SerialSource) Acquire() (Snapshot, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		snap, err := parseFrame(line)
		if err != nil {
			return Snapshot{}, &cloud.AcquisitionError{Source: s.name, Err: err}
		}
		return snap, nil
	}
	if err := s.scanner.Err(); err != nil {
		return Snapshot{}, &cloud.AcquisitionError{Source: s.name, Err: err}
	}
	return Snapshot{}, &cloud.AcquisitionError{Source: s.name, Err: io.EOF}
}

// Close releases the serial port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}

func parseFrame(line string) (Snapshot, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return Snapshot{}, fmt.Errorf("frame has %d fields, need width plus samples", len(fields))
	}
	width, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return Snapshot{}, fmt.Errorf("parsing frame width: %w", err)
	}
	if width <= 0 {
		return Snapshot{}, fmt.Errorf("frame width must be positive, got %d", width)
	}

	samples := make([]float64, len(fields)-1)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Snapshot{}, fmt.Errorf("parsing sample %d: %w", i, err)
		}
		samples[i] = v
	}
	if len(samples)%width != 0 {
		return Snapshot{}, fmt.Errorf("%d samples not a multiple of width %d", len(samples), width)
	}
	return Snapshot{Samples: samples, Width: width}, nil
}
