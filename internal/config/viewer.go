package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ViewerConfig is the startup configuration for the viewer core. All fields
// are pointers so a partial JSON file only overrides what it names; the Get*
// methods supply defaults for the rest.
type ViewerConfig struct {
	// Consumer cycle
	TargetFPS    *int     `json:"target_fps,omitempty"`
	SearchRadius *float64 `json:"search_radius,omitempty"`

	// Initial view transform
	Zoom      *float64 `json:"zoom,omitempty"`
	PanX      *float64 `json:"pan_x,omitempty"`
	PanY      *float64 `json:"pan_y,omitempty"`
	RotationX *float64 `json:"rotation_x,omitempty"`
	RotationY *float64 `json:"rotation_y,omitempty"`

	// Synthetic producer
	SynthInterval    *string `json:"synth_interval,omitempty"` // duration string like "2s"
	SynthPointCount  *int    `json:"synth_point_count,omitempty"`
	SynthClusterSize *float64 `json:"synth_cluster_size,omitempty"`

	// Depth producer
	DepthPort     *string `json:"depth_port,omitempty"` // serial device, e.g. "/dev/ttyUSB0"
	DepthBaudRate *int    `json:"depth_baud_rate,omitempty"`

	// Persistence
	SnapshotPath *string `json:"snapshot_path,omitempty"`
}

// EmptyViewerConfig returns a config with every field unset.
func EmptyViewerConfig() *ViewerConfig {
	return &ViewerConfig{}
}

// LoadViewerConfig loads a ViewerConfig from a JSON file. Fields omitted from
// the file keep their defaults, so partial configs are safe.
func LoadViewerConfig(path string) (*ViewerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyViewerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that set fields hold usable values.
func (c *ViewerConfig) Validate() error {
	if c.TargetFPS != nil && *c.TargetFPS < 1 {
		return fmt.Errorf("target_fps must be at least 1, got %d", *c.TargetFPS)
	}
	if c.SearchRadius != nil && *c.SearchRadius < 0 {
		return fmt.Errorf("search_radius must be non-negative, got %f", *c.SearchRadius)
	}
	if c.Zoom != nil && *c.Zoom <= 0 {
		return fmt.Errorf("zoom must be positive, got %f", *c.Zoom)
	}
	if c.SynthInterval != nil && *c.SynthInterval != "" {
		if _, err := time.ParseDuration(*c.SynthInterval); err != nil {
			return fmt.Errorf("invalid synth_interval '%s': %w", *c.SynthInterval, err)
		}
	}
	if c.SynthPointCount != nil && *c.SynthPointCount < 1 {
		return fmt.Errorf("synth_point_count must be at least 1, got %d", *c.SynthPointCount)
	}
	if c.DepthBaudRate != nil && *c.DepthBaudRate < 1 {
		return fmt.Errorf("depth_baud_rate must be positive, got %d", *c.DepthBaudRate)
	}
	return nil
}

// GetTargetFPS returns the target frame rate or the default.
func (c *ViewerConfig) GetTargetFPS() int {
	if c.TargetFPS == nil {
		return 30
	}
	return *c.TargetFPS
}

// GetSearchRadius returns the correspondence search radius or the default.
func (c *ViewerConfig) GetSearchRadius() float64 {
	if c.SearchRadius == nil {
		return 2.0
	}
	return *c.SearchRadius
}

// GetZoom returns the initial zoom or the default.
func (c *ViewerConfig) GetZoom() float64 {
	if c.Zoom == nil {
		return 1.0
	}
	return *c.Zoom
}

// GetPan returns the initial pan offsets.
func (c *ViewerConfig) GetPan() (x, y float64) {
	if c.PanX != nil {
		x = *c.PanX
	}
	if c.PanY != nil {
		y = *c.PanY
	}
	return x, y
}

// GetRotation returns the initial rotation angles.
func (c *ViewerConfig) GetRotation() (x, y float64) {
	if c.RotationX != nil {
		x = *c.RotationX
	}
	if c.RotationY != nil {
		y = *c.RotationY
	}
	return x, y
}

// GetSynthInterval parses and returns the synthetic producer interval.
func (c *ViewerConfig) GetSynthInterval() time.Duration {
	if c.SynthInterval == nil || *c.SynthInterval == "" {
		return 2 * time.Second
	}
	d, err := time.ParseDuration(*c.SynthInterval)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// GetSynthPointCount returns the synthetic cloud size or the default.
func (c *ViewerConfig) GetSynthPointCount() int {
	if c.SynthPointCount == nil {
		return 200
	}
	return *c.SynthPointCount
}

// GetSynthClusterSize returns the synthetic cluster spread or the default.
func (c *ViewerConfig) GetSynthClusterSize() float64 {
	if c.SynthClusterSize == nil {
		return 1.5
	}
	return *c.SynthClusterSize
}

// GetDepthPort returns the depth sensor serial device, empty when unset.
func (c *ViewerConfig) GetDepthPort() string {
	if c.DepthPort == nil {
		return ""
	}
	return *c.DepthPort
}

// GetDepthBaudRate returns the serial baud rate or the default.
func (c *ViewerConfig) GetDepthBaudRate() int {
	if c.DepthBaudRate == nil {
		return 115200
	}
	return *c.DepthBaudRate
}

// GetSnapshotPath returns the sqlite snapshot path or the default.
func (c *ViewerConfig) GetSnapshotPath() string {
	if c.SnapshotPath == nil || *c.SnapshotPath == "" {
		return "cloudview.db"
	}
	return *c.SnapshotPath
}
