package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "viewer.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadViewerConfig_Partial(t *testing.T) {
	path := writeConfig(t, `{"target_fps": 60, "search_radius": 0.5}`)
	cfg, err := LoadViewerConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GetTargetFPS() != 60 {
		t.Errorf("target fps = %d, want 60", cfg.GetTargetFPS())
	}
	if cfg.GetSearchRadius() != 0.5 {
		t.Errorf("search radius = %v, want 0.5", cfg.GetSearchRadius())
	}
	// Unset fields keep defaults.
	if cfg.GetZoom() != 1.0 {
		t.Errorf("zoom default = %v, want 1.0", cfg.GetZoom())
	}
	if cfg.GetSynthInterval() != 2*time.Second {
		t.Errorf("synth interval default = %v, want 2s", cfg.GetSynthInterval())
	}
}

func TestLoadViewerConfig_RejectsNonJSON(t *testing.T) {
	if _, err := LoadViewerConfig("viewer.yaml"); err == nil {
		t.Error("expected error for non-json extension")
	}
}

func TestLoadViewerConfig_RejectsBadJSON(t *testing.T) {
	path := writeConfig(t, `{"target_fps": `)
	if _, err := LoadViewerConfig(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestViewerConfig_Validate(t *testing.T) {
	bad := []string{
		`{"target_fps": 0}`,
		`{"search_radius": -1}`,
		`{"zoom": 0}`,
		`{"synth_interval": "not-a-duration"}`,
		`{"synth_point_count": 0}`,
		`{"depth_baud_rate": -9600}`,
	}
	for _, content := range bad {
		path := writeConfig(t, content)
		if _, err := LoadViewerConfig(path); err == nil {
			t.Errorf("config %s should fail validation", content)
		}
	}
}

func TestViewerConfig_EmptyDefaults(t *testing.T) {
	cfg := EmptyViewerConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty config should validate: %v", err)
	}
	if cfg.GetTargetFPS() != 30 {
		t.Errorf("fps default = %d, want 30", cfg.GetTargetFPS())
	}
	if cfg.GetSearchRadius() != 2.0 {
		t.Errorf("radius default = %v, want 2.0", cfg.GetSearchRadius())
	}
	if cfg.GetDepthPort() != "" {
		t.Errorf("depth port default = %q, want empty", cfg.GetDepthPort())
	}
	if cfg.GetSnapshotPath() != "cloudview.db" {
		t.Errorf("snapshot path default = %q", cfg.GetSnapshotPath())
	}
}
