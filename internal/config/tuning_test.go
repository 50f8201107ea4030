package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPipelineParamsDefaults(t *testing.T) {
	cfg := &TuningConfig{}
	p := cfg.PipelineParams()

	if p.Threshold != 275 {
		t.Errorf("Threshold = %d, want 275", p.Threshold)
	}
	if p.AverageWindow != 255 || p.SigmaWindow != 255 {
		t.Errorf("windows = %d/%d, want 255/255", p.AverageWindow, p.SigmaWindow)
	}
	if p.RecalibrationPeriod != 7000 {
		t.Errorf("RecalibrationPeriod = %d, want 7000", p.RecalibrationPeriod)
	}
	if p.MaxContacts != 10 {
		t.Errorf("MaxContacts = %d, want 10", p.MaxContacts)
	}
	if cfg.GetPollInterval() != 10*time.Millisecond {
		t.Errorf("GetPollInterval() = %v, want 10ms", cfg.GetPollInterval())
	}
	if cfg.GetSnapshotInterval() != 5*time.Minute {
		t.Errorf("GetSnapshotInterval() = %v, want 5m", cfg.GetSnapshotInterval())
	}
	if cfg.GetBroker() != "tcp://localhost:1883" {
		t.Errorf("GetBroker() = %q", cfg.GetBroker())
	}
	if cfg.GetTopic() != "touch/contacts" {
		t.Errorf("GetTopic() = %q", cfg.GetTopic())
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tuning.json")

	testJSON := `{
  "threshold": 300,
  "line_offset": 1,
  "poll_interval": "20ms",
  "broker": "tcp://broker.local:1883",
  "snapshot_interval": "2m"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("LoadTuningConfig: %v", err)
	}

	p := cfg.PipelineParams()
	if p.Threshold != 300 {
		t.Errorf("Threshold = %d, want 300", p.Threshold)
	}
	if p.LineOffset != 1 {
		t.Errorf("LineOffset = %d, want 1", p.LineOffset)
	}
	// Unset fields keep defaults.
	if p.AverageWindow != 255 {
		t.Errorf("AverageWindow = %d, want default 255", p.AverageWindow)
	}
	if cfg.GetPollInterval() != 20*time.Millisecond {
		t.Errorf("GetPollInterval() = %v, want 20ms", cfg.GetPollInterval())
	}
	if cfg.GetBroker() != "tcp://broker.local:1883" {
		t.Errorf("GetBroker() = %q", cfg.GetBroker())
	}
	if cfg.GetSnapshotInterval() != 2*time.Minute {
		t.Errorf("GetSnapshotInterval() = %v, want 2m", cfg.GetSnapshotInterval())
	}
}

func TestLoadTuningConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr string
	}{
		{"window past accumulator bound", `{"average_window": 300}`, "overflows"},
		{"bad poll interval", `{"poll_interval": "soon"}`, "poll_interval"},
		{"bad snapshot interval", `{"snapshot_interval": "later"}`, "snapshot_interval"},
		{"zero max contacts", `{"max_contacts": 0}`, "max contacts"},
		{"threshold past uint16", `{"threshold": 65537}`, "out of range"},
		{"negative threshold", `{"threshold": -1}`, "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tuning.json")
			if err := os.WriteFile(path, []byte(tt.json), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, err := LoadTuningConfig(path)
			if err == nil {
				t.Fatal("expected load error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadTuningConfigRejectsNonJSONPath(t *testing.T) {
	if _, err := LoadTuningConfig("tuning.yaml"); err == nil {
		t.Fatal("expected extension error")
	}
}
