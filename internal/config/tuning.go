// Package config loads the touchd tuning file: pipeline calibration
// tunables plus the daemon's transport, emitter and snapshot settings.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/contact.report/internal/touch/pipeline"
)

// TuningConfig is the root tuning document. All fields are pointers so a
// partial JSON file only overrides what it names; the Get* accessors
// supply defaults for everything else.
type TuningConfig struct {
	// Pipeline params
	Threshold           *int `json:"threshold,omitempty"`
	AverageWindow       *int `json:"average_window,omitempty"`
	SigmaWindow         *int `json:"sigma_window,omitempty"`
	RecalibrationPeriod *int `json:"recalibration_period,omitempty"`
	MaxContacts         *int `json:"max_contacts,omitempty"`
	LineOffset          *int `json:"line_offset,omitempty"`

	// Tick loop
	PollInterval *string `json:"poll_interval,omitempty"` // duration string like "10ms"

	// Event emitter
	Broker *string `json:"broker,omitempty"` // MQTT broker URL, e.g. "tcp://localhost:1883"
	Topic  *string `json:"topic,omitempty"`

	// Calibration snapshot store
	SnapshotInterval *string `json:"snapshot_interval,omitempty"` // duration string like "5m"
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted
// from the file retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
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

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration. Pipeline values are validated by
// assembling the effective params, which re-derives the 16-bit
// accumulator bound whenever a window is overridden. The threshold is
// range-checked here first: PipelineParams narrows it to uint16, and a
// silent truncation would let an out-of-range value validate as a
// different threshold entirely.
func (c *TuningConfig) Validate() error {
	if c.Threshold != nil && (*c.Threshold < 1 || *c.Threshold > math.MaxUint16) {
		return fmt.Errorf("threshold %d out of range 1..%d", *c.Threshold, math.MaxUint16)
	}
	if err := c.PipelineParams().Validate(); err != nil {
		return err
	}
	if c.PollInterval != nil && *c.PollInterval != "" {
		if _, err := time.ParseDuration(*c.PollInterval); err != nil {
			return fmt.Errorf("invalid poll_interval '%s': %w", *c.PollInterval, err)
		}
	}
	if c.SnapshotInterval != nil && *c.SnapshotInterval != "" {
		if _, err := time.ParseDuration(*c.SnapshotInterval); err != nil {
			return fmt.Errorf("invalid snapshot_interval '%s': %w", *c.SnapshotInterval, err)
		}
	}
	return nil
}

// PipelineParams assembles pipeline.Params from the overrides and defaults.
func (c *TuningConfig) PipelineParams() pipeline.Params {
	p := pipeline.DefaultParams()
	if c.Threshold != nil {
		p.Threshold = uint16(*c.Threshold)
	}
	if c.AverageWindow != nil {
		p.AverageWindow = *c.AverageWindow
	}
	if c.SigmaWindow != nil {
		p.SigmaWindow = *c.SigmaWindow
	}
	if c.RecalibrationPeriod != nil {
		p.RecalibrationPeriod = *c.RecalibrationPeriod
	}
	if c.MaxContacts != nil {
		p.MaxContacts = *c.MaxContacts
	}
	if c.LineOffset != nil {
		p.LineOffset = *c.LineOffset
	}
	return p
}

// GetPollInterval parses and returns the PollInterval as a time.Duration.
func (c *TuningConfig) GetPollInterval() time.Duration {
	if c.PollInterval == nil || *c.PollInterval == "" {
		return 10 * time.Millisecond // the foil's nominal tick
	}
	d, err := time.ParseDuration(*c.PollInterval)
	if err != nil {
		return 10 * time.Millisecond
	}
	return d
}

// GetSnapshotInterval parses and returns the SnapshotInterval as a time.Duration.
func (c *TuningConfig) GetSnapshotInterval() time.Duration {
	if c.SnapshotInterval == nil || *c.SnapshotInterval == "" {
		return 5 * time.Minute
	}
	d, err := time.ParseDuration(*c.SnapshotInterval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// GetBroker returns the MQTT broker URL or the default.
func (c *TuningConfig) GetBroker() string {
	if c.Broker == nil || *c.Broker == "" {
		return "tcp://localhost:1883"
	}
	return *c.Broker
}

// GetTopic returns the MQTT topic or the default.
func (c *TuningConfig) GetTopic() string {
	if c.Topic == nil || *c.Topic == "" {
		return "touch/contacts"
	}
	return *c.Topic
}
