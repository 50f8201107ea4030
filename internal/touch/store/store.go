// Package store persists touch calibration snapshots to SQLite so a
// restarted daemon can skip the warmup windows and resume extraction
// immediately.
package store

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	_ "embed"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/contact.report/internal/monitoring"
	"github.com/banshee-data/contact.report/internal/touch/grid"
	"github.com/banshee-data/contact.report/internal/touch/pipeline"
)

//go:embed schema.sql
var schemaSQL string

// TouchDB wraps the calibration snapshot database.
type TouchDB struct {
	*sql.DB
}

// New opens (creating if needed) the snapshot database at path and applies
// the embedded schema. The schema is idempotent.
func New(path string) (*TouchDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply snapshot schema: %w", err)
	}
	monitoring.Logf("[store] initialized calibration snapshot schema at %s", path)
	return &TouchDB{db}, nil
}

// CalSnapshot is one persisted calibration: the finalized baseline and
// noise-scale grids plus the tuning that produced them.
type CalSnapshot struct {
	ID             int64
	SessionID      string
	SensorID       string
	TakenUnixNanos int64
	Params         pipeline.Params
	Baseline       []uint16
	Sigma          []uint16
	Reason         string
}

// serializeGrid compresses a per-cell grid using gob encoding and gzip.
func serializeGrid(cells []uint16) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(cells); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// deserializeGrid decompresses and decodes a grid from a gob+gzip blob.
func deserializeGrid(blob []byte) ([]uint16, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty grid blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var cells []uint16
	if err := gob.NewDecoder(gz).Decode(&cells); err != nil {
		return nil, fmt.Errorf("failed to decode grid cells: %w", err)
	}
	return cells, nil
}

// StartSession records a new daemon session and returns its id.
func (tdb *TouchDB) StartSession(sensorID, notes string) (string, error) {
	sessionID := uuid.NewString()
	_, err := tdb.Exec(
		`INSERT INTO touch_sessions (session_id, sensor_id, session_notes) VALUES (?, ?, ?)`,
		sessionID, sensorID, notes)
	if err != nil {
		return "", fmt.Errorf("failed to start touch session: %w", err)
	}
	return sessionID, nil
}

// EndSession closes a session record.
func (tdb *TouchDB) EndSession(sessionID string) error {
	_, err := tdb.Exec(
		`UPDATE touch_sessions SET end_timestamp = UNIXEPOCH('subsec') WHERE session_id = ?`,
		sessionID)
	if err != nil {
		return fmt.Errorf("failed to end touch session: %w", err)
	}
	return nil
}

// InsertCalSnapshot persists a calibration snapshot and returns its row id.
// The grids must be full frames; anything else is a caller bug.
func (tdb *TouchDB) InsertCalSnapshot(s *CalSnapshot) (int64, error) {
	if len(s.Baseline) != grid.FrameSize || len(s.Sigma) != grid.FrameSize {
		return 0, fmt.Errorf("calibration grids are %d/%d cells, want %d",
			len(s.Baseline), len(s.Sigma), grid.FrameSize)
	}

	baselineBlob, err := serializeGrid(s.Baseline)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize baseline grid: %w", err)
	}
	sigmaBlob, err := serializeGrid(s.Sigma)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize noise-scale grid: %w", err)
	}
	paramsJSON, err := json.Marshal(s.Params)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal params: %w", err)
	}

	taken := s.TakenUnixNanos
	if taken == 0 {
		taken = time.Now().UnixNano()
	}

	res, err := tdb.Exec(`
		INSERT INTO cal_snapshots
			(session_id, sensor_id, taken_unix_nanos, params_json, baseline_blob, sigma_blob, snapshot_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.SessionID, s.SensorID, taken, string(paramsJSON), baselineBlob, sigmaBlob, s.Reason)
	if err != nil {
		return 0, fmt.Errorf("failed to insert calibration snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot id: %w", err)
	}

	monitoring.Logf("[store] persisted calibration snapshot: sensor=%s, reason=%s, baseline_blob=%d bytes, sigma_blob=%d bytes",
		s.SensorID, s.Reason, len(baselineBlob), len(sigmaBlob))
	return id, nil
}

// LatestCalSnapshot returns the most recent snapshot for a sensor, or
// (nil, nil) if none has been persisted yet.
func (tdb *TouchDB) LatestCalSnapshot(sensorID string) (*CalSnapshot, error) {
	row := tdb.QueryRow(`
		SELECT id, session_id, sensor_id, taken_unix_nanos, params_json, baseline_blob, sigma_blob, snapshot_reason
		FROM cal_snapshots
		WHERE sensor_id = ?
		ORDER BY taken_unix_nanos DESC, id DESC
		LIMIT 1`, sensorID)

	var (
		s            CalSnapshot
		paramsJSON   string
		baselineBlob []byte
		sigmaBlob    []byte
	)
	err := row.Scan(&s.ID, &s.SessionID, &s.SensorID, &s.TakenUnixNanos,
		&paramsJSON, &baselineBlob, &sigmaBlob, &s.Reason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(paramsJSON), &s.Params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot params: %w", err)
	}
	if s.Baseline, err = deserializeGrid(baselineBlob); err != nil {
		return nil, fmt.Errorf("failed to deserialize baseline grid: %w", err)
	}
	if s.Sigma, err = deserializeGrid(sigmaBlob); err != nil {
		return nil, fmt.Errorf("failed to deserialize noise-scale grid: %w", err)
	}
	return &s, nil
}
