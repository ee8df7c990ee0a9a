package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Verdict classifies the outcome of one checked move
type Verdict string

const (
	// VerdictCommitted means the target passed the check and was applied
	VerdictCommitted Verdict = "committed"

	// VerdictSafetyRollback means the target violated the tolerance and
	// the rollback set was forced back to the pretuned point
	VerdictSafetyRollback Verdict = "safety_rollback"

	// VerdictHardwareError means an instrument write or read failed
	VerdictHardwareError Verdict = "hardware_error"
)

// Record is the audit entry for one SetChecked invocation.
type Record struct {
	// RunID uniquely identifies the invocation
	RunID string

	// Device is the configured device name the move targeted
	Device string

	// Verdict is the outcome of the move
	Verdict Verdict

	// Target is the requested gate voltage vector
	Target []float64

	// Actual is the readback after a committed move (nil otherwise)
	Actual []float64

	// MaxDeviation is the largest per-gate deviation from the pretuned
	// point among the checked gates
	MaxDeviation float64

	// Detail carries the error message for failed moves
	Detail string

	// CreatedAt is when the move completed
	CreatedAt time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS move_log (
	run_id        TEXT PRIMARY KEY,
	device        TEXT NOT NULL,
	verdict       TEXT NOT NULL,
	target_json   TEXT NOT NULL,
	actual_json   TEXT,
	max_deviation REAL NOT NULL,
	detail        TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_move_log_device_time
	ON move_log (device, created_at DESC);
`

// Store persists the move audit trail in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the audit database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history db pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history db migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records one completed move. A fresh run id is assigned and
// returned on the record.
func (s *Store) Append(rec *Record) error {
	if rec.RunID == "" {
		rec.RunID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	targetJSON, err := json.Marshal(rec.Target)
	if err != nil {
		return fmt.Errorf("marshal target: %w", err)
	}

	var actualJSON any
	if rec.Actual != nil {
		b, err := json.Marshal(rec.Actual)
		if err != nil {
			return fmt.Errorf("marshal actual: %w", err)
		}
		actualJSON = string(b)
	}

	_, err = s.db.Exec(
		`INSERT INTO move_log (run_id, device, verdict, target_json, actual_json, max_deviation, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Device, string(rec.Verdict), string(targetJSON), actualJSON,
		rec.MaxDeviation, rec.Detail, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert move record: %w", err)
	}
	return nil
}

// Recent returns the most recent moves for a device, newest first.
// If device is empty, moves for all devices are returned.
func (s *Store) Recent(device string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT run_id, device, verdict, target_json, actual_json, max_deviation, detail, created_at
	          FROM move_log`
	args := []any{}
	if device != "" {
		query += ` WHERE device = ?`
		args = append(args, device)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query move log: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			rec        Record
			verdict    string
			targetJSON string
			actualJSON sql.NullString
			createdAt  string
		)
		if err := rows.Scan(&rec.RunID, &rec.Device, &verdict, &targetJSON, &actualJSON,
			&rec.MaxDeviation, &rec.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan move record: %w", err)
		}

		rec.Verdict = Verdict(verdict)
		if err := json.Unmarshal([]byte(targetJSON), &rec.Target); err != nil {
			return nil, fmt.Errorf("unmarshal target: %w", err)
		}
		if actualJSON.Valid {
			if err := json.Unmarshal([]byte(actualJSON.String), &rec.Actual); err != nil {
				return nil, fmt.Errorf("unmarshal actual: %w", err)
			}
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse move timestamp: %w", err)
		}

		records = append(records, &rec)
	}
	return records, rows.Err()
}
