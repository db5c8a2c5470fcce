package db

import (
	"fmt"
	"time"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusAborted   = "aborted"
)

// Run is one registry row.
type Run struct {
	RunID         int64
	DocketID      string
	Categories    string
	Requester     string
	Status        string
	FailureReason string
	TotalRecords  int
	ManifestRows  int
	Quarantined   int
	ArchivePath   string
	StartedAt     time.Time
	FinishedAt    time.Time
	Finished      bool
}

// InsertRun records the start of a run and returns its run_id.
func (db *DB) InsertRun(docketID, categories, requester string) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO runs (docket_id, categories, requester, status)
		VALUES (?, ?, ?, ?)
	`, docketID, categories, requester, RunStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}
	return runID, nil
}

// CompleteRun marks a run completed with its final counts and archive path.
func (db *DB) CompleteRun(runID int64, totalRecords, manifestRows, quarantined int, archivePath string) error {
	_, err := db.Exec(`
		UPDATE runs
		SET status = ?, total_records = ?, manifest_rows = ?, quarantined = ?,
		    archive_path = ?, finished_at = CURRENT_TIMESTAMP
		WHERE run_id = ?
	`, RunStatusCompleted, totalRecords, manifestRows, quarantined, archivePath, runID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// AbortRun marks a run aborted with its failure reason.
func (db *DB) AbortRun(runID int64, reason string) error {
	_, err := db.Exec(`
		UPDATE runs
		SET status = ?, failure_reason = ?, finished_at = CURRENT_TIMESTAMP
		WHERE run_id = ?
	`, RunStatusAborted, reason, runID)
	if err != nil {
		return fmt.Errorf("failed to abort run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. docketID narrows the
// listing when non-empty; limit <= 0 means no limit.
func (db *DB) ListRuns(docketID string, limit int) ([]Run, error) {
	query := `
		SELECT run_id, docket_id, categories, requester, status,
		       COALESCE(failure_reason, ''), total_records, manifest_rows,
		       quarantined, COALESCE(archive_path, ''), started_at, finished_at
		FROM runs
	`
	var args []interface{}
	if docketID != "" {
		query += " WHERE docket_id = ?"
		args = append(args, docketID)
	}
	query += " ORDER BY run_id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finishedAt *time.Time
		if err := rows.Scan(&r.RunID, &r.DocketID, &r.Categories, &r.Requester, &r.Status,
			&r.FailureReason, &r.TotalRecords, &r.ManifestRows,
			&r.Quarantined, &r.ArchivePath, &r.StartedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if finishedAt != nil {
			r.FinishedAt = *finishedAt
			r.Finished = true
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}
