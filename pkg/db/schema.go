package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Runs table: one row per docket run
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    docket_id TEXT NOT NULL,
    categories TEXT NOT NULL,         -- comma-joined requested categories
    requester TEXT NOT NULL,
    status TEXT NOT NULL,             -- running, completed, aborted
    failure_reason TEXT,
    total_records INTEGER DEFAULT 0,
    manifest_rows INTEGER DEFAULT 0,
    quarantined INTEGER DEFAULT 0,
    archive_path TEXT,
    started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    finished_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_docket ON runs(docket_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`
