package database

// Schema contains all SQL statements for creating tables and indexes
const Schema = `
-- Workouts table: one row per Strava activity
CREATE TABLE IF NOT EXISTS workouts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    activity_id INTEGER NOT NULL UNIQUE,  -- Strava activity ID

    -- Record fields
    name TEXT NOT NULL,
    activity_type TEXT NOT NULL,
    date TEXT NOT NULL,              -- YYYY-MM-DD in the configured timezone
    start_time_local TEXT NOT NULL,  -- ISO-8601 with numeric offset
    start_unix INTEGER NOT NULL,     -- for ordering across offsets
    duration_minutes INTEGER NOT NULL,
    distance_miles REAL NOT NULL DEFAULT 0,

    -- Calendar state, only ever set from 0 to 1
    calendar_created BOOLEAN NOT NULL DEFAULT 0,

    -- Metadata
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_workouts_date ON workouts(date);
CREATE INDEX IF NOT EXISTS idx_workouts_pending ON workouts(date, start_unix) WHERE calendar_created = 0;
`
