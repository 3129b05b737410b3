package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:resimed.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/resimed?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS residents (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  cohort_year INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS teachers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS subjects (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  type TEXT NOT NULL,
  lead_teacher_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS quizzes (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  subject TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS quiz_attempts (
  id TEXT PRIMARY KEY,
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  resident_id TEXT NOT NULL,
  score REAL NOT NULL,
  status TEXT NOT NULL,
  submitted_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_attempts_resident ON quiz_attempts(resident_id);

CREATE TABLE IF NOT EXISTS evaluations (
  id TEXT PRIMARY KEY,
  resident_id TEXT NOT NULL,
  subject_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  average_score REAL NOT NULL,
  dimensions_json TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_evaluations_resident ON evaluations(resident_id);

CREATE TABLE IF NOT EXISTS manual_grades (
  id TEXT PRIMARY KEY,
  resident_id TEXT NOT NULL,
  subject_id TEXT NOT NULL,
  component TEXT NOT NULL,
  grade REAL NOT NULL,
  comment TEXT NOT NULL DEFAULT '',
  author_id TEXT NOT NULL DEFAULT '',
  updated_at INTEGER NOT NULL,
  UNIQUE (resident_id, subject_id, component)
);

CREATE TABLE IF NOT EXISTS actas (
  id TEXT PRIMARY KEY,
  resident_id TEXT NOT NULL,
  subject_id TEXT NOT NULL,
  teacher_id TEXT NOT NULL DEFAULT '',
  generated_at INTEGER NOT NULL,
  status TEXT NOT NULL,
  snapshot_json TEXT NOT NULL,
  signature_json TEXT,
  UNIQUE (resident_id, subject_id)
);

CREATE TABLE IF NOT EXISTS exams (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  resident_id TEXT NOT NULL,
  date INTEGER NOT NULL,
  commission_json TEXT NOT NULL,
  topics_json TEXT NOT NULL,
  dimensions_json TEXT NOT NULL,
  grade REAL,
  result TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  comments TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_exams_resident ON exams(resident_id, kind);

CREATE TABLE IF NOT EXISTS surveys (
  id TEXT PRIMARY KEY,
  resident_id TEXT NOT NULL,
  subject_id TEXT NOT NULL,
  teacher_id TEXT NOT NULL,
  status TEXT NOT NULL,
  requested_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS residents (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  cohort_year INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS teachers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS subjects (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  type TEXT NOT NULL,
  lead_teacher_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS quizzes (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  subject TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS quiz_attempts (
  id TEXT PRIMARY KEY,
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  resident_id TEXT NOT NULL,
  score DOUBLE PRECISION NOT NULL,
  status TEXT NOT NULL,
  submitted_at BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_attempts_resident ON quiz_attempts(resident_id);

CREATE TABLE IF NOT EXISTS evaluations (
  id TEXT PRIMARY KEY,
  resident_id TEXT NOT NULL,
  subject_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  average_score DOUBLE PRECISION NOT NULL,
  dimensions_json TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_evaluations_resident ON evaluations(resident_id);

CREATE TABLE IF NOT EXISTS manual_grades (
  id TEXT PRIMARY KEY,
  resident_id TEXT NOT NULL,
  subject_id TEXT NOT NULL,
  component TEXT NOT NULL,
  grade DOUBLE PRECISION NOT NULL,
  comment TEXT NOT NULL DEFAULT '',
  author_id TEXT NOT NULL DEFAULT '',
  updated_at BIGINT NOT NULL,
  UNIQUE (resident_id, subject_id, component)
);

CREATE TABLE IF NOT EXISTS actas (
  id TEXT PRIMARY KEY,
  resident_id TEXT NOT NULL,
  subject_id TEXT NOT NULL,
  teacher_id TEXT NOT NULL DEFAULT '',
  generated_at BIGINT NOT NULL,
  status TEXT NOT NULL,
  snapshot_json TEXT NOT NULL,
  signature_json TEXT,
  UNIQUE (resident_id, subject_id)
);

CREATE TABLE IF NOT EXISTS exams (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  resident_id TEXT NOT NULL,
  date BIGINT NOT NULL,
  commission_json TEXT NOT NULL,
  topics_json TEXT NOT NULL,
  dimensions_json TEXT NOT NULL,
  grade DOUBLE PRECISION,
  result TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  comments TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_exams_resident ON exams(resident_id, kind);

CREATE TABLE IF NOT EXISTS surveys (
  id TEXT PRIMARY KEY,
  resident_id TEXT NOT NULL,
  subject_id TEXT NOT NULL,
  teacher_id TEXT NOT NULL,
  status TEXT NOT NULL,
  requested_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL
);
`
