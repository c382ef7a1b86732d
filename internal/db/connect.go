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
			dsn = "file:randomdata.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/randomdata?sslmode=disable"
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

CREATE TABLE IF NOT EXISTS questions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  qtext TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS dataset_definitions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  category INTEGER NOT NULL DEFAULT 0,
  name TEXT NOT NULL,
  scope INTEGER NOT NULL DEFAULT 0,       -- 0 private, 1 shared per category
  options TEXT NOT NULL DEFAULT '',       -- "kind:min:max:decimals"
  itemcount INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS question_datasets (
  question INTEGER NOT NULL,
  definition INTEGER NOT NULL REFERENCES dataset_definitions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS dataset_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  definition INTEGER NOT NULL REFERENCES dataset_definitions(id) ON DELETE CASCADE,
  itemnumber INTEGER NOT NULL,
  value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS answers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  question INTEGER NOT NULL,
  formula TEXT NOT NULL,
  fraction REAL NOT NULL DEFAULT 0,
  tolerance REAL NOT NULL DEFAULT 0,
  tolerancetype INTEGER NOT NULL DEFAULT 1,
  answerlength INTEGER NOT NULL DEFAULT 2,
  answerformat INTEGER NOT NULL DEFAULT 1,
  unit TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS validation_rules (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  question INTEGER NOT NULL,
  formula TEXT NOT NULL,
  zero INTEGER NOT NULL DEFAULT 1,
  positive INTEGER NOT NULL DEFAULT 1,
  negative INTEGER NOT NULL DEFAULT 1,
  minformula TEXT NOT NULL DEFAULT '',
  maxformula TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS generation_results (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  question INTEGER NOT NULL,
  distribution TEXT NOT NULL,
  result TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_dataset_items_def ON dataset_items(definition, itemnumber);
CREATE INDEX IF NOT EXISTS idx_question_datasets_q ON question_datasets(question);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS questions (
  id BIGINT PRIMARY KEY,
  name TEXT NOT NULL,
  qtext TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS dataset_definitions (
  id BIGSERIAL PRIMARY KEY,
  category BIGINT NOT NULL DEFAULT 0,
  name TEXT NOT NULL,
  scope INTEGER NOT NULL DEFAULT 0,
  options TEXT NOT NULL DEFAULT '',
  itemcount INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS question_datasets (
  question BIGINT NOT NULL,
  definition BIGINT NOT NULL REFERENCES dataset_definitions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS dataset_items (
  id BIGSERIAL PRIMARY KEY,
  definition BIGINT NOT NULL REFERENCES dataset_definitions(id) ON DELETE CASCADE,
  itemnumber INTEGER NOT NULL,
  value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS answers (
  id BIGSERIAL PRIMARY KEY,
  question BIGINT NOT NULL,
  formula TEXT NOT NULL,
  fraction DOUBLE PRECISION NOT NULL DEFAULT 0,
  tolerance DOUBLE PRECISION NOT NULL DEFAULT 0,
  tolerancetype INTEGER NOT NULL DEFAULT 1,
  answerlength INTEGER NOT NULL DEFAULT 2,
  answerformat INTEGER NOT NULL DEFAULT 1,
  unit TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS validation_rules (
  id BIGSERIAL PRIMARY KEY,
  question BIGINT NOT NULL,
  formula TEXT NOT NULL,
  zero INTEGER NOT NULL DEFAULT 1,
  positive INTEGER NOT NULL DEFAULT 1,
  negative INTEGER NOT NULL DEFAULT 1,
  minformula TEXT NOT NULL DEFAULT '',
  maxformula TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS generation_results (
  id BIGSERIAL PRIMARY KEY,
  question BIGINT NOT NULL,
  distribution TEXT NOT NULL,
  result TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_dataset_items_def ON dataset_items(definition, itemnumber);
CREATE INDEX IF NOT EXISTS idx_question_datasets_q ON question_datasets(question);
`
