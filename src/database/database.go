package database

import (
	"database/sql"
	"fmt"
	stdlog "log"

	"github.com/gset/fibertrack/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

const schema = `
	CREATE TABLE IF NOT EXISTS import_batches (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		format TEXT NOT NULL,
		source TEXT,
		period TEXT NOT NULL,
		content_hash TEXT NOT NULL UNIQUE,
		total_records INTEGER NOT NULL DEFAULT 0,
		skipped_records INTEGER NOT NULL DEFAULT 0,
		total_amount TEXT NOT NULL DEFAULT '0',
		total_tech TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS interventions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT NOT NULL,
		source TEXT NOT NULL,
		technician_id TEXT NOT NULL,
		billing_code TEXT,
		reference_id TEXT,
		agency TEXT,
		amount_gset TEXT NOT NULL,
		amount_tech TEXT NOT NULL,
		intervention_date TEXT,
		week_number INTEGER,
		month INTEGER,
		year INTEGER,
		period TEXT NOT NULL,
		price_fallback BOOLEAN DEFAULT FALSE,
		source_row INTEGER,
		FOREIGN KEY(batch_id) REFERENCES import_batches(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_interventions_batch ON interventions(batch_id);
	CREATE INDEX IF NOT EXISTS idx_interventions_period ON interventions(period);

	CREATE TABLE IF NOT EXISTS daily_tracking (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT NOT NULL,
		source TEXT NOT NULL,
		technician_id TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT,
		planned INTEGER NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		ok INTEGER NOT NULL DEFAULT 0,
		nok INTEGER NOT NULL DEFAULT 0,
		deferred INTEGER NOT NULL DEFAULT 0,
		period TEXT NOT NULL,
		source_row INTEGER,
		FOREIGN KEY(batch_id) REFERENCES import_batches(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_daily_tracking_batch ON daily_tracking(batch_id);

	CREATE TABLE IF NOT EXISTS rejections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT NOT NULL,
		source TEXT NOT NULL,
		technician_id TEXT,
		reference_id TEXT,
		billing_code TEXT,
		reason TEXT,
		rejected_at TEXT,
		status TEXT NOT NULL DEFAULT 'PLANNED',
		period TEXT NOT NULL,
		source_row INTEGER,
		FOREIGN KEY(batch_id) REFERENCES import_batches(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_rejections_batch ON rejections(batch_id);

	CREATE TABLE IF NOT EXISTS price_overrides (
		code TEXT PRIMARY KEY,
		gset_price TEXT NOT NULL,
		tech_price TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

// InitDB opens the application database and brings its schema up to date.
func InitDB(databasePath string) {
	db, err := Open(databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}
	DB = db
}

// Open connects to a sqlite file and runs the migrations. Foreign keys are switched on
// per connection through the DSN.
func Open(databasePath string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", databasePath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY inside import transactions.
	db.SetMaxOpenConns(1)

	logger.L.Info("Checking database migrations", "databasePath", databasePath)
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates missing tables and adds columns introduced after a table was first created.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		logger.L.Error("failed to create tables", "error", err)
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if err := ensureColumns(db, "interventions", []columnDef{
		{name: "agency", ddl: "TEXT"},
		{name: "price_fallback", ddl: "BOOLEAN DEFAULT FALSE"},
		{name: "source_row", ddl: "INTEGER"},
	}); err != nil {
		return err
	}
	if err := ensureColumns(db, "import_batches", []columnDef{
		{name: "skipped_records", ddl: "INTEGER NOT NULL DEFAULT 0"},
		{name: "total_tech", ddl: "TEXT NOT NULL DEFAULT '0'"},
	}); err != nil {
		return err
	}

	logger.L.Info("Database tables ensured/created.")
	return nil
}

type columnDef struct {
	name string
	ddl  string
}

func ensureColumns(db *sql.DB, table string, columns []columnDef) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		logger.L.Error("Error querying table schema", "table", table, "error", err)
		return fmt.Errorf("querying schema of %s: %w", table, err)
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			logger.L.Error("Error scanning column info", "table", table, "error", err)
			return fmt.Errorf("scanning schema of %s: %w", table, err)
		}
		columnExists[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating schema of %s: %w", table, err)
	}
	rows.Close()

	for _, col := range columns {
		if columnExists[col.name] {
			continue
		}
		if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, col.name, col.ddl)); err != nil {
			logger.L.Error("Error adding column", "table", table, "column", col.name, "error", err)
			return fmt.Errorf("adding %s.%s: %w", table, col.name, err)
		}
		logger.L.Info("Added column", "table", table, "column", col.name)
	}
	return nil
}
