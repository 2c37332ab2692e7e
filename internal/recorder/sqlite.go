package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"DemandBoard/internal/model"
)

// SQLiteRecorder persists history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS actual_loads (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			source     TEXT,
			points     INTEGER,
			first_date TEXT,
			last_date  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loads_ts ON actual_loads(timestamp)`,

		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id              TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			source          TEXT,
			model           TEXT NOT NULL,
			days            INTEGER NOT NULL,
			axis_len        INTEGER,
			actual_points   INTEGER,
			forecast_points INTEGER,
			y_max           REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON forecast_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS forecast_points (
			run_id   TEXT NOT NULL REFERENCES forecast_runs(id),
			position INTEGER NOT NULL,
			date     TEXT NOT NULL,
			actual   REAL,
			forecast REAL,
			PRIMARY KEY (run_id, position)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordLoad(evt *LoadEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO actual_loads
		(timestamp, source, points, first_date, last_date)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.Source, evt.Points, evt.FirstDate, evt.LastDate,
	)
	return err
}

// RecordForecast stores the run and every aligned point in one transaction.
// An empty run ID is replaced with a new uuid.
func (r *SQLiteRecorder) RecordForecast(run *ForecastRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	actualN, forecastN := run.Frame.PresentCount()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO forecast_runs
		(id, timestamp, source, model, days, axis_len, actual_points, forecast_points, y_max)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, time.Now().Unix(), run.Source, string(run.Model), run.Days,
		run.Frame.Len(), actualN, forecastN, run.YMax,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO forecast_points (run_id, position, date, actual, forecast) VALUES (?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare points: %w", err)
	}
	defer stmt.Close()
	for i, date := range run.Frame.Axis {
		if _, err := stmt.Exec(run.ID, i, date, nullable(run.Frame.Actual[i]), nullable(run.Frame.Forecast[i])); err != nil {
			return fmt.Errorf("insert point %s: %w", date, err)
		}
	}
	return tx.Commit()
}

// LoadFrame reads back the aligned frame stored for a run.
func (r *SQLiteRecorder) LoadFrame(runID string) (model.AlignedFrame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frame := model.AlignedFrame{Axis: []string{}, Actual: []model.Optional{}, Forecast: []model.Optional{}}
	rows, err := r.db.Query(`SELECT date, actual, forecast FROM forecast_points WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return frame, err
	}
	defer rows.Close()
	for rows.Next() {
		var date string
		var actual, forecast sql.NullFloat64
		if err := rows.Scan(&date, &actual, &forecast); err != nil {
			return frame, err
		}
		frame.Axis = append(frame.Axis, date)
		frame.Actual = append(frame.Actual, model.Optional{Value: actual.Float64, Present: actual.Valid})
		frame.Forecast = append(frame.Forecast, model.Optional{Value: forecast.Float64, Present: forecast.Valid})
	}
	return frame, rows.Err()
}

// CountLoads returns the number of recorded loads.
func (r *SQLiteRecorder) CountLoads() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM actual_loads`).Scan(&n)
	return n, err
}

func nullable(o model.Optional) sql.NullFloat64 {
	return sql.NullFloat64{Float64: o.Value, Valid: o.Present}
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
