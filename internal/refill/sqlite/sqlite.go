package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// register sqlite driver
	_ "modernc.org/sqlite"

	"github.com/fueltrack/fueltrack-bot/internal/refill"
)

// Timestamps are stored as fixed-width UTC text so SQLite's date functions
// and lexicographic ORDER BY both work on them. Reads accept any fractional
// precision, covering rows created by the column default.
const (
	timeLayoutWrite = "2006-01-02 15:04:05.000"
	timeLayoutRead  = "2006-01-02 15:04:05.999999999"
)

// Store implements refill.Store backed by an embedded SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite store at the given path.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create refill db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS refills (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	amount REAL NOT NULL CHECK(amount > 0),
	cost REAL NOT NULL CHECK(cost > 0),
	odometer INTEGER NOT NULL CHECK(odometer > 0)
);
CREATE INDEX IF NOT EXISTS idx_refills_user_odometer ON refills(user_id, odometer DESC);
CREATE INDEX IF NOT EXISTS idx_refills_user_recorded ON refills(user_id, recorded_at DESC);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases underlying database resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Append inserts a new refill with recorded_at set to the current instant.
func (s *Store) Append(ctx context.Context, userID int64, amount, cost float64, odometer int64) (refill.Record, error) {
	if err := refill.Validate(userID, amount, cost, odometer); err != nil {
		return refill.Record{}, err
	}
	recordedAt := time.Now().UTC().Truncate(time.Millisecond)
	res, err := s.db.ExecContext(ctx, `
INSERT INTO refills(user_id, recorded_at, amount, cost, odometer)
VALUES(?, ?, ?, ?, ?)`,
		userID, recordedAt.Format(timeLayoutWrite), amount, cost, odometer,
	)
	if err != nil {
		return refill.Record{}, refill.NewStoreError("append", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return refill.Record{}, refill.NewStoreError("append", err)
	}
	return refill.Record{
		ID:         id,
		UserID:     userID,
		RecordedAt: recordedAt,
		Amount:     amount,
		Cost:       cost,
		Odometer:   odometer,
	}, nil
}

// LatestTwoByOdometer returns at most two records, largest odometer first.
// Equal odometers fall back to insertion order, most recent id first.
func (s *Store) LatestTwoByOdometer(ctx context.Context, userID int64) ([]refill.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, recorded_at, amount, cost, odometer
FROM refills
WHERE user_id = ?
ORDER BY odometer DESC, id DESC
LIMIT 2`, userID)
	if err != nil {
		return nil, refill.NewStoreError("latest two", err)
	}
	defer rows.Close()
	records, err := scanRecords(rows)
	if err != nil {
		return nil, refill.NewStoreError("latest two", err)
	}
	return records, nil
}

// MonthlyTotals aggregates refills per calendar month, most recent first.
func (s *Store) MonthlyTotals(ctx context.Context, userID int64) ([]refill.MonthTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT
	CAST(strftime('%Y', recorded_at) AS INTEGER) AS year,
	CAST(strftime('%m', recorded_at) AS INTEGER) AS month,
	SUM(amount) AS liters,
	SUM(cost) AS total_cost,
	AVG(cost / amount) AS avg_price
FROM refills
WHERE user_id = ?
GROUP BY year, month
ORDER BY year DESC, month DESC`, userID)
	if err != nil {
		return nil, refill.NewStoreError("monthly totals", err)
	}
	defer rows.Close()

	var totals []refill.MonthTotal
	for rows.Next() {
		var year, month int
		var liters, cost float64
		var avg sql.NullFloat64
		if err := rows.Scan(&year, &month, &liters, &cost, &avg); err != nil {
			return nil, refill.NewStoreError("monthly totals", err)
		}
		totals = append(totals, refill.MonthTotal{
			Year:             year,
			Month:            time.Month(month),
			Liters:           liters,
			Cost:             cost,
			AvgPricePerLiter: avg.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, refill.NewStoreError("monthly totals", err)
	}
	return totals, nil
}

// RecentHistory returns the latest refills ordered by recorded_at descending.
func (s *Store) RecentHistory(ctx context.Context, userID int64, limit int) ([]refill.Record, error) {
	if limit <= 0 {
		limit = refill.DefaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, recorded_at, amount, cost, odometer
FROM refills
WHERE user_id = ?
ORDER BY recorded_at DESC, id DESC
LIMIT ?`, userID, limit)
	if err != nil {
		return nil, refill.NewStoreError("recent history", err)
	}
	defer rows.Close()
	records, err := scanRecords(rows)
	if err != nil {
		return nil, refill.NewStoreError("recent history", err)
	}
	return records, nil
}

// DeleteAll removes every refill belonging to the user.
func (s *Store) DeleteAll(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM refills WHERE user_id = ?`, userID); err != nil {
		return refill.NewStoreError("delete all", err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]refill.Record, error) {
	var records []refill.Record
	for rows.Next() {
		var r refill.Record
		var recordedAt string
		if err := rows.Scan(&r.ID, &r.UserID, &recordedAt, &r.Amount, &r.Cost, &r.Odometer); err != nil {
			return nil, err
		}
		ts, err := time.Parse(timeLayoutRead, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", recordedAt, err)
		}
		r.RecordedAt = ts
		records = append(records, r)
	}
	return records, rows.Err()
}
