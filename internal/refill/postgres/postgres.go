package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/fueltrack/fueltrack-bot/internal/refill"
)

// Store implements refill.Store backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

// PoolConfig bounds the connection pool. Zero values leave the
// database/sql defaults in place.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// New opens a PostgreSQL-backed refill store using the provided DSN.
func New(dsn string, pool PoolConfig) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if pool.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
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
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	amount DOUBLE PRECISION NOT NULL CHECK(amount > 0),
	cost DOUBLE PRECISION NOT NULL CHECK(cost > 0),
	odometer BIGINT NOT NULL CHECK(odometer > 0)
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
	recordedAt := time.Now().UTC()
	var id int64
	err := s.db.QueryRowContext(ctx, `
INSERT INTO refills(user_id, recorded_at, amount, cost, odometer)
VALUES($1, $2, $3, $4, $5)
RETURNING id`,
		userID, recordedAt, amount, cost, odometer,
	).Scan(&id)
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
WHERE user_id = $1
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
// Year and month are extracted as integers so grouping never depends on
// timestamp text formats.
func (s *Store) MonthlyTotals(ctx context.Context, userID int64) ([]refill.MonthTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT
	EXTRACT(YEAR FROM recorded_at)::INT AS year,
	EXTRACT(MONTH FROM recorded_at)::INT AS month,
	SUM(amount) AS liters,
	SUM(cost) AS total_cost,
	AVG(cost / amount) AS avg_price
FROM refills
WHERE user_id = $1
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
WHERE user_id = $1
ORDER BY recorded_at DESC, id DESC
LIMIT $2`, userID, limit)
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
	if _, err := s.db.ExecContext(ctx, `DELETE FROM refills WHERE user_id = $1`, userID); err != nil {
		return refill.NewStoreError("delete all", err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]refill.Record, error) {
	var records []refill.Record
	for rows.Next() {
		var r refill.Record
		if err := rows.Scan(&r.ID, &r.UserID, &r.RecordedAt, &r.Amount, &r.Cost, &r.Odometer); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
