package refill

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Record represents a single fueling event written to the refill log.
// Records are immutable once created; the only mutation the store supports
// is bulk deletion of a user's entire history.
type Record struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	RecordedAt time.Time `json:"recorded_at"`
	Amount     float64   `json:"amount"`
	Cost       float64   `json:"cost"`
	Odometer   int64     `json:"odometer"`
}

// PricePerLiter returns the unit price paid for this refill.
func (r Record) PricePerLiter() float64 {
	if r.Amount <= 0 {
		return 0
	}
	return r.Cost / r.Amount
}

// MonthTotal aggregates a user's refills for one calendar month.
// AvgPricePerLiter is the per-record mean of cost/amount, not total cost
// divided by total liters.
type MonthTotal struct {
	Year             int        `json:"year"`
	Month            time.Month `json:"month"`
	Liters           float64    `json:"liters"`
	Cost             float64    `json:"cost"`
	AvgPricePerLiter float64    `json:"avg_price_per_liter"`
}

// ErrInvalidRecord indicates a refill that violates the positivity
// invariant (amount, cost and odometer must all be > 0).
var ErrInvalidRecord = errors.New("refill: amount, cost and odometer must be positive")

// StoreError wraps a backing-store failure. The conversation layer reports
// these as a generic retryable failure instead of crashing the session.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("refill store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err for the named operation. Returns nil when err is nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// Validate checks the positivity invariant shared by every backend.
// NaN and infinite values are rejected too: NaN compares false against
// zero, so a plain `<= 0` check would let it through.
func Validate(userID int64, amount, cost float64, odometer int64) error {
	if userID == 0 {
		return errors.New("refill: user id required")
	}
	if !isFinite(amount) || !isFinite(cost) {
		return ErrInvalidRecord
	}
	if amount <= 0 || cost <= 0 || odometer <= 0 {
		return ErrInvalidRecord
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DefaultHistoryLimit is used when RecentHistory is called with limit <= 0.
const DefaultHistoryLimit = 10

// Store defines persistence behaviour for the refill log.
//
// All query methods are scoped by user id. A read issued after Append has
// returned observes the appended record (single *sql.DB per store, writes
// are committed before Append returns).
type Store interface {
	// Append durably persists a new refill. RecordedAt is assigned by the
	// store at insert time; ID is the backend's surrogate key.
	Append(ctx context.Context, userID int64, amount, cost float64, odometer int64) (Record, error)

	// LatestTwoByOdometer returns at most two records ordered by odometer
	// descending. An odometer tie is broken by insertion order, most recent
	// id first.
	LatestTwoByOdometer(ctx context.Context, userID int64) ([]Record, error)

	// MonthlyTotals returns one aggregate per calendar month present in the
	// user's history, most recent month first. The grouping key is the
	// year/month extracted from recorded_at.
	MonthlyTotals(ctx context.Context, userID int64) ([]MonthTotal, error)

	// RecentHistory returns the latest records ordered by recorded_at
	// descending, ties broken by id descending.
	RecentHistory(ctx context.Context, userID int64, limit int) ([]Record, error)

	// DeleteAll removes every record for the user. Irreversible.
	DeleteAll(ctx context.Context, userID int64) error

	// Ping reports backing-store connectivity.
	Ping(ctx context.Context) error

	Close() error
}
