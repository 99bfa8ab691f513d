// Package stats derives consumption figures from the refill log. It is a
// pure read layer: nothing here mutates the store, and calling the same
// method twice without intervening writes yields identical results.
package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fueltrack/fueltrack-bot/internal/refill"
)

// Consumption is the instantaneous estimate derived from the two
// most-recent-by-odometer refills.
type Consumption struct {
	// PerHundred is fuel volume per 100 distance units.
	PerHundred float64 `json:"per_hundred"`
	// Distance driven between the two refills.
	Distance int64 `json:"distance"`
	// FuelUsed is the volume added at the earlier of the two refills: a
	// tank is assumed to power driving until the next stop, not the leg
	// before it.
	FuelUsed float64 `json:"fuel_used"`
}

// MonthReport is one calendar month of aggregated refills. Year and Month
// form a locale-neutral identifier; rendering a month name in the user's
// language is the caller's concern.
type MonthReport struct {
	Year             int        `json:"year"`
	Month            time.Month `json:"month"`
	Liters           float64    `json:"liters"`
	Cost             float64    `json:"cost"`
	AvgPricePerLiter float64    `json:"avg_price_per_liter"`
}

// Engine computes statistics over a refill store.
type Engine struct {
	store refill.Store
}

// New returns an engine reading from the given store.
func New(store refill.Store) *Engine {
	return &Engine{store: store}
}

// CurrentConsumption returns the instantaneous consumption estimate for the
// user, or nil when it cannot be computed: fewer than two records, or a
// non-positive distance between the top two odometer readings. Out-of-order
// and duplicate odometer values are legitimate input, not errors.
func (e *Engine) CurrentConsumption(ctx context.Context, userID int64) (*Consumption, error) {
	records, err := e.store.LatestTwoByOdometer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch latest refills: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	latest, previous := records[0], records[1]
	distance := latest.Odometer - previous.Odometer
	if distance <= 0 {
		return nil, nil
	}
	fuelUsed := previous.Amount

	return &Consumption{
		PerHundred: fuelUsed / float64(distance) * 100,
		Distance:   distance,
		FuelUsed:   fuelUsed,
	}, nil
}

// MonthlyStatistics returns one report per calendar month in the user's
// history, most recent month first. An empty history yields an empty slice.
func (e *Engine) MonthlyStatistics(ctx context.Context, userID int64) ([]MonthReport, error) {
	totals, err := e.store.MonthlyTotals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch monthly totals: %w", err)
	}
	reports := make([]MonthReport, 0, len(totals))
	for _, t := range totals {
		reports = append(reports, MonthReport{
			Year:             t.Year,
			Month:            t.Month,
			Liters:           t.Liters,
			Cost:             t.Cost,
			AvgPricePerLiter: t.AvgPricePerLiter,
		})
	}
	return reports, nil
}

// FormatPerHundred renders a consumption value to one decimal place.
func (c *Consumption) FormatPerHundred() string {
	return fmt.Sprintf("%.1f", c.PerHundred)
}

// FormatLiters renders the month's total volume to one decimal place.
func (m MonthReport) FormatLiters() string {
	return fmt.Sprintf("%.1f", m.Liters)
}

// FormatCost renders the month's total cost to the nearest integer.
func (m MonthReport) FormatCost() string {
	return fmt.Sprintf("%.0f", m.Cost)
}

// FormatAvgPrice renders the per-record average price to one decimal place.
// NaN or infinite averages collapse to "0.0"; with the positivity invariant
// enforced at the boundary this is purely defensive.
func (m MonthReport) FormatAvgPrice() string {
	if math.IsNaN(m.AvgPricePerLiter) || math.IsInf(m.AvgPricePerLiter, 0) {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", m.AvgPricePerLiter)
}
