package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fueltrack/fueltrack-bot/internal/refill"
)

// fakeStore serves canned query results so engine behaviour can be pinned
// without a database.
type fakeStore struct {
	latestTwo []refill.Record
	monthly   []refill.MonthTotal
	err       error
}

func (f *fakeStore) Append(context.Context, int64, float64, float64, int64) (refill.Record, error) {
	return refill.Record{}, errors.New("not implemented")
}

func (f *fakeStore) LatestTwoByOdometer(context.Context, int64) ([]refill.Record, error) {
	return f.latestTwo, f.err
}

func (f *fakeStore) MonthlyTotals(context.Context, int64) ([]refill.MonthTotal, error) {
	return f.monthly, f.err
}

func (f *fakeStore) RecentHistory(context.Context, int64, int) ([]refill.Record, error) {
	return nil, f.err
}

func (f *fakeStore) DeleteAll(context.Context, int64) error { return f.err }
func (f *fakeStore) Ping(context.Context) error             { return f.err }
func (f *fakeStore) Close() error                           { return nil }

func TestCurrentConsumption(t *testing.T) {
	// The worked example: odometers 100000 then 100500, 40L added at the
	// earlier stop. 40L over 500km is 8.0 per 100km.
	store := &fakeStore{latestTwo: []refill.Record{
		{ID: 2, Odometer: 100500, Amount: 38},
		{ID: 1, Odometer: 100000, Amount: 40},
	}}
	engine := New(store)

	c, err := engine.CurrentConsumption(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, int64(500), c.Distance)
	assert.Equal(t, 40.0, c.FuelUsed)
	assert.Equal(t, "8.0", c.FormatPerHundred())
}

func TestCurrentConsumptionUnavailable(t *testing.T) {
	cases := []struct {
		name    string
		records []refill.Record
	}{
		{"no records", nil},
		{"one record", []refill.Record{{ID: 1, Odometer: 100000, Amount: 40}}},
		{"equal odometers", []refill.Record{
			{ID: 2, Odometer: 100000, Amount: 40},
			{ID: 1, Odometer: 100000, Amount: 40},
		}},
		{"negative distance", []refill.Record{
			{ID: 2, Odometer: 99000, Amount: 40},
			{ID: 1, Odometer: 100000, Amount: 40},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := New(&fakeStore{latestTwo: tc.records})
			c, err := engine.CurrentConsumption(context.Background(), 1)
			require.NoError(t, err)
			assert.Nil(t, c)
		})
	}
}

func TestCurrentConsumptionStoreError(t *testing.T) {
	cause := refill.NewStoreError("latest two", errors.New("boom"))
	engine := New(&fakeStore{err: cause})

	_, err := engine.CurrentConsumption(context.Background(), 1)
	require.Error(t, err)
	var serr *refill.StoreError
	assert.True(t, errors.As(err, &serr))
}

func TestCurrentConsumptionIdempotent(t *testing.T) {
	engine := New(&fakeStore{latestTwo: []refill.Record{
		{ID: 2, Odometer: 100500, Amount: 38},
		{ID: 1, Odometer: 100000, Amount: 40},
	}})

	first, err := engine.CurrentConsumption(context.Background(), 1)
	require.NoError(t, err)
	second, err := engine.CurrentConsumption(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMonthlyStatistics(t *testing.T) {
	engine := New(&fakeStore{monthly: []refill.MonthTotal{
		{Year: 2026, Month: time.August, Liters: 60, Cost: 3200, AvgPricePerLiter: 55},
		{Year: 2026, Month: time.July, Liters: 45.5, Cost: 2500, AvgPricePerLiter: 54.95},
	}})

	reports, err := engine.MonthlyStatistics(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, 2026, reports[0].Year)
	assert.Equal(t, time.August, reports[0].Month)
	assert.Equal(t, "60.0", reports[0].FormatLiters())
	assert.Equal(t, "3200", reports[0].FormatCost())
	assert.Equal(t, "55.0", reports[0].FormatAvgPrice())

	assert.Equal(t, time.July, reports[1].Month)
	assert.Equal(t, "45.5", reports[1].FormatLiters())
	assert.Equal(t, "2500", reports[1].FormatCost())
	assert.Equal(t, "55.0", reports[1].FormatAvgPrice())
}

func TestMonthlyStatisticsEmpty(t *testing.T) {
	engine := New(&fakeStore{})
	reports, err := engine.MonthlyStatistics(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestFormatAvgPriceDefensive(t *testing.T) {
	undefined := MonthReport{AvgPricePerLiter: 0}
	assert.Equal(t, "0.0", undefined.FormatAvgPrice())
}
