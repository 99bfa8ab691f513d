package refill

import (
	"errors"
	"math"
	"testing"
)

func TestValidate(t *testing.T) {
	if err := Validate(1, 45.5, 2500, 155000); err != nil {
		t.Fatalf("valid triple rejected: %v", err)
	}
	for _, tc := range []struct {
		name     string
		userID   int64
		amount   float64
		cost     float64
		odometer int64
	}{
		{"zero amount", 1, 0, 2500, 155000},
		{"negative amount", 1, -45, 2500, 155000},
		{"zero cost", 1, 45, 0, 155000},
		{"negative odometer", 1, 45, 2500, -1},
		// NaN compares false to everything, so a bare <= 0 check misses it.
		{"nan amount", 1, math.NaN(), 2500, 155000},
		{"nan cost", 1, 45, math.NaN(), 155000},
		{"inf amount", 1, math.Inf(1), 2500, 155000},
		{"negative inf cost", 1, 45, math.Inf(-1), 155000},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.userID, tc.amount, tc.cost, tc.odometer)
			if !errors.Is(err, ErrInvalidRecord) {
				t.Fatalf("expected ErrInvalidRecord, got %v", err)
			}
		})
	}
	if err := Validate(0, 45, 2500, 155000); err == nil || errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("missing user id should be its own error, got %v", err)
	}
}

func TestStoreErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStoreError("append", cause)

	var serr *StoreError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *StoreError, got %T", err)
	}
	if serr.Op != "append" {
		t.Fatalf("unexpected op %q", serr.Op)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable")
	}
	if NewStoreError("append", nil) != nil {
		t.Fatalf("nil cause must return nil")
	}
}

func TestPricePerLiter(t *testing.T) {
	r := Record{Amount: 40, Cost: 2000}
	if got := r.PricePerLiter(); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
	if got := (Record{}).PricePerLiter(); got != 0 {
		t.Fatalf("zero amount must yield 0, got %v", got)
	}
}
