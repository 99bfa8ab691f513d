package bot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationError describes malformed refill input. It is a normal outcome
// of the conversation, not a fault: the session stays in the refill state
// and the user is re-prompted.
type ValidationError struct {
	Reason InvalidReason
}

// InvalidReason distinguishes the re-prompt text to use.
type InvalidReason int

const (
	// InvalidTokenCount means the input did not split into exactly three
	// whitespace-separated fields.
	InvalidTokenCount InvalidReason = iota
	// InvalidNumber means a field failed numeric parsing or violated the
	// positivity invariant.
	InvalidNumber
)

func (e *ValidationError) Error() string {
	switch e.Reason {
	case InvalidTokenCount:
		return "refill input: expected three fields: amount cost odometer"
	default:
		return "refill input: fields must be positive numbers"
	}
}

// RefillInput is a parsed and validated ingestion line.
type RefillInput struct {
	Amount   float64
	Cost     float64
	Odometer int64
}

// ParseRefillInput parses a free-text line into a refill. The accepted shape
// is exactly three whitespace-separated tokens: amount (float), cost (float),
// odometer (integer), all positive. Failures are *ValidationError values.
func ParseRefillInput(text string) (RefillInput, error) {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return RefillInput{}, &ValidationError{Reason: InvalidTokenCount}
	}

	amount, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return RefillInput{}, &ValidationError{Reason: InvalidNumber}
	}
	cost, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return RefillInput{}, &ValidationError{Reason: InvalidNumber}
	}
	odometer, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return RefillInput{}, &ValidationError{Reason: InvalidNumber}
	}

	// strconv.ParseFloat accepts "NaN" and "Inf" spellings; neither is a
	// refill, and NaN would slip past the <= 0 check below.
	if math.IsNaN(amount) || math.IsInf(amount, 0) || math.IsNaN(cost) || math.IsInf(cost, 0) {
		return RefillInput{}, &ValidationError{Reason: InvalidNumber}
	}
	if amount <= 0 || cost <= 0 || odometer <= 0 {
		return RefillInput{}, &ValidationError{Reason: InvalidNumber}
	}
	return RefillInput{Amount: amount, Cost: cost, Odometer: odometer}, nil
}

// FormatPrice renders a unit price for the saved-refill summary.
func FormatPrice(price float64) string {
	return fmt.Sprintf("%.2f", price)
}
