package domain

import (
	"strconv"

	dErrors "doceo/pkg/domain-errors"
)

// Tick is the ledger's logical clock value. Ticks only ever increase; the
// ledger reads them, it never advances them. Durations (expiry windows) are
// plain uint64 tick counts.
type Tick uint64

// ParseTick validates a decimal tick string at trust boundaries.
func ParseTick(s string) (Tick, error) {
	v, err := parseUint(s, "tick")
	return Tick(v), err
}

// Add returns the tick advanced by delta ticks.
func (t Tick) Add(delta uint64) Tick { return t + Tick(delta) }

// After reports whether t is strictly later than other.
func (t Tick) After(other Tick) bool { return t > other }

func (t Tick) String() string { return strconv.FormatUint(uint64(t), 10) }

// Amount is a fee or balance in the platform's smallest payment unit.
// Arithmetic on amounts never goes negative; transfers that would overdraw
// are rejected by the payment channel instead.
type Amount uint64

// ParseAmount validates a decimal amount string at trust boundaries.
func ParseAmount(s string) (Amount, error) {
	v, err := parseUint(s, "amount")
	return Amount(v), err
}

func (a Amount) String() string { return strconv.FormatUint(uint64(a), 10) }

// parseUint is the shared validation logic. Zero is a legal value for both
// ticks and amounts; range checks belong to the service layer.
func parseUint(s, label string) (uint64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return v, nil
}
