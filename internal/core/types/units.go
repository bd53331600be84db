// Package types provides common type aliases and stock-unit arithmetic.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ZeroMoney returns zero Money value.
func ZeroMoney() Money {
	return decimal.Zero
}

// Unit distinguishes how a sale line counts stock.
type Unit string

const (
	// UnitStrip counts whole sealed packs of PackSize tablets.
	UnitStrip Unit = "strip"
	// UnitLoose counts individual tablets from an opened strip.
	UnitLoose Unit = "loose"
)

// NormalizePackSize guards against zero/negative pack sizes.
// A pack size of 1 makes strip and tablet counting equivalent.
func NormalizePackSize(packSize int64) int64 {
	if packSize <= 0 {
		return 1
	}
	return packSize
}

// ToTablets converts a (strips, loose) stock pair into total tablets.
// All deduction arithmetic happens in the integer tablet domain so that
// repeated small dispensations cannot accumulate rounding drift.
func ToTablets(strips, loose, packSize int64) int64 {
	return strips*NormalizePackSize(packSize) + loose
}

// FromTablets converts total tablets back into a normalized (strips, loose)
// pair with 0 <= loose < packSize. Negative input yields zero stock; the
// ledger validates availability before converting, so that branch is a guard,
// not a code path.
func FromTablets(tablets, packSize int64) (strips, loose int64) {
	if tablets < 0 {
		return 0, 0
	}
	packSize = NormalizePackSize(packSize)
	return tablets / packSize, tablets % packSize
}

// TabletEquivalent returns how many tablets a sale line of qty units moves.
// Strip lines move whole packs; loose lines move single tablets.
func TabletEquivalent(qty int64, unit Unit, packSize int64) int64 {
	if unit == UnitLoose {
		return qty
	}
	return qty * NormalizePackSize(packSize)
}
