// Package units holds small value objects shared by the pmtk and locus
// packages: a percentage with an enforced 0..100 invariant, and a UTC
// timestamp wrapper with the driver's canonical debug format.
package units

import "fmt"

// IntegerPercent is a u8 percentage with the invariant 0 <= v <= 100.
// Constructing one outside that range is a programming error, not a
// recoverable one: NewIntegerPercent panics, matching the source's
// debug_assert.
type IntegerPercent struct {
	value uint8
}

// NewIntegerPercent constructs an IntegerPercent, panicking if val exceeds
// 100. Callers decoding an untrusted byte should validate first and use
// this only once the value is known to be in range.
func NewIntegerPercent(val uint8) IntegerPercent {
	if val > 100 {
		panic(fmt.Sprintf("units: integer percent %d out of range 0..100", val))
	}
	return IntegerPercent{value: val}
}

// ZeroPercent returns the IntegerPercent for 0.
func ZeroPercent() IntegerPercent { return IntegerPercent{} }

// Value returns the underlying u8.
func (p IntegerPercent) Value() uint8 { return p.value }

// Equal compares against a raw u8, so callers needn't construct an
// IntegerPercent just to compare.
func (p IntegerPercent) Equal(raw uint8) bool { return p.value == raw }

func (p IntegerPercent) String() string { return fmt.Sprintf("%d%%", p.value) }
