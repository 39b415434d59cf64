// Package accounting converts between the ledger's integer milliunit wire
// representation and the decimal currency units used by the domain model.
package accounting

import "github.com/shopspring/decimal"

var thousand = decimal.NewFromInt(1000)

// FromMilliunits converts a raw ledger amount to decimal currency units,
// flipping the sign so that an outflow is negative on the wire but positive
// in the domain model.
func FromMilliunits(raw int64) decimal.Decimal {
	return decimal.NewFromInt(raw).Div(thousand).Round(2).Neg()
}

// ToMilliunits converts a domain amount back to the integer milliunit wire
// representation without flipping the sign.
func ToMilliunits(amount decimal.Decimal) int64 {
	return amount.Mul(thousand).Round(0).IntPart()
}

// RoundToTen rounds a milliunit amount to the nearest 10 minor units, a
// constraint the ledger API places on sub-entry amounts. Domain amounts are
// two-decimal currency values so this only absorbs representation noise.
func RoundToTen(milliunits int64) int64 {
	d := decimal.NewFromInt(milliunits).Div(decimal.NewFromInt(10)).Round(0)
	return d.IntPart() * 10
}
