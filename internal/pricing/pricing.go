// Package pricing derives container splits and promotional prices
// from a chosen tier and allocation preference.
package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// FirstWeekDiscount is the promotional discount applied to the first
// delivery of a new subscription.
var FirstWeekDiscount = decimal.RequireFromString("0.10")

// Preset is a named allocation between chicken and beef broth.
// ChickenShare is chicken's fraction of the weekly containers.
type Preset struct {
	ID           string
	Label        string
	ChickenShare float64
}

// Presets are the allocation choices offered in the signup flow,
// ordered from all chicken to all beef.
var Presets = []Preset{
	{ID: "all-chicken", Label: "All chicken", ChickenShare: 1},
	{ID: "mostly-chicken", Label: "Mostly chicken", ChickenShare: 0.75},
	{ID: "even", Label: "Even split", ChickenShare: 0.5},
	{ID: "mostly-beef", Label: "Mostly beef", ChickenShare: 0.25},
	{ID: "all-beef", Label: "All beef", ChickenShare: 0},
}

// PresetByID returns the preset with the given ID.
func PresetByID(id string) (Preset, bool) {
	for _, p := range Presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Split divides a tier's weekly containers between chicken and beef.
// Only the chicken count is rounded; beef is the remainder, so the two
// always sum to containers exactly.
func Split(containers int, chickenShare float64) (chicken, beef int, err error) {
	if containers <= 0 {
		return 0, 0, fmt.Errorf("invalid container count: %d", containers)
	}
	if chickenShare < 0 || chickenShare > 1 {
		return 0, 0, fmt.Errorf("chicken share out of range: %v", chickenShare)
	}
	chicken = int(math.Round(float64(containers) * chickenShare))
	beef = containers - chicken
	return chicken, beef, nil
}

// SplitLabel describes a chicken/beef split for display.
func SplitLabel(chicken, beef int) string {
	switch {
	case chicken == 0:
		return "All beef"
	case beef == 0:
		return "All chicken"
	case chicken == beef:
		return "Even split"
	case chicken > beef:
		return "Mostly chicken"
	default:
		return "Mostly beef"
	}
}

// PromoPrice applies a fractional discount to a weekly price and
// rounds half-up to cents.
func PromoPrice(weekly, discount decimal.Decimal) decimal.Decimal {
	return weekly.Mul(decimal.NewFromInt(1).Sub(discount)).Round(2)
}

// FirstWeekPrice returns the discounted price for the first delivery.
func FirstWeekPrice(weekly decimal.Decimal) decimal.Decimal {
	return PromoPrice(weekly, FirstWeekDiscount)
}
