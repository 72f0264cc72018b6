package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name        string
		containers  int
		share       float64
		wantChicken int
		wantBeef    int
	}{
		{"all chicken", 8, 1, 8, 0},
		{"mostly chicken daily", 8, 0.75, 6, 2},
		{"even daily", 8, 0.5, 4, 4},
		{"mostly beef daily", 8, 0.25, 2, 6},
		{"all beef", 8, 0, 0, 8},
		{"mostly chicken sip", 4, 0.75, 3, 1},
		{"mostly beef chef", 12, 0.25, 3, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chicken, beef, err := Split(tt.containers, tt.share)
			require.NoError(t, err)
			assert.Equal(t, tt.wantChicken, chicken)
			assert.Equal(t, tt.wantBeef, beef)
		})
	}
}

// Counts must sum to the tier total for every preset regardless of
// rounding: beef is derived as the remainder, never rounded on its own.
func TestSplit_SumInvariant(t *testing.T) {
	for _, containers := range []int{4, 8, 12} {
		for _, p := range Presets {
			chicken, beef, err := Split(containers, p.ChickenShare)
			require.NoError(t, err)
			assert.Equal(t, containers, chicken+beef,
				"containers=%d preset=%s", containers, p.ID)
		}
	}
}

func TestSplit_Invalid(t *testing.T) {
	_, _, err := Split(0, 0.5)
	assert.Error(t, err)

	_, _, err = Split(-4, 0.5)
	assert.Error(t, err)

	_, _, err = Split(8, -0.1)
	assert.Error(t, err)

	_, _, err = Split(8, 1.1)
	assert.Error(t, err)
}

func TestSplitLabel(t *testing.T) {
	assert.Equal(t, "All beef", SplitLabel(0, 8))
	assert.Equal(t, "All chicken", SplitLabel(8, 0))
	assert.Equal(t, "Even split", SplitLabel(4, 4))
	assert.Equal(t, "Mostly chicken", SplitLabel(6, 2))
	assert.Equal(t, "Mostly beef", SplitLabel(2, 6))
}

func TestSplitLabel_Symmetric(t *testing.T) {
	for chicken := 0; chicken <= 12; chicken++ {
		for beef := 0; beef <= 12; beef++ {
			if chicken == beef || chicken == 0 || beef == 0 {
				continue
			}
			if SplitLabel(chicken, beef) == "Mostly beef" {
				assert.Equal(t, "Mostly chicken", SplitLabel(beef, chicken))
			}
		}
	}
}

func TestPromoPrice(t *testing.T) {
	weekly := decimal.RequireFromString("88")
	got := PromoPrice(weekly, decimal.RequireFromString("0.1"))
	assert.Equal(t, "79.20", got.StringFixed(2))
	assert.True(t, got.Equal(decimal.RequireFromString("79.20")))
}

func TestPromoPrice_RoundsHalfUp(t *testing.T) {
	// 46.45 * 0.9 = 41.805, which must round up to 41.81 rather than
	// truncate to 41.80. Everything stays decimal, so no binary-float drift.
	weekly := decimal.RequireFromString("46.45")
	got := PromoPrice(weekly, decimal.RequireFromString("0.1"))
	assert.Equal(t, "41.81", got.StringFixed(2))
}

func TestFirstWeekPrice(t *testing.T) {
	tests := []struct {
		weekly string
		want   string
	}{
		{"46.00", "41.40"},
		{"88.00", "79.20"},
		{"124.00", "111.60"},
	}
	for _, tt := range tests {
		got := FirstWeekPrice(decimal.RequireFromString(tt.weekly))
		assert.Equal(t, tt.want, got.StringFixed(2))
	}
}

func TestPresetByID(t *testing.T) {
	p, ok := PresetByID("mostly-chicken")
	require.True(t, ok)
	assert.Equal(t, 0.75, p.ChickenShare)

	_, ok = PresetByID("vegetable")
	assert.False(t, ok)
}
