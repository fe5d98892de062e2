package valuation

import (
	"fmt"
	"math"

	"github.com/stex99/dcf-tool/pkg/dcf/apperrors"
)

// Defaults match the typical ranges offered to users.
const (
	DefaultDiscountRate    = 0.10
	DefaultGrowthRate      = 0.05
	DefaultProjectionYears = 5
	DefaultTolerance       = 0.10
)

// Params are the tunable DCF inputs, rates as fractions.
type Params struct {
	DiscountRate    float64 `json:"discount_rate" yaml:"discount_rate"`
	GrowthRate      float64 `json:"growth_rate" yaml:"growth_rate"`
	ProjectionYears int     `json:"projection_years" yaml:"projection_years"`
}

// DefaultParams returns 10% discount, 5% growth over 5 years.
func DefaultParams() Params {
	return Params{
		DiscountRate:    DefaultDiscountRate,
		GrowthRate:      DefaultGrowthRate,
		ProjectionYears: DefaultProjectionYears,
	}
}

// FromPercent builds Params from percentage inputs (10 for 10%).
func FromPercent(discountPct, growthPct float64, years int) Params {
	return Params{
		DiscountRate:    discountPct / 100,
		GrowthRate:      growthPct / 100,
		ProjectionYears: years,
	}
}

// Validate rejects parameters under which the terminal value is undefined or
// meaningless.
func (p Params) Validate() error {
	switch {
	case p.DiscountRate <= 0 || p.DiscountRate >= 1:
		return fmt.Errorf("%w: discount rate %.4f outside (0,1)", apperrors.ErrInvalidParameters, p.DiscountRate)
	case p.GrowthRate < 0 || p.GrowthRate >= 1:
		return fmt.Errorf("%w: growth rate %.4f outside [0,1)", apperrors.ErrInvalidParameters, p.GrowthRate)
	case p.ProjectionYears <= 0:
		return fmt.Errorf("%w: projection years must be positive, got %d", apperrors.ErrInvalidParameters, p.ProjectionYears)
	case p.DiscountRate <= p.GrowthRate:
		return fmt.Errorf("%w: discount rate %.4f must exceed growth rate %.4f", apperrors.ErrInvalidParameters, p.DiscountRate, p.GrowthRate)
	}
	return nil
}

// IntrinsicValue returns the enterprise DCF value of fcf, or nil when it
// cannot be computed: missing or non-positive fcf, discount rate not above
// growth rate, or a non-positive horizon.
func IntrinsicValue(fcf *float64, p Params) *float64 {
	if fcf == nil || *fcf <= 0 || math.IsNaN(*fcf) {
		return nil
	}
	if p.DiscountRate <= p.GrowthRate || p.ProjectionYears <= 0 {
		return nil
	}
	base := *fcf
	r, g := p.DiscountRate, p.GrowthRate

	var projected float64
	for year := 1; year <= p.ProjectionYears; year++ {
		y := float64(year)
		projected += base * math.Pow(1+g, y) / math.Pow(1+r, y)
	}

	n := float64(p.ProjectionYears)
	terminal := base * math.Pow(1+g, n) * (1 + g) / (r - g)
	discounted := terminal / math.Pow(1+r, n)

	v := projected + discounted
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
