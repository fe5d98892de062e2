package valuation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stex99/dcf-tool/pkg/dcf/apperrors"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

func TestIntrinsicValueReferenceCase(t *testing.T) {
	// 1,000,000 FCF at 10% / 5% over 5 years.
	v := IntrinsicValue(types.Float(1_000_000), DefaultParams())
	require.NotNil(t, v)
	assert.InDelta(t, 21_000_000, *v, 1)
}

func TestIntrinsicValueComponents(t *testing.T) {
	v := IntrinsicValue(types.Float(1_000_000), DefaultParams())
	require.NotNil(t, v)
	// projected sum plus discounted terminal value, computed by hand
	const projected = 4_358_120.835946377
	const terminal = 16_641_879.16405362
	assert.InDelta(t, projected+terminal, *v, 1e-3)
}

func TestIntrinsicValueUnavailable(t *testing.T) {
	cases := []struct {
		name string
		fcf  *float64
		p    Params
	}{
		{"missing fcf", nil, DefaultParams()},
		{"zero fcf", types.Float(0), DefaultParams()},
		{"negative fcf", types.Float(-5), DefaultParams()},
		{"equal rates", types.Float(100), Params{DiscountRate: 0.08, GrowthRate: 0.08, ProjectionYears: 5}},
		{"inverted rates", types.Float(100), Params{DiscountRate: 0.05, GrowthRate: 0.10, ProjectionYears: 5}},
		{"no horizon", types.Float(100), Params{DiscountRate: 0.10, GrowthRate: 0.05, ProjectionYears: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Nil(t, IntrinsicValue(tc.fcf, tc.p))
		})
	}
}

func TestIntrinsicValueZeroFCFForAnyParams(t *testing.T) {
	for _, r := range []float64{0.05, 0.10, 0.15} {
		for _, g := range []float64{0, 0.03, 0.2} {
			for years := 1; years <= 10; years++ {
				p := Params{DiscountRate: r, GrowthRate: g, ProjectionYears: years}
				assert.Nil(t, IntrinsicValue(types.Float(0), p))
			}
		}
	}
}

func TestIntrinsicValueEqualRates(t *testing.T) {
	for _, r := range []float64{0, 0.01, 0.05, 0.1, 0.5} {
		assert.Nil(t, IntrinsicValue(types.Float(1_000), Params{DiscountRate: r, GrowthRate: r, ProjectionYears: 5}))
	}
}

// The explicit projection and the terminal value telescope to the perpetuity
// value fcf*(1+g)/(r-g), so the horizon only moves value between the two terms.
func TestIntrinsicValueHorizon(t *testing.T) {
	p := Params{DiscountRate: 0.12, GrowthRate: 0.04}
	fcf := 2_500_000.0
	perpetuity := fcf * (1 + p.GrowthRate) / (p.DiscountRate - p.GrowthRate)

	prev := 0.0
	for years := 1; years <= 10; years++ {
		p.ProjectionYears = years
		v := IntrinsicValue(&fcf, p)
		require.NotNil(t, v)
		assert.InEpsilon(t, perpetuity, *v, 1e-12)
		assert.GreaterOrEqual(t, *v, prev*(1-1e-12))
		prev = *v
	}
}

func TestIntrinsicValueScalesWithFCF(t *testing.T) {
	p := DefaultParams()
	a := IntrinsicValue(types.Float(1), p)
	b := IntrinsicValue(types.Float(3), p)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.InEpsilon(t, 3*(*a), *b, 1e-12)
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	bad := []Params{
		{DiscountRate: 0.05, GrowthRate: 0.10, ProjectionYears: 5},
		{DiscountRate: 0.10, GrowthRate: 0.10, ProjectionYears: 5},
		{DiscountRate: 0, GrowthRate: 0, ProjectionYears: 5},
		{DiscountRate: 0.10, GrowthRate: -0.01, ProjectionYears: 5},
		{DiscountRate: 0.10, GrowthRate: 0.05, ProjectionYears: 0},
		{DiscountRate: 1.2, GrowthRate: 0.05, ProjectionYears: 3},
	}
	for _, p := range bad {
		err := p.Validate()
		require.Error(t, err, "%+v", p)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidParameters))
	}
}

func TestFromPercent(t *testing.T) {
	p := FromPercent(10, 5, 5)
	assert.Equal(t, DefaultParams(), p)
}
