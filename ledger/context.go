package ledger

import (
	"fmt"
	"math/rand/v2"

	"github.com/etnz/finsim/fx"
	"github.com/etnz/finsim/money"
	"github.com/etnz/finsim/revenue"
	"github.com/etnz/finsim/rules"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws yearly growth rates.
type Sampler interface {
	Gaussian(mean, stdev float64) float64
}

// Context is the simulation state a ledger operation runs in.
type Context struct {
	Year      int
	StartYear int
	Age       int          // age of the owner, for glide path mixes
	Country   string       // current country of residence
	Residence money.Locale // currency and country amounts are reported in
	Rules     *rules.Registry
	FX        fx.Converter
	Revenue   revenue.Revenue // only read, for cross border rules
	Sampler   Sampler
}

func (ctx Context) gaussian(mean, stdev float64) float64 {
	if ctx.Sampler == nil {
		return mean
	}
	return ctx.Sampler.Gaussian(mean, stdev)
}

// toResidence converts an amount held in loc into the residence currency.
func (ctx Context) toResidence(amount decimal.Decimal, loc money.Locale) (decimal.Decimal, bool) {
	if loc == ctx.Residence {
		return amount, true
	}
	if ctx.FX == nil {
		return decimal.Zero, false
	}
	return ctx.FX.Convert(amount, loc, ctx.Residence, ctx.Year)
}

// strictToResidence is toResidence for reporting paths.
func (ctx Context) strictToResidence(amount decimal.Decimal, loc money.Locale) (decimal.Decimal, error) {
	if loc == ctx.Residence {
		return amount, nil
	}
	if ctx.FX == nil {
		return decimal.Zero, fmt.Errorf("%w: no converter for %s to %s", fx.ErrNoRate, loc, ctx.Residence)
	}
	return fx.Strict(ctx.FX, amount, loc, ctx.Residence, ctx.Year)
}

// NormalSampler draws from normal distributions using its own random source.
type NormalSampler struct {
	src rand.Source
}

// NewNormalSampler returns a sampler seeded with seed. Two samplers with the
// same seed draw the same sequence.
func NewNormalSampler(seed uint64) *NormalSampler {
	return &NormalSampler{src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// Gaussian returns mean when stdev is not positive.
func (s *NormalSampler) Gaussian(mean, stdev float64) float64 {
	if stdev <= 0 {
		return mean
	}
	return distuv.Normal{Mu: mean, Sigma: stdev, Src: s.src}.Rand()
}
