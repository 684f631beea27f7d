// Package provider implements the stochastic scalar sources that drive
// each dimension of an emulated link: bandwidth, latency, loss rate,
// corruption rate, and corruption multiplicity.
package provider

import (
	"math"
	"math/rand"
)

// Provider is a stateful, deterministic source of non-negative samples.
// Two Providers of the same variant constructed with the same seed and
// sampled in the same call order yield identical sequences.
type Provider interface {
	// Sample returns the next floating-point value.
	Sample() float64
	// SampleInt returns the next value rounded to an integer. Each
	// variant picks the rounding rule that matches its distribution
	// (truncation for Constant, floor for Exponential, round for the
	// two Gaussian variants).
	SampleInt() int
}

// Constant always returns the same value.
type Constant struct {
	Value float64
}

// NewConstant returns a Provider that always samples Value.
func NewConstant(value float64) *Constant {
	return &Constant{Value: value}
}

func (c *Constant) Sample() float64 { return c.Value }
func (c *Constant) SampleInt() int  { return int(c.Value) }

// Exponential samples an exponential variate with rate Lambda, shifted
// by Offset. Used for corruption multiplicity, where Offset=1 and
// Lambda=2 biases toward one corruption per hit with a thin tail.
type Exponential struct {
	rng    *rand.Rand
	Lambda float64
	Offset float64
}

// NewExponential builds an Exponential provider with its own PRNG stream.
func NewExponential(seed int64, lambda, offset float64) *Exponential {
	return &Exponential{
		rng:    rand.New(rand.NewSource(seed)),
		Lambda: lambda,
		Offset: offset,
	}
}

// Sample draws ExpFloat64() (rate 1) and rescales to the configured
// rate before adding the offset.
func (e *Exponential) Sample() float64 {
	return e.rng.ExpFloat64()/e.Lambda + e.Offset
}

func (e *Exponential) SampleInt() int {
	return int(math.Floor(e.Sample()))
}

// Gaussian samples N(Mean, StdDev), clamped to be non-negative.
type Gaussian struct {
	rng    *rand.Rand
	Mean   float64
	StdDev float64
}

// NewGaussian builds a Gaussian provider with its own PRNG stream.
func NewGaussian(seed int64, mean, stddev float64) *Gaussian {
	return &Gaussian{
		rng:    rand.New(rand.NewSource(seed)),
		Mean:   mean,
		StdDev: stddev,
	}
}

func (g *Gaussian) Sample() float64 {
	v := g.Mean + g.StdDev*g.rng.NormFloat64()
	if v < 0 {
		return 0
	}
	return v
}

func (g *Gaussian) SampleInt() int {
	return int(math.Round(g.Sample()))
}

// GaussianWithSpike is a two-state Gaussian: quiescent samples are
// N(Mean, StdDev); spiking samples are N(Mean, StdDev) * SpikeMultiplier.
// On every sample, regardless of current state, a spike may be
// triggered (or extended) with probability SpikeChance, adding
// uniform_int(1, MaxSpikeDuration) ticks to the remaining spike
// counter. This means spikes can lengthen other spikes — the check is
// evaluated, and its random draw consumed, before the counter is
// inspected.
type GaussianWithSpike struct {
	rng    *rand.Rand
	Mean   float64
	StdDev float64

	SpikeChance      float64
	MaxSpikeDuration int
	SpikeMultiplier  float64

	remainingSpikeTicks int
}

// NewGaussianWithSpike builds a GaussianWithSpike provider with its own
// PRNG stream.
func NewGaussianWithSpike(seed int64, mean, stddev, spikeChance float64, maxSpikeDuration int, spikeMultiplier float64) *GaussianWithSpike {
	return &GaussianWithSpike{
		rng:              rand.New(rand.NewSource(seed)),
		Mean:             mean,
		StdDev:           stddev,
		SpikeChance:      spikeChance,
		MaxSpikeDuration: maxSpikeDuration,
		SpikeMultiplier:  spikeMultiplier,
	}
}

func (g *GaussianWithSpike) Sample() float64 {
	if g.rng.Float64() < g.SpikeChance {
		g.remainingSpikeTicks += 1 + g.rng.Intn(g.MaxSpikeDuration)
	}

	if g.remainingSpikeTicks > 0 {
		g.remainingSpikeTicks--
		v := (g.Mean + g.StdDev*g.rng.NormFloat64()) * g.SpikeMultiplier
		if v < 0 {
			return 0
		}
		return v
	}

	v := g.Mean + g.StdDev*g.rng.NormFloat64()
	if v < 0 {
		return 0
	}
	return v
}

func (g *GaussianWithSpike) SampleInt() int {
	return int(math.Round(g.Sample()))
}
