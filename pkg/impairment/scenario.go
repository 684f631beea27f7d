package impairment

import (
	"fmt"
	"math/rand"

	"netimpair/pkg/provider"
)

// Dimensions bundles the five per-packet-pipeline providers that make up
// a scenario: one per continuous impairment plus corruption multiplicity.
type Dimensions struct {
	Bandwidth    provider.Provider
	Latency      provider.Provider
	Loss         provider.Provider
	Corruption   provider.Provider
	Multiplicity provider.Provider
}

const (
	mib = 1 << 20

	spikeChance      = 0.005
	maxSpikeDuration = 30

	// UpdateEvery is the fixed cadence at which ImpairmentState
	// resamples its continuous dimensions.
	UpdateEvery = 0.5
)

// BuildScenario constructs the Dimensions for one of the four named
// scenarios, seeding each provider's PRNG stream from master in the
// fixed draw order bandwidth, latency, loss, corruption rate,
// corruption multiplicity. Two calls with the same master seed and the
// same scenario name produce bit-identical streams.
func BuildScenario(name string, master *rand.Rand) (Dimensions, error) {
	switch name {
	case "Best":
		return Dimensions{
			Bandwidth:    provider.NewGaussian(master.Int63(), 15*mib, 1*mib),
			Latency:      provider.NewGaussian(master.Int63(), 0.010, 0.0025),
			Loss:         provider.NewConstant(0),
			Corruption:   provider.NewConstant(0),
			Multiplicity: provider.NewConstant(0),
		}, nil
	case "Average":
		return Dimensions{
			Bandwidth:    provider.NewGaussianWithSpike(master.Int63(), 10*mib, 1*mib, spikeChance, maxSpikeDuration, 0.5),
			Latency:      provider.NewGaussianWithSpike(master.Int63(), 0.060, 0.005, spikeChance, maxSpikeDuration, 1.5),
			Loss:         provider.NewGaussianWithSpike(master.Int63(), 0.025, 0.0125, spikeChance, maxSpikeDuration, 3),
			Corruption:   provider.NewGaussianWithSpike(master.Int63(), 0.01, 0.005, spikeChance, maxSpikeDuration, 3),
			Multiplicity: provider.NewExponential(master.Int63(), 2, 1),
		}, nil
	case "Worst":
		return Dimensions{
			Bandwidth:    provider.NewGaussian(master.Int63(), 5*mib, 1*mib),
			Latency:      provider.NewGaussian(master.Int63(), 0.100, 0.010),
			Loss:         provider.NewConstant(0.10),
			Corruption:   provider.NewConstant(0.05),
			Multiplicity: provider.NewExponential(master.Int63(), 2, 1),
		}, nil
	case "Testing":
		return Dimensions{
			Bandwidth:    provider.NewConstant(100000),
			Latency:      provider.NewConstant(1.0),
			Loss:         provider.NewConstant(0),
			Corruption:   provider.NewConstant(0),
			Multiplicity: provider.NewConstant(0),
		}, nil
	default:
		return Dimensions{}, fmt.Errorf("impairment: unknown scenario %q (must be one of Best, Average, Worst, Testing)", name)
	}
}

// ScenarioNames lists the valid --scenario values, in the table order
// they appear in.
var ScenarioNames = []string{"Best", "Average", "Worst", "Testing"}
