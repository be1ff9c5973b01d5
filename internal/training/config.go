package training

import (
	"fmt"

	"genreclf/internal/config"
	"genreclf/internal/model"
	"genreclf/internal/services"
)

// Prediction policies.
const (
	PolicyThreshold = config.PolicyThreshold
	PolicyDirect    = config.PolicyDirect
)

// directThreshold is recorded in metrics for the direct policy: a positive
// decision score is a sigmoid score above one half.
const directThreshold = 0.5

// Config is the immutable set of training hyperparameters.
type Config struct {
	TestSize    float64
	RandomState int64
	MaxFeatures int
	MinDF       int
	Classifier  string
	C           float64
	MaxIter     int
	Policy      string
	Threshold   float64
}

// FromConfig extracts training settings from the loaded configuration.
func FromConfig(cfg *config.Config) Config {
	t := cfg.Training
	return Config{
		TestSize:    t.TestSize,
		RandomState: t.RandomState,
		MaxFeatures: t.MaxFeatures,
		MinDF:       t.MinDF,
		Classifier:  t.Classifier,
		C:           t.C,
		MaxIter:     t.MaxIter,
		Policy:      t.PredictionPolicy,
		Threshold:   t.Threshold,
	}
}

// Validate reports out-of-range values as services.ErrConfiguration.
func (c Config) Validate() error {
	fail := func(msg string) error {
		return services.Wrap(services.ErrConfiguration, "train", "validate config", msg, nil)
	}
	if !(c.TestSize > 0 && c.TestSize < 1) {
		return fail(fmt.Sprintf("test_size %v outside (0, 1)", c.TestSize))
	}
	switch c.Policy {
	case PolicyThreshold:
		if !(c.Threshold > 0 && c.Threshold < 1) {
			return fail(fmt.Sprintf("threshold %v outside (0, 1)", c.Threshold))
		}
	case PolicyDirect:
	default:
		return fail(fmt.Sprintf("unknown prediction policy %q", c.Policy))
	}
	if err := c.ModelConfig().Validate(); err != nil {
		return fail(err.Error())
	}
	return nil
}

// ModelConfig returns the structural settings for model.Build.
func (c Config) ModelConfig() model.Config {
	return model.Config{
		MaxFeatures: c.MaxFeatures,
		MinDF:       c.MinDF,
		Classifier:  c.Classifier,
		C:           c.C,
		MaxIter:     c.MaxIter,
		Seed:        c.RandomState,
	}
}

// EffectiveThreshold is the threshold recorded in metrics for c.Policy.
func (c Config) EffectiveThreshold() float64 {
	if c.Policy == PolicyDirect {
		return directThreshold
	}
	return c.Threshold
}
