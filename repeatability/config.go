package repeatability

import (
	"runtime"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

// Config holds the evaluation parameters. Zero values select the defaults.
type Config struct {
	// MaxDistanceFactor multiplies the region radius to form the distance gate.
	MaxDistanceFactor float64 `json:"max_distance_factor" yaml:"max_distance_factor" validate:"gte=0"`
	// GridSteps is the overlap sampling resolution.
	GridSteps int `json:"grid_steps" yaml:"grid_steps" validate:"gte=0,lte=1000"`
	// Workers is the number of goroutines scoring pairs.
	Workers int `json:"workers" yaml:"workers" validate:"gte=0"`
	// ScaleDisplacement selects the scale-consistent overlap, see Scorer.
	ScaleDisplacement bool `json:"scale_displacement" yaml:"scale_displacement"`
}

// DefaultConfig returns the Oxford evaluation defaults.
func DefaultConfig() Config {
	return Config{
		MaxDistanceFactor: DefaultMaxDistanceFactor,
		GridSteps:         DefaultGridSteps,
		Workers:           runtime.NumCPU(),
	}
}

// Validate checks the field ranges.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid evaluation config")
	}
	return nil
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	d.ScaleDisplacement = c.ScaleDisplacement
	if c.MaxDistanceFactor > 0 {
		d.MaxDistanceFactor = c.MaxDistanceFactor
	}
	if c.GridSteps > 0 {
		d.GridSteps = c.GridSteps
	}
	if c.Workers > 0 {
		d.Workers = c.Workers
	}
	return d
}
