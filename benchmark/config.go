package benchmark

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-ipd/repeatability"
)

var validate = validator.New()

// DefaultThresholds are the overlaps of the Oxford overlap error curve, 60%
// down to 10% overlap error.
var DefaultThresholds = []float64{0.4, 0.5, 0.6, 0.7, 0.8, 0.9}

// Config describes a benchmark run over one or more sequences.
type Config struct {
	// Datasets are sequence directories.
	Datasets []string `json:"datasets" yaml:"datasets" validate:"required,min=1,dive,required"`
	// RegionExt selects the detector output, e.g. haraff or hesaff.
	RegionExt string `json:"region_ext" yaml:"region_ext" validate:"required"`
	// OutputDir receives the reports and overlays.
	OutputDir string `json:"output_dir" yaml:"output_dir" validate:"required"`
	// Thresholds are the overlaps at which repeatability is reported.
	Thresholds []float64 `json:"thresholds" yaml:"thresholds" validate:"required,min=1,dive,gte=0,lte=1"`
	// Evaluation tunes the scorer and the worker pool.
	Evaluation repeatability.Config `json:"evaluation" yaml:"evaluation"`
	// Overlay renders the matches of every pair.
	Overlay bool `json:"overlay" yaml:"overlay"`
	// OverlayThreshold colours pairs above it as matches.
	OverlayThreshold float64 `json:"overlay_threshold" yaml:"overlay_threshold" validate:"gte=0,lte=1"`
	// OverlayMaxWidth downsizes overlays wider than this; zero keeps full size.
	OverlayMaxWidth int `json:"overlay_max_width" yaml:"overlay_max_width" validate:"gte=0"`
}

// DefaultConfig returns a configuration with no datasets.
func DefaultConfig() Config {
	return Config{
		RegionExt:        "haraff",
		OutputDir:        "results",
		Thresholds:       append([]float64(nil), DefaultThresholds...),
		Evaluation:       repeatability.DefaultConfig(),
		OverlayThreshold: repeatability.DefaultOverlapThreshold,
		OverlayMaxWidth:  1024,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid benchmark config")
	}
	return nil
}

// LoadConfig reads a YAML (.yaml, .yml) or JSON file over DefaultConfig.
// The result is not validated so that flags can still override it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// SaveConfig writes the configuration in the format implied by path.
func (c Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write config")
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
