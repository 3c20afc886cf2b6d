package experiment

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/pkg/errors"
	"github.com/YuminosukeSato/wndgo/scoring"
	"github.com/YuminosukeSato/wndgo/weights"
)

var configValidate = newConfigValidator()

// newConfigValidator reports fields by their YAML keys.
func newConfigValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Config is the file form of a shuffle-split experiment.
//
//	name: tiled continuous
//	n_iter: 25
//	train_size: 0.8
//	test_size: 20
//	random_state: 42
//	method: voting
//	threshold:
//	  top_fraction: 0.1
//	leave_out_sample_group_ids: [3, 17]
type Config struct {
	Name        string `yaml:"name"`
	Iterations  int    `yaml:"n_iter" validate:"gte=0"`
	TrainSize   any    `yaml:"train_size"`
	TestSize    any    `yaml:"test_size"`
	RandomState *int64 `yaml:"random_state"`

	Method    string  `yaml:"method" validate:"omitempty,oneof=wnd least_squares voting multivariate"`
	Power     float64 `yaml:"power" validate:"gte=0"`
	Neighbors int     `yaml:"neighbors" validate:"gte=0"`
	Workers   int     `yaml:"workers" validate:"gte=0"`

	Threshold ThresholdConfig `yaml:"threshold"`

	KeepSampleGroupIDs     any `yaml:"keep_sample_group_ids"`
	LeaveOutSampleGroupIDs any `yaml:"leave_out_sample_group_ids"`
}

// ThresholdConfig selects features. All zero means the default selection.
type ThresholdConfig struct {
	Nonzero     bool    `yaml:"nonzero"`
	TopK        int     `yaml:"top_k" validate:"gte=0"`
	TopFraction float64 `yaml:"top_fraction" validate:"gte=0,lte=1"`
}

// ParseConfig decodes and validates a YAML document.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.NewValidationError("config", fmt.Sprintf("invalid YAML: %v", err), nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return ParseConfig(data)
}

// Validate checks field ranges and that the sizes and group ids parse.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.NewValidationError(yamlName(fe.Namespace()), fmt.Sprintf("failed %q check", fe.Tag()), fe.Value())
		}
		return errors.Wrap(err, "validate config")
	}
	if _, err := c.sizes(); err != nil {
		return err
	}
	if _, _, err := c.ReduceRequest(); err != nil {
		return err
	}
	return nil
}

// yamlName turns "Config.threshold.top_k" into "threshold.top_k".
func yamlName(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func (c *Config) sizes() ([]Option, error) {
	var opts []Option
	if c.TrainSize != nil {
		s, err := featurespace.ParseSize(c.TrainSize)
		if err != nil {
			return nil, errors.Wrap(err, "train_size")
		}
		opts = append(opts, WithTrainSize(s))
	}
	if c.TestSize != nil {
		s, err := featurespace.ParseSize(c.TestSize)
		if err != nil {
			return nil, errors.Wrap(err, "test_size")
		}
		opts = append(opts, WithTestSize(s))
	}
	return opts, nil
}

// Options converts the config into driver options.
func (c *Config) Options() ([]Option, error) {
	opts, err := c.sizes()
	if err != nil {
		return nil, err
	}
	if c.Name != "" {
		opts = append(opts, WithName(c.Name))
	}
	if c.Iterations > 0 {
		opts = append(opts, WithIterations(c.Iterations))
	}
	if c.RandomState != nil {
		opts = append(opts, WithRandomState(*c.RandomState))
	}
	if c.Workers > 0 {
		opts = append(opts, WithWorkers(c.Workers))
	}

	var scorerOpts []scoring.Option
	if c.Power > 0 {
		scorerOpts = append(scorerOpts, scoring.WithPower(c.Power))
	}
	if c.Neighbors > 0 {
		scorerOpts = append(scorerOpts, scoring.WithNeighbors(c.Neighbors))
	}
	if c.Method != "" || len(scorerOpts) > 0 {
		opts = append(opts, WithMethod(scoring.Method(c.Method), scorerOpts...))
	}

	var th []weights.ThresholdOption
	if c.Threshold.Nonzero {
		th = append(th, weights.Nonzero())
	}
	if c.Threshold.TopK > 0 {
		th = append(th, weights.TopK(c.Threshold.TopK))
	}
	if c.Threshold.TopFraction > 0 {
		th = append(th, weights.TopFraction(c.Threshold.TopFraction))
	}
	if len(th) > 0 {
		opts = append(opts, WithThreshold(th...))
	}
	return opts, nil
}

// ReduceRequest returns the sample reduction the config asks for; ok is
// false when it asks for none.
func (c *Config) ReduceRequest() (req featurespace.ReduceRequest, ok bool, err error) {
	if c.KeepSampleGroupIDs == nil && c.LeaveOutSampleGroupIDs == nil {
		return featurespace.ReduceRequest{}, false, nil
	}
	if c.KeepSampleGroupIDs != nil && c.LeaveOutSampleGroupIDs != nil {
		return featurespace.ReduceRequest{}, false, errors.NewValidationError("sample_group_ids",
			"give either keep_sample_group_ids or leave_out_sample_group_ids, not both", nil)
	}
	req, err = featurespace.NewReduceRequest(c.KeepSampleGroupIDs, c.LeaveOutSampleGroupIDs)
	if err != nil {
		return featurespace.ReduceRequest{}, false, err
	}
	return req, true, nil
}

// RunConfig applies the config's sample reduction to table and runs the
// shuffle split. extra options are applied after the config's own.
func RunConfig(table *featurespace.FeatureTable, cfg *Config, extra ...Option) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if req, ok, err := cfg.ReduceRequest(); err != nil {
		return nil, err
	} else if ok {
		if table, err = table.SampleReduce(req); err != nil {
			return nil, err
		}
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return NewShuffleSplit(table, append(opts, extra...)...)
}
