package weights

import (
	"math"

	"github.com/YuminosukeSato/wndgo/pkg/errors"
)

// DefaultTopFraction is the share of nonzero features kept by Threshold
// when no option is given.
const DefaultTopFraction = 0.15

type thresholdConfig struct {
	nonzero  bool
	topK     int
	fraction float64
}

// ThresholdOption configures Threshold.
type ThresholdOption func(*thresholdConfig)

// Nonzero drops features whose weight is 0.
func Nonzero() ThresholdOption {
	return func(c *thresholdConfig) { c.nonzero = true }
}

// TopK keeps at most k features.
func TopK(k int) ThresholdOption {
	return func(c *thresholdConfig) { c.topK = k }
}

// TopFraction keeps floor(f·n) features, at least one.
func TopFraction(f float64) ThresholdOption {
	return func(c *thresholdConfig) { c.fraction = f }
}

// Threshold selects the highest-ranked features. Without options it keeps
// the nonzero features and then the top 15 % of those. Nonzero filtering
// always happens before the count limits.
func (w *FeatureWeights) Threshold(opts ...ThresholdOption) (*FeatureWeights, error) {
	cfg := &thresholdConfig{}
	if len(opts) == 0 {
		cfg.nonzero = true
		cfg.fraction = DefaultTopFraction
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.topK < 0 {
		return nil, errors.NewValidationError("top_k", "must not be negative", cfg.topK)
	}
	if cfg.fraction < 0 || cfg.fraction > 1 {
		return nil, errors.NewValidationError("fraction", "must be in (0, 1]", cfg.fraction)
	}

	var idx []int
	for i, v := range w.Values {
		if cfg.nonzero && v == 0 {
			continue
		}
		idx = append(idx, i)
	}
	if len(idx) == 0 {
		return nil, errors.NewDegenerateInputError("Threshold", "no feature has a nonzero weight")
	}

	keep := len(idx)
	if cfg.fraction > 0 {
		keep = int(math.Floor(cfg.fraction*float64(len(idx)) + 1e-9))
		if keep < 1 {
			keep = 1
		}
	}
	if cfg.topK > 0 && cfg.topK < keep {
		keep = cfg.topK
	}
	return w.pick(idx[:keep]), nil
}
