// Package artificial generates synthetic feature tables whose features are
// known functions of the ground truth. Tests and examples use them as
// positive and negative controls.
package artificial

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/pkg/errors"
)

// Signal is a function of the ground truth scaled to [-1, 1].
type Signal struct {
	Name string
	F    func(u float64) float64
}

// Signals lists the generated signal types: exactly linear ones first, then
// monotone nonlinear ones, then even functions whose linear correlation
// with the ground truth is close to zero.
var Signals = []Signal{
	{"Linear", func(u float64) float64 { return u }},
	{"LinearOffset", func(u float64) float64 { return 2*u + 0.5 }},
	{"LinearNegative", func(u float64) float64 { return -u }},
	{"LinearHalf", func(u float64) float64 { return 0.5*u - 1 }},

	{"Cubic", func(u float64) float64 { return u * u * u }},
	{"Tanh", func(u float64) float64 { return math.Tanh(2 * u) }},
	{"Exp", math.Exp},
	{"Sinh", func(u float64) float64 { return math.Sinh(2 * u) }},
	{"Atan", func(u float64) float64 { return math.Atan(3 * u) }},
	{"Sin", func(u float64) float64 { return math.Sin(math.Pi * u / 2) }},
	{"Cbrt", math.Cbrt},
	{"Sigmoid", func(u float64) float64 { return 1 / (1 + math.Exp(-4*u)) }},
	{"Quintic", func(u float64) float64 { return math.Pow(u, 5) }},
	{"SignedSquare", func(u float64) float64 { return u * math.Abs(u) }},
	{"ExpMix", func(u float64) float64 { return math.Exp(2*u) - math.Exp(-u) }},

	{"Square", func(u float64) float64 { return u * u }},
	{"Abs", math.Abs},
	{"Cos", func(u float64) float64 { return math.Cos(math.Pi * u) }},
	{"Quartic", func(u float64) float64 { return u * u * u * u }},
	{"Cos2", func(u float64) float64 { return math.Cos(2 * math.Pi * u) }},
}

// NumLinearSignals is the number of exactly linear signals at the head of Signals.
const NumLinearSignals = 4

// NumEvenSignals is the number of even signals at the tail of Signals.
const NumEvenSignals = 5

type config struct {
	name              string
	samples           int
	classes           int
	featuresPerSignal int
	initialNoise      float64
	noiseGradient     float64
	samplesPerGroup   int
	seed              int64
	interpolatable    bool
}

// Option configures the generators.
type Option func(*config)

func WithName(name string) Option { return func(c *config) { c.name = name } }

// WithSamples sets the total number of rows, tiles included.
func WithSamples(n int) Option { return func(c *config) { c.samples = n } }

// WithClasses sets the number of classes of a discrete table.
func WithClasses(n int) Option { return func(c *config) { c.classes = n } }

// WithFeaturesPerSignal sets how many features each signal type produces.
func WithFeaturesPerSignal(n int) Option { return func(c *config) { c.featuresPerSignal = n } }

// WithNoise sets the Gaussian noise sigma of the first feature of each
// signal type and its increase per following feature. Zero gives exact data.
func WithNoise(initialSigma, gradient float64) Option {
	return func(c *config) { c.initialNoise, c.noiseGradient = initialSigma, gradient }
}

// WithSamplesPerGroup sets the number of tiles per sample group.
func WithSamplesPerGroup(n int) Option { return func(c *config) { c.samplesPerGroup = n } }

func WithRandomState(seed int64) Option { return func(c *config) { c.seed = seed } }

// WithInterpolatable controls whether class names embed their value
// ("FakeClass-55.56") or are plain letters ("FakeClassC").
func WithInterpolatable(b bool) Option { return func(c *config) { c.interpolatable = b } }

func newConfig(opts []Option) (*config, error) {
	c := &config{
		name:              "artificial",
		samples:           1000,
		classes:           10,
		featuresPerSignal: 10,
		initialNoise:      10,
		noiseGradient:     5,
		samplesPerGroup:   1,
		seed:              42,
		interpolatable:    true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.samples <= 0 || c.featuresPerSignal <= 0 || c.samplesPerGroup <= 0 {
		return nil, errors.NewValidationError("artificial", "sizes must be positive",
			[3]int{c.samples, c.featuresPerSignal, c.samplesPerGroup})
	}
	if c.samples%c.samplesPerGroup != 0 {
		return nil, errors.NewValidationError("samples", "must be a multiple of samples per group", c.samples)
	}
	return c, nil
}

// FeatureNames returns the generated feature names in column order.
func FeatureNames(featuresPerSignal int) []string {
	names := make([]string, 0, len(Signals)*featuresPerSignal)
	for _, s := range Signals {
		for j := 0; j < featuresPerSignal; j++ {
			names = append(names, fmt.Sprintf("%s_%02d", s.Name, j))
		}
	}
	return names
}

// row fills one feature row for ground truth y in [-100, 100].
func (c *config) row(dst []float64, y float64, rng *rand.Rand) {
	u := y / 100
	k := 0
	for _, s := range Signals {
		v := s.F(u)
		for j := 0; j < c.featuresPerSignal; j++ {
			x := 100 * v * (1 + 0.25*float64(j))
			if sigma := c.initialNoise + c.noiseGradient*float64(j); sigma > 0 {
				x += rng.NormFloat64() * sigma
			}
			dst[k] = x
			k++
		}
	}
}

// Continuous generates a table whose ground truth is drawn uniformly from
// [-100, 100] once per sample group.
func Continuous(opts ...Option) (*featurespace.FeatureTable, error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(uint64(c.seed), uint64(c.seed)))
	names := FeatureNames(c.featuresPerSignal)
	data := mat.NewDense(c.samples, len(names), nil)
	samples := make([]featurespace.SampleMeta, c.samples)

	nGroups := c.samples / c.samplesPerGroup
	for g := 0; g < nGroups; g++ {
		y := rng.Float64()*200 - 100
		for tile := 0; tile < c.samplesPerGroup; tile++ {
			i := g*c.samplesPerGroup + tile
			c.row(data.RawRowView(i), y, rng)
			samples[i] = featurespace.SampleMeta{
				Name:           fmt.Sprintf("FakeContinuousSample%04d", g),
				GroupID:        g,
				TileIndex:      tile,
				GroundTruth:    y,
				HasGroundTruth: true,
			}
		}
	}
	return featurespace.New(c.name, data, names, samples)
}

// ClassNames returns the class names a discrete table with n classes uses.
func ClassNames(n int, interpolatable bool) ([]string, []float64) {
	values := make([]float64, n)
	if n == 1 {
		values[0] = 0
	} else {
		floats.Span(values, -100, 100)
	}
	names := make([]string, n)
	for k, v := range values {
		if interpolatable {
			r := math.Round(v*100) / 100
			names[k] = "FakeClass" + strconv.FormatFloat(r, 'f', -1, 64)
		} else {
			names[k] = "FakeClass" + letters(k)
		}
	}
	return names, values
}

func letters(k int) string {
	s := ""
	for {
		s = string(rune('A'+k%26)) + s
		k = k/26 - 1
		if k < 0 {
			return s
		}
	}
}

// Discrete generates a class-labelled table. Classes take evenly spaced
// values in [-100, 100]; group ids are contiguous per class, and sample
// names are "<class>_<index within class>".
func Discrete(opts ...Option) (*featurespace.FeatureTable, error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if c.classes < 2 {
		return nil, errors.NewValidationError("classes", "need at least 2 classes", c.classes)
	}
	nGroups := c.samples / c.samplesPerGroup
	if nGroups%c.classes != 0 {
		return nil, errors.NewValidationError("samples", "groups must divide evenly among classes", nGroups)
	}
	perClass := nGroups / c.classes

	rng := rand.New(rand.NewPCG(uint64(c.seed), uint64(c.seed)))
	names := FeatureNames(c.featuresPerSignal)
	classNames, values := ClassNames(c.classes, c.interpolatable)
	data := mat.NewDense(c.samples, len(names), nil)
	samples := make([]featurespace.SampleMeta, c.samples)

	for k := 0; k < c.classes; k++ {
		for n := 0; n < perClass; n++ {
			g := k*perClass + n
			for tile := 0; tile < c.samplesPerGroup; tile++ {
				i := g*c.samplesPerGroup + tile
				c.row(data.RawRowView(i), values[k], rng)
				samples[i] = featurespace.SampleMeta{
					Name:       fmt.Sprintf("%s_%03d", classNames[k], n),
					GroupID:    g,
					TileIndex:  tile,
					ClassLabel: classNames[k],
				}
			}
		}
	}

	var tableOpts []featurespace.TableOption
	if c.interpolatable {
		tableOpts = append(tableOpts, featurespace.WithInterpolatedLabels())
	}
	return featurespace.New(c.name, data, names, samples, tableOpts...)
}
