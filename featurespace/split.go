package featurespace

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/wndgo/pkg/errors"
)

// Size is a partition size given either as a number of groups or as a
// fraction of the available groups.
type Size struct {
	count    int
	fraction float64
	isFrac   bool
}

// Count is a size of n groups.
func Count(n int) Size { return Size{count: n} }

// Fraction is a size of f·n groups, f in (0, 1].
func Fraction(f float64) Size { return Size{fraction: f, isFrac: true} }

// IsFraction reports whether the size is relative.
func (s Size) IsFraction() bool { return s.isFrac }

func (s Size) String() string {
	if s.isFrac {
		return strconv.FormatFloat(s.fraction, 'g', -1, 64)
	}
	return strconv.Itoa(s.count)
}

func (s Size) validate(param string) error {
	if s.isFrac {
		if !(s.fraction > 0 && s.fraction <= 1) {
			return errors.NewValueErrorf("Split", "%s must be a fraction in (0, 1] or a positive count, got %v", param, s.fraction)
		}
		return nil
	}
	if s.count <= 0 {
		return errors.NewValueErrorf("Split", "%s must be a positive count, got %d", param, s.count)
	}
	return nil
}

// resolve turns the size into a group count out of n. Fractions round down
// when ceil is false and up otherwise.
func (s Size) resolve(n int, ceil bool) int {
	if !s.isFrac {
		return s.count
	}
	x := s.fraction * float64(n)
	if ceil {
		return int(math.Ceil(x - 1e-9))
	}
	return int(math.Floor(x + 1e-9))
}

// ParseSize converts loosely typed input. Integers are counts; floats in
// (0, 1] are fractions; integral floats above 1 are counts; strings are
// parsed as either.
func ParseSize(v any) (Size, error) {
	var s Size
	switch x := v.(type) {
	case Size:
		s = x
	case int:
		s = Count(x)
	case int64:
		s = Count(int(x))
	case float64:
		if x > 1 && x == math.Trunc(x) {
			s = Count(int(x))
		} else {
			s = Fraction(x)
		}
	case string:
		str := strings.TrimSpace(x)
		if n, err := strconv.Atoi(str); err == nil {
			return ParseSize(n)
		}
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return Size{}, errors.NewValueErrorf("ParseSize", "cannot interpret %q as a size", x)
		}
		return ParseSize(f)
	default:
		return Size{}, errors.NewValueErrorf("ParseSize", "cannot interpret %v (%T) as a size", v, v)
	}
	if err := s.validate("size"); err != nil {
		return Size{}, err
	}
	return s, nil
}

// DefaultTestFraction is the test share used when no size is given.
const DefaultTestFraction = 0.25

type splitConfig struct {
	train *Size
	test  *Size
	rng   *rand.Rand
}

// SplitOption configures Split.
type SplitOption func(*splitConfig)

// WithTrainSize sets the train partition size per class (discrete) or for
// the whole table (continuous).
func WithTrainSize(s Size) SplitOption {
	return func(c *splitConfig) {
		c.train = &s
	}
}

// WithTestSize sets the test partition size.
func WithTestSize(s Size) SplitOption {
	return func(c *splitConfig) {
		c.test = &s
	}
}

// WithRandomState seeds the shuffle so the same seed reproduces the partition.
func WithRandomState(seed int64) SplitOption {
	return func(c *splitConfig) {
		c.rng = NewRand(seed)
	}
}

// WithRand uses r for the shuffle.
func WithRand(r *rand.Rand) SplitOption {
	return func(c *splitConfig) {
		c.rng = r
	}
}

// NewRand returns the PCG generator used for seeded splits.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// Split partitions the table into train and test tables at group
// granularity. Discrete tables are stratified per class. When only one size
// is given the other partition takes the remaining groups; with no sizes the
// test partition is 25 % of the groups. Rows keep their source order.
func (t *FeatureTable) Split(opts ...SplitOption) (train, test *FeatureTable, err error) {
	cfg := &splitConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.train != nil {
		if err := cfg.train.validate("train_size"); err != nil {
			return nil, nil, err
		}
	}
	if cfg.test != nil {
		if err := cfg.test.validate("test_size"); err != nil {
			return nil, nil, err
		}
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	var strata [][]int
	var names []string
	if t.mode == Discrete {
		strata = t.groups.ByClass(len(t.classes))
		names = t.ClassNames()
	} else {
		strata = [][]int{t.groups.IDs()}
		names = []string{t.name}
	}

	var trainIDs, testIDs []int
	for k, ids := range strata {
		nTrain, nTest, err := cfg.counts(len(ids))
		if err != nil {
			return nil, nil, errors.Wrapf(err, "stratum %q", names[k])
		}

		perm := cfg.rng.Perm(len(ids))
		trainPos := append([]int(nil), perm[:nTrain]...)
		testPos := append([]int(nil), perm[nTrain:nTrain+nTest]...)
		sort.Ints(trainPos)
		sort.Ints(testPos)
		for _, p := range trainPos {
			trainIDs = append(trainIDs, ids[p])
		}
		for _, p := range testPos {
			testIDs = append(testIDs, ids[p])
		}
	}

	trainRows := t.groups.rowsOf(trainIDs)
	testRows := t.groups.rowsOf(testIDs)
	if train, err = t.subset(t.name+" (train)", trainRows, nil, t.usedClasses(trainRows)); err != nil {
		return nil, nil, err
	}
	if test, err = t.subset(t.name+" (test)", testRows, nil, t.usedClasses(testRows)); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

// counts resolves the train and test group counts for a stratum of n groups.
func (c *splitConfig) counts(n int) (nTrain, nTest int, err error) {
	switch {
	case c.train == nil && c.test == nil:
		nTest = Fraction(DefaultTestFraction).resolve(n, true)
		nTrain = n - nTest
	case c.test == nil:
		nTrain = c.train.resolve(n, false)
		nTest = n - nTrain
	case c.train == nil:
		nTest = c.test.resolve(n, true)
		nTrain = n - nTest
	default:
		nTrain = c.train.resolve(n, false)
		nTest = c.test.resolve(n, true)
	}

	if nTrain+nTest > n || nTrain < 0 || nTest < 0 {
		return 0, 0, errors.NewValueError("Split",
			fmt.Sprintf("%d groups available but %d train + %d test requested", n, nTrain, nTest))
	}
	if nTrain == 0 || nTest == 0 {
		return 0, 0, errors.NewValueError("Split",
			fmt.Sprintf("partition of %d groups leaves an empty set (train %d, test %d)", n, nTrain, nTest))
	}
	return nTrain, nTest, nil
}
