package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/YuminosukeSato/wndgo/core/parallel"
	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/pkg/errors"
	"github.com/YuminosukeSato/wndgo/pkg/log"
	"github.com/YuminosukeSato/wndgo/scoring"
	"github.com/YuminosukeSato/wndgo/weights"
)

// DefaultIterations is the number of splits when WithIterations is not given.
const DefaultIterations = 5

type shuffleConfig struct {
	name       string
	iterations int
	trainSize  *featurespace.Size
	testSize   *featurespace.Size
	seed       *int64
	method     scoring.Method
	scorerOpts []scoring.Option
	threshold  []weights.ThresholdOption
	workers    int
	logger     log.Logger
	metrics    *Metrics
	ctx        context.Context
}

// Option configures NewShuffleSplit.
type Option func(*shuffleConfig)

// WithName names the experiment (defaults to the table name).
func WithName(name string) Option { return func(c *shuffleConfig) { c.name = name } }

// WithIterations sets the number of independent splits.
func WithIterations(n int) Option { return func(c *shuffleConfig) { c.iterations = n } }

// WithTrainSize sets the train size per class (discrete) or overall.
func WithTrainSize(s featurespace.Size) Option { return func(c *shuffleConfig) { c.trainSize = &s } }

// WithTestSize sets the test size per class (discrete) or overall.
func WithTestSize(s featurespace.Size) Option { return func(c *shuffleConfig) { c.testSize = &s } }

// WithRandomState makes the whole experiment reproducible. Every iteration
// gets its own seed drawn from this one before any split runs.
func WithRandomState(seed int64) Option { return func(c *shuffleConfig) { c.seed = &seed } }

// WithMethod selects the scorer. The default is WND for discrete tables and
// least squares for continuous ones.
func WithMethod(m scoring.Method, opts ...scoring.Option) Option {
	return func(c *shuffleConfig) { c.method, c.scorerOpts = m, opts }
}

// WithThreshold replaces the default feature selection (nonzero, top 15 %).
func WithThreshold(opts ...weights.ThresholdOption) Option {
	return func(c *shuffleConfig) { c.threshold = opts }
}

// WithWorkers runs up to n iterations concurrently. Results keep iteration order.
func WithWorkers(n int) Option { return func(c *shuffleConfig) { c.workers = n } }

func WithLogger(l log.Logger) Option { return func(c *shuffleConfig) { c.logger = l } }

func WithMetrics(m *Metrics) Option { return func(c *shuffleConfig) { c.metrics = m } }

// WithContext lets the caller cancel between iterations.
func WithContext(ctx context.Context) Option { return func(c *shuffleConfig) { c.ctx = ctx } }

// NewShuffleSplit runs the shuffle-split protocol on table. Each iteration
// splits the groups, normalizes the train set, weighs and thresholds its
// features, projects both sets onto them, normalizes the test set with the
// train parameters and scores it. The first failing iteration aborts the
// experiment with its error; no partial result is returned.
func NewShuffleSplit(table *featurespace.FeatureTable, opts ...Option) (*Result, error) {
	if table == nil {
		return nil, errors.NewValidationError("table", "table is nil", nil)
	}
	cfg := &shuffleConfig{
		name:       table.Name(),
		iterations: DefaultIterations,
		workers:    1,
		ctx:        context.Background(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.iterations <= 0 {
		return nil, errors.NewValidationError("n_iter", "must be positive", cfg.iterations)
	}
	if cfg.logger == nil {
		cfg.logger = log.GetLoggerWithName("experiment")
	}

	var scorer scoring.Scorer
	if cfg.method == "" {
		scorer = scoring.Default(table.Mode(), cfg.scorerOpts...)
	} else {
		var err error
		if scorer, err = scoring.New(cfg.method, cfg.scorerOpts...); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger.With(
		log.ComponentKey, "experiment",
		log.OperationKey, log.OperationShuffleSplit,
		log.ExperimentKey, cfg.name,
		log.MethodKey, string(scorer.Method()),
		log.ModeKey, table.Mode().String(),
	)

	// 各イテレーションのシードは最初にまとめて引く
	var parent = featurespace.NewRand(time.Now().UnixNano())
	if cfg.seed != nil {
		parent = featurespace.NewRand(*cfg.seed)
	}
	seeds := make([]int64, cfg.iterations)
	for i := range seeds {
		seeds[i] = parent.Int64()
	}

	logger.Info("shuffle split started",
		log.IterationsKey, cfg.iterations,
		log.SamplesKey, table.NumSamples(),
		log.FeaturesKey, table.NumFeatures(),
		log.GroupsKey, table.Groups().Len(),
		log.WorkersKey, cfg.workers,
	)
	start := time.Now()

	batches := make([]*scoring.BatchResult, cfg.iterations)
	err := parallel.ForEach(cfg.ctx, cfg.iterations, cfg.workers, func(ctx context.Context, i int) error {
		t0 := time.Now()
		b, err := safeIteration(table, scorer, cfg, i, seeds[i], logger)
		if err != nil {
			cfg.metrics.failed(table.Mode(), scorer.Method())
			return errors.Wrapf(err, "shuffle split iteration %d", i)
		}
		cfg.metrics.observe(table.Mode(), scorer.Method(), b, time.Since(t0).Seconds())
		batches[i] = b
		return nil
	})
	if err != nil {
		logger.Error("shuffle split failed", err)
		return nil, err
	}

	result := NewResult(cfg.name, table.Mode(), scorer.Method())
	result.SetSamples(table.Samples())
	for _, b := range batches {
		if err := result.Append(b); err != nil {
			return nil, err
		}
	}
	if err := result.GenerateStats(); err != nil {
		return nil, err
	}

	s := result.stats
	fields := []any{log.DurationMsKey, time.Since(start).Milliseconds()}
	if table.Mode() == featurespace.Discrete {
		fields = append(fields, log.AccuracyKey, s.Accuracy)
	}
	if s.HasValueStats {
		fields = append(fields, log.PearsonKey, s.Pearson, log.RMSEKey, s.RMSE)
	}
	logger.Info("shuffle split finished", fields...)
	return result, nil
}

// safeIteration runs one iteration. A panic anywhere in it is returned as a
// *errors.PanicError.
func safeIteration(table *featurespace.FeatureTable, scorer scoring.Scorer, cfg *shuffleConfig, i int, seed int64, logger log.Logger) (b *scoring.BatchResult, err error) {
	err = errors.SafeExecute(fmt.Sprintf("iteration %d", i), func() error {
		var ierr error
		b, ierr = runIteration(table, scorer, cfg, i, seed, logger)
		return ierr
	})
	return b, err
}

// runIteration performs one split → weigh → reduce → score cycle on copies
// of the source table.
func runIteration(table *featurespace.FeatureTable, scorer scoring.Scorer, cfg *shuffleConfig, i int, seed int64, logger log.Logger) (*scoring.BatchResult, error) {
	splitOpts := []featurespace.SplitOption{featurespace.WithRandomState(seed)}
	if cfg.trainSize != nil {
		splitOpts = append(splitOpts, featurespace.WithTrainSize(*cfg.trainSize))
	}
	if cfg.testSize != nil {
		splitOpts = append(splitOpts, featurespace.WithTestSize(*cfg.testSize))
	}
	train, test, err := table.Split(splitOpts...)
	if err != nil {
		return nil, err
	}
	if _, err := train.Normalize(featurespace.InPlace()); err != nil {
		return nil, err
	}

	w, err := weights.Compute(train)
	if err != nil {
		return nil, err
	}
	if w, err = w.Threshold(cfg.threshold...); err != nil {
		return nil, err
	}

	if _, err := train.FeatureReduce(w.Names, featurespace.InPlace()); err != nil {
		return nil, err
	}
	if _, err := test.FeatureReduce(w.Names, featurespace.InPlace()); err != nil {
		return nil, err
	}
	if _, err := test.Normalize(featurespace.WithReference(train), featurespace.InPlace()); err != nil {
		return nil, err
	}

	b, err := scorer.Score(train, test, w)
	if err != nil {
		return nil, err
	}
	b.Index = i
	b.Name = fmt.Sprintf("%s split %d", cfg.name, i)
	if err := b.GenerateStats(); err != nil {
		return nil, err
	}

	if logger.Enabled(context.Background(), log.LevelDebug) {
		logger.Debug("split scored",
			log.IterationKey, i,
			log.BatchIDKey, b.ID.String(),
			log.RandomSeedKey, seed,
			log.TrainSamplesKey, train.NumSamples(),
			log.TestSamplesKey, test.NumSamples(),
			log.WeightedFeaturesKey, w.Len(),
		)
	}
	return b, nil
}
