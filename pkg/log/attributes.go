// Package log defines standard attribute keys for experiment logging.
//
// Keys follow a hierarchical "category.name" convention so that records from
// different splits and experiments can be filtered and joined downstream.

package log

// Experiment context
const (
	// ExperimentKey is the human-readable experiment name.
	ExperimentKey = "experiment.name"

	// BatchIDKey is the unique identifier of one split result.
	BatchIDKey = "batch.id"

	// IterationKey is the zero-based index of the split within an experiment.
	IterationKey = "experiment.iteration"

	// IterationsKey is the total number of splits requested.
	IterationsKey = "experiment.iterations"

	// MethodKey names the scoring method: "wnd", "least_squares", "voting", "multivariate".
	MethodKey = "scoring.method"

	// ModeKey is "discrete" or "continuous".
	ModeKey = "featurespace.mode"

	// ComponentKey identifies the package emitting the record.
	ComponentKey = "component"

	// OperationKey specifies the operation being performed.
	// Standard values: "normalize", "split", "weights", "score"
	OperationKey = "operation"
)

// Data shape
const (
	// SamplesKey is the number of samples (rows) in a table.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of features (columns) in a table.
	FeaturesKey = "data.features"

	// ClassesKey is the number of classes in a discrete table.
	ClassesKey = "data.classes"

	// GroupsKey is the number of sample groups.
	GroupsKey = "data.groups"

	// TrainSamplesKey and TestSamplesKey are the partition sizes of one split.
	TrainSamplesKey = "split.train_samples"
	TestSamplesKey  = "split.test_samples"

	// WeightedFeaturesKey is the number of features kept after thresholding.
	WeightedFeaturesKey = "weights.kept"
)

// Scores
const (
	AccuracyKey = "metrics.accuracy"
	PearsonKey  = "metrics.pearson"
	RMSEKey     = "metrics.rmse"
	MAEKey      = "metrics.mae"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// WorkersKey is the number of concurrent split workers.
	WorkersKey = "config.workers"
)

// Error context
const (
	// ErrorTypeKey categorizes the error, e.g. "ValidationError".
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"
)

// Standard attribute values.
const (
	OperationNormalize    = "normalize"
	OperationSplit        = "split"
	OperationWeights      = "weights"
	OperationScore        = "score"
	OperationReport       = "report"
	OperationShuffleSplit = "shuffle_split"
)
