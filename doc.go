// Package wndgo is a feature-space experimentation engine for image-style
// feature tables: it weighs features, selects the most informative ones and
// scores held-out samples with weighted neighbour distance (WND) for
// classification or with per-feature regressions for continuous targets.
//
// The root package holds documentation only; the work happens in the
// subpackages.
//
// # Quick Start
//
// Running the shuffle-split protocol on a table:
//
//	package main
//
//	import (
//	    "log"
//	    "os"
//
//	    "github.com/YuminosukeSato/wndgo/experiment"
//	    "github.com/YuminosukeSato/wndgo/featurespace"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    // rows are samples, columns are features
//	    data := mat.NewDense(n, k, values)
//	    table, err := featurespace.New("cells", data, featureNames, samples)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    res, err := experiment.NewShuffleSplit(table,
//	        experiment.WithIterations(25),
//	        experiment.WithRandomState(42),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    res.WriteSummary(os.Stdout)
//	    res.PerSampleStatistics(os.Stdout)
//	}
//
// # Packages
//
//   - featurespace: the feature table and its transformations (Normalize,
//     FeatureReduce, SampleReduce, Split)
//   - weights: Fisher and Pearson feature weights and thresholding
//   - scoring: WND classifier and the least squares, voting and
//     multivariate regressors, producing one BatchResult per split
//   - experiment: shuffle-split driver, aggregate statistics, per-sample
//     report, summary tables, prediction plot, Prometheus metrics and YAML
//     configuration
//   - preprocessing: z-score and min-max scaling parameters
//   - metrics: accuracy, confusion matrix, RMSE, MAE and Pearson r
//   - linear: ridge-regularized multivariate linear regression
//   - core/parallel: range and task parallelism helpers
//   - pkg/errors, pkg/log: error types and structured logging
//
// # Error Handling
//
// Invalid arguments return *errors.ValidationError or *errors.ValueError;
// statistically unusable input (no variance, no nonzero weight) returns
// *errors.DegenerateInputError; asking an empty result for statistics
// returns *errors.NotReadyError. Use errors.As to inspect them.
package wndgo
