package featurespace

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wndgo/pkg/errors"
	"github.com/YuminosukeSato/wndgo/preprocessing"
)

type transformConfig struct {
	inPlace   bool
	method    preprocessing.Method
	reference *FeatureTable
}

// TransformOption configures Normalize and FeatureReduce.
type TransformOption func(*transformConfig)

// InPlace makes the transformation mutate and return the receiver.
func InPlace() TransformOption {
	return func(c *transformConfig) {
		c.inPlace = true
	}
}

// WithMethod selects the normalization method (z-score by default).
// FeatureReduce ignores it.
func WithMethod(m preprocessing.Method) TransformOption {
	return func(c *transformConfig) {
		c.method = m
	}
}

// WithReference normalizes with the fitted parameters of ref instead of
// refitting. ref must be normalized and have the same features in the same
// order. FeatureReduce ignores it.
func WithReference(ref *FeatureTable) TransformOption {
	return func(c *transformConfig) {
		c.reference = ref
	}
}

func newTransformConfig(opts []TransformOption) *transformConfig {
	cfg := &transformConfig{method: preprocessing.ZScore}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize rescales every feature column. Without a reference the scaling
// is fitted on this table; with WithReference the reference's parameters are
// applied, so a test table can be normalized with train statistics.
//
// Parameters always map raw values. An already normalized table is mapped
// back to its raw values first, so normalizing twice equals normalizing once.
func (t *FeatureTable) Normalize(opts ...TransformOption) (*FeatureTable, error) {
	cfg := newTransformConfig(opts)

	raw := t.data
	if t.scaling != nil {
		raw = mat.DenseCopyOf(t.data)
		if err := t.scaling.Invert(raw); err != nil {
			return nil, errors.Wrapf(err, "normalize %q", t.name)
		}
	}

	var params *preprocessing.Params
	if ref := cfg.reference; ref != nil {
		if !ref.IsNormalized() {
			return nil, errors.NewValidationError("reference", "reference table is not normalized", ref.Name())
		}
		if !sameFeatures(ref.featureNames, t.featureNames) {
			return nil, errors.NewValidationError("reference", "reference table has different features", ref.NumFeatures())
		}
		params = ref.scaling.Clone()
	} else {
		var err error
		params, err = preprocessing.Fit(cfg.method, raw)
		if err != nil {
			return nil, errors.Wrapf(err, "normalize %q", t.name)
		}
	}

	out := t
	if !cfg.inPlace {
		out = t.Clone()
	}
	if raw != t.data {
		out.data.Copy(raw)
	}
	if err := params.Apply(out.data); err != nil {
		return nil, err
	}
	r, c := out.data.Dims()
	if err := errors.CheckMatrix("Normalize", out.data, r, c, 0); err != nil {
		return nil, err
	}
	out.scaling = params
	return out, nil
}

func sameFeatures(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FeatureReduce projects the table onto the named features, in the order
// given. Fitted scaling parameters are projected along with the data.
func (t *FeatureTable) FeatureReduce(names []string, opts ...TransformOption) (*FeatureTable, error) {
	cfg := newTransformConfig(opts)
	if len(names) == 0 {
		return nil, errors.NewValidationError("names", "no features requested", names)
	}

	cols := make([]int, len(names))
	seen := make(map[string]bool, len(names))
	for k, name := range names {
		j, ok := t.featureIndex[name]
		if !ok {
			return nil, errors.NewValidationError("names", "unknown feature", name)
		}
		if seen[name] {
			return nil, errors.NewValidationError("names", "feature requested twice", name)
		}
		seen[name] = true
		cols[k] = j
	}

	r := t.NumSamples()
	projected := mat.NewDense(r, len(cols), nil)
	for i := 0; i < r; i++ {
		src := t.data.RawRowView(i)
		dst := projected.RawRowView(i)
		for k, j := range cols {
			dst[k] = src[j]
		}
	}

	var scaling *preprocessing.Params
	if t.scaling != nil {
		var err error
		if scaling, err = t.scaling.Select(cols); err != nil {
			return nil, err
		}
	}

	out := t
	if !cfg.inPlace {
		out = t.Clone()
	}
	out.data = projected
	out.featureNames = append([]string(nil), names...)
	out.featureIndex = make(map[string]int, len(names))
	for k, name := range names {
		out.featureIndex[name] = k
	}
	out.scaling = scaling
	return out, nil
}

// ReduceRequest selects sample groups. Exactly one field must be set.
type ReduceRequest struct {
	// Keep lists the groups to keep (continuous tables only).
	Keep []int

	// KeepByClass has one entry per output class, each listing the groups
	// assigned to that class (discrete tables only). A nil or empty entry
	// is a placeholder: its position produces no class.
	KeepByClass [][]int

	// LeaveOut lists the groups to drop.
	LeaveOut []int
}

// SampleReduce keeps or drops whole sample groups; tiles follow their group.
//
// With KeepByClass the output class at position k takes the name and value
// of source class k when it exists, and the name "Class<k+1>" otherwise.
func (t *FeatureTable) SampleReduce(req ReduceRequest) (*FeatureTable, error) {
	set := 0
	if len(req.Keep) > 0 {
		set++
	}
	if len(req.KeepByClass) > 0 {
		set++
	}
	if len(req.LeaveOut) > 0 {
		set++
	}
	if set != 1 {
		return nil, errors.NewValidationError("sample_group_ids", "exactly one of keep, keep by class or leave out must be given", set)
	}

	switch {
	case len(req.Keep) > 0:
		if t.mode == Discrete {
			return nil, errors.NewValidationError("keep_sample_group_ids",
				"a flat list of groups is ambiguous for a discrete table, give one list per class", req.Keep)
		}
		if err := t.checkGroupIDs("keep_sample_group_ids", req.Keep, nil); err != nil {
			return nil, err
		}
		return t.subset(t.name, t.groups.rowsOf(req.Keep), nil, nil)

	case len(req.KeepByClass) > 0:
		if t.mode != Discrete {
			return nil, errors.NewValidationError("keep_sample_group_ids",
				"continuous tables take a flat list of groups", req.KeepByClass)
		}
		return t.keepByClass(req.KeepByClass)

	default:
		seen := make(map[int]bool)
		if err := t.checkGroupIDs("leave_out_sample_group_ids", req.LeaveOut, seen); err != nil {
			return nil, err
		}
		var keep []int
		for _, id := range t.groups.ids {
			if !seen[id] {
				keep = append(keep, id)
			}
		}
		rows := t.groups.rowsOf(keep)
		return t.subset(t.name, rows, nil, t.usedClasses(rows))
	}
}

// checkGroupIDs rejects unknown and repeated group ids, recording them in seen.
func (t *FeatureTable) checkGroupIDs(param string, ids []int, seen map[int]bool) error {
	if seen == nil {
		seen = make(map[int]bool, len(ids))
	}
	for _, id := range ids {
		if !t.groups.Has(id) {
			return errors.NewValidationError(param, "unknown sample group id", id)
		}
		if seen[id] {
			return errors.NewValidationError(param, "sample group id given twice", id)
		}
		seen[id] = true
	}
	return nil
}

func (t *FeatureTable) keepByClass(byClass [][]int) (*FeatureTable, error) {
	seen := make(map[int]bool)
	var (
		rows    []int
		samples []SampleMeta
		classes []Label
	)
	for k, ids := range byClass {
		if len(ids) == 0 {
			continue
		}
		if err := t.checkGroupIDs("keep_sample_group_ids", ids, seen); err != nil {
			return nil, err
		}
		label := Label{Name: fmt.Sprintf("Class%d", k+1)}
		if k < len(t.classes) {
			label = t.classes[k]
		}
		classes = append(classes, label)

		for _, i := range t.groups.rowsOf(ids) {
			s := t.samples[i]
			s.ClassLabel = label.Name
			s.GroundTruth, s.HasGroundTruth = label.Value, label.HasValue
			rows = append(rows, i)
			samples = append(samples, s)
		}
	}
	return t.subset(t.name, rows, samples, classes)
}
