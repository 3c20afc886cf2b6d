// Package featurespace holds the feature table: a samples × features matrix
// with per-sample metadata (group, tile, class label or ground truth), and the
// transformations defined on it (Normalize, FeatureReduce, SampleReduce, Split).
//
// Whether a table is discrete (class labelled) or continuous (real-valued
// ground truth) is decided once at construction and exposed through Mode.
// Transformations return new tables unless InPlace is passed.
package featurespace

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wndgo/pkg/errors"
	"github.com/YuminosukeSato/wndgo/preprocessing"
)

// Mode is the kind of target a table carries.
type Mode int

const (
	// Discrete tables have a class label per sample.
	Discrete Mode = iota
	// Continuous tables have a real-valued ground truth per sample.
	Continuous
)

func (m Mode) String() string {
	switch m {
	case Discrete:
		return "discrete"
	case Continuous:
		return "continuous"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// SampleMeta is the metadata of one row.
type SampleMeta struct {
	Name      string
	GroupID   int
	TileIndex int

	// ClassLabel is set for discrete samples.
	ClassLabel string

	// GroundTruth is set for continuous samples, and for discrete samples
	// whose class name carries a number when labels are interpolated.
	GroundTruth    float64
	HasGroundTruth bool
}

// FeatureTable is immutable by convention: accessors return copies, and
// mutating transformations require an explicit InPlace option.
type FeatureTable struct {
	name         string
	mode         Mode
	data         *mat.Dense
	featureNames []string
	featureIndex map[string]int
	samples      []SampleMeta

	// discrete only
	classes []Label
	classOf []int

	groups  *GroupIndex
	scaling *preprocessing.Params
}

type tableConfig struct {
	mode        *Mode
	interpolate bool
	classes     []Label
}

// TableOption configures New.
type TableOption func(*tableConfig)

// WithMode forces the table mode instead of detecting it from the metadata.
// Forcing Continuous on labelled samples derives ground truth from the
// numbers embedded in the class names.
func WithMode(m Mode) TableOption {
	return func(c *tableConfig) {
		c.mode = &m
	}
}

// WithInterpolatedLabels parses a numeric value out of every class name.
// Classes without a number emit a DataConversionWarning and stay valueless.
func WithInterpolatedLabels() TableOption {
	return func(c *tableConfig) {
		c.interpolate = true
	}
}

// WithClasses fixes the class order and values of a discrete table. Every
// sample label must name one of the classes and every class must be used.
func WithClasses(classes []Label) TableOption {
	return func(c *tableConfig) {
		c.classes = append([]Label(nil), classes...)
	}
}

// New builds a table from a samples × features matrix. The matrix is copied.
func New(name string, data mat.Matrix, featureNames []string, samples []SampleMeta, opts ...TableOption) (*FeatureTable, error) {
	if data == nil {
		return nil, errors.NewValidationError("data", "matrix is nil", nil)
	}
	cfg := &tableConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return build(name, mat.DenseCopyOf(data), featureNames, samples, cfg)
}

// build takes ownership of data.
func build(name string, data *mat.Dense, featureNames []string, samples []SampleMeta, cfg *tableConfig) (*FeatureTable, error) {
	r, c := data.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValidationError("data", "table must have at least one sample and one feature", [2]int{r, c})
	}
	if r != len(samples) {
		return nil, errors.NewDimensionError("featurespace.New", len(samples), r, 0)
	}
	if c != len(featureNames) {
		return nil, errors.NewDimensionError("featurespace.New", len(featureNames), c, 1)
	}
	for i := 0; i < r; i++ {
		for j, v := range data.RawRowView(i) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.NewValidationError("data", fmt.Sprintf("non-finite value at sample %d feature %q", i, featureNames[j]), v)
			}
		}
	}

	t := &FeatureTable{
		name:         name,
		data:         data,
		featureNames: append([]string(nil), featureNames...),
		featureIndex: make(map[string]int, c),
		samples:      append([]SampleMeta(nil), samples...),
	}
	for j, f := range featureNames {
		if _, dup := t.featureIndex[f]; dup {
			return nil, errors.NewValidationError("featureNames", "duplicate feature name", f)
		}
		t.featureIndex[f] = j
	}

	mode, err := detectMode(t.samples, cfg)
	if err != nil {
		return nil, err
	}
	t.mode = mode

	if err := t.assignTargets(cfg); err != nil {
		return nil, err
	}
	if err := t.checkGroups(); err != nil {
		return nil, err
	}
	t.groups = buildGroupIndex(t.samples, t.classOf)
	return t, nil
}

func detectMode(samples []SampleMeta, cfg *tableConfig) (Mode, error) {
	labelled := 0
	for _, s := range samples {
		if s.ClassLabel != "" {
			labelled++
		}
	}
	if cfg.mode != nil {
		if *cfg.mode == Discrete && labelled != len(samples) {
			return 0, errors.NewValidationError("mode", "discrete tables need a class label on every sample", labelled)
		}
		return *cfg.mode, nil
	}
	switch labelled {
	case len(samples):
		return Discrete, nil
	case 0:
		return Continuous, nil
	default:
		return 0, errors.NewValidationError("samples", "either every sample or no sample must carry a class label", labelled)
	}
}

// assignTargets resolves classes (discrete) or checks ground truth (continuous).
func (t *FeatureTable) assignTargets(cfg *tableConfig) error {
	t.classOf = make([]int, len(t.samples))

	// クラスはラベルの初出順
	var classes []Label
	index := make(map[string]int)
	if cfg.classes != nil {
		classes = cfg.classes
		for k, l := range classes {
			if _, dup := index[l.Name]; dup {
				return errors.NewValidationError("classes", "duplicate class name", l.Name)
			}
			index[l.Name] = k
		}
	}
	for i, s := range t.samples {
		if s.ClassLabel == "" {
			t.classOf[i] = -1
			continue
		}
		k, ok := index[s.ClassLabel]
		if !ok {
			if cfg.classes != nil {
				return errors.NewValidationError("samples", "class label not among the given classes", s.ClassLabel)
			}
			k = len(classes)
			index[s.ClassLabel] = k
			classes = append(classes, Label{Name: s.ClassLabel})
		}
		t.classOf[i] = k
	}

	// 連続値モードではクラス名の数値を真値として使う
	if cfg.interpolate || t.mode == Continuous {
		for k := range classes {
			if classes[k].HasValue {
				continue
			}
			classes[k] = ParseLabel(classes[k].Name)
			if !classes[k].HasValue {
				errors.Warn(errors.NewDataConversionWarning("class label", "float64",
					fmt.Sprintf("no number in class name %q", classes[k].Name)))
			}
		}
	}

	// ラベルから数値が得られたサンプルには真値を設定する
	for i := range t.samples {
		k := t.classOf[i]
		if k >= 0 && classes[k].HasValue && !t.samples[i].HasGroundTruth {
			t.samples[i].GroundTruth = classes[k].Value
			t.samples[i].HasGroundTruth = true
		}
	}

	if t.mode == Continuous {
		for i, s := range t.samples {
			if !s.HasGroundTruth {
				return errors.NewValidationError("samples", fmt.Sprintf("continuous sample %d (%q) has no ground truth", i, s.Name), s.ClassLabel)
			}
			t.classOf[i] = -1
		}
		return nil
	}

	used := make([]bool, len(classes))
	for _, k := range t.classOf {
		used[k] = true
	}
	for k, u := range used {
		if !u {
			return errors.NewValidationError("classes", "class has no samples", classes[k].Name)
		}
	}
	t.classes = classes
	return nil
}

// checkGroups enforces unique (group, tile) pairs and a single target per group.
func (t *FeatureTable) checkGroups() error {
	type key struct{ group, tile int }
	seen := make(map[key]bool, len(t.samples))
	first := make(map[int]int)
	for i, s := range t.samples {
		k := key{s.GroupID, s.TileIndex}
		if seen[k] {
			return errors.NewValidationError("samples", fmt.Sprintf("duplicate tile %d in group %d", s.TileIndex, s.GroupID), s.Name)
		}
		seen[k] = true

		j, ok := first[s.GroupID]
		if !ok {
			first[s.GroupID] = i
			continue
		}
		if t.mode == Discrete && t.classOf[i] != t.classOf[j] {
			return errors.NewValidationError("samples", fmt.Sprintf("group %d mixes classes", s.GroupID), s.ClassLabel)
		}
		if t.mode == Continuous && s.GroundTruth != t.samples[j].GroundTruth {
			return errors.NewValidationError("samples", fmt.Sprintf("group %d mixes ground truth values", s.GroupID), s.GroundTruth)
		}
	}
	return nil
}

// Name returns the table name.
func (t *FeatureTable) Name() string { return t.name }

// Mode returns Discrete or Continuous.
func (t *FeatureTable) Mode() Mode { return t.mode }

// Shape returns (number of samples, number of features).
func (t *FeatureTable) Shape() (int, int) { return t.data.Dims() }

// NumSamples returns the number of rows.
func (t *FeatureTable) NumSamples() int { return len(t.samples) }

// NumFeatures returns the number of columns.
func (t *FeatureTable) NumFeatures() int { return len(t.featureNames) }

// FeatureNames returns a copy of the ordered feature names.
func (t *FeatureTable) FeatureNames() []string {
	return append([]string(nil), t.featureNames...)
}

// FeatureIndex returns the column of the named feature.
func (t *FeatureTable) FeatureIndex(name string) (int, bool) {
	j, ok := t.featureIndex[name]
	return j, ok
}

// Sample returns the metadata of row i.
func (t *FeatureTable) Sample(i int) SampleMeta { return t.samples[i] }

// Samples returns a copy of all sample metadata.
func (t *FeatureTable) Samples() []SampleMeta {
	return append([]SampleMeta(nil), t.samples...)
}

// At returns the value of feature j for sample i.
func (t *FeatureTable) At(i, j int) float64 { return t.data.At(i, j) }

// Row returns a copy of row i.
func (t *FeatureTable) Row(i int) []float64 {
	return append([]float64(nil), t.data.RawRowView(i)...)
}

// RawRow returns row i without copying. The slice must not be modified.
func (t *FeatureTable) RawRow(i int) []float64 { return t.data.RawRowView(i) }

// Column returns a copy of column j.
func (t *FeatureTable) Column(j int) []float64 {
	return mat.Col(nil, j, t.data)
}

// Data returns a copy of the matrix.
func (t *FeatureTable) Data() *mat.Dense { return mat.DenseCopyOf(t.data) }

// NumClasses returns the number of classes (0 for continuous tables).
func (t *FeatureTable) NumClasses() int { return len(t.classes) }

// Classes returns the classes in order.
func (t *FeatureTable) Classes() []Label {
	return append([]Label(nil), t.classes...)
}

// ClassNames returns the class names in order.
func (t *FeatureTable) ClassNames() []string {
	names := make([]string, len(t.classes))
	for k, c := range t.classes {
		names[k] = c.Name
	}
	return names
}

// ClassValues returns the numeric value of every class. ok is false unless
// every class has one.
func (t *FeatureTable) ClassValues() (values []float64, ok bool) {
	if len(t.classes) == 0 {
		return nil, false
	}
	values = make([]float64, len(t.classes))
	for k, c := range t.classes {
		if !c.HasValue {
			return nil, false
		}
		values[k] = c.Value
	}
	return values, true
}

// ClassIndex returns the class of row i, or -1 for continuous tables.
func (t *FeatureTable) ClassIndex(i int) int { return t.classOf[i] }

// ClassIndices returns the class of every row.
func (t *FeatureTable) ClassIndices() []int {
	return append([]int(nil), t.classOf...)
}

// GroundTruth returns the ground truth of every row. ok is false if any
// row lacks one.
func (t *FeatureTable) GroundTruth() (values []float64, ok bool) {
	values = make([]float64, len(t.samples))
	for i, s := range t.samples {
		if !s.HasGroundTruth {
			return nil, false
		}
		values[i] = s.GroundTruth
	}
	return values, true
}

// Groups returns the grouping index.
func (t *FeatureTable) Groups() *GroupIndex { return t.groups }

// IsNormalized reports whether the table carries fitted scaling parameters.
func (t *FeatureTable) IsNormalized() bool { return t.scaling != nil }

// Scaling returns a copy of the fitted scaling parameters, or nil.
func (t *FeatureTable) Scaling() *preprocessing.Params { return t.scaling.Clone() }

// Clone returns a deep copy.
func (t *FeatureTable) Clone() *FeatureTable {
	out := *t
	out.data = mat.DenseCopyOf(t.data)
	out.featureNames = append([]string(nil), t.featureNames...)
	out.featureIndex = make(map[string]int, len(t.featureIndex))
	for k, v := range t.featureIndex {
		out.featureIndex[k] = v
	}
	out.samples = append([]SampleMeta(nil), t.samples...)
	out.classes = append([]Label(nil), t.classes...)
	out.classOf = append([]int(nil), t.classOf...)
	out.scaling = t.scaling.Clone()
	return &out
}

func (t *FeatureTable) String() string {
	r, c := t.Shape()
	if t.mode == Discrete {
		return fmt.Sprintf("FeatureTable(%q, %s, samples=%d, features=%d, classes=%d, groups=%d)",
			t.name, t.mode, r, c, len(t.classes), t.groups.Len())
	}
	return fmt.Sprintf("FeatureTable(%q, %s, samples=%d, features=%d, groups=%d)",
		t.name, t.mode, r, c, t.groups.Len())
}

// subset builds a new table from the given rows. samples and classes
// replace the source metadata when non-nil.
func (t *FeatureTable) subset(name string, rows []int, samples []SampleMeta, classes []Label) (*FeatureTable, error) {
	if len(rows) == 0 {
		return nil, errors.NewValidationError("samples", "selection contains no samples", name)
	}
	c := t.NumFeatures()
	data := mat.NewDense(len(rows), c, nil)
	meta := samples
	if meta == nil {
		meta = make([]SampleMeta, len(rows))
	}
	for k, i := range rows {
		copy(data.RawRowView(k), t.data.RawRowView(i))
		if samples == nil {
			meta[k] = t.samples[i]
		}
	}

	mode := t.mode
	cfg := &tableConfig{mode: &mode, classes: classes}
	out, err := build(name, data, t.featureNames, meta, cfg)
	if err != nil {
		return nil, err
	}
	out.scaling = t.scaling.Clone()
	return out, nil
}

// usedClasses returns the source classes that appear in rows, in source order.
func (t *FeatureTable) usedClasses(rows []int) []Label {
	if t.mode != Discrete {
		return nil
	}
	used := make([]bool, len(t.classes))
	for _, i := range rows {
		used[t.classOf[i]] = true
	}
	var out []Label
	for k, u := range used {
		if u {
			out = append(out, t.classes[k])
		}
	}
	return out
}
