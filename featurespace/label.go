package featurespace

import (
	"regexp"
	"strconv"
)

// Label is a class name plus the number embedded in it, if any.
type Label struct {
	Name     string
	Value    float64
	HasValue bool
}

// The first signed decimal in a class name, e.g. "-55.56" in "FakeClass-55.56".
var labelNumber = regexp.MustCompile(`[-+]?\d*\.?\d+(?:[eE][-+]?\d+)?`)

// ParseLabel extracts the first signed decimal number embedded in name.
//
//	ParseLabel("FakeClass-55.56") // {Name: "FakeClass-55.56", Value: -55.56, HasValue: true}
//	ParseLabel("2cell")           // {Name: "2cell", Value: 2, HasValue: true}
//	ParseLabel("CLL")             // {Name: "CLL", HasValue: false}
func ParseLabel(name string) Label {
	l := Label{Name: name}
	m := labelNumber.FindString(name)
	if m == "" {
		return l
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return l
	}
	l.Value, l.HasValue = v, true
	return l
}
