package featurespace

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/wndgo/pkg/errors"
)

// NewReduceRequest builds a ReduceRequest from loosely typed input such as
// decoded YAML or JSON. keep may be a single id, a flat list of ids, or a
// list of lists (one per output class) where false, nil or an empty list is
// a placeholder. leaveOut may be a single id or a flat list of ids.
func NewReduceRequest(keep, leaveOut any) (ReduceRequest, error) {
	var req ReduceRequest

	if keep != nil {
		flat, nested, err := parseGroupIDs("keep_sample_group_ids", keep, true)
		if err != nil {
			return ReduceRequest{}, err
		}
		req.Keep, req.KeepByClass = flat, nested
	}
	if leaveOut != nil {
		flat, _, err := parseGroupIDs("leave_out_sample_group_ids", leaveOut, false)
		if err != nil {
			return ReduceRequest{}, err
		}
		req.LeaveOut = flat
	}
	return req, nil
}

func parseGroupIDs(param string, v any, allowNested bool) (flat []int, nested [][]int, err error) {
	if id, ok := asGroupID(v); ok {
		return []int{id}, nil, nil
	}

	switch x := v.(type) {
	case []int:
		return append([]int(nil), x...), nil, nil
	case [][]int:
		if !allowNested {
			return nil, nil, errors.NewValidationError(param, "nested lists are not accepted here", v)
		}
		for _, inner := range x {
			nested = append(nested, append([]int(nil), inner...))
		}
		return nil, nested, nil
	case []any:
		return parseList(param, x, allowNested)
	default:
		return nil, nil, errors.NewValidationError(param, fmt.Sprintf("expected a group id or a list of group ids, got %T", v), v)
	}
}

func parseList(param string, items []any, allowNested bool) ([]int, [][]int, error) {
	isNested := false
	for _, item := range items {
		if isPlaceholder(item) || isList(item) {
			isNested = true
			break
		}
	}

	if !isNested {
		flat := make([]int, 0, len(items))
		for _, item := range items {
			id, ok := asGroupID(item)
			if !ok {
				return nil, nil, errors.NewValidationError(param, "group ids must be integers", item)
			}
			flat = append(flat, id)
		}
		return flat, nil, nil
	}

	if !allowNested {
		return nil, nil, errors.NewValidationError(param, "nested lists are not accepted here", items)
	}
	nested := make([][]int, 0, len(items))
	for _, item := range items {
		if isPlaceholder(item) {
			nested = append(nested, nil)
			continue
		}
		if !isList(item) {
			return nil, nil, errors.NewValidationError(param, "cannot mix group ids and per-class lists", item)
		}
		inner, _, err := parseGroupIDs(param, item, false)
		if err != nil {
			return nil, nil, err
		}
		nested = append(nested, inner)
	}
	return nil, nested, nil
}

func isPlaceholder(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	}
	return false
}

func isList(v any) bool {
	switch v.(type) {
	case []any, []int:
		return true
	}
	return false
}

// asGroupID accepts integer kinds and integral floats (JSON numbers).
func asGroupID(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case uint:
		return int(x), true
	case uint64:
		return int(x), true
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int(x), true
		}
	}
	return 0, false
}
