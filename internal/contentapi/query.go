package contentapi

import (
	"encoding/json"
	"fmt"

	"github.com/ewhitmore/inkfeed/internal/models"
)

// Op is a filter comparison operator in the platform's query language
type Op string

const (
	OpEq      Op = "$eq"
	OpNe      Op = "$ne"
	OpLt      Op = "$lt"
	OpGt      Op = "$gt"
	OpIn      Op = "$in"
	OpHasSome Op = "$hasSome"
)

// Filter is one node of a filter expression: either a single field
// comparison or an AND/OR combination of sub-filters.
type Filter struct {
	AndClauses []Filter
	OrClauses  []Filter
	Field      string
	Op         Op
	Value      interface{}
}

// Eq matches documents whose field equals value
func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Ne matches documents whose field does not equal value
func Ne(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpNe, Value: value}
}

// Lt matches documents whose field is strictly less than value
func Lt(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpLt, Value: value}
}

// Gt matches documents whose field is strictly greater than value
func Gt(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpGt, Value: value}
}

// In matches documents whose field equals any of the given values
func In(field string, values []string) Filter {
	return Filter{Field: field, Op: OpIn, Value: values}
}

// HasSome matches documents whose array field contains at least one
// of the given values
func HasSome(field string, values []string) Filter {
	return Filter{Field: field, Op: OpHasSome, Value: values}
}

// And combines filters so that all must match
func And(filters ...Filter) Filter {
	return Filter{AndClauses: filters}
}

// Or combines filters so that at least one must match. Each branch is
// internally ANDed, matching the platform's disjunction semantics.
func Or(filters ...Filter) Filter {
	return Filter{OrClauses: filters}
}

// IsZero reports whether the filter is empty
func (f Filter) IsZero() bool {
	return f.Field == "" && len(f.AndClauses) == 0 && len(f.OrClauses) == 0
}

// MarshalJSON encodes the filter in the platform's JSON query format:
// leaves as {"field": {"$op": value}}, combinations as {"$and": [...]}
// and {"$or": [...]}.
func (f Filter) MarshalJSON() ([]byte, error) {
	switch {
	case len(f.AndClauses) > 0:
		return json.Marshal(map[string]interface{}{"$and": f.AndClauses})
	case len(f.OrClauses) > 0:
		return json.Marshal(map[string]interface{}{"$or": f.OrClauses})
	case f.Field != "":
		return json.Marshal(map[string]interface{}{
			f.Field: map[string]interface{}{string(f.Op): f.Value},
		})
	default:
		return []byte("{}"), nil
	}
}

// UnmarshalJSON decodes a filter previously produced by MarshalJSON.
// Only the operators this package emits are recognized.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		*f = Filter{}
		return nil
	}
	if len(raw) != 1 {
		return fmt.Errorf("filter node must contain exactly one key, got %d", len(raw))
	}

	for key, val := range raw {
		switch key {
		case "$and":
			return json.Unmarshal(val, &f.AndClauses)
		case "$or":
			return json.Unmarshal(val, &f.OrClauses)
		default:
			var ops map[string]interface{}
			if err := json.Unmarshal(val, &ops); err != nil {
				return err
			}
			if len(ops) != 1 {
				return fmt.Errorf("filter comparison for %q must contain exactly one operator", key)
			}
			f.Field = key
			for op, v := range ops {
				f.Op = Op(op)
				f.Value = v
			}
		}
	}
	return nil
}

// PostQuery describes one paginated, sorted, filtered posts query
type PostQuery struct {
	Filter Filter             `json:"filter,omitempty"`
	Sort   []models.SortField `json:"sort,omitempty"`
	Limit  int                `json:"limit"`
	Cursor string             `json:"cursor,omitempty"`
}

// PostPage is one page of raw posts plus paging metadata. An empty
// NextCursor means there are no further pages.
type PostPage struct {
	Items      []*models.RawPost `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
	TotalCount int               `json:"totalCount"`
}
