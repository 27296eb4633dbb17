// Package relation turns a map configuration and a selected parent into the equality filter
// and field list used to fetch the parent's child records.
package relation

import (
	"errors"
	"sort"
	"strings"

	"mapsview/core-go/internal/mapconfig"
)

// IdentityField is the primary key of every record type.
const IdentityField = "name"

// ErrEmptyParent is returned when no parent has been selected.
var ErrEmptyParent = errors.New("parent id is required")

// Filter maps field names to the exact value they must equal.
type Filter map[string]any

// Conditions returns the filter entries sorted by field name so backends can render them
// deterministically.
func (f Filter) Conditions() []Condition {
	out := make([]Condition, 0, len(f))
	for k, v := range f {
		out = append(out, Condition{Field: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

type Condition struct {
	Field string
	Value any
}

// BuildFilter selects the children of parentID. Link Field children carry the parent id in
// the reference field; Dynamic Link children additionally carry the parent doctype in the
// reference type field.
func BuildFilter(cfg mapconfig.Configuration, parentID string) (Filter, error) {
	parentID = strings.TrimSpace(parentID)
	if parentID == "" {
		return nil, ErrEmptyParent
	}

	switch cfg.SearchType {
	case mapconfig.SearchLinkField:
		return Filter{cfg.ParentReferenceField: parentID}, nil
	case mapconfig.SearchDynamicLink:
		return Filter{
			cfg.ParentReferenceTypeField: cfg.ParentDoctype,
			cfg.ParentReferenceField:     parentID,
		}, nil
	default:
		return nil, mapconfig.Invalid(cfg.Name, "search_type", "unsupported value "+string(cfg.SearchType))
	}
}

// RequestedFields lists every child field the projection reads, deduplicated in first-seen
// order.
func RequestedFields(cfg mapconfig.Configuration) []string {
	fields := newFieldSet()
	fields.add(IdentityField)
	fields.add(cfg.ParentReferenceField)
	fields.add(cfg.ChildLatitudeField)
	fields.add(cfg.ChildLongitudeField)
	fields.add(cfg.ColorCodingField)
	for _, d := range cfg.DisplayFields {
		if d.Source == mapconfig.SourceChild {
			fields.add(d.FieldName)
		}
	}
	return fields.list
}

// ParentFields lists the parent fields needed for popup entries sourced from the parent.
// It returns nil when no display field reads from the parent.
func ParentFields(cfg mapconfig.Configuration) []string {
	if !cfg.HasParentFields() {
		return nil
	}
	fields := newFieldSet()
	fields.add(IdentityField)
	for _, d := range cfg.DisplayFields {
		if d.Source == mapconfig.SourceParent {
			fields.add(d.FieldName)
		}
	}
	return fields.list
}

type fieldSet struct {
	seen map[string]struct{}
	list []string
}

func newFieldSet() *fieldSet {
	return &fieldSet{seen: make(map[string]struct{})}
}

func (s *fieldSet) add(f string) {
	f = strings.TrimSpace(f)
	if f == "" {
		return
	}
	if _, ok := s.seen[f]; ok {
		return
	}
	s.seen[f] = struct{}{}
	s.list = append(s.list, f)
}
