package mapconfig

import (
	"strconv"
	"strings"
)

// SearchType describes how a child record references its parent.
type SearchType string

const (
	SearchLinkField   SearchType = "Link Field"
	SearchDynamicLink SearchType = "Dynamic Link"
)

// ParseSearchType accepts the stored labels ("Link Field", "Dynamic Link") and their
// compact spellings ("LinkField", "link_field").
func ParseSearchType(raw string) (SearchType, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	switch key {
	case "linkfield":
		return SearchLinkField, true
	case "dynamiclink":
		return SearchDynamicLink, true
	default:
		return SearchType(raw), false
	}
}

// FieldSource selects which record a display field is read from.
type FieldSource string

const (
	SourceChild  FieldSource = "Child"
	SourceParent FieldSource = "Parent"
)

func parseFieldSource(raw string) (FieldSource, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "child":
		return SourceChild, true
	case "parent":
		return SourceParent, true
	default:
		return FieldSource(raw), false
	}
}

type ColorCoding struct {
	Value string `json:"value" yaml:"value"`
	Color string `json:"color" yaml:"color"`
}

type DisplayField struct {
	FieldName  string      `json:"field_name" yaml:"field_name"`
	FieldLabel string      `json:"field_label" yaml:"field_label"`
	Source     FieldSource `json:"source" yaml:"source"`
}

// Label falls back to the field name when no label is configured.
func (d DisplayField) Label() string {
	if l := strings.TrimSpace(d.FieldLabel); l != "" {
		return l
	}
	return d.FieldName
}

// Configuration is a validated map view configuration. Values are only produced by
// Validate (directly or through a Resolver), so downstream code can rely on the
// required fields being set.
type Configuration struct {
	Name                     string         `json:"name" yaml:"name"`
	ParentDoctype            string         `json:"parent_doctype" yaml:"parent_doctype"`
	ChildDoctype             string         `json:"child_doctype" yaml:"child_doctype"`
	SearchType               SearchType     `json:"search_type" yaml:"search_type"`
	ParentReferenceField     string         `json:"parent_reference_field" yaml:"parent_reference_field"`
	ParentReferenceTypeField string         `json:"parent_reference_type_field,omitempty" yaml:"parent_reference_type_field"`
	ParentDoctypeDynamic     string         `json:"parent_doctype_dynamic,omitempty" yaml:"parent_doctype_dynamic"`
	ChildLatitudeField       string         `json:"child_latitude_field" yaml:"child_latitude_field"`
	ChildLongitudeField      string         `json:"child_longitude_field" yaml:"child_longitude_field"`
	ColorCodingField         string         `json:"color_coding_field,omitempty" yaml:"color_coding_field"`
	ColorCodings             []ColorCoding  `json:"color_codings" yaml:"color_codings"`
	DisplayFields            []DisplayField `json:"display_fields" yaml:"display_fields"`
}

// Validate normalizes raw and checks the fields every downstream stage depends on.
func Validate(raw Configuration) (Configuration, error) {
	cfg := raw
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.ParentDoctype = strings.TrimSpace(cfg.ParentDoctype)
	cfg.ChildDoctype = strings.TrimSpace(cfg.ChildDoctype)
	cfg.ParentReferenceField = strings.TrimSpace(cfg.ParentReferenceField)
	cfg.ParentReferenceTypeField = strings.TrimSpace(cfg.ParentReferenceTypeField)
	cfg.ParentDoctypeDynamic = strings.TrimSpace(cfg.ParentDoctypeDynamic)
	cfg.ChildLatitudeField = strings.TrimSpace(cfg.ChildLatitudeField)
	cfg.ChildLongitudeField = strings.TrimSpace(cfg.ChildLongitudeField)
	cfg.ColorCodingField = strings.TrimSpace(cfg.ColorCodingField)

	required := []struct {
		field string
		value string
	}{
		{"parent_doctype", cfg.ParentDoctype},
		{"child_doctype", cfg.ChildDoctype},
		{"parent_reference_field", cfg.ParentReferenceField},
		{"child_latitude_field", cfg.ChildLatitudeField},
		{"child_longitude_field", cfg.ChildLongitudeField},
	}
	for _, r := range required {
		if r.value == "" {
			return Configuration{}, invalid(cfg.Name, r.field, "is required")
		}
	}

	st, ok := ParseSearchType(string(cfg.SearchType))
	if !ok {
		return Configuration{}, invalid(cfg.Name, "search_type", "unsupported value "+strconv.Quote(string(cfg.SearchType)))
	}
	cfg.SearchType = st
	if st == SearchDynamicLink && cfg.ParentReferenceTypeField == "" {
		return Configuration{}, invalid(cfg.Name, "parent_reference_type_field", "is required for Dynamic Link")
	}

	codings := make([]ColorCoding, 0, len(cfg.ColorCodings))
	for i, c := range cfg.ColorCodings {
		c.Color = strings.TrimSpace(c.Color)
		if c.Color == "" {
			return Configuration{}, invalid(cfg.Name, indexed("color_codings", i, "color"), "is required")
		}
		codings = append(codings, c)
	}
	if len(codings) > 0 && cfg.ColorCodingField == "" {
		return Configuration{}, invalid(cfg.Name, "color_coding_field", "is required when color codings are set")
	}
	cfg.ColorCodings = codings

	fields := make([]DisplayField, 0, len(cfg.DisplayFields))
	for i, d := range cfg.DisplayFields {
		d.FieldName = strings.TrimSpace(d.FieldName)
		if d.FieldName == "" {
			return Configuration{}, invalid(cfg.Name, indexed("display_fields", i, "field_name"), "is required")
		}
		src, ok := parseFieldSource(string(d.Source))
		if !ok {
			return Configuration{}, invalid(cfg.Name, indexed("display_fields", i, "source"), "must be Parent or Child")
		}
		d.Source = src
		fields = append(fields, d)
	}
	cfg.DisplayFields = fields

	return cfg, nil
}

// HasParentFields reports whether any popup entry reads from the parent record.
func (c Configuration) HasParentFields() bool {
	for _, d := range c.DisplayFields {
		if d.Source == SourceParent {
			return true
		}
	}
	return false
}
