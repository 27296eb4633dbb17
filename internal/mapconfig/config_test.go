package mapconfig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() Configuration {
	return Configuration{
		Name:                 "Schools",
		ParentDoctype:        "School",
		ChildDoctype:         "Student",
		SearchType:           "Link Field",
		ParentReferenceField: "school",
		ChildLatitudeField:   "lat",
		ChildLongitudeField:  "lng",
		ColorCodingField:     "status",
		ColorCodings:         []ColorCoding{{Value: "active", Color: " #0a0 "}},
		DisplayFields:        []DisplayField{{FieldName: "name", FieldLabel: "Name"}},
	}
}

func TestParseSearchType(t *testing.T) {
	cases := map[string]SearchType{
		"Link Field":   SearchLinkField,
		"LinkField":    SearchLinkField,
		"link_field":   SearchLinkField,
		"Dynamic Link": SearchDynamicLink,
		"dynamic-link": SearchDynamicLink,
	}
	for raw, want := range cases {
		got, ok := ParseSearchType(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParseSearchType("Table MultiSelect")
	assert.False(t, ok)
}

func TestValidate_NormalizesValidConfiguration(t *testing.T) {
	cfg, err := Validate(validRaw())
	require.NoError(t, err)

	assert.Equal(t, SearchLinkField, cfg.SearchType)
	assert.Equal(t, "#0a0", cfg.ColorCodings[0].Color)
	assert.Equal(t, SourceChild, cfg.DisplayFields[0].Source, "empty source defaults to Child")
	assert.False(t, cfg.HasParentFields())
}

func TestValidate_DoesNotAliasInputSlices(t *testing.T) {
	raw := validRaw()
	cfg, err := Validate(raw)
	require.NoError(t, err)

	cfg.ColorCodings[0].Color = "#fff"
	assert.Equal(t, " #0a0 ", raw.ColorCodings[0].Color)
}

func TestValidate_RejectsMissingRequiredFields(t *testing.T) {
	for _, field := range []string{"parent_doctype", "child_doctype", "parent_reference_field", "child_latitude_field", "child_longitude_field"} {
		raw := validRaw()
		switch field {
		case "parent_doctype":
			raw.ParentDoctype = " "
		case "child_doctype":
			raw.ChildDoctype = ""
		case "parent_reference_field":
			raw.ParentReferenceField = ""
		case "child_latitude_field":
			raw.ChildLatitudeField = ""
		case "child_longitude_field":
			raw.ChildLongitudeField = ""
		}

		_, err := Validate(raw)
		require.Error(t, err, field)
		assert.True(t, errors.Is(err, ErrInvalidConfiguration), field)

		var inv *InvalidError
		require.True(t, errors.As(err, &inv), field)
		assert.Equal(t, field, inv.Field)
	}
}

func TestValidate_RejectsUnknownSearchType(t *testing.T) {
	raw := validRaw()
	raw.SearchType = "Table"

	_, err := Validate(raw)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "search_type")
}

func TestValidate_DynamicLinkNeedsTypeField(t *testing.T) {
	raw := validRaw()
	raw.SearchType = "Dynamic Link"

	_, err := Validate(raw)
	require.ErrorIs(t, err, ErrInvalidConfiguration)

	raw.ParentReferenceTypeField = "parent_type"
	cfg, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, SearchDynamicLink, cfg.SearchType)
}

func TestValidate_ColorCodingsNeedColorAndField(t *testing.T) {
	raw := validRaw()
	raw.ColorCodings = []ColorCoding{{Value: "x", Color: ""}}
	_, err := Validate(raw)
	require.ErrorIs(t, err, ErrInvalidConfiguration)

	raw = validRaw()
	raw.ColorCodingField = ""
	_, err = Validate(raw)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestValidate_DisplayFieldSource(t *testing.T) {
	raw := validRaw()
	raw.DisplayFields = []DisplayField{{FieldName: "city", Source: "parent"}}
	cfg, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, SourceParent, cfg.DisplayFields[0].Source)
	assert.True(t, cfg.HasParentFields())
	assert.Equal(t, "city", cfg.DisplayFields[0].Label())

	raw.DisplayFields = []DisplayField{{FieldName: "city", Source: "Sibling"}}
	_, err = Validate(raw)
	require.ErrorIs(t, err, ErrInvalidConfiguration)

	raw.DisplayFields = []DisplayField{{FieldName: " "}}
	_, err = Validate(raw)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}
