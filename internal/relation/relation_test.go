package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapsview/core-go/internal/mapconfig"
)

func linkConfig() mapconfig.Configuration {
	return mapconfig.Configuration{
		Name:                 "Schools",
		ParentDoctype:        "School",
		ChildDoctype:         "Student",
		SearchType:           mapconfig.SearchLinkField,
		ParentReferenceField: "school",
		ChildLatitudeField:   "lat",
		ChildLongitudeField:  "lng",
		ColorCodingField:     "status",
		DisplayFields: []mapconfig.DisplayField{
			{FieldName: "name", FieldLabel: "Name", Source: mapconfig.SourceChild},
			{FieldName: "grade", FieldLabel: "Grade", Source: mapconfig.SourceChild},
			{FieldName: "city", FieldLabel: "City", Source: mapconfig.SourceParent},
		},
	}
}

func TestBuildFilter_LinkField(t *testing.T) {
	f, err := BuildFilter(linkConfig(), "SCH-001")
	require.NoError(t, err)
	assert.Equal(t, Filter{"school": "SCH-001"}, f)
}

func TestBuildFilter_DynamicLink(t *testing.T) {
	cfg := linkConfig()
	cfg.SearchType = mapconfig.SearchDynamicLink
	cfg.ParentReferenceField = "reference_name"
	cfg.ParentReferenceTypeField = "reference_doctype"

	f, err := BuildFilter(cfg, "SCH-001")
	require.NoError(t, err)
	assert.Equal(t, Filter{"reference_doctype": "School", "reference_name": "SCH-001"}, f)
	assert.Equal(t, []Condition{
		{Field: "reference_doctype", Value: "School"},
		{Field: "reference_name", Value: "SCH-001"},
	}, f.Conditions())
}

func TestBuildFilter_UnknownSearchTypeFails(t *testing.T) {
	for _, st := range []mapconfig.SearchType{"", "Table MultiSelect", "link"} {
		cfg := linkConfig()
		cfg.SearchType = st

		f, err := BuildFilter(cfg, "SCH-001")
		assert.Nil(t, f)
		assert.ErrorIs(t, err, mapconfig.ErrInvalidConfiguration, string(st))
	}
}

func TestBuildFilter_EmptyParent(t *testing.T) {
	_, err := BuildFilter(linkConfig(), "  ")
	assert.ErrorIs(t, err, ErrEmptyParent)
}

func TestRequestedFields(t *testing.T) {
	cfg := linkConfig()
	assert.Equal(t, []string{"name", "school", "lat", "lng", "status", "grade"}, RequestedFields(cfg))

	cfg.ColorCodingField = ""
	cfg.DisplayFields = nil
	assert.Equal(t, []string{"name", "school", "lat", "lng"}, RequestedFields(cfg))
}

func TestRequestedFields_Deduplicates(t *testing.T) {
	cfg := linkConfig()
	cfg.ColorCodingField = "lat"
	cfg.DisplayFields = []mapconfig.DisplayField{
		{FieldName: "school", Source: mapconfig.SourceChild},
		{FieldName: "lng", Source: mapconfig.SourceChild},
	}
	assert.Equal(t, []string{"name", "school", "lat", "lng"}, RequestedFields(cfg))
}

func TestParentFields(t *testing.T) {
	assert.Equal(t, []string{"name", "city"}, ParentFields(linkConfig()))

	cfg := linkConfig()
	cfg.DisplayFields = cfg.DisplayFields[:2]
	assert.Nil(t, ParentFields(cfg))
}
