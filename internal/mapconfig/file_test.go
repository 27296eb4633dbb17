package mapconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFile = `
configurations:
  - name: Schools
    parent_doctype: School
    child_doctype: Student
    search_type: Link Field
    parent_reference_field: school
    child_latitude_field: lat
    child_longitude_field: lng
    color_coding_field: status
    color_codings:
      - value: active
        color: "#0a0"
    display_fields:
      - field_name: name
        field_label: Name
        source: Child
  - name: Assets
    parent_doctype: Project
    child_doctype: Asset
    search_type: Dynamic Link
    parent_reference_field: reference_name
    parent_reference_type_field: reference_doctype
    child_latitude_field: latitude
    child_longitude_field: longitude
`

func TestParseFile_ResolvesThroughResolver(t *testing.T) {
	src, err := ParseFile([]byte(sampleFile))
	require.NoError(t, err)

	r := NewResolver(zerolog.Nop(), src)
	cfg, err := r.Resolve(context.Background(), "Assets")
	require.NoError(t, err)
	assert.Equal(t, SearchDynamicLink, cfg.SearchType)
	assert.Equal(t, "reference_doctype", cfg.ParentReferenceTypeField)

	cfg, err = r.Resolve(context.Background(), "Schools")
	require.NoError(t, err)
	require.Len(t, cfg.ColorCodings, 1)
	assert.Equal(t, ColorCoding{Value: "active", Color: "#0a0"}, cfg.ColorCodings[0])

	names, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Assets", "Schools"}, names)

	_, err = r.Resolve(context.Background(), "Clinics")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseFile_RejectsDuplicatesAndUnnamed(t *testing.T) {
	_, err := ParseFile([]byte("configurations:\n  - name: A\n  - name: A\n"))
	assert.Error(t, err)

	_, err = ParseFile([]byte("configurations:\n  - parent_doctype: School\n"))
	assert.Error(t, err)

	_, err = ParseFile([]byte("configurations: [\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0o600))

	src, err := LoadFile(path)
	require.NoError(t, err)
	names, err := src.ListMapConfigurations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Schools", "Assets"}, names)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
