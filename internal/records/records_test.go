package records

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"mapsview/core-go/internal/relation"
	"mapsview/core-go/internal/sqlcgen"
)

type fakeSource struct {
	listFn func(ctx context.Context, arg ListParams) ([]Record, error)
	got    []ListParams
}

func (f *fakeSource) List(ctx context.Context, arg ListParams) ([]Record, error) {
	f.got = append(f.got, arg)
	return f.listFn(ctx, arg)
}

func (f *fakeSource) Ping(context.Context) error { return nil }

func TestFetcher_PassesFilterFieldsAndLimit(t *testing.T) {
	src := &fakeSource{listFn: func(ctx context.Context, arg ListParams) ([]Record, error) {
		return []Record{{"name": "C1"}}, nil
	}}
	f := NewFetcher(zerolog.Nop(), src, 0)

	recs, err := f.Fetch(context.Background(), " Student ", relation.Filter{"school": "SCH-001"}, []string{"name", "lat"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "C1", recs[0].Name())

	require.Len(t, src.got, 1)
	assert.Equal(t, ListParams{
		Doctype: "Student",
		Filter:  relation.Filter{"school": "SCH-001"},
		Fields:  []string{"name", "lat"},
		Limit:   DefaultLimit,
	}, src.got[0])
}

func TestFetcher_WrapsBackendErrors(t *testing.T) {
	boom := errors.New("relation \"tabStudent\" does not exist")
	src := &fakeSource{listFn: func(ctx context.Context, arg ListParams) ([]Record, error) {
		return nil, boom
	}}
	f := NewFetcher(zerolog.Nop(), src, 10)

	_, err := f.Fetch(context.Background(), "Student", relation.Filter{}, []string{"name"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataSource)
	assert.ErrorIs(t, err, boom)

	var dsErr *DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, "Student", dsErr.Doctype)
}

func TestFetcher_NoSourceIsDataSourceError(t *testing.T) {
	var f *Fetcher
	_, err := f.Fetch(context.Background(), "Student", nil, []string{"name"})
	assert.ErrorIs(t, err, ErrDataSource)
}

func TestFetcher_FetchOne(t *testing.T) {
	src := &fakeSource{listFn: func(ctx context.Context, arg ListParams) ([]Record, error) {
		if arg.Filter["name"] == "SCH-001" {
			return []Record{{"name": "SCH-001", "city": "Noida"}}, nil
		}
		return nil, nil
	}}
	f := NewFetcher(zerolog.Nop(), src, 10)

	rec, ok, err := f.FetchOne(context.Background(), "School", "SCH-001", []string{"name", "city"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Noida", rec["city"])

	_, ok, err = f.FetchOne(context.Background(), "School", "SCH-404", []string{"name"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecord_NameRequiresString(t *testing.T) {
	assert.Equal(t, "", Record{"name": 42}.Name())
	assert.Equal(t, "", Record{}.Name())
}

type fakeQueries struct {
	got sqlcgen.ListRecordsParams
}

func (f *fakeQueries) ListRecords(ctx context.Context, arg sqlcgen.ListRecordsParams) ([]map[string]any, error) {
	f.got = arg
	return []map[string]any{{"name": "C1", "lat": 28.4}}, nil
}

func TestPostgresSource_SortsConditions(t *testing.T) {
	q := &fakeQueries{}
	src := NewPostgresSource(q, nil)

	recs, err := src.List(context.Background(), ListParams{
		Doctype: "Asset",
		Filter:  relation.Filter{"reference_name": "P-1", "reference_doctype": "Project"},
		Fields:  []string{"name", "lat"},
		Limit:   25,
	})
	require.NoError(t, err)
	assert.Equal(t, []Record{{"name": "C1", "lat": 28.4}}, recs)
	assert.Equal(t, sqlcgen.ListRecordsParams{
		Doctype: "Asset",
		Filters: []sqlcgen.RecordFilter{
			{Field: "reference_doctype", Value: "Project"},
			{Field: "reference_name", Value: "P-1"},
		},
		Fields: []string{"name", "lat"},
		Limit:  25,
	}, q.got)
	assert.NoError(t, src.Ping(context.Background()))
}

func TestMongoQuery(t *testing.T) {
	filter, opts := mongoQuery(ListParams{
		Doctype: "Student",
		Filter:  relation.Filter{"school": "SCH-001"},
		Fields:  []string{"name", "lat", "lng"},
		Limit:   5,
	})

	assert.Equal(t, bson.D{{Key: "school", Value: "SCH-001"}}, filter)
	assert.Equal(t, bson.D{
		{Key: "_id", Value: 0},
		{Key: "name", Value: 1},
		{Key: "lat", Value: 1},
		{Key: "lng", Value: 1},
	}, opts.Projection)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(5), *opts.Limit)
}
