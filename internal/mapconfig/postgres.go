package mapconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mapsview/core-go/internal/sqlcgen"
)

// Queries is the subset of *sqlcgen.Queries the Postgres source needs.
type Queries interface {
	GetMapViewConfiguration(ctx context.Context, name string) (sqlcgen.MapViewConfiguration, error)
	ListMapViewConfigurationNames(ctx context.Context) ([]string, error)
	ListMapViewColorCodings(ctx context.Context, configuration string) ([]sqlcgen.MapViewColorCoding, error)
	ListMapViewDisplayFields(ctx context.Context, configuration string) ([]sqlcgen.MapViewDisplayField, error)
}

// PostgresSource reads configurations from the map_view_* tables.
type PostgresSource struct {
	q Queries
}

func NewPostgresSource(q Queries) *PostgresSource {
	return &PostgresSource{q: q}
}

func (s *PostgresSource) GetMapConfiguration(ctx context.Context, name string) (Configuration, error) {
	row, err := s.q.GetMapViewConfiguration(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Configuration{}, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return Configuration{}, err
	}

	codings, err := s.q.ListMapViewColorCodings(ctx, row.Name)
	if err != nil {
		return Configuration{}, fmt.Errorf("list color codings: %w", err)
	}
	fields, err := s.q.ListMapViewDisplayFields(ctx, row.Name)
	if err != nil {
		return Configuration{}, fmt.Errorf("list display fields: %w", err)
	}

	cfg := Configuration{
		Name:                     row.Name,
		ParentDoctype:            row.ParentDoctype,
		ChildDoctype:             row.ChildDoctype,
		SearchType:               SearchType(row.SearchType),
		ParentReferenceField:     row.ParentReferenceField,
		ParentReferenceTypeField: deref(row.ParentReferenceTypeField),
		ParentDoctypeDynamic:     deref(row.ParentDoctypeDynamic),
		ChildLatitudeField:       row.ChildLatitudeField,
		ChildLongitudeField:      row.ChildLongitudeField,
		ColorCodingField:         deref(row.ColorCodingField),
		ColorCodings:             make([]ColorCoding, 0, len(codings)),
		DisplayFields:            make([]DisplayField, 0, len(fields)),
	}
	for _, c := range codings {
		cfg.ColorCodings = append(cfg.ColorCodings, ColorCoding{Value: c.Value, Color: c.Color})
	}
	for _, f := range fields {
		cfg.DisplayFields = append(cfg.DisplayFields, DisplayField{
			FieldName:  f.FieldName,
			FieldLabel: deref(f.FieldLabel),
			Source:     FieldSource(f.Source),
		})
	}
	return cfg, nil
}

func (s *PostgresSource) ListMapConfigurations(ctx context.Context) ([]string, error) {
	return s.q.ListMapViewConfigurationNames(ctx)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
