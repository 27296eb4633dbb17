package sqlcgen

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX matches the minimal interface needed from pgxpool.Pool or pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const getMapViewConfiguration = `-- name: GetMapViewConfiguration :one
SELECT c.name,
       c.parent_doctype,
       c.child_doctype,
       c.search_type,
       c.parent_reference_field,
       c.parent_reference_type_field,
       c.parent_doctype_dynamic,
       c.child_latitude_field,
       c.child_longitude_field,
       c.color_coding_field,
       c.updated_at
FROM map_view_configurations c
WHERE c.name = $1
`

func (q *Queries) GetMapViewConfiguration(ctx context.Context, name string) (MapViewConfiguration, error) {
	row := q.db.QueryRow(ctx, getMapViewConfiguration, name)
	var i MapViewConfiguration
	err := row.Scan(
		&i.Name,
		&i.ParentDoctype,
		&i.ChildDoctype,
		&i.SearchType,
		&i.ParentReferenceField,
		&i.ParentReferenceTypeField,
		&i.ParentDoctypeDynamic,
		&i.ChildLatitudeField,
		&i.ChildLongitudeField,
		&i.ColorCodingField,
		&i.UpdatedAt,
	)
	return i, err
}

const listMapViewConfigurationNames = `-- name: ListMapViewConfigurationNames :many
SELECT name
FROM map_view_configurations
ORDER BY name ASC
`

func (q *Queries) ListMapViewConfigurationNames(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, listMapViewConfigurationNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listMapViewColorCodings = `-- name: ListMapViewColorCodings :many
SELECT configuration,
       idx,
       value,
       color
FROM map_view_color_codings
WHERE configuration = $1
ORDER BY idx ASC
`

func (q *Queries) ListMapViewColorCodings(ctx context.Context, configuration string) ([]MapViewColorCoding, error) {
	rows, err := q.db.Query(ctx, listMapViewColorCodings, configuration)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MapViewColorCoding
	for rows.Next() {
		var i MapViewColorCoding
		if err := rows.Scan(&i.Configuration, &i.Idx, &i.Value, &i.Color); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listMapViewDisplayFields = `-- name: ListMapViewDisplayFields :many
SELECT configuration,
       idx,
       field_name,
       field_label,
       source
FROM map_view_display_fields
WHERE configuration = $1
ORDER BY idx ASC
`

func (q *Queries) ListMapViewDisplayFields(ctx context.Context, configuration string) ([]MapViewDisplayField, error) {
	rows, err := q.db.Query(ctx, listMapViewDisplayFields, configuration)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MapViewDisplayField
	for rows.Next() {
		var i MapViewDisplayField
		if err := rows.Scan(&i.Configuration, &i.Idx, &i.FieldName, &i.FieldLabel, &i.Source); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
