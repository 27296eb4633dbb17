package sqlcgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// RecordTablePrefix is prepended to a doctype to form its table name ("School" -> "tabSchool").
const RecordTablePrefix = "tab"

type RecordFilter struct {
	Field string
	Value any
}

type ListRecordsParams struct {
	Doctype string
	Filters []RecordFilter
	Fields  []string
	Limit   int32
}

// ListRecords runs an equality-filtered select against the table of an arbitrary doctype.
// The table and column names come from configuration, so they are quoted as identifiers and
// never interpolated raw; filter values are always bound parameters.
func (q *Queries) ListRecords(ctx context.Context, arg ListRecordsParams) ([]map[string]any, error) {
	sql, args, err := buildListRecordsSQL(arg)
	if err != nil {
		return nil, err
	}

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	var items []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		item := make(map[string]any, len(fds))
		for i, fd := range fds {
			item[fd.Name] = values[i]
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func buildListRecordsSQL(arg ListRecordsParams) (string, []any, error) {
	doctype := strings.TrimSpace(arg.Doctype)
	if doctype == "" {
		return "", nil, errors.New("list records: doctype is required")
	}
	if len(arg.Fields) == 0 {
		return "", nil, errors.New("list records: at least one field is required")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	for i, f := range arg.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(pgx.Identifier{f}.Sanitize())
	}
	sb.WriteString(" FROM ")
	sb.WriteString(pgx.Identifier{RecordTablePrefix + doctype}.Sanitize())

	args := make([]any, 0, len(arg.Filters)+1)
	for i, f := range arg.Filters {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		args = append(args, f.Value)
		fmt.Fprintf(&sb, "%s = $%d", pgx.Identifier{f.Field}.Sanitize(), len(args))
	}

	sb.WriteString(` ORDER BY "name" ASC`)
	if arg.Limit > 0 {
		args = append(args, arg.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	return sb.String(), args, nil
}
