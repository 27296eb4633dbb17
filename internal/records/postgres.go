package records

import (
	"context"

	"mapsview/core-go/internal/sqlcgen"
)

// Queries is the subset of *sqlcgen.Queries used for record lookups.
type Queries interface {
	ListRecords(ctx context.Context, arg sqlcgen.ListRecordsParams) ([]map[string]any, error)
}

// Pinger reports backend liveness; *db.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PostgresSource reads doctype tables ("tab<Doctype>") from Postgres.
type PostgresSource struct {
	q    Queries
	ping Pinger
}

func NewPostgresSource(q Queries, ping Pinger) *PostgresSource {
	return &PostgresSource{q: q, ping: ping}
}

func (s *PostgresSource) List(ctx context.Context, arg ListParams) ([]Record, error) {
	conds := arg.Filter.Conditions()
	filters := make([]sqlcgen.RecordFilter, 0, len(conds))
	for _, c := range conds {
		filters = append(filters, sqlcgen.RecordFilter{Field: c.Field, Value: c.Value})
	}

	rows, err := s.q.ListRecords(ctx, sqlcgen.ListRecordsParams{
		Doctype: arg.Doctype,
		Filters: filters,
		Fields:  arg.Fields,
		Limit:   int32(arg.Limit),
	})
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record(r))
	}
	return out, nil
}

func (s *PostgresSource) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping.Ping(ctx)
}
