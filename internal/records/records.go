// Package records fetches child and parent records from the storage backend.
package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"mapsview/core-go/internal/relation"
)

// DefaultLimit bounds the single page of records requested per fetch.
const DefaultLimit = 500

// ErrDataSource matches every *DataSourceError.
var ErrDataSource = errors.New("data source error")

// Record maps field names to values as returned by the backend.
type Record map[string]any

// Name returns the record identity, or "" if it is missing or not a string.
func (r Record) Name() string {
	s, _ := r[relation.IdentityField].(string)
	return s
}

type ListParams struct {
	Doctype string
	Filter  relation.Filter
	Fields  []string
	Limit   int
}

// Source is a backend able to run an equality-filtered list query against a doctype.
type Source interface {
	List(ctx context.Context, arg ListParams) ([]Record, error)
	Ping(ctx context.Context) error
}

// DataSourceError wraps any failure of the record backend.
type DataSourceError struct {
	Doctype string
	Err     error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("list %s records: %v", e.Doctype, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

func (e *DataSourceError) Is(target error) bool { return target == ErrDataSource }

// Fetcher is a thin adapter over a Source: no retries and no pagination.
type Fetcher struct {
	log   zerolog.Logger
	src   Source
	limit int
}

func NewFetcher(log zerolog.Logger, src Source, limit int) *Fetcher {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Fetcher{log: log, src: src, limit: limit}
}

func (f *Fetcher) Fetch(ctx context.Context, doctype string, filter relation.Filter, fields []string) ([]Record, error) {
	doctype = strings.TrimSpace(doctype)
	if f == nil || f.src == nil {
		return nil, &DataSourceError{Doctype: doctype, Err: errors.New("record source not configured")}
	}

	recs, err := f.src.List(ctx, ListParams{
		Doctype: doctype,
		Filter:  filter,
		Fields:  fields,
		Limit:   f.limit,
	})
	if err != nil {
		return nil, &DataSourceError{Doctype: doctype, Err: err}
	}
	if len(recs) >= f.limit {
		f.log.Warn().Str("doctype", doctype).Int("limit", f.limit).Msg("record list reached page limit; results may be incomplete")
	}
	return recs, nil
}

// FetchOne loads a single record by identity. ok is false when it does not exist.
func (f *Fetcher) FetchOne(ctx context.Context, doctype, name string, fields []string) (Record, bool, error) {
	recs, err := f.Fetch(ctx, doctype, relation.Filter{relation.IdentityField: name}, fields)
	if err != nil {
		return nil, false, err
	}
	if len(recs) == 0 {
		return nil, false, nil
	}
	return recs[0], true, nil
}

func (f *Fetcher) Ping(ctx context.Context) error {
	if f == nil || f.src == nil {
		return errors.New("record source not configured")
	}
	return f.src.Ping(ctx)
}
