// Package viewer wires selection events of a map view to the resolve, filter, fetch,
// project and refresh stages.
package viewer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"mapsview/core-go/internal/mapconfig"
	"mapsview/core-go/internal/markers"
	"mapsview/core-go/internal/metrics"
	"mapsview/core-go/internal/records"
	"mapsview/core-go/internal/relation"
)

// ConfigResolver is satisfied by *mapconfig.Resolver.
type ConfigResolver interface {
	Resolve(ctx context.Context, name string) (mapconfig.Configuration, error)
}

// RecordFetcher is satisfied by *records.Fetcher.
type RecordFetcher interface {
	Fetch(ctx context.Context, doctype string, filter relation.Filter, fields []string) ([]records.Record, error)
	FetchOne(ctx context.Context, doctype, name string, fields []string) (records.Record, bool, error)
}

// Selection is the explicit input of one pipeline run.
type Selection struct {
	Config   mapconfig.Configuration
	ParentID string
}

type Pipeline struct {
	log      zerolog.Logger
	resolver ConfigResolver
	fetcher  RecordFetcher
	policy   markers.Policy
	metrics  *metrics.Metrics
}

func NewPipeline(log zerolog.Logger, resolver ConfigResolver, fetcher RecordFetcher, policy markers.Policy, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		log:      log,
		resolver: resolver,
		fetcher:  fetcher,
		policy:   policy,
		metrics:  m,
	}
}

func (p *Pipeline) Resolve(ctx context.Context, name string) (mapconfig.Configuration, error) {
	return p.resolver.Resolve(ctx, name)
}

// Markers fetches the children of sel.ParentID and projects them. Errors from any stage are
// returned as-is.
func (p *Pipeline) Markers(ctx context.Context, sel Selection) ([]markers.Descriptor, error) {
	start := time.Now()
	cfg := sel.Config

	filter, err := relation.BuildFilter(cfg, sel.ParentID)
	if err != nil {
		return nil, err
	}

	children, err := p.fetcher.Fetch(ctx, cfg.ChildDoctype, filter, relation.RequestedFields(cfg))
	if err != nil {
		return nil, err
	}

	var parent records.Record
	if fields := relation.ParentFields(cfg); fields != nil {
		rec, ok, err := p.fetcher.FetchOne(ctx, cfg.ParentDoctype, sel.ParentID, fields)
		if err != nil {
			return nil, err
		}
		if ok {
			parent = rec
		} else {
			p.log.Debug().Str("doctype", cfg.ParentDoctype).Str("parent", sel.ParentID).Msg("parent record not found; parent popup fields skipped")
		}
	}

	descs := markers.Project(children, cfg, parent, p.policy)
	p.metrics.ObserveProjection(len(children), len(descs), time.Since(start))
	p.log.Debug().
		Str("config", cfg.Name).
		Str("parent", sel.ParentID).
		Int("records", len(children)).
		Int("markers", len(descs)).
		Msg("projected markers")
	return descs, nil
}

// Preview runs the whole pipeline without touching any view.
func (p *Pipeline) Preview(ctx context.Context, configName, parentID string) (mapconfig.Configuration, []markers.Descriptor, error) {
	cfg, err := p.Resolve(ctx, configName)
	if err != nil {
		return mapconfig.Configuration{}, nil, err
	}
	descs, err := p.Markers(ctx, Selection{Config: cfg, ParentID: parentID})
	if err != nil {
		return mapconfig.Configuration{}, nil, err
	}
	return cfg, descs, nil
}
