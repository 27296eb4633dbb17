package mapconfig

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Source loads raw configuration documents. Implementations return ErrNotFound (possibly
// wrapped) when the name does not exist.
type Source interface {
	GetMapConfiguration(ctx context.Context, name string) (Configuration, error)
	ListMapConfigurations(ctx context.Context) ([]string, error)
}

// Resolver fetches and validates configurations. Nothing is cached: every call goes to the
// source so a re-selected configuration always reflects the stored document.
type Resolver struct {
	log zerolog.Logger
	src Source
}

func NewResolver(log zerolog.Logger, src Source) *Resolver {
	return &Resolver{log: log, src: src}
}

func (r *Resolver) Resolve(ctx context.Context, name string) (Configuration, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Configuration{}, fmt.Errorf("%w: empty name", ErrNotFound)
	}
	if r == nil || r.src == nil {
		return Configuration{}, errors.New("map configuration source not configured")
	}

	raw, err := r.src.GetMapConfiguration(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Configuration{}, err
		}
		return Configuration{}, fmt.Errorf("load map configuration %q: %w", name, err)
	}
	if raw.Name == "" {
		raw.Name = name
	}

	cfg, err := Validate(raw)
	if err != nil {
		r.log.Warn().Err(err).Str("config", name).Msg("rejected map configuration")
		return Configuration{}, err
	}
	return cfg, nil
}

func (r *Resolver) List(ctx context.Context) ([]string, error) {
	if r == nil || r.src == nil {
		return nil, errors.New("map configuration source not configured")
	}
	names, err := r.src.ListMapConfigurations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)
	return out, nil
}
