package mapping

import (
	"context"
	"log/slog"

	"freightbase/pkg/contracts/domain"
)

// StoreAPI is the slice of the mapping store the Mapper needs. Satisfied by
// *Store; tests substitute failing implementations to exercise degraded mode.
type StoreAPI interface {
	Resolve(ctx context.Context, scopeKey, rawHeader string) (Resolution, error)
	ResolveBulk(ctx context.Context, scopeKey string, rawHeaders []string) (map[string]Resolution, error)
	UpsertCustomerMapping(ctx context.Context, scopeKey, rawHeader string, canonical domain.CanonicalField, confidence float64) error
	UpsertGlobalMapping(ctx context.Context, rawHeader string, canonical domain.CanonicalField, confidence float64) error
}

// Mapper combines the persistent store with the fuzzy resolver. Store hits
// skip fuzzy matching and are reconfirmed so their hit counts track reuse;
// misses run the fuzzy resolver, then positional detection, and the answer
// is written back so future files benefit. When the store is unavailable
// the Mapper degrades to fuzzy-only resolution instead of failing
// extraction.
type Mapper struct {
	store    StoreAPI
	resolver *Resolver
	logger   *slog.Logger
	observer Observer
}

// Observer receives cache-outcome notifications for metrics. May be nil.
type Observer interface {
	MappingCacheHit(ctx context.Context, scope string)
	MappingCacheMiss(ctx context.Context)
}

// NewMapper wires a store and resolver together. store may be nil, in which
// case every resolution is fuzzy and nothing is learned.
func NewMapper(store StoreAPI, resolver *Resolver, logger *slog.Logger, observer Observer) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{
		store:    store,
		resolver: resolver,
		logger:   logger.With(slog.String("component", "mapper")),
		observer: observer,
	}
}

// noColumnIndex disables positional index detection for callers that
// resolve a header outside a header row.
const noColumnIndex = -1

// Map resolves one raw header for one tenant. The suggestion's Source field
// records whether the answer came from the customer cache, the global cache,
// or the fuzzy resolver.
func (m *Mapper) Map(ctx context.Context, scopeKey, rawHeader string) domain.Suggestion {
	if m.store != nil {
		res, err := m.store.Resolve(ctx, scopeKey, rawHeader)
		if err != nil {
			// Degraded mode: resolution still works, learning is skipped.
			m.logger.WarnContext(ctx, "mapping store unavailable, falling back to fuzzy resolution",
				slog.String("header", rawHeader),
				slog.String("error", err.Error()))
			return m.resolveFresh(ctx, scopeKey, rawHeader, noColumnIndex, false)
		}
		if res.Found {
			return m.cacheHit(ctx, scopeKey, rawHeader, res)
		}
	}

	if m.observer != nil {
		m.observer.MappingCacheMiss(ctx)
	}
	return m.resolveFresh(ctx, scopeKey, rawHeader, noColumnIndex, m.store != nil)
}

// MapAll resolves a whole header row and returns suggestions keyed by raw
// header. Store lookups for the row run as one concurrent bulk resolve;
// sub-threshold headers fall back to positional detection using their
// column index. Headers that resolve to nothing are still present with an
// empty MappedTo so callers can count unmapped columns.
func (m *Mapper) MapAll(ctx context.Context, scopeKey string, rawHeaders []string) map[string]domain.Suggestion {
	var resolutions map[string]Resolution
	learn := m.store != nil
	if m.store != nil {
		var err error
		resolutions, err = m.store.ResolveBulk(ctx, scopeKey, rawHeaders)
		if err != nil {
			m.logger.WarnContext(ctx, "bulk mapping lookup unavailable, falling back to fuzzy resolution",
				slog.String("error", err.Error()))
			resolutions = nil
			learn = false
		}
	}

	out := make(map[string]domain.Suggestion, len(rawHeaders))
	for i, header := range rawHeaders {
		if res, ok := resolutions[header]; ok && res.Found {
			out[header] = m.cacheHit(ctx, scopeKey, header, res)
			continue
		}
		if m.observer != nil {
			m.observer.MappingCacheMiss(ctx)
		}
		out[header] = m.resolveFresh(ctx, scopeKey, header, i, learn)
	}
	return out
}

// cacheHit converts a store resolution into a suggestion and reconfirms the
// stored record so its hit count and last-seen timestamp track every reuse.
func (m *Mapper) cacheHit(ctx context.Context, scopeKey, rawHeader string, res Resolution) domain.Suggestion {
	if m.observer != nil {
		m.observer.MappingCacheHit(ctx, string(res.Source))
	}

	var err error
	switch res.Source {
	case domain.ScopeCustomer:
		err = m.store.UpsertCustomerMapping(ctx, scopeKey, rawHeader, res.Canonical, res.Confidence)
	default:
		err = m.store.UpsertGlobalMapping(ctx, rawHeader, res.Canonical, res.Confidence)
	}
	if err != nil {
		m.logger.WarnContext(ctx, "failed to reconfirm mapping",
			slog.String("header", rawHeader),
			slog.String("error", err.Error()))
	}

	return domain.Suggestion{
		MappedTo: res.Canonical,
		Score:    res.Confidence,
		Source:   string(res.Source),
	}
}

// resolveFresh runs the fuzzy resolver and, for headers it cannot place,
// positional detection on the column index. The decision is persisted when
// learn is set.
func (m *Mapper) resolveFresh(ctx context.Context, scopeKey, rawHeader string, index int, learn bool) domain.Suggestion {
	suggestion := m.resolver.Suggest(rawHeader)
	if suggestion.MappedTo == "" {
		if field, confidence, ok := m.resolver.MatchPositional(rawHeader, index); ok {
			suggestion.MappedTo = field
			suggestion.Score = confidence
			suggestion.Source = "positional"
		}
	}

	if learn && suggestion.MappedTo != "" {
		m.learn(ctx, scopeKey, rawHeader, suggestion)
	}
	return suggestion
}

// learn persists a fuzzy or positional decision. Customer scope always;
// global scope only for decisions confident enough to be safe across
// tenants. Persistence failures are logged and swallowed: extraction must
// not fail because learning did.
func (m *Mapper) learn(ctx context.Context, scopeKey, rawHeader string, s domain.Suggestion) {
	if scopeKey != "" {
		if err := m.store.UpsertCustomerMapping(ctx, scopeKey, rawHeader, s.MappedTo, s.Score); err != nil {
			m.logger.WarnContext(ctx, "failed to persist customer mapping",
				slog.String("header", rawHeader),
				slog.String("error", err.Error()))
		}
	}
	if s.Score >= NamedMatchConfidence {
		if err := m.store.UpsertGlobalMapping(ctx, rawHeader, s.MappedTo, s.Score); err != nil {
			m.logger.WarnContext(ctx, "failed to persist global mapping",
				slog.String("header", rawHeader),
				slog.String("error", err.Error()))
		}
	}
}
