package mapping

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"freightbase/internal/headers"
	"freightbase/pkg/contracts/domain"
)

// bulkResolveConcurrency bounds the fan-out of ResolveBulk. Lookups are
// independent reads, but SQLite serves them from one connection pool.
const bulkResolveConcurrency = 8

// Store is the persistent two-tier cache of header-to-field decisions.
// Customer-scoped records shadow global ones; confidence only grows, hits
// count reuses, and nothing is ever deleted.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a mapping store over an open database handle.
func NewStore(db *sqlx.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     db,
		logger: logger.With(slog.String("component", "mapping_store")),
	}
}

// Resolution is the outcome of a store lookup. Found is false on a miss,
// in which case the caller runs the fuzzy resolver and persists its answer.
type Resolution struct {
	Header     string
	Canonical  domain.CanonicalField
	Source     domain.MappingScope
	Confidence float64
	Hits       int
	Found      bool
}

// Resolve looks up a raw header, customer scope first, then global.
func (s *Store) Resolve(ctx context.Context, scopeKey, rawHeader string) (Resolution, error) {
	normalized := headers.Normalize(rawHeader)
	if normalized == "" {
		return Resolution{Header: rawHeader}, nil
	}

	var rec domain.MappingRecord
	err := s.db.GetContext(ctx, &rec, `
		SELECT scope, scope_key, normalized_header, canonical_field, confidence, hits, last_seen_at
		FROM header_mappings
		WHERE scope = ? AND scope_key = ? AND normalized_header = ?`,
		domain.ScopeCustomer, scopeKey, normalized)
	if err == sql.ErrNoRows {
		err = s.db.GetContext(ctx, &rec, `
			SELECT scope, scope_key, normalized_header, canonical_field, confidence, hits, last_seen_at
			FROM header_mappings
			WHERE scope = ? AND scope_key = '' AND normalized_header = ?`,
			domain.ScopeGlobal, normalized)
	}
	if err == sql.ErrNoRows {
		return Resolution{Header: rawHeader}, nil
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to resolve mapping for %q: %w", normalized, err)
	}

	return Resolution{
		Header:     rawHeader,
		Canonical:  rec.CanonicalField,
		Source:     rec.Scope,
		Confidence: rec.Confidence,
		Hits:       rec.Hits,
		Found:      true,
	}, nil
}

// UpsertCustomerMapping records a header decision for one tenant.
func (s *Store) UpsertCustomerMapping(ctx context.Context, scopeKey, rawHeader string, canonical domain.CanonicalField, confidence float64) error {
	return s.upsert(ctx, domain.ScopeCustomer, scopeKey, rawHeader, canonical, confidence)
}

// UpsertGlobalMapping records a header decision shared by every tenant.
func (s *Store) UpsertGlobalMapping(ctx context.Context, rawHeader string, canonical domain.CanonicalField, confidence float64) error {
	return s.upsert(ctx, domain.ScopeGlobal, "", rawHeader, canonical, confidence)
}

// upsert inserts or reconfirms one mapping. On conflict, hits increments
// and the last-seen timestamp refreshes. The stored field is replaced only
// when the incoming decision is at least as confident as the stored one;
// reconfirming the same field takes the max of old and new confidence. A
// weaker decision for a different field therefore leaves both the field and
// its confidence untouched, so the stored confidence always describes the
// stored field. Only the hit count can under-count by one under a lost
// race, which is accepted.
func (s *Store) upsert(ctx context.Context, scope domain.MappingScope, scopeKey, rawHeader string, canonical domain.CanonicalField, confidence float64) error {
	normalized := headers.Normalize(rawHeader)
	if normalized == "" {
		return fmt.Errorf("cannot persist mapping for empty header")
	}
	if confidence < 0 || confidence > 1 {
		return fmt.Errorf("confidence %f out of range [0,1]", confidence)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO header_mappings (scope, scope_key, normalized_header, canonical_field, confidence, hits, last_seen_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(scope, scope_key, normalized_header) DO UPDATE SET
			canonical_field = CASE
				WHEN excluded.confidence >= confidence THEN excluded.canonical_field
				ELSE canonical_field END,
			confidence = CASE
				WHEN excluded.canonical_field = canonical_field THEN MAX(confidence, excluded.confidence)
				WHEN excluded.confidence >= confidence THEN excluded.confidence
				ELSE confidence END,
			hits         = hits + 1,
			last_seen_at = excluded.last_seen_at`,
		scope, scopeKey, normalized, canonical, confidence, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert %s mapping for %q: %w", scope, normalized, err)
	}

	s.logger.DebugContext(ctx, "mapping persisted",
		slog.String("scope", string(scope)),
		slog.String("scope_key", scopeKey),
		slog.String("header", normalized),
		slog.String("field", string(canonical)),
		slog.Float64("confidence", confidence))
	return nil
}

// ResolveBulk looks up many headers concurrently. Results are keyed by the
// raw header. A store error fails the whole batch; callers that want
// degraded-mode behavior wrap the store in a Mapper.
func (s *Store) ResolveBulk(ctx context.Context, scopeKey string, rawHeaders []string) (map[string]Resolution, error) {
	results := make(map[string]Resolution, len(rawHeaders))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkResolveConcurrency)

	for _, header := range rawHeaders {
		g.Go(func() error {
			res, err := s.Resolve(ctx, scopeKey, header)
			if err != nil {
				return err
			}
			mu.Lock()
			results[header] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// List returns every stored mapping for a scope, most recently seen first.
// Used by the audit endpoint.
func (s *Store) List(ctx context.Context, scope domain.MappingScope, scopeKey string) ([]domain.MappingRecord, error) {
	var records []domain.MappingRecord
	err := s.db.SelectContext(ctx, &records, `
		SELECT scope, scope_key, normalized_header, canonical_field, confidence, hits, last_seen_at
		FROM header_mappings
		WHERE scope = ? AND scope_key = ?
		ORDER BY last_seen_at DESC`,
		scope, scopeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s mappings: %w", scope, err)
	}
	return records, nil
}
