package mapping

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightbase/internal/database"
	"freightbase/pkg/contracts/domain"
)

func newTestMapper(t *testing.T) (*Mapper, *Store) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewStore(db, logger)
	return NewMapper(store, NewResolver(), logger, nil), store
}

func TestMapper_FuzzyMissThenCacheHit(t *testing.T) {
	mapper, _ := newTestMapper(t)
	ctx := context.Background()

	first := mapper.Map(ctx, "acme", "Net Charge")
	assert.Equal(t, domain.FieldNetCharge, first.MappedTo)
	assert.Equal(t, "fuzzy", first.Source)

	// The fuzzy decision was learned; the second lookup comes from cache.
	second := mapper.Map(ctx, "acme", "Net Charge")
	assert.Equal(t, domain.FieldNetCharge, second.MappedTo)
	assert.Equal(t, string(domain.ScopeCustomer), second.Source)
}

func TestMapper_ConfidentDecisionsPromoteToGlobal(t *testing.T) {
	mapper, store := newTestMapper(t)
	ctx := context.Background()

	// An exact synonym scores 1.0, above the global promotion floor.
	got := mapper.Map(ctx, "acme", "Net Charge")
	require.Equal(t, domain.FieldNetCharge, got.MappedTo)
	require.GreaterOrEqual(t, got.Score, NamedMatchConfidence)

	res, err := store.Resolve(ctx, "someone-else", "Net Charge")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, domain.ScopeGlobal, res.Source)
}

func TestMapper_WeakDecisionsStayCustomerScoped(t *testing.T) {
	mapper, store := newTestMapper(t)
	ctx := context.Background()

	// A decision below the promotion floor stays in the customer tier.
	mapper.learn(ctx, "acme", "Misc Chrgs", domain.Suggestion{
		MappedTo: domain.FieldAccessorialCharge,
		Score:    0.6,
	})

	res, err := store.Resolve(ctx, "acme", "Misc Chrgs")
	require.NoError(t, err)
	assert.True(t, res.Found)

	res, err = store.Resolve(ctx, "someone-else", "Misc Chrgs")
	require.NoError(t, err)
	assert.False(t, res.Found, "weak decision must not reach the global tier")
}

func TestMapper_UnmappedHeaderNotLearned(t *testing.T) {
	mapper, store := newTestMapper(t)
	ctx := context.Background()

	got := mapper.Map(ctx, "acme", "zzqx glorp")
	require.Empty(t, got.MappedTo)

	records, err := store.List(ctx, domain.ScopeCustomer, "acme")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMapper_ReuseIncrementsHits(t *testing.T) {
	mapper, store := newTestMapper(t)
	ctx := context.Background()

	// One learn plus two cache hits; every reuse reconfirms the record.
	for i := 0; i < 3; i++ {
		got := mapper.Map(ctx, "acme", "Net Charge")
		require.Equal(t, domain.FieldNetCharge, got.MappedTo)
	}

	res, err := store.Resolve(ctx, "acme", "Net Charge")
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, 3, res.Hits)
}

// failingStore simulates an unavailable database.
type failingStore struct{}

func (failingStore) Resolve(context.Context, string, string) (Resolution, error) {
	return Resolution{}, errors.New("database is locked")
}
func (failingStore) ResolveBulk(context.Context, string, []string) (map[string]Resolution, error) {
	return nil, errors.New("database is locked")
}
func (failingStore) UpsertCustomerMapping(context.Context, string, string, domain.CanonicalField, float64) error {
	return errors.New("database is locked")
}
func (failingStore) UpsertGlobalMapping(context.Context, string, domain.CanonicalField, float64) error {
	return errors.New("database is locked")
}

func TestMapper_DegradesToFuzzyWhenStoreFails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mapper := NewMapper(failingStore{}, NewResolver(), logger, nil)

	got := mapper.Map(context.Background(), "acme", "Net Charge")
	assert.Equal(t, domain.FieldNetCharge, got.MappedTo)
	assert.Equal(t, "fuzzy", got.Source)

	out := mapper.MapAll(context.Background(), "acme", []string{"Net Charge", "Tracking Number"})
	require.Len(t, out, 2)
	assert.Equal(t, domain.FieldNetCharge, out["Net Charge"].MappedTo)
	assert.Equal(t, "fuzzy", out["Net Charge"].Source)
}

func TestMapper_MapAll(t *testing.T) {
	mapper, _ := newTestMapper(t)

	out := mapper.MapAll(context.Background(), "acme", []string{"Net Charge", "Tracking Number", "zzqx"})
	require.Len(t, out, 3)
	assert.Equal(t, domain.FieldNetCharge, out["Net Charge"].MappedTo)
	assert.Equal(t, domain.FieldTrackingNumber, out["Tracking Number"].MappedTo)
	assert.Empty(t, out["zzqx"].MappedTo)
}

func TestMapper_MapAllPositionalFallback(t *testing.T) {
	mapper, store := newTestMapper(t)
	ctx := context.Background()

	// A header row where nothing resolves by name; columns V and H are
	// picked up by their template positions.
	headers := make([]string, 22)
	for i := range headers {
		headers[i] = fmt.Sprintf("zzqx %d", i)
	}

	out := mapper.MapAll(ctx, "acme", headers)
	assert.Equal(t, domain.FieldTLCost, out["zzqx 7"].MappedTo)
	assert.Equal(t, domain.FieldColumnV, out["zzqx 21"].MappedTo)
	assert.Equal(t, "positional", out["zzqx 21"].Source)
	assert.InDelta(t, PositionalConfidence, out["zzqx 21"].Score, 0.0001)

	// Positional decisions persist for the tenant but never cross tenants.
	res, err := store.Resolve(ctx, "acme", "zzqx 21")
	require.NoError(t, err)
	assert.True(t, res.Found)

	res, err = store.Resolve(ctx, "someone-else", "zzqx 21")
	require.NoError(t, err)
	assert.False(t, res.Found, "positional decision must stay customer-scoped")
}
