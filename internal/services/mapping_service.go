package services

import (
	"context"
	"fmt"
	"log/slog"

	"freightbase/internal/mapping"
	"freightbase/pkg/contracts/domain"
)

// MappingService exposes the learned header mappings for inspection.
type MappingService struct {
	store  *mapping.Store
	mapper *mapping.Mapper
	logger *slog.Logger
}

// NewMappingService creates a new mapping service.
func NewMappingService(store *mapping.Store, mapper *mapping.Mapper, logger *slog.Logger) *MappingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MappingService{
		store:  store,
		mapper: mapper,
		logger: logger.With(slog.String("component", "mapping_service")),
	}
}

// List returns learned mappings. With a scope key it returns that
// customer's tier; without one it returns the global tier.
func (s *MappingService) List(ctx context.Context, scopeKey string) ([]domain.MappingRecord, error) {
	scope := domain.ScopeGlobal
	if scopeKey != "" {
		scope = domain.ScopeCustomer
	}

	records, err := s.store.List(ctx, scope, scopeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	return records, nil
}

// Suggest resolves a single raw header the same way extraction does,
// including the learning side effect on acceptance.
func (s *MappingService) Suggest(ctx context.Context, scopeKey, rawHeader string) (domain.Suggestion, error) {
	if rawHeader == "" {
		return domain.Suggestion{}, ErrInvalidInput
	}
	return s.mapper.Map(ctx, scopeKey, rawHeader), nil
}
