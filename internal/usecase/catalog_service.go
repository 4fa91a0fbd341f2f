package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mealtrack/backend/internal/domain"
	"go.uber.org/zap"
)

const (
	// CustomCategory tags foods added at runtime
	CustomCategory = "custom"

	defaultServingSize = "1 serving"
)

// CatalogService owns the live catalog. Readers take an immutable snapshot;
// writers build a new index and swap it in, so in-flight reads never see a
// half-updated catalog.
type CatalogService struct {
	current atomic.Pointer[Index]
	mu      sync.Mutex // serializes writers
	store   domain.CustomFoodRepository
	logger  *zap.Logger
}

// NewCatalogService builds the initial index from entries. store may be nil,
// in which case custom foods live only in memory.
func NewCatalogService(entries []domain.CatalogEntry, store domain.CustomFoodRepository, logger *zap.Logger) (*CatalogService, error) {
	idx, err := BuildIndex(entries)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &CatalogService{
		store:  store,
		logger: logger,
	}
	s.current.Store(idx)
	return s, nil
}

// Snapshot returns the current immutable index
func (s *CatalogService) Snapshot() *Index {
	return s.current.Load()
}

// Foods returns every catalog entry in load order
func (s *CatalogService) Foods() []domain.CatalogEntry {
	return s.Snapshot().Entries()
}

// Sample returns up to n catalog names
func (s *CatalogService) Sample(n int) []string {
	return s.Snapshot().Sample(n)
}

// Suggest returns up to n catalog names resembling phrase
func (s *CatalogService) Suggest(phrase string, n int) []string {
	return s.Snapshot().Suggest(phrase, n)
}

// AddCustomFood validates cmd, rejects names already in the catalog, persists
// the new entry and makes it resolvable immediately.
func (s *CatalogService) AddCustomFood(ctx context.Context, cmd domain.AddFood) (domain.CatalogEntry, error) {
	entry := domain.CatalogEntry{
		Name:        collapseWhitespace(cmd.Name),
		Calories:    cmd.Calories,
		Protein:     cmd.Protein,
		ServingSize: collapseWhitespace(cmd.ServingSize),
		Category:    CustomCategory,
	}
	if entry.ServingSize == "" {
		entry.ServingSize = defaultServingSize
	}
	if err := validateCustomFood(entry); err != nil {
		return domain.CatalogEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.current.Load()
	if existing, ok := idx.Lookup(entry.Name); ok {
		return domain.CatalogEntry{}, &domain.DuplicateFoodError{Name: entry.Name, Existing: existing}
	}

	next, err := idx.With(entry)
	if err != nil {
		return domain.CatalogEntry{}, err
	}

	if s.store != nil {
		if err := s.store.AddCustomFood(ctx, entry); err != nil {
			if errors.Is(err, domain.ErrDuplicateFood) {
				if stored, ok := s.storedFood(ctx, entry.Name); ok {
					return domain.CatalogEntry{}, &domain.DuplicateFoodError{Name: entry.Name, Existing: stored}
				}
			}
			return domain.CatalogEntry{}, fmt.Errorf("persist custom food: %w", err)
		}
	}

	s.current.Store(next)
	s.logger.Info("custom food added",
		zap.String("name", entry.Name),
		zap.Float64("calories", entry.Calories),
		zap.Float64("protein", entry.Protein),
		zap.Int("catalog_size", next.Len()))

	return entry, nil
}

// storedFood looks name up among the persisted custom foods
func (s *CatalogService) storedFood(ctx context.Context, name string) (domain.CatalogEntry, bool) {
	foods, err := s.store.GetAllCustomFoods(ctx)
	if err != nil {
		s.logger.Warn("reading stored custom foods failed", zap.Error(err))
		return domain.CatalogEntry{}, false
	}
	key := NormalizeKey(name)
	for _, food := range foods {
		if NormalizeKey(food.Name) == key {
			return food, true
		}
	}
	return domain.CatalogEntry{}, false
}

// RemoveCustomFood deletes a food previously added at runtime. Foods from the
// loaded catalog file cannot be removed.
func (s *CatalogService) RemoveCustomFood(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.current.Load()
	entry, ok := idx.Lookup(name)
	if !ok || entry.Category != CustomCategory {
		return fmt.Errorf("%w: %s", domain.ErrFoodNotFound, name)
	}

	if s.store != nil {
		if err := s.store.DeleteCustomFood(ctx, entry.Name); err != nil && !errors.Is(err, domain.ErrFoodNotFound) {
			return fmt.Errorf("delete custom food: %w", err)
		}
	}

	next, _ := idx.Without(entry.Name)
	s.current.Store(next)
	s.logger.Info("custom food removed", zap.String("name", entry.Name))
	return nil
}

func validateCustomFood(entry domain.CatalogEntry) error {
	if strings.TrimSpace(entry.Name) == "" {
		return &domain.ValidationError{Field: "name", Rule: "must not be empty"}
	}
	if math.IsNaN(entry.Calories) || math.IsInf(entry.Calories, 0) || entry.Calories <= 0 {
		return &domain.ValidationError{Field: "calories", Rule: "must be > 0"}
	}
	if math.IsNaN(entry.Protein) || math.IsInf(entry.Protein, 0) || entry.Protein < 0 {
		return &domain.ValidationError{Field: "protein", Rule: "must be >= 0"}
	}
	return nil
}
