package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/mealtrack/backend/internal/domain"
)

func newTestCatalogService(t *testing.T, store domain.CustomFoodRepository) *CatalogService {
	t.Helper()
	svc, err := NewCatalogService(testEntries(), store, nil)
	if err != nil {
		t.Fatalf("NewCatalogService() error = %v", err)
	}
	return svc
}

func TestNewCatalogService(t *testing.T) {
	t.Run("rejects colliding entries", func(t *testing.T) {
		entries := append(testEntries(), domain.CatalogEntry{Name: "Rotis", Calories: 1})
		if _, err := NewCatalogService(entries, nil, nil); !errors.Is(err, domain.ErrDuplicateCatalogKey) {
			t.Errorf("NewCatalogService() error = %v, want ErrDuplicateCatalogKey", err)
		}
	})

	t.Run("lists foods and samples", func(t *testing.T) {
		svc := newTestCatalogService(t, nil)
		if len(svc.Foods()) != len(testEntries()) {
			t.Errorf("Foods() returned %d entries", len(svc.Foods()))
		}
		if got := svc.Sample(2); len(got) != 2 || got[0] != "roti" {
			t.Errorf("Sample(2) = %v", got)
		}
		if got := svc.Suggest("smsa", 1); len(got) != 1 || got[0] != "samosa" {
			t.Errorf("Suggest(smsa) = %v, want [samosa]", got)
		}
	})
}

func TestCatalogServiceAddCustomFood(t *testing.T) {
	ctx := context.Background()

	t.Run("added food is immediately resolvable", func(t *testing.T) {
		store := &MockCustomFoodRepository{}
		svc := newTestCatalogService(t, store)
		before := svc.Snapshot()

		entry, err := svc.AddCustomFood(ctx, domain.AddFood{Name: "Protein  Shake", Calories: 120, Protein: 30, ServingSize: "1 scoop"})
		if err != nil {
			t.Fatalf("AddCustomFood() error = %v", err)
		}
		if entry.Name != "Protein Shake" || entry.Category != CustomCategory {
			t.Errorf("entry = %+v", entry)
		}
		if len(store.foods) != 1 {
			t.Errorf("store has %d foods, want 1", len(store.foods))
		}

		res := NewFuzzyResolver(ResolverConfig{}, nil).Resolve("protein shake", svc.Snapshot())
		if !res.Matched || res.Score != 1.0 {
			t.Errorf("Resolve() after add = %+v", res)
		}
		if _, ok := before.Lookup("protein shake"); ok {
			t.Error("snapshot taken before the add must not change")
		}
	})

	t.Run("empty serving defaults", func(t *testing.T) {
		svc := newTestCatalogService(t, nil)
		entry, err := svc.AddCustomFood(ctx, domain.AddFood{Name: "oats", Calories: 150, Protein: 5})
		if err != nil {
			t.Fatalf("AddCustomFood() error = %v", err)
		}
		if entry.ServingSize != "1 serving" {
			t.Errorf("ServingSize = %q, want default", entry.ServingSize)
		}
	})

	t.Run("duplicate is rejected and original kept", func(t *testing.T) {
		svc := newTestCatalogService(t, nil)

		for _, name := range []string{"ROTI", "Chapati"} {
			_, err := svc.AddCustomFood(ctx, domain.AddFood{Name: name, Calories: 999, Protein: 99, ServingSize: "huge"})
			var dup *domain.DuplicateFoodError
			if !errors.As(err, &dup) {
				t.Fatalf("AddCustomFood(%q) error = %v, want DuplicateFoodError", name, err)
			}
			if dup.Existing.Name != "roti" || dup.Existing.Calories != 70 || dup.Existing.Protein != 2 {
				t.Errorf("Existing = %+v, want original roti", dup.Existing)
			}
		}

		entry, _ := svc.Snapshot().Lookup("roti")
		if entry.Calories != 70 || entry.Protein != 2 {
			t.Errorf("roti changed to %+v", entry)
		}
	})

	t.Run("validation errors", func(t *testing.T) {
		svc := newTestCatalogService(t, nil)
		tests := []struct {
			cmd   domain.AddFood
			field string
		}{
			{domain.AddFood{Name: "  ", Calories: 10}, "name"},
			{domain.AddFood{Name: "water", Calories: 0}, "calories"},
			{domain.AddFood{Name: "thing", Calories: -5, Protein: 2}, "calories"},
			{domain.AddFood{Name: "oil", Calories: 120, Protein: -1}, "protein"},
		}
		for _, tt := range tests {
			_, err := svc.AddCustomFood(ctx, tt.cmd)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("AddCustomFood(%+v) error = %v, want %s validation error", tt.cmd, err, tt.field)
			}
		}
		if svc.Snapshot().Len() != len(testEntries()) {
			t.Error("invalid foods must not reach the catalog")
		}
	})

	t.Run("duplicate only the store knows reports the stored values", func(t *testing.T) {
		store := &MockCustomFoodRepository{
			foods:  []domain.CatalogEntry{{Name: "Oats", Calories: 150, Protein: 5, ServingSize: "1 bowl", Category: CustomCategory}},
			addErr: domain.ErrDuplicateFood,
		}
		svc := newTestCatalogService(t, store)

		_, err := svc.AddCustomFood(ctx, domain.AddFood{Name: "oats", Calories: 999, Protein: 1})
		var dup *domain.DuplicateFoodError
		if !errors.As(err, &dup) {
			t.Fatalf("AddCustomFood() error = %v, want DuplicateFoodError", err)
		}
		if dup.Existing.Calories != 150 || dup.Existing.Protein != 5 || dup.Existing.ServingSize != "1 bowl" {
			t.Errorf("Existing = %+v, want the stored oats", dup.Existing)
		}
	})

	t.Run("store duplicate without a stored row stays a plain error", func(t *testing.T) {
		store := &MockCustomFoodRepository{addErr: domain.ErrDuplicateFood}
		svc := newTestCatalogService(t, store)

		_, err := svc.AddCustomFood(ctx, domain.AddFood{Name: "oats", Calories: 999, Protein: 1})
		var dup *domain.DuplicateFoodError
		if !errors.Is(err, domain.ErrDuplicateFood) || errors.As(err, &dup) {
			t.Errorf("AddCustomFood() error = %v, want wrapped ErrDuplicateFood only", err)
		}
	})

	t.Run("store failure leaves catalog unchanged", func(t *testing.T) {
		store := &MockCustomFoodRepository{addErr: errors.New("disk full")}
		svc := newTestCatalogService(t, store)

		if _, err := svc.AddCustomFood(ctx, domain.AddFood{Name: "oats", Calories: 150, Protein: 5}); err == nil {
			t.Fatal("expected store error")
		}
		if _, ok := svc.Snapshot().Lookup("oats"); ok {
			t.Error("oats should not be in the catalog after a failed write")
		}
	})
}

func TestCatalogServiceRemoveCustomFood(t *testing.T) {
	ctx := context.Background()
	store := &MockCustomFoodRepository{}
	svc := newTestCatalogService(t, store)

	if _, err := svc.AddCustomFood(ctx, domain.AddFood{Name: "oats", Calories: 150, Protein: 5}); err != nil {
		t.Fatalf("AddCustomFood() error = %v", err)
	}
	if err := svc.RemoveCustomFood(ctx, "OATS"); err != nil {
		t.Fatalf("RemoveCustomFood() error = %v", err)
	}
	if _, ok := svc.Snapshot().Lookup("oats"); ok {
		t.Error("oats still in catalog")
	}
	if len(store.deleted) != 1 || store.deleted[0] != "oats" {
		t.Errorf("store deletions = %v", store.deleted)
	}

	if err := svc.RemoveCustomFood(ctx, "roti"); !errors.Is(err, domain.ErrFoodNotFound) {
		t.Errorf("removing a catalog food error = %v, want ErrFoodNotFound", err)
	}
}

func TestCatalogServiceConcurrentReadsDuringWrites(t *testing.T) {
	svc := newTestCatalogService(t, nil)
	resolver := NewFuzzyResolver(ResolverConfig{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if res := resolver.Resolve("roti", svc.Snapshot()); !res.Matched {
					t.Error("roti should always resolve")
					return
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("custom food %d", i)
		if _, err := svc.AddCustomFood(context.Background(), domain.AddFood{Name: name, Calories: 100, Protein: 1}); err != nil {
			t.Errorf("AddCustomFood(%q) error = %v", name, err)
		}
	}
	wg.Wait()

	if got := svc.Snapshot().Len(); got != len(testEntries())+20 {
		t.Errorf("Len() = %d, want %d", got, len(testEntries())+20)
	}
}
