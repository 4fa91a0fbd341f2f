package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/mealtrack/backend/config"
	"github.com/mealtrack/backend/internal/infrastructure/cache"
	"github.com/mealtrack/backend/internal/infrastructure/catalogfile"
	"github.com/mealtrack/backend/internal/infrastructure/llm"
	"github.com/mealtrack/backend/internal/infrastructure/sqlite"
	"github.com/mealtrack/backend/internal/usecase"
	"go.uber.org/zap"
)

// app is the wired object graph shared by every command
type app struct {
	store     *sqlite.Store
	cache     *cache.MemoryCache // nil unless the LLM extractor is enabled
	catalog   *usecase.CatalogService
	processor *usecase.MealProcessor
	journal   *usecase.MealJournal
	chat      *usecase.ChatService
	modelMode bool
}

// newApp opens the store, loads the catalog (file foods, then stored custom
// foods) and wires the use cases.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	entries, err := catalogfile.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.NewStore(cfg.Database.Path, logger)
	if err != nil {
		return nil, err
	}

	custom, err := store.GetAllCustomFoods(ctx)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load custom foods: %w", err)
	}

	catalog, err := usecase.NewCatalogService(append(entries, custom...), store, logger.Named("catalog"))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	logger.Info("catalog loaded",
		zap.String("path", cfg.Catalog.Path),
		zap.Int("foods", len(entries)),
		zap.Int("custom_foods", len(custom)))

	resolver := usecase.NewFuzzyResolver(usecase.ResolverConfig{Threshold: cfg.Catalog.FuzzyThreshold}, logger.Named("resolver"))
	var extractor usecase.ExtractionStrategy = usecase.NewRuleExtractor(resolver, logger.Named("extractor"))

	a := &app{store: store, catalog: catalog}

	if cfg.LLM.Enabled {
		a.cache = cache.NewMemoryCache(cache.Config{CleanupInterval: cfg.Cache.CleanupInterval})
		client := llm.NewClient(llm.Config{
			BaseURL:           cfg.LLM.BaseURL,
			APIKey:            cfg.LLM.APIKey,
			Model:             cfg.LLM.Model,
			Timeout:           cfg.LLM.Timeout,
			RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		}, logger)
		extractor = usecase.NewModelExtractor(client, a.cache, extractor,
			usecase.ModelExtractorConfig{CacheTTL: cfg.Cache.TTL}, logger.Named("model_extractor"))
		a.modelMode = true
		logger.Info("LLM extraction enabled", zap.String("model", cfg.LLM.Model), zap.String("base_url", cfg.LLM.BaseURL))
	}

	a.processor = usecase.NewMealProcessor(catalog, extractor, resolver,
		usecase.MealProcessorConfig{SampleSize: cfg.Catalog.SampleSize}, logger.Named("processor"))
	a.journal = usecase.NewMealJournal(store, logger.Named("journal"))
	a.chat = usecase.NewChatService(catalog, a.processor, a.journal, logger.Named("chat"))
	return a, nil
}

// Close releases the store and stops the cache sweeper
func (a *app) Close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}
