package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/mealtrack/backend/internal/domain"
	"go.uber.org/zap"
)

// DefaultExtractionCacheTTL is how long model answers are reused
const DefaultExtractionCacheTTL = time.Hour

// ModelExtractorConfig holds configuration for the model extractor
type ModelExtractorConfig struct {
	CacheTTL time.Duration
}

// ModelExtractor asks a language model for the food items in a message.
// Answers are cached by normalized message text, and any client failure
// falls back to the rule-based extractor.
type ModelExtractor struct {
	client   domain.ItemExtractionClient
	cache    domain.CacheRepository
	fallback ExtractionStrategy
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewModelExtractor creates a model extractor. cache may be nil.
func NewModelExtractor(
	client domain.ItemExtractionClient,
	cache domain.CacheRepository,
	fallback ExtractionStrategy,
	config ModelExtractorConfig,
	logger *zap.Logger,
) *ModelExtractor {
	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = DefaultExtractionCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ModelExtractor{
		client:   client,
		cache:    cache,
		fallback: fallback,
		cacheTTL: ttl,
		logger:   logger,
	}
}

// Extract implements ExtractionStrategy
func (e *ModelExtractor) Extract(ctx context.Context, message string, idx *Index) ([]domain.ParsedItem, error) {
	if e.client == nil {
		return e.fallback.Extract(ctx, message, idx)
	}

	cacheKey := "extract:" + NormalizeKey(message)

	if e.cache != nil {
		if cached, err := e.cache.Get(ctx, cacheKey); err == nil {
			if items, ok := decodeCachedItems(cached); ok {
				e.logger.Debug("extraction cache hit", zap.String("key", cacheKey))
				return items, nil
			}
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			e.logger.Warn("extraction cache read failed", zap.Error(err))
		}
	}

	var names []string
	if idx != nil {
		names = idx.Names()
	}

	items, err := e.client.ExtractItems(ctx, message, names)
	if err != nil {
		e.logger.Warn("model extraction failed, using rules",
			zap.String("message", message),
			zap.Error(err))
		return e.fallback.Extract(ctx, message, idx)
	}

	items = cleanModelItems(items)

	if e.cache != nil {
		if err := e.cache.Set(ctx, cacheKey, items, e.cacheTTL); err != nil {
			e.logger.Warn("extraction cache write failed", zap.Error(err))
		}
	}

	return items, nil
}

// cleanModelItems drops empty phrases and floors quantities at 1
func cleanModelItems(items []domain.ParsedItem) []domain.ParsedItem {
	out := make([]domain.ParsedItem, 0, len(items))
	for _, item := range items {
		phrase := collapseWhitespace(strings.ToLower(item.Phrase))
		if phrase == "" {
			continue
		}
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		item.Phrase = phrase
		out = append(out, item)
	}
	return out
}

// decodeCachedItems converts a cached value back into parsed items. The
// cache may hand back generic JSON values, so go through JSON again.
func decodeCachedItems(value interface{}) ([]domain.ParsedItem, bool) {
	if items, ok := value.([]domain.ParsedItem); ok {
		return items, true
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, false
	}
	var items []domain.ParsedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}
