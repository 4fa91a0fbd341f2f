package usecase

import (
	"github.com/mealtrack/backend/internal/domain"
	"go.uber.org/zap"
)

// DefaultMatchThreshold is the similarity a phrase must exceed to resolve fuzzily
const DefaultMatchThreshold = 0.6

// ResolverConfig holds configuration for the fuzzy resolver
type ResolverConfig struct {
	Threshold float64
}

// Resolution is the outcome of resolving one phrase against the catalog
type Resolution struct {
	Entry   domain.CatalogEntry
	Key     string
	Score   float64
	Matched bool
}

// FuzzyResolver maps food phrases onto catalog entries, exact key first,
// then the best similarity ratio above the threshold.
type FuzzyResolver struct {
	threshold float64
	logger    *zap.Logger
}

// NewFuzzyResolver creates a resolver. A threshold outside (0,1] falls back to 0.6.
func NewFuzzyResolver(config ResolverConfig, logger *zap.Logger) *FuzzyResolver {
	threshold := config.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultMatchThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FuzzyResolver{
		threshold: threshold,
		logger:    logger,
	}
}

// Threshold returns the effective match threshold
func (r *FuzzyResolver) Threshold() float64 {
	return r.threshold
}

// Resolve finds the catalog entry for phrase. An exact key hit returns score
// 1.0 without scoring anything else. Otherwise every key is scored in index
// order and the first key reaching the maximum wins, provided the maximum is
// strictly above the threshold.
func (r *FuzzyResolver) Resolve(phrase string, idx *Index) Resolution {
	key := NormalizeKey(phrase)
	if key == "" || idx == nil {
		return Resolution{}
	}

	if entry, ok := idx.entryAt(key); ok {
		return Resolution{Entry: entry, Key: key, Score: 1.0, Matched: true}
	}

	bestKey := ""
	bestScore := 0.0
	for _, candidate := range idx.keys {
		score := similarityRatio(key, candidate)
		if score > bestScore {
			bestScore = score
			bestKey = candidate
		}
	}

	if bestKey == "" || bestScore <= r.threshold {
		r.logger.Debug("phrase unresolved",
			zap.String("phrase", key),
			zap.String("closest", bestKey),
			zap.Float64("score", bestScore))
		return Resolution{Score: bestScore}
	}

	entry, _ := idx.entryAt(bestKey)
	r.logger.Debug("phrase resolved fuzzily",
		zap.String("phrase", key),
		zap.String("key", bestKey),
		zap.String("food", entry.Name),
		zap.Float64("score", bestScore))

	return Resolution{Entry: entry, Key: bestKey, Score: bestScore, Matched: true}
}

// canonicalKey is the dedup key for a resolved entry
func canonicalKey(entry domain.CatalogEntry) string {
	return NormalizeKey(entry.Name)
}
