package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/mealtrack/backend/internal/domain"
	"go.uber.org/zap"
)

// Non-meal intent keywords, checked before any extraction. They match as
// plain substrings, so "totals" and "exported" count too.
var (
	statsKeywords  = []string{"summary", "total", "today", "stats", "how much"}
	exportKeywords = []string{"export", "download", "excel"}
)

// DefaultSampleSize is how many catalog names NoFoodFound guidance lists
const DefaultSampleSize = 15

// suggestionsPerPhrase caps "did you mean" names per unmatched phrase
const suggestionsPerPhrase = 3

// CatalogSource hands out the current immutable catalog snapshot
type CatalogSource interface {
	Snapshot() *Index
}

// MealProcessorConfig holds configuration for the meal processor
type MealProcessorConfig struct {
	SampleSize int
}

// MealProcessor runs a message through intent detection, extraction,
// resolution and aggregation, and classifies the result.
type MealProcessor struct {
	catalog    CatalogSource
	extractor  ExtractionStrategy
	resolver   *FuzzyResolver
	sampleSize int
	logger     *zap.Logger
}

// NewMealProcessor creates a meal processor with the given collaborators
func NewMealProcessor(
	catalog CatalogSource,
	extractor ExtractionStrategy,
	resolver *FuzzyResolver,
	config MealProcessorConfig,
	logger *zap.Logger,
) *MealProcessor {
	sampleSize := config.SampleSize
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MealProcessor{
		catalog:    catalog,
		extractor:  extractor,
		resolver:   resolver,
		sampleSize: sampleSize,
		logger:     logger,
	}
}

// DetectIntent reports whether message asks for stats or an export instead
// of describing a meal. Stats keywords win over export keywords.
func DetectIntent(message string) (domain.Intent, bool) {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, statsKeywords):
		return domain.IntentStats, true
	case containsAny(lower, exportKeywords):
		return domain.IntentExport, true
	}
	return "", false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Process classifies one message. It never fails: every content problem is
// a tagged outcome. The catalog snapshot is taken once per call.
func (p *MealProcessor) Process(ctx context.Context, message string) domain.MessageOutcome {
	if intent, ok := DetectIntent(message); ok {
		return domain.NotAMealMessage{Intent: intent}
	}

	idx := p.catalog.Snapshot()

	parsed, err := p.extractor.Extract(ctx, message, idx)
	if err != nil {
		p.logger.Warn("extraction failed", zap.String("message", message), zap.Error(err))
		parsed = nil
	}
	if len(parsed) == 0 {
		return p.noFoodFound(idx)
	}

	var (
		resolved  []domain.ResolvedItem
		kept      []domain.ParsedItem
		unmatched []string
	)
	seenFoods := make(map[string]bool)
	seenPhrases := make(map[string]bool)

	for _, item := range parsed {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		res := p.resolver.Resolve(item.Phrase, idx)
		if !res.Matched {
			phrase := collapseWhitespace(item.Phrase)
			if phrase != "" && !seenPhrases[phrase] {
				seenPhrases[phrase] = true
				unmatched = append(unmatched, phrase)
			}
			continue
		}

		food := canonicalKey(res.Entry)
		if seenFoods[food] {
			continue
		}
		seenFoods[food] = true

		resolved = append(resolved, domain.ResolvedItem{
			Entry:    res.Entry,
			Quantity: quantity,
			Phrase:   item.Phrase,
			Score:    res.Score,
		})
		kept = append(kept, domain.ParsedItem{Phrase: res.Entry.Name, Quantity: quantity})
	}

	if len(resolved) == 0 {
		if len(unmatched) == 0 {
			return p.noFoodFound(idx)
		}
		return p.notInCatalog(idx, unmatched)
	}

	totalCalories, totalProtein, lines := Aggregate(resolved)

	if len(unmatched) > 0 {
		return domain.PartialMatch{
			TotalCalories: totalCalories,
			TotalProtein:  totalProtein,
			Items:         lines,
			ParsedItems:   kept,
			Unmatched:     unmatched,
		}
	}

	return domain.MealLogged{
		TotalCalories: totalCalories,
		TotalProtein:  totalProtein,
		Items:         lines,
		ParsedItems:   kept,
	}
}

func (p *MealProcessor) noFoodFound(idx *Index) domain.NoFoodFound {
	var sample []string
	if idx != nil {
		sample = idx.Sample(p.sampleSize)
	}
	return domain.NoFoodFound{
		SampleFoods: sample,
		Guidance:    noFoodFoundGuidance(sample),
	}
}

func (p *MealProcessor) notInCatalog(idx *Index, unmatched []string) domain.NotInCatalog {
	suggestions := make(map[string][]string)
	for _, phrase := range unmatched {
		if names := idx.Suggest(phrase, suggestionsPerPhrase); len(names) > 0 {
			suggestions[phrase] = names
		}
	}
	if len(suggestions) == 0 {
		suggestions = nil
	}

	return domain.NotInCatalog{
		Unmatched:   unmatched,
		Suggestions: suggestions,
		Guidance:    notInCatalogGuidance(unmatched, suggestions),
	}
}

func noFoodFoundGuidance(sample []string) string {
	return fmt.Sprintf("Sorry, I couldn't find any food items from our database in your message.\n\n"+
		"Common foods I can track:\n%s\n\n"+
		"Try: '2 rotis and dal' or 'had chicken biryani'\n\n"+
		"Type 'list' to see all available foods.", strings.Join(sample, ", "))
}

func notInCatalogGuidance(unmatched []string, suggestions map[string][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "These items are not in our database: %s\n", strings.Join(unmatched, ", "))
	for _, phrase := range unmatched {
		if names, ok := suggestions[phrase]; ok {
			fmt.Fprintf(&b, "  %s - did you mean %s?\n", phrase, strings.Join(names, ", "))
		}
	}
	b.WriteString("\nPlease try similar food items or add them with 'add <name> <calories> <protein> <serving>'.\n\n")
	b.WriteString("Type 'list' to see available foods.")
	return b.String()
}
