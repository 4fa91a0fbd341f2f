package usecase

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/mealtrack/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// ExtractionStrategy turns a free-text message into candidate food items.
type ExtractionStrategy interface {
	Extract(ctx context.Context, message string, idx *Index) ([]domain.ParsedItem, error)
}

// Compiled regex patterns for phrase extraction
var (
	// One boilerplate lead-in, longest alternatives first
	leadingPrefixPattern = regexp.MustCompile(`^(?:i had|i ate|ate|had|eating|consumed)\s+`)

	// Segment delimiters: " and ", " with ", ",", " & "
	segmentDelimiterPattern = regexp.MustCompile(`\s+and\s+|\s+with\s+|,\s*|\s+&\s+`)
)

// Word characters include any Unicode letter, mark or digit so names like
// "crème brûlée" stay whole.
const (
	wordChar = `[\p{L}\p{M}\p{N}_]`
	wordRun  = wordChar + `+(?:\s+` + wordChar + `+)*`
)

// quantityPattern pulls (quantity, phrase) out of one segment
type quantityPattern struct {
	re          *regexp.Regexp
	hasQuantity bool
}

// quantityPatterns are tried in order; the first match wins.
var quantityPatterns = []quantityPattern{
	// "2 rotis", "3 pieces of samosa", "1 bowl dal", "2 plates of biryani"
	{regexp.MustCompile(`^(\d+)\s+(?:pieces?\s+of\s+)?(?:bowls?\s+(?:of\s+)?)?(?:plates?\s+(?:of\s+)?)?(` + wordRun + `)`), true},
	// "2 rotis!" with trailing noise
	{regexp.MustCompile(`^(\d+)\s+(` + wordChar + `+)`), true},
	// "dal" with no number
	{regexp.MustCompile(`^(` + wordRun + `)`), false},
}

// RuleExtractor is the regex and fuzzy-match extraction strategy. It needs no
// network and is always available; the model strategy falls back to it.
type RuleExtractor struct {
	resolver *FuzzyResolver
	logger   *zap.Logger
}

// NewRuleExtractor creates a rule-based extractor resolving through resolver
func NewRuleExtractor(resolver *FuzzyResolver, logger *zap.Logger) *RuleExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleExtractor{
		resolver: resolver,
		logger:   logger,
	}
}

// segmentItem is one extracted segment with its resolution
type segmentItem struct {
	item    domain.ParsedItem
	matched bool
}

// Extract splits the message into segments and returns one item per segment
// in message order. Segments resolving to a food already seen are dropped,
// so dedup is by canonical name rather than raw phrase. Unresolved segments
// are kept only when at least one segment resolved. When none resolve, the
// whole message is scanned for catalog keys instead.
func (e *RuleExtractor) Extract(ctx context.Context, message string, idx *Index) ([]domain.ParsedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, nil
	}

	text := strings.TrimSpace(strings.ToLower(norm.NFKC.String(message)))
	text = leadingPrefixPattern.ReplaceAllString(text, "")

	var segments []segmentItem
	seenFoods := make(map[string]bool)
	seenPhrases := make(map[string]bool)
	resolvedCount := 0

	for _, part := range segmentDelimiterPattern.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		quantity, phrase := extractQuantity(part)
		phrase = collapseWhitespace(phrase)
		if phrase == "" {
			continue
		}

		res := e.resolver.Resolve(phrase, idx)
		if !res.Matched {
			if !seenPhrases[phrase] {
				seenPhrases[phrase] = true
				segments = append(segments, segmentItem{item: domain.ParsedItem{Phrase: phrase, Quantity: quantity}})
			}
			continue
		}

		food := canonicalKey(res.Entry)
		if seenFoods[food] {
			continue
		}
		seenFoods[food] = true
		resolvedCount++
		segments = append(segments, segmentItem{
			item:    domain.ParsedItem{Phrase: phrase, Quantity: quantity},
			matched: true,
		})
	}

	if resolvedCount > 0 {
		items := make([]domain.ParsedItem, 0, len(segments))
		for _, s := range segments {
			items = append(items, s.item)
		}
		return items, nil
	}

	items := scanForCatalogKeys(text, idx)
	e.logger.Debug("segment extraction found nothing, scanned message",
		zap.String("message", text),
		zap.Int("items", len(items)))
	return items, nil
}

// extractQuantity applies quantityPatterns to one segment
func extractQuantity(segment string) (int, string) {
	for _, p := range quantityPatterns {
		m := p.re.FindStringSubmatch(segment)
		if m == nil {
			continue
		}
		if p.hasQuantity {
			return parseQuantity(m[1]), m[2]
		}
		return 1, m[1]
	}
	return 1, segment
}

// parseQuantity reads a positive integer; zero, overflow or junk become 1
func parseQuantity(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// scanForCatalogKeys finds every catalog key occurring anywhere in text, with
// an optional integer right before it, one item per canonical food.
func scanForCatalogKeys(text string, idx *Index) []domain.ParsedItem {
	var items []domain.ParsedItem
	seen := make(map[string]bool)

	for _, key := range idx.keys {
		if !strings.Contains(text, key) {
			continue
		}
		entry, _ := idx.entryAt(key)
		food := canonicalKey(entry)
		if seen[food] {
			continue
		}
		seen[food] = true

		quantity := 1
		re := regexp.MustCompile(`(\d+)\s*` + regexp.QuoteMeta(key))
		if m := re.FindStringSubmatch(text); m != nil {
			quantity = parseQuantity(m[1])
		}

		items = append(items, domain.ParsedItem{Phrase: key, Quantity: quantity})
	}

	return items
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
