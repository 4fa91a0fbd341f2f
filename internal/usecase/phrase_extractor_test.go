package usecase

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mealtrack/backend/internal/domain"
)

func TestExtractQuantity(t *testing.T) {
	tests := []struct {
		segment  string
		quantity int
		phrase   string
	}{
		{"2 rotis", 2, "rotis"},
		{"3 pieces of samosa", 3, "samosa"},
		{"1 bowl dal", 1, "dal"},
		{"2 plates of biryani", 2, "biryani"},
		{"dal", 1, "dal"},
		{"butter chicken", 1, "butter chicken"},
		{"0 idli", 1, "idli"},
		{"2 rotis!", 2, "rotis"},
		{"2 crème brûlée", 2, "crème brûlée"},
		{"café au lait", 1, "café au lait"},
	}

	for _, tt := range tests {
		q, p := extractQuantity(tt.segment)
		if q != tt.quantity || p != tt.phrase {
			t.Errorf("extractQuantity(%q) = (%d, %q), want (%d, %q)", tt.segment, q, p, tt.quantity, tt.phrase)
		}
	}
}

func TestRuleExtractorExtract(t *testing.T) {
	idx := mustIndex(t, testEntries())
	extractor := NewRuleExtractor(NewFuzzyResolver(ResolverConfig{}, nil), nil)

	tests := []struct {
		name    string
		message string
		want    []domain.ParsedItem
	}{
		{
			name:    "and-separated with quantity",
			message: "2 rotis and dal",
			want:    []domain.ParsedItem{{Phrase: "rotis", Quantity: 2}, {Phrase: "dal", Quantity: 1}},
		},
		{
			name:    "leading prefix stripped",
			message: "I had 3 idlis, rice & dal",
			want: []domain.ParsedItem{
				{Phrase: "idlis", Quantity: 3},
				{Phrase: "rice", Quantity: 1},
				{Phrase: "dal", Quantity: 1},
			},
		},
		{
			name:    "dedup by resolved food",
			message: "roti with 2 chapati",
			want:    []domain.ParsedItem{{Phrase: "roti", Quantity: 1}},
		},
		{
			name:    "unmatched segment kept next to a match",
			message: "2 rotis and pizza",
			want:    []domain.ParsedItem{{Phrase: "rotis", Quantity: 2}, {Phrase: "pizza", Quantity: 1}},
		},
		{
			name:    "substring scan when no segment resolves",
			message: "i want 3 samosa please",
			want:    []domain.ParsedItem{{Phrase: "samosa", Quantity: 3}},
		},
		{
			name:    "full-width digits normalized before the scan",
			message: "i want ２ samosa please",
			want:    []domain.ParsedItem{{Phrase: "samosa", Quantity: 2}},
		},
		{
			name:    "nothing food related",
			message: "went for a walk",
			want:    nil,
		},
		{
			name:    "blank message",
			message: "   ",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractor.Extract(context.Background(), tt.message, idx)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract(%q) mismatch (-want +got):\n%s", tt.message, diff)
			}
		})
	}
}

func TestRuleExtractorCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	extractor := NewRuleExtractor(NewFuzzyResolver(ResolverConfig{}, nil), nil)
	if _, err := extractor.Extract(ctx, "dal", mustIndex(t, testEntries())); err == nil {
		t.Error("Extract() with cancelled context should fail")
	}
}
