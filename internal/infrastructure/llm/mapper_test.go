package llm

import (
	"testing"

	"github.com/mealtrack/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItems(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []domain.ParsedItem
		wantErr bool
	}{
		{
			name:    "plain array",
			content: `[{"food": "roti", "quantity": 2}]`,
			want:    []domain.ParsedItem{{Phrase: "roti", Quantity: 2}},
		},
		{
			name:    "fenced with json tag",
			content: "```json\n[{\"food\": \"dal\", \"quantity\": 1}]\n```",
			want:    []domain.ParsedItem{{Phrase: "dal", Quantity: 1}},
		},
		{
			name:    "bare fence",
			content: "```\n[{\"food\": \"tea\", \"quantity\": 1}]\n```",
			want:    []domain.ParsedItem{{Phrase: "tea", Quantity: 1}},
		},
		{
			name:    "fractional and missing quantities",
			content: `[{"food": "rice", "quantity": 1.6}, {"food": "dal", "quantity": 0.2}, {"food": "curd"}]`,
			want: []domain.ParsedItem{
				{Phrase: "rice", Quantity: 2},
				{Phrase: "dal", Quantity: 1},
				{Phrase: "curd", Quantity: 1},
			},
		},
		{
			name:    "blank names dropped",
			content: `[{"food": " ", "quantity": 2}, {"food": "naan", "quantity": 1}]`,
			want:    []domain.ParsedItem{{Phrase: "naan", Quantity: 1}},
		},
		{
			name:    "empty array",
			content: `[]`,
			want:    []domain.ParsedItem{},
		},
		{
			name:    "prose answer",
			content: "I think you ate roti.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseItems(tt.content)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrLLMAPIFailure)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(`had "2" rotis`, []string{"roti", "dal"})

	assert.Contains(t, prompt, "Available foods in database: roti, dal")
	assert.Contains(t, prompt, `User message: "had \"2\" rotis"`)
	assert.Contains(t, prompt, "Return ONLY a JSON array")
}
