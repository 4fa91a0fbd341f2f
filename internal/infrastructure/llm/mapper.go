package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mealtrack/backend/internal/domain"
)

const systemPrompt = "You are a nutrition tracking assistant. Always respond with valid JSON only."

const userPromptTemplate = `You are a helpful nutrition assistant. Extract all food items and their quantities from the user's message.

Available foods in database: %s

User message: %q

Extract food items in JSON format. For each item, identify:
1. The food name (match to closest item in the database)
2. The quantity/multiplier (e.g., "2 rotis" = quantity 2, "1 bowl dal" = quantity 1)

Return ONLY a JSON array like this:
[
  {"food": "roti", "quantity": 2},
  {"food": "dal", "quantity": 1}
]

If no food items are found, return an empty array: []`

var (
	leadingFencePattern  = regexp.MustCompile("^```(?:json)?\\s*")
	trailingFencePattern = regexp.MustCompile("\\s*```$")
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func newCompletionRequest(model, message string, foodNames []string) completionRequest {
	return completionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(message, foodNames)},
		},
		Temperature: 0.3,
		MaxTokens:   500,
	}
}

func buildPrompt(message string, foodNames []string) string {
	return fmt.Sprintf(userPromptTemplate, strings.Join(foodNames, ", "), message)
}

// modelItem is one entry of the model's JSON answer. Quantity is a float
// because models sometimes answer 1.0 or 0.5.
type modelItem struct {
	Food     string  `json:"food"`
	Quantity float64 `json:"quantity"`
}

// parseItems maps the model's answer to parsed items. Markdown fences are
// stripped; quantities are rounded and floored at 1.
func parseItems(content string) ([]domain.ParsedItem, error) {
	content = strings.TrimSpace(content)
	content = leadingFencePattern.ReplaceAllString(content, "")
	content = trailingFencePattern.ReplaceAllString(content, "")

	var raw []modelItem
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: unparseable answer: %v", domain.ErrLLMAPIFailure, err)
	}

	items := make([]domain.ParsedItem, 0, len(raw))
	for _, r := range raw {
		name := strings.TrimSpace(r.Food)
		if name == "" {
			continue
		}
		quantity := int(r.Quantity + 0.5)
		if quantity < 1 {
			quantity = 1
		}
		items = append(items, domain.ParsedItem{Phrase: name, Quantity: quantity})
	}
	return items, nil
}
