package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mealtrack/backend/internal/domain"
)

var numericTokenPattern = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)

// IsAddCommand reports whether message starts with the "add " keyword
func IsAddCommand(message string) bool {
	m := strings.TrimSpace(message)
	return len(m) > 4 && strings.EqualFold(m[:4], "add ")
}

// ParseAddCommand parses "add <name> <calories> <protein> <serving>".
//
// Fields are split on "|" when present, else on ",", else on whitespace. In
// the whitespace form the name runs up to the first pair of adjacent numeric
// tokens that still leaves a serving description after it, so a name whose
// last word is a number directly followed by the calories cannot be told
// apart and is read with that number as the calories.
func ParseAddCommand(message string) domain.CustomFoodCommand {
	if !IsAddCommand(message) {
		return domain.ParseError{Reason: "command must start with 'add'"}
	}
	rest := strings.TrimSpace(strings.TrimSpace(message)[4:])

	var name, calText, protText, serving string
	switch {
	case strings.Contains(rest, "|"):
		fields, ok := splitFields(rest, "|")
		if !ok {
			return domain.ParseError{Reason: "expected 4 fields: name | calories | protein | serving"}
		}
		name, calText, protText, serving = fields[0], fields[1], fields[2], fields[3]
	case strings.Contains(rest, ","):
		fields, ok := splitFields(rest, ",")
		if !ok {
			return domain.ParseError{Reason: "expected 4 fields: name, calories, protein, serving"}
		}
		name, calText, protText, serving = fields[0], fields[1], fields[2], fields[3]
	default:
		tokens := strings.Fields(rest)
		if len(tokens) < 4 {
			return domain.ParseError{Reason: "expected 4 fields: name calories protein serving"}
		}
		split := -1
		for i := 1; i+2 < len(tokens); i++ {
			if numericTokenPattern.MatchString(tokens[i]) && numericTokenPattern.MatchString(tokens[i+1]) {
				split = i
				break
			}
		}
		if split < 0 {
			return domain.ParseError{Reason: "calories and protein must be numbers"}
		}
		name = strings.Join(tokens[:split], " ")
		calText, protText = tokens[split], tokens[split+1]
		serving = strings.Join(tokens[split+2:], " ")
	}

	calories, ok := parseNumber(calText)
	if !ok {
		return domain.ParseError{Reason: "calories must be a number"}
	}
	protein, ok := parseNumber(protText)
	if !ok {
		return domain.ParseError{Reason: "protein must be a number"}
	}

	return domain.AddFood{
		Name:        collapseWhitespace(name),
		Calories:    calories,
		Protein:     protein,
		ServingSize: collapseWhitespace(serving),
	}
}

// splitFields splits on sep into exactly four trimmed fields; anything past
// the third separator belongs to the serving size.
func splitFields(s, sep string) ([]string, bool) {
	parts := strings.SplitN(s, sep, 4)
	if len(parts) < 4 {
		return nil, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[3] == "" {
		return nil, false
	}
	return parts, true
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
