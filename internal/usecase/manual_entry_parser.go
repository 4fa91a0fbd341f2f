package usecase

import (
	"regexp"
	"strconv"
	"strings"
)

// ManualEntry is a meal given directly as calorie and protein numbers
type ManualEntry struct {
	Calories float64
	Protein  float64
}

var (
	caloriesPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+\.?\d*)\s*(?:calories?|cals?|kcals?)`),
		regexp.MustCompile(`(?:calories?|cals?|kcals?)\s*[:\s]*(\d+\.?\d*)`),
	}
	proteinPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+\.?\d*)\s*g?\s*protein`),
		regexp.MustCompile(`protein\s*[:\s]*(\d+\.?\d*)\s*g?`),
	}
)

// ParseManualEntry reads "500 calories 30g protein" style messages. It only
// fires when both a calorie and a protein keyword are present, and needs at
// least one of the two values to be positive.
func ParseManualEntry(message string) (ManualEntry, bool) {
	lower := strings.ToLower(message)
	if !strings.Contains(lower, "protein") || !strings.Contains(lower, "cal") {
		return ManualEntry{}, false
	}

	entry := ManualEntry{
		Calories: firstNumber(lower, caloriesPatterns),
		Protein:  firstNumber(lower, proteinPatterns),
	}
	if entry.Calories <= 0 && entry.Protein <= 0 {
		return ManualEntry{}, false
	}
	return entry, true
}

func firstNumber(text string, patterns []*regexp.Regexp) float64 {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v
			}
		}
	}
	return 0
}
