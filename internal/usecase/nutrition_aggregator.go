package usecase

import (
	"math"
	"sort"

	"github.com/mealtrack/backend/internal/domain"
)

// Aggregate converts resolved items into rounded line items and totals.
// Totals are summed from unrounded item values in sorted order, then rounded
// once, so permuting items never changes them.
func Aggregate(items []domain.ResolvedItem) (totalCalories, totalProtein float64, lines []domain.LineItem) {
	calories := make([]float64, 0, len(items))
	protein := make([]float64, 0, len(items))
	lines = make([]domain.LineItem, 0, len(items))

	for _, item := range items {
		c, p := item.Calories(), item.Protein()
		calories = append(calories, c)
		protein = append(protein, p)

		lines = append(lines, domain.LineItem{
			Name:        item.Entry.Name,
			Quantity:    item.Quantity,
			ServingSize: item.Entry.ServingSize,
			Calories:    Round1(c),
			Protein:     Round1(p),
		})
	}

	return Round1(stableSum(calories)), Round1(stableSum(protein)), lines
}

// Round1 rounds to one decimal place
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func stableSum(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	total := 0.0
	for _, v := range sorted {
		total += v
	}
	return total
}
