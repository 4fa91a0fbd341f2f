package usecase

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/mealtrack/backend/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	emptyMessageText    = "Please send me a message about what you ate!"
	noMealsToDeleteText = "No meals found to delete.\n\nYou haven't logged any meals yet!"
	notProcessedText    = "I couldn't process your message. Please try again or type 'list' to see available foods."

	descriptionPreviewRunes = 50
	otherCategory           = "other"
)

// formatNumber renders a value rounded to one decimal without trailing zeros
func formatNumber(v float64) string {
	return strconv.FormatFloat(Round1(v), 'f', -1, 64)
}

// titleCase capitalizes each word of a food name. Casers are stateful, so
// one is made per call.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= descriptionPreviewRunes {
		return s
	}
	return string(r[:descriptionPreviewRunes])
}

func helpText() string {
	return `Welcome to Meal Tracker!

I help you track your Indian meals and nutrition.

How to use:
- Simply message me what you ate, e.g.:
  "I had 2 rotis and dal"
  "Ate chicken curry and rice"
  "Had 3 idlis for breakfast"
- Or log numbers directly: "500 calories 30g protein"

Commands:
- "summary" or "stats" - today's totals
- "weekly" - the last 7 days, day by day
- "delete" or "undo" - remove your last meal
- "list" or "menu" - all available foods
- "export" - your meal log as JSON
- "add <name> <calories> <protein> <serving>" - add a food
- "help" - show this message

Example:
"Had 2 rotis, dal, and paneer"`
}

// foodListText groups catalog names by category, both sorted
func foodListText(entries []domain.CatalogEntry) string {
	groups := make(map[string][]string)
	for _, e := range entries {
		category := e.Category
		if category == "" {
			category = otherCategory
		}
		groups[category] = append(groups[category], e.Name)
	}

	categories := make([]string, 0, len(groups))
	for c := range groups {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var b strings.Builder
	b.WriteString("Available Foods:\n\n")
	for _, c := range categories {
		names := groups[c]
		sort.Strings(names)
		fmt.Fprintf(&b, "%s\n%s\n\n", titleCase(c), strings.Join(names, ", "))
	}
	b.WriteString("Usage: send '2 rotis and dal' or 'had biryani'")
	return b.String()
}

func lineItemsText(totalCalories, totalProtein float64, items []domain.LineItem) string {
	var b strings.Builder
	b.WriteString("Meal Logged Successfully!\n")
	for _, item := range items {
		fmt.Fprintf(&b, "\n- %dx %s (%s)\n  Calories: %s kcal | Protein: %sg",
			item.Quantity, titleCase(item.Name), item.ServingSize,
			formatNumber(item.Calories), formatNumber(item.Protein))
	}
	fmt.Fprintf(&b, "\n\nTOTAL:\nCalories: %s kcal\nProtein: %sg",
		formatNumber(totalCalories), formatNumber(totalProtein))
	return b.String()
}

// RenderOutcome renders an outcome as the chat reply text
func RenderOutcome(outcome domain.MessageOutcome) string {
	return outcomeText(outcome)
}

// outcomeText renders any classifier outcome as a reply
func outcomeText(outcome domain.MessageOutcome) string {
	switch o := outcome.(type) {
	case domain.MealLogged:
		return lineItemsText(o.TotalCalories, o.TotalProtein, o.Items)
	case domain.PartialMatch:
		return lineItemsText(o.TotalCalories, o.TotalProtein, o.Items) +
			"\n\nNote: These items were not found in database: " + strings.Join(o.Unmatched, ", ")
	case domain.NotInCatalog:
		return o.Guidance
	case domain.NoFoodFound:
		return o.Guidance
	}
	return notProcessedText
}

func manualEntryText(meal *domain.MealRecord) string {
	return fmt.Sprintf("Manual Entry Logged!\n\nCalories: %s kcal\nProtein: %sg\nMeal Tag: %s",
		formatNumber(meal.TotalCalories), formatNumber(meal.TotalProtein), mealTagText(meal.MealTag))
}

func mealTagText(tag domain.MealTag) string {
	if tag == "" {
		return "N/A"
	}
	return titleCase(strings.ReplaceAll(string(tag), "_", " "))
}

func mealDeletedText(meal *domain.MealRecord) string {
	return fmt.Sprintf("Last Meal Deleted\n\nRemoved: %s\nLogged at: %s\nMeal Tag: %s\nCalories: %s kcal\nProtein: %sg\n\n"+
		"Your daily totals have been updated.",
		preview(meal.Description), meal.Timestamp.Format("03:04 PM"), mealTagText(meal.MealTag),
		formatNumber(meal.TotalCalories), formatNumber(meal.TotalProtein))
}

func dailySummaryText(summary *domain.DailySummary, recent []domain.MealRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily Summary - %s\n\nMeals logged: %d\nTotal Calories: %s kcal\nTotal Protein: %sg",
		summary.Date, summary.MealCount, formatNumber(summary.TotalCalories), formatNumber(summary.TotalProtein))

	if len(recent) > 0 {
		b.WriteString("\n\nRecent Meals:")
		for i, meal := range recent {
			fmt.Fprintf(&b, "\n%d. %s\n   %s kcal | %sg protein",
				i+1, preview(meal.Description), formatNumber(meal.TotalCalories), formatNumber(meal.TotalProtein))
		}
	}
	return b.String()
}

func weeklyText(w *domain.WeeklyBreakdown) string {
	var b strings.Builder
	b.WriteString("Weekly Breakdown (last 7 days)\n")
	for _, day := range w.Days {
		if day.MealCount == 0 {
			fmt.Fprintf(&b, "\n%s (%s): no meals", day.DayLabel, day.FullDate)
			continue
		}
		fmt.Fprintf(&b, "\n%s (%s): %d meals, %s kcal, %sg protein",
			day.DayLabel, day.FullDate, day.MealCount, formatNumber(day.Calories), formatNumber(day.Protein))
	}
	fmt.Fprintf(&b, "\n\nWeek Total: %d meals, %s kcal, %sg protein",
		w.TotalMeals, formatNumber(w.TotalCalories), formatNumber(w.TotalProtein))
	if w.DaysWithMeals > 0 {
		fmt.Fprintf(&b, "\nDaily Average (%d days with meals): %s kcal, %sg protein",
			w.DaysWithMeals, formatNumber(w.AvgDailyCalories), formatNumber(w.AvgDailyProtein))
	}
	return b.String()
}

func exportText(user string, count int) string {
	if count == 0 {
		return "No meals to export yet. Log a meal first!"
	}
	return fmt.Sprintf("You have %d meals logged.\n\nDownload them as JSON from /api/v1/users/%s/meals",
		count, url.PathEscape(user))
}

func addUsageText(reason string) string {
	return fmt.Sprintf("Could not read that add command: %s\n\nUsage:\n%s", reason, domain.AddFoodUsage)
}

func duplicateFoodText(err *domain.DuplicateFoodError) string {
	e := err.Existing
	return fmt.Sprintf("%s already exists in the database.\n\nCurrent values:\nCalories: %s kcal\nProtein: %sg\nServing: %s",
		titleCase(e.Name), formatNumber(e.Calories), formatNumber(e.Protein), e.ServingSize)
}

func invalidFoodText(err *domain.ValidationError) string {
	return fmt.Sprintf("Could not add food: %s\n\nUsage:\n%s", err.Error(), domain.AddFoodUsage)
}

func foodAddedText(entry domain.CatalogEntry) string {
	return fmt.Sprintf("Food Added!\n\n%s\nCalories: %s kcal\nProtein: %sg\nServing: %s\n\nTry: '1 %s'",
		titleCase(entry.Name), formatNumber(entry.Calories), formatNumber(entry.Protein), entry.ServingSize,
		strings.ToLower(entry.Name))
}
