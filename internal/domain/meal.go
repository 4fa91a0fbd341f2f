package domain

import "time"

// MealTag is the time-of-day category of a logged meal
type MealTag string

const (
	MealTagBreakfast     MealTag = "breakfast"
	MealTagBrunch        MealTag = "brunch"
	MealTagLunch         MealTag = "lunch"
	MealTagEveningSnack  MealTag = "evening_snack"
	MealTagDinner        MealTag = "dinner"
	MealTagMidnightSnack MealTag = "midnight_snack"
)

// MealTagFor buckets a timestamp by its hour in the timestamp's own location
func MealTagFor(t time.Time) MealTag {
	switch h := t.Hour(); {
	case h >= 5 && h < 11:
		return MealTagBreakfast
	case h == 11:
		return MealTagBrunch
	case h >= 12 && h < 15:
		return MealTagLunch
	case h >= 15 && h < 18:
		return MealTagEveningSnack
	case h >= 18 && h < 22:
		return MealTagDinner
	default:
		return MealTagMidnightSnack
	}
}

// Meal source values
const (
	SourceWhatsApp = "whatsapp"
	SourceAPI      = "api"
	SourceManual   = "manual"
	SourceMCP      = "mcp"
)

// MealRecord is a persisted meal log entry
type MealRecord struct {
	ID             string       `json:"id"`
	User           string       `json:"user"`
	Description    string       `json:"description"`
	Timestamp      time.Time    `json:"timestamp"`
	TotalCalories  float64      `json:"total_calories"`
	TotalProtein   float64      `json:"total_protein"`
	ParsedItems    []ParsedItem `json:"parsed_items,omitempty"`
	ItemsExtracted string       `json:"items_extracted"`
	Source         string       `json:"source"`
	MealTag        MealTag      `json:"meal_tag"`
}

// DailySummary aggregates one user's meals for a calendar day
type DailySummary struct {
	Date          string  `json:"date"`
	MealCount     int     `json:"meal_count"`
	TotalCalories float64 `json:"total_calories"`
	TotalProtein  float64 `json:"total_protein"`
}

// DayBreakdown is one row of a weekly breakdown
type DayBreakdown struct {
	Date      string  `json:"date"`
	DayLabel  string  `json:"day_label"`
	DayName   string  `json:"day_name"`
	FullDate  string  `json:"full_date"`
	MealCount int     `json:"meal_count"`
	Calories  float64 `json:"calories"`
	Protein   float64 `json:"protein"`
}

// WeeklyBreakdown covers the last seven days, oldest first
type WeeklyBreakdown struct {
	Days             []DayBreakdown `json:"daily_breakdown"`
	TotalCalories    float64        `json:"total_calories"`
	TotalProtein     float64        `json:"total_protein"`
	TotalMeals       int            `json:"total_meals"`
	AvgDailyCalories float64        `json:"avg_daily_calories"`
	AvgDailyProtein  float64        `json:"avg_daily_protein"`
	DaysWithMeals    int            `json:"days_with_meals"`
}
