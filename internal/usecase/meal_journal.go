package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mealtrack/backend/internal/domain"
	"go.uber.org/zap"
)

// recentMealsInSummary is how many recent meals a daily summary lists
const recentMealsInSummary = 3

// MealJournal records classified meals and answers history queries for a user.
type MealJournal struct {
	meals  domain.MealRepository
	logger *zap.Logger
}

// NewMealJournal creates a journal over the given repository
func NewMealJournal(meals domain.MealRepository, logger *zap.Logger) *MealJournal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MealJournal{
		meals:  meals,
		logger: logger,
	}
}

// Record persists outcome when it is a MealLogged or PartialMatch. Other
// outcomes are not meals and return a nil record.
func (j *MealJournal) Record(ctx context.Context, user, description, source string, at time.Time, outcome domain.MessageOutcome) (*domain.MealRecord, error) {
	var meal *domain.MealRecord
	switch o := outcome.(type) {
	case domain.MealLogged:
		meal = j.newRecord(user, description, source, at)
		meal.TotalCalories = o.TotalCalories
		meal.TotalProtein = o.TotalProtein
		meal.ParsedItems = o.ParsedItems
		meal.ItemsExtracted = itemsText(o.Items)
	case domain.PartialMatch:
		meal = j.newRecord(user, description, source, at)
		meal.TotalCalories = o.TotalCalories
		meal.TotalProtein = o.TotalProtein
		meal.ParsedItems = o.ParsedItems
		meal.ItemsExtracted = fmt.Sprintf("%s (unmatched: %s)", itemsText(o.Items), strings.Join(o.Unmatched, ", "))
	default:
		return nil, nil
	}

	if err := j.save(ctx, meal); err != nil {
		return nil, err
	}
	return meal, nil
}

// RecordManual persists a meal given as raw calorie and protein numbers
func (j *MealJournal) RecordManual(ctx context.Context, user, description string, at time.Time, entry ManualEntry) (*domain.MealRecord, error) {
	meal := j.newRecord(user, description, domain.SourceManual, at)
	meal.TotalCalories = Round1(entry.Calories)
	meal.TotalProtein = Round1(entry.Protein)
	meal.ItemsExtracted = "manual entry"

	if err := j.save(ctx, meal); err != nil {
		return nil, err
	}
	return meal, nil
}

// Summary returns the day's totals and the most recent meals
func (j *MealJournal) Summary(ctx context.Context, user string, day time.Time) (*domain.DailySummary, []domain.MealRecord, error) {
	summary, err := j.meals.GetDailySummary(ctx, user, day)
	if err != nil {
		return nil, nil, fmt.Errorf("daily summary: %w", err)
	}
	recent, err := j.meals.GetRecentMeals(ctx, user, recentMealsInSummary)
	if err != nil {
		return nil, nil, fmt.Errorf("recent meals: %w", err)
	}
	return summary, recent, nil
}

// Weekly returns the seven-day breakdown ending on today
func (j *MealJournal) Weekly(ctx context.Context, user string, today time.Time) (*domain.WeeklyBreakdown, error) {
	breakdown, err := j.meals.GetWeeklyBreakdown(ctx, user, today)
	if err != nil {
		return nil, fmt.Errorf("weekly breakdown: %w", err)
	}
	return breakdown, nil
}

// DeleteLast removes the user's most recent meal. Returns ErrNoMealsFound
// when there is nothing to delete.
func (j *MealJournal) DeleteLast(ctx context.Context, user string) (*domain.MealRecord, error) {
	meal, err := j.meals.DeleteLastMeal(ctx, user)
	if err != nil {
		return nil, err
	}
	j.logger.Info("meal deleted", zap.String("user", user), zap.String("id", meal.ID))
	return meal, nil
}

// History lists the user's meals newest first; limit <= 0 means all.
func (j *MealJournal) History(ctx context.Context, user string, limit int) ([]domain.MealRecord, error) {
	meals, err := j.meals.ListMeals(ctx, user, limit)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return meals, nil
}

func (j *MealJournal) newRecord(user, description, source string, at time.Time) *domain.MealRecord {
	if at.IsZero() {
		at = time.Now()
	}
	return &domain.MealRecord{
		ID:          uuid.NewString(),
		User:        user,
		Description: description,
		Timestamp:   at,
		Source:      source,
		MealTag:     domain.MealTagFor(at),
	}
}

func (j *MealJournal) save(ctx context.Context, meal *domain.MealRecord) error {
	if err := j.meals.AddUser(ctx, meal.User, ""); err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	if err := j.meals.LogMeal(ctx, meal); err != nil {
		return fmt.Errorf("log meal: %w", err)
	}

	j.logger.Info("meal logged",
		zap.String("user", meal.User),
		zap.String("id", meal.ID),
		zap.String("tag", string(meal.MealTag)),
		zap.Float64("calories", meal.TotalCalories),
		zap.Float64("protein", meal.TotalProtein))
	return nil
}

// itemsText renders line items as "2x roti, 1x dal"
func itemsText(items []domain.LineItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprintf("%dx %s", item.Quantity, item.Name)
	}
	return strings.Join(parts, ", ")
}
