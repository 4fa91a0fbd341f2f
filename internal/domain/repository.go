package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// MealRepository persists users and their meal logs
type MealRepository interface {
	AddUser(ctx context.Context, user, name string) error
	LogMeal(ctx context.Context, meal *MealRecord) error
	GetDailySummary(ctx context.Context, user string, day time.Time) (*DailySummary, error)
	GetRecentMeals(ctx context.Context, user string, limit int) ([]MealRecord, error)
	DeleteLastMeal(ctx context.Context, user string) (*MealRecord, error)
	GetWeeklyBreakdown(ctx context.Context, user string, today time.Time) (*WeeklyBreakdown, error)
	ListMeals(ctx context.Context, user string, limit int) ([]MealRecord, error)
}

// CustomFoodRepository persists user-added catalog entries
type CustomFoodRepository interface {
	AddCustomFood(ctx context.Context, entry CatalogEntry) error
	GetAllCustomFoods(ctx context.Context) ([]CatalogEntry, error)
	DeleteCustomFood(ctx context.Context, name string) error
}

// ItemExtractionClient asks a language model to pull food items out of a message.
// foodNames lists the catalog so the model can answer with canonical names.
type ItemExtractionClient interface {
	ExtractItems(ctx context.Context, message string, foodNames []string) ([]ParsedItem, error)
}
