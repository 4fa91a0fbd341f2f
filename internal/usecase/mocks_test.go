package usecase

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/mealtrack/backend/internal/domain"
)

// testEntries is a small fixed catalog shared by the usecase tests
func testEntries() []domain.CatalogEntry {
	return []domain.CatalogEntry{
		{Name: "roti", Aliases: []string{"rotis", "chapati"}, Calories: 70, Protein: 2, ServingSize: "1 piece", Category: "breads"},
		{Name: "dal", Aliases: []string{"daal"}, Calories: 120, Protein: 7, ServingSize: "1 bowl", Category: "lentils"},
		{Name: "rice", Calories: 130, Protein: 2.7, ServingSize: "1 cup", Category: "grains"},
		{Name: "biryani", Calories: 290, Protein: 12, ServingSize: "1 plate", Category: "grains"},
		{Name: "paneer", Calories: 265, Protein: 18, ServingSize: "100g", Category: "dairy"},
		{Name: "samosa", Aliases: []string{"samosas"}, Calories: 262, Protein: 5, ServingSize: "1 piece", Category: "snacks"},
		{Name: "idli", Aliases: []string{"idlis"}, Calories: 39, Protein: 2, ServingSize: "1 piece", Category: "breads"},
	}
}

func mustIndex(t *testing.T, entries []domain.CatalogEntry) *Index {
	t.Helper()
	idx, err := BuildIndex(entries)
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	return idx
}

// staticCatalog is a CatalogSource over a fixed index
type staticCatalog struct {
	idx *Index
}

func (c staticCatalog) Snapshot() *Index { return c.idx }

// MockExtractor records calls and returns canned items
type MockExtractor struct {
	items []domain.ParsedItem
	err   error
	calls int
}

func (m *MockExtractor) Extract(ctx context.Context, message string, idx *Index) ([]domain.ParsedItem, error) {
	m.calls++
	return m.items, m.err
}

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockExtractionClient is a mock implementation of domain.ItemExtractionClient
type MockExtractionClient struct {
	items     []domain.ParsedItem
	err       error
	calls     int
	lastFoods []string
}

func (m *MockExtractionClient) ExtractItems(ctx context.Context, message string, foodNames []string) ([]domain.ParsedItem, error) {
	m.calls++
	m.lastFoods = foodNames
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

// MockCustomFoodRepository is a mock implementation of domain.CustomFoodRepository
type MockCustomFoodRepository struct {
	mu      sync.Mutex
	foods   []domain.CatalogEntry
	addErr  error
	deleted []string
}

func (m *MockCustomFoodRepository) AddCustomFood(ctx context.Context, entry domain.CatalogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	m.foods = append(m.foods, entry)
	return nil
}

func (m *MockCustomFoodRepository) GetAllCustomFoods(ctx context.Context) ([]domain.CatalogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CatalogEntry(nil), m.foods...), nil
}

func (m *MockCustomFoodRepository) DeleteCustomFood(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, name)
	return nil
}

// MockMealRepository keeps meals in memory
type MockMealRepository struct {
	users  map[string]bool
	meals  []domain.MealRecord
	logErr error
}

func NewMockMealRepository() *MockMealRepository {
	return &MockMealRepository{users: make(map[string]bool)}
}

func (m *MockMealRepository) AddUser(ctx context.Context, user, name string) error {
	m.users[user] = true
	return nil
}

func (m *MockMealRepository) LogMeal(ctx context.Context, meal *domain.MealRecord) error {
	if m.logErr != nil {
		return m.logErr
	}
	m.meals = append(m.meals, *meal)
	return nil
}

func (m *MockMealRepository) userMeals(user string) []domain.MealRecord {
	var out []domain.MealRecord
	for i := len(m.meals) - 1; i >= 0; i-- {
		if m.meals[i].User == user {
			out = append(out, m.meals[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

func (m *MockMealRepository) GetDailySummary(ctx context.Context, user string, day time.Time) (*domain.DailySummary, error) {
	date := day.Format("2006-01-02")
	summary := &domain.DailySummary{Date: date}
	for _, meal := range m.userMeals(user) {
		if meal.Timestamp.Format("2006-01-02") == date {
			summary.MealCount++
			summary.TotalCalories += meal.TotalCalories
			summary.TotalProtein += meal.TotalProtein
		}
	}
	return summary, nil
}

func (m *MockMealRepository) GetRecentMeals(ctx context.Context, user string, limit int) ([]domain.MealRecord, error) {
	meals := m.userMeals(user)
	if limit > 0 && len(meals) > limit {
		meals = meals[:limit]
	}
	return meals, nil
}

func (m *MockMealRepository) DeleteLastMeal(ctx context.Context, user string) (*domain.MealRecord, error) {
	meals := m.userMeals(user)
	if len(meals) == 0 {
		return nil, domain.ErrNoMealsFound
	}
	last := meals[0]
	for i := range m.meals {
		if m.meals[i].ID == last.ID {
			m.meals = append(m.meals[:i], m.meals[i+1:]...)
			break
		}
	}
	return &last, nil
}

func (m *MockMealRepository) GetWeeklyBreakdown(ctx context.Context, user string, today time.Time) (*domain.WeeklyBreakdown, error) {
	w := &domain.WeeklyBreakdown{}
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		s, _ := m.GetDailySummary(ctx, user, day)
		w.Days = append(w.Days, domain.DayBreakdown{
			Date:      s.Date,
			DayLabel:  day.Format("Monday"),
			FullDate:  day.Format("Jan 02"),
			MealCount: s.MealCount,
			Calories:  s.TotalCalories,
			Protein:   s.TotalProtein,
		})
		w.TotalMeals += s.MealCount
		w.TotalCalories += s.TotalCalories
		w.TotalProtein += s.TotalProtein
		if s.MealCount > 0 {
			w.DaysWithMeals++
		}
	}
	return w, nil
}

func (m *MockMealRepository) ListMeals(ctx context.Context, user string, limit int) ([]domain.MealRecord, error) {
	return m.GetRecentMeals(ctx, user, limit)
}
