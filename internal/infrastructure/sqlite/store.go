package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mealtrack/backend/internal/domain"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

const (
	// timestampLayout is fixed width so text order matches time order
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
	dayLayout       = "2006-01-02"

	// MemoryPath opens a private in-memory database
	MemoryPath = ":memory:"
)

// Store persists users, meals and custom foods in SQLite. It implements
// domain.MealRepository and domain.CustomFoodRepository.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore opens (creating if needed) the database at path
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; also keeps an in-memory database on a single connection
	db.SetMaxOpenConns(1)

	store := &Store{db: db, logger: logger.Named("sqlite")}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	store.logger.Info("database ready", zap.String("path", path))
	return store, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		description TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		day TEXT NOT NULL,
		total_calories REAL NOT NULL,
		total_protein REAL NOT NULL,
		parsed_items TEXT NOT NULL DEFAULT '[]',
		items_extracted TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		meal_tag TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS custom_foods (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		calories REAL NOT NULL,
		protein REAL NOT NULL,
		serving_size TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'custom',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_meals_user_timestamp ON meals(user_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_meals_user_day ON meals(user_id, day);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// AddUser registers a user; existing users are left as they are
func (s *Store) AddUser(ctx context.Context, user, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (user_id, name, created_at) VALUES (?, ?, ?)`,
		user, name, formatTimestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to add user: %w", err)
	}
	return nil
}

// LogMeal stores a meal record
func (s *Store) LogMeal(ctx context.Context, meal *domain.MealRecord) error {
	items := meal.ParsedItems
	if items == nil {
		items = []domain.ParsedItem{}
	}
	parsed, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode parsed items: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO meals (id, user_id, description, timestamp, day, total_calories, total_protein,
			parsed_items, items_extracted, source, meal_tag)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meal.ID, meal.User, meal.Description,
		formatTimestamp(meal.Timestamp), meal.Timestamp.Format(dayLayout),
		meal.TotalCalories, meal.TotalProtein,
		string(parsed), meal.ItemsExtracted, meal.Source, string(meal.MealTag))
	if err != nil {
		return fmt.Errorf("failed to insert meal: %w", err)
	}
	return nil
}

// GetDailySummary totals the user's meals on day's calendar date
func (s *Store) GetDailySummary(ctx context.Context, user string, day time.Time) (*domain.DailySummary, error) {
	date := day.Format(dayLayout)
	count, calories, protein, err := s.dayTotals(ctx, user, date)
	if err != nil {
		return nil, err
	}
	return &domain.DailySummary{
		Date:          date,
		MealCount:     count,
		TotalCalories: round1(calories),
		TotalProtein:  round1(protein),
	}, nil
}

func (s *Store) dayTotals(ctx context.Context, user, date string) (int, float64, float64, error) {
	var (
		count             int
		calories, protein float64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_calories), 0), COALESCE(SUM(total_protein), 0)
		FROM meals
		WHERE user_id = ? AND day = ?`, user, date).Scan(&count, &calories, &protein)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to query day totals: %w", err)
	}
	return count, calories, protein, nil
}

// GetRecentMeals returns up to limit meals, newest first
func (s *Store) GetRecentMeals(ctx context.Context, user string, limit int) ([]domain.MealRecord, error) {
	return s.queryMeals(ctx, user, limit)
}

// ListMeals returns the user's meals newest first; limit <= 0 means all
func (s *Store) ListMeals(ctx context.Context, user string, limit int) ([]domain.MealRecord, error) {
	return s.queryMeals(ctx, user, limit)
}

func (s *Store) queryMeals(ctx context.Context, user string, limit int) ([]domain.MealRecord, error) {
	query := `
		SELECT id, user_id, description, timestamp, total_calories, total_protein,
			parsed_items, items_extracted, source, meal_tag
		FROM meals
		WHERE user_id = ?
		ORDER BY timestamp DESC, rowid DESC`
	args := []interface{}{user}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	meals := []domain.MealRecord{}
	for rows.Next() {
		meal, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		meals = append(meals, *meal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read meals: %w", err)
	}
	return meals, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMeal(row rowScanner) (*domain.MealRecord, error) {
	var (
		meal              domain.MealRecord
		timestamp, parsed string
		tag               string
	)
	if err := row.Scan(&meal.ID, &meal.User, &meal.Description, &timestamp,
		&meal.TotalCalories, &meal.TotalProtein, &parsed, &meal.ItemsExtracted,
		&meal.Source, &tag); err != nil {
		return nil, err
	}

	ts, err := time.Parse(timestampLayout, timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp %q: %w", timestamp, err)
	}
	meal.Timestamp = ts
	meal.MealTag = domain.MealTag(tag)

	if parsed != "" {
		if err := json.Unmarshal([]byte(parsed), &meal.ParsedItems); err != nil {
			return nil, fmt.Errorf("failed to decode parsed items: %w", err)
		}
	}
	return &meal, nil
}

// DeleteLastMeal removes and returns the user's most recent meal
func (s *Store) DeleteLastMeal(ctx context.Context, user string) (*domain.MealRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, user_id, description, timestamp, total_calories, total_protein,
			parsed_items, items_extracted, source, meal_tag
		FROM meals
		WHERE user_id = ?
		ORDER BY timestamp DESC, rowid DESC
		LIMIT 1`, user)

	meal, err := scanMeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoMealsFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find last meal: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM meals WHERE id = ?`, meal.ID); err != nil {
		return nil, fmt.Errorf("failed to delete meal: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return meal, nil
}

// GetWeeklyBreakdown returns one row per day from six days before today
// through today. Averages only count days that have meals.
func (s *Store) GetWeeklyBreakdown(ctx context.Context, user string, today time.Time) (*domain.WeeklyBreakdown, error) {
	week := &domain.WeeklyBreakdown{Days: make([]domain.DayBreakdown, 0, 7)}
	var totalCalories, totalProtein float64

	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		date := day.Format(dayLayout)

		count, calories, protein, err := s.dayTotals(ctx, user, date)
		if err != nil {
			return nil, err
		}

		label := day.Format("Monday")
		switch i {
		case 0:
			label = "Today"
		case 1:
			label = "Yesterday"
		}

		week.Days = append(week.Days, domain.DayBreakdown{
			Date:      date,
			DayLabel:  label,
			DayName:   day.Format("Mon"),
			FullDate:  day.Format("Jan 02"),
			MealCount: count,
			Calories:  round1(calories),
			Protein:   round1(protein),
		})

		totalCalories += calories
		totalProtein += protein
		week.TotalMeals += count
		if count > 0 {
			week.DaysWithMeals++
		}
	}

	week.TotalCalories = round1(totalCalories)
	week.TotalProtein = round1(totalProtein)
	if week.DaysWithMeals > 0 {
		week.AvgDailyCalories = round1(totalCalories / float64(week.DaysWithMeals))
		week.AvgDailyProtein = round1(totalProtein / float64(week.DaysWithMeals))
	}
	return week, nil
}

// AddCustomFood stores a user-added food. A name already stored, in any
// case, returns ErrDuplicateFood.
func (s *Store) AddCustomFood(ctx context.Context, entry domain.CatalogEntry) error {
	category := entry.Category
	if category == "" {
		category = "custom"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO custom_foods (name, calories, protein, serving_size, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Name, entry.Calories, entry.Protein, entry.ServingSize, category, formatTimestamp(time.Now()))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateFood, entry.Name)
		}
		return fmt.Errorf("failed to insert custom food: %w", err)
	}
	return nil
}

// GetAllCustomFoods returns stored custom foods in insertion order
func (s *Store) GetAllCustomFoods(ctx context.Context) ([]domain.CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, calories, protein, serving_size, category
		FROM custom_foods
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query custom foods: %w", err)
	}
	defer rows.Close()

	var foods []domain.CatalogEntry
	for rows.Next() {
		var e domain.CatalogEntry
		if err := rows.Scan(&e.Name, &e.Calories, &e.Protein, &e.ServingSize, &e.Category); err != nil {
			return nil, fmt.Errorf("failed to scan custom food: %w", err)
		}
		foods = append(foods, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read custom foods: %w", err)
	}
	return foods, nil
}

// DeleteCustomFood removes a stored custom food by name, case-insensitively
func (s *Store) DeleteCustomFood(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM custom_foods WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete custom food: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrFoodNotFound, name)
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
