package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrDuplicateCatalogKey is returned when two catalog entries share a name or alias
	ErrDuplicateCatalogKey = errors.New("duplicate catalog key")

	// ErrDuplicateFood is returned when a custom food name already exists in the catalog
	ErrDuplicateFood = errors.New("food already exists")

	// ErrInvalidFood is returned when a custom food fails validation
	ErrInvalidFood = errors.New("invalid food")

	// ErrNoMealsFound is returned when a user has no meals to operate on
	ErrNoMealsFound = errors.New("no meals found")

	// ErrFoodNotFound is returned when a custom food cannot be found
	ErrFoodNotFound = errors.New("food not found")

	// ErrExtractorUnavailable is returned when the model-based extractor is not configured
	ErrExtractorUnavailable = errors.New("model extractor unavailable")

	// ErrLLMAPIFailure is returned when the chat-completions API request fails
	ErrLLMAPIFailure = errors.New("LLM API request failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ValidationError reports which field of a custom food broke which rule.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Rule)
}

// Is lets errors.Is match ErrInvalidFood.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidFood
}

// DuplicateFoodError carries the catalog entry that already owns the name.
type DuplicateFoodError struct {
	Name     string
	Existing CatalogEntry
}

func (e *DuplicateFoodError) Error() string {
	return fmt.Sprintf("food %q already exists (calories: %g kcal, protein: %gg, serving: %s)",
		e.Name, e.Existing.Calories, e.Existing.Protein, e.Existing.ServingSize)
}

// Is lets errors.Is match ErrDuplicateFood.
func (e *DuplicateFoodError) Is(target error) bool {
	return target == ErrDuplicateFood
}
