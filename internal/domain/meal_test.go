package domain

import (
	"errors"
	"testing"
	"time"
)

func TestMealTagFor(t *testing.T) {
	tests := []struct {
		hour, minute int
		want         MealTag
	}{
		{6, 0, MealTagBreakfast},
		{10, 30, MealTagBreakfast},
		{11, 30, MealTagBrunch},
		{12, 30, MealTagLunch},
		{14, 0, MealTagLunch},
		{16, 0, MealTagEveningSnack},
		{19, 0, MealTagDinner},
		{21, 30, MealTagDinner},
		{23, 0, MealTagMidnightSnack},
		{2, 0, MealTagMidnightSnack},
		{4, 59, MealTagMidnightSnack},
		{5, 0, MealTagBreakfast},
	}

	for _, tt := range tests {
		ts := time.Date(2024, 1, 1, tt.hour, tt.minute, 0, 0, time.UTC)
		if got := MealTagFor(ts); got != tt.want {
			t.Errorf("MealTagFor(%s) = %s, want %s", ts.Format("15:04"), got, tt.want)
		}
	}
}

func TestTypedErrors(t *testing.T) {
	t.Run("validation error matches ErrInvalidFood", func(t *testing.T) {
		err := error(&ValidationError{Field: "calories", Rule: "must be > 0"})
		if !errors.Is(err, ErrInvalidFood) {
			t.Errorf("errors.Is(%v, ErrInvalidFood) = false", err)
		}
		if err.Error() != "calories must be > 0" {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("duplicate error matches ErrDuplicateFood", func(t *testing.T) {
		err := error(&DuplicateFoodError{
			Name:     "roti",
			Existing: CatalogEntry{Name: "roti", Calories: 70, Protein: 2, ServingSize: "1 piece"},
		})
		if !errors.Is(err, ErrDuplicateFood) {
			t.Errorf("errors.Is(%v, ErrDuplicateFood) = false", err)
		}
		if errors.Is(err, ErrInvalidFood) {
			t.Errorf("duplicate error should not match ErrInvalidFood")
		}
	})
}

func TestOutcomeKinds(t *testing.T) {
	outcomes := map[OutcomeKind]MessageOutcome{
		OutcomeMealLogged:      MealLogged{},
		OutcomePartialMatch:    PartialMatch{},
		OutcomeNotInCatalog:    NotInCatalog{},
		OutcomeNoFoodFound:     NoFoodFound{},
		OutcomeNotAMealMessage: NotAMealMessage{Intent: IntentStats},
	}
	for want, o := range outcomes {
		if o.Kind() != want {
			t.Errorf("Kind() = %s, want %s", o.Kind(), want)
		}
	}
}
