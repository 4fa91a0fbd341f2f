package domain

// OutcomeKind names each MessageOutcome variant
type OutcomeKind string

const (
	OutcomeMealLogged      OutcomeKind = "meal_logged"
	OutcomePartialMatch    OutcomeKind = "partial_match"
	OutcomeNotInCatalog    OutcomeKind = "not_in_database"
	OutcomeNoFoodFound     OutcomeKind = "no_food_found"
	OutcomeNotAMealMessage OutcomeKind = "not_a_meal"
)

// Intent is the non-meal purpose recognized in a message
type Intent string

const (
	IntentStats  Intent = "stats"
	IntentExport Intent = "export"
)

// MessageOutcome is the result of processing one message. Exactly one of
// MealLogged, PartialMatch, NotInCatalog, NoFoodFound or NotAMealMessage.
type MessageOutcome interface {
	Kind() OutcomeKind
	isOutcome()
}

// MealLogged means every extracted phrase resolved to a catalog entry
type MealLogged struct {
	TotalCalories float64      `json:"total_calories"`
	TotalProtein  float64      `json:"total_protein"`
	Items         []LineItem   `json:"items"`
	ParsedItems   []ParsedItem `json:"parsed_items"`
}

// PartialMatch means some phrases resolved and some did not
type PartialMatch struct {
	TotalCalories float64      `json:"total_calories"`
	TotalProtein  float64      `json:"total_protein"`
	Items         []LineItem   `json:"items"`
	ParsedItems   []ParsedItem `json:"parsed_items"`
	Unmatched     []string     `json:"unmatched_items"`
}

// NotInCatalog means phrases were extracted but none resolved
type NotInCatalog struct {
	Unmatched   []string            `json:"unmatched_items"`
	Suggestions map[string][]string `json:"suggestions,omitempty"`
	Guidance    string              `json:"message"`
}

// NoFoodFound means no food phrase could be extracted at all
type NoFoodFound struct {
	SampleFoods []string `json:"sample_foods"`
	Guidance    string   `json:"message"`
}

// NotAMealMessage means the message asked for something other than logging a meal
type NotAMealMessage struct {
	Intent Intent `json:"intent"`
}

func (MealLogged) Kind() OutcomeKind      { return OutcomeMealLogged }
func (PartialMatch) Kind() OutcomeKind    { return OutcomePartialMatch }
func (NotInCatalog) Kind() OutcomeKind    { return OutcomeNotInCatalog }
func (NoFoodFound) Kind() OutcomeKind     { return OutcomeNoFoodFound }
func (NotAMealMessage) Kind() OutcomeKind { return OutcomeNotAMealMessage }

func (MealLogged) isOutcome()      {}
func (PartialMatch) isOutcome()    {}
func (NotInCatalog) isOutcome()    {}
func (NoFoodFound) isOutcome()     {}
func (NotAMealMessage) isOutcome() {}
