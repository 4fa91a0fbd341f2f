package domain

// CustomFoodCommand is the result of parsing an "add" command: AddFood or ParseError
type CustomFoodCommand interface {
	isCustomFoodCommand()
}

// AddFood is a successfully parsed add command. Values are not yet validated.
type AddFood struct {
	Name        string  `json:"name" binding:"required"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	ServingSize string  `json:"serving_size"`
}

// ParseError is a malformed add command
type ParseError struct {
	Reason string `json:"reason"`
}

func (AddFood) isCustomFoodCommand()    {}
func (ParseError) isCustomFoodCommand() {}

// AddFoodUsage describes the accepted add command grammar
const AddFoodUsage = `add <name> <calories> <protein> <serving>
  add protein shake 120 30 1 scoop
  add pizza slice, 285, 12, 1 slice (100g)
  add oats | 150 | 5 | 1 bowl`
