package domain

// ReplyKind names what a chat reply is answering
type ReplyKind string

const (
	ReplyEmpty        ReplyKind = "empty"
	ReplyGreeting     ReplyKind = "greeting"
	ReplyHelp         ReplyKind = "help"
	ReplyFoodList     ReplyKind = "food_list"
	ReplyFoodAdded    ReplyKind = "food_added"
	ReplyAddFailed    ReplyKind = "add_failed"
	ReplyMealDeleted  ReplyKind = "meal_deleted"
	ReplyWeekly       ReplyKind = "weekly_breakdown"
	ReplyManualEntry  ReplyKind = "manual_entry"
	ReplySummary      ReplyKind = "summary"
	ReplyExport       ReplyKind = "export"
	ReplyMeal         ReplyKind = "meal"
	ReplyNotProcessed ReplyKind = "not_processed"
)

// ChatReply is the rendered answer to one incoming chat message
type ChatReply struct {
	Kind    ReplyKind      `json:"kind"`
	Text    string         `json:"reply"`
	Outcome MessageOutcome `json:"outcome,omitempty"`
	Meal    *MealRecord    `json:"meal,omitempty"`
}
