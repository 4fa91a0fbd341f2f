package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/mealtrack/backend/internal/domain"
	"go.uber.org/zap"
)

// Exact-match conversation keywords, compared after lowercasing and trimming
var (
	greetingWords = wordSet("hi", "hello", "hey", "good morning", "good afternoon", "good evening", "start")
	helpWords     = wordSet("help", "commands", "command", "?", "info")
	listWords     = wordSet("list", "foods", "menu", "available")
)

var (
	deletePattern = regexp.MustCompile(`\b(?:delete|undo|remove last)\b`)
	weeklyPattern = regexp.MustCompile(`total week|week total|\bweekly\b`)
)

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// IncomingMessage is one chat message from a user
type IncomingMessage struct {
	User   string
	Text   string
	Source string
	At     time.Time
}

// ChatService routes a conversation message to the command or meal flow it
// asks for and renders a plain-text reply.
type ChatService struct {
	catalog   *CatalogService
	processor *MealProcessor
	journal   *MealJournal
	logger    *zap.Logger
}

// NewChatService creates a chat service
func NewChatService(catalog *CatalogService, processor *MealProcessor, journal *MealJournal, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		catalog:   catalog,
		processor: processor,
		journal:   journal,
		logger:    logger,
	}
}

// HandleMessage answers one message. Content problems come back as reply
// text; the error is reserved for storage failures.
func (s *ChatService) HandleMessage(ctx context.Context, msg IncomingMessage) (domain.ChatReply, error) {
	text := strings.TrimSpace(msg.Text)
	lower := strings.ToLower(text)
	command := strings.TrimRight(lower, "!.")
	if msg.At.IsZero() {
		msg.At = time.Now()
	}
	if msg.Source == "" {
		msg.Source = domain.SourceAPI
	}

	s.logger.Debug("message received", zap.String("user", msg.User), zap.String("text", text))

	switch {
	case text == "":
		return domain.ChatReply{Kind: domain.ReplyEmpty, Text: emptyMessageText}, nil
	case greetingWords[command]:
		return domain.ChatReply{Kind: domain.ReplyGreeting, Text: helpText()}, nil
	case helpWords[command]:
		return domain.ChatReply{Kind: domain.ReplyHelp, Text: helpText()}, nil
	case listWords[command]:
		return domain.ChatReply{Kind: domain.ReplyFoodList, Text: foodListText(s.catalog.Foods())}, nil
	case IsAddCommand(text):
		return s.addFood(ctx, text)
	case deletePattern.MatchString(lower):
		return s.deleteLast(ctx, msg.User)
	case weeklyPattern.MatchString(lower):
		return s.weekly(ctx, msg.User, msg.At)
	}

	if entry, ok := ParseManualEntry(text); ok {
		meal, err := s.journal.RecordManual(ctx, msg.User, text, msg.At, entry)
		if err != nil {
			return domain.ChatReply{}, err
		}
		return domain.ChatReply{Kind: domain.ReplyManualEntry, Text: manualEntryText(meal), Meal: meal}, nil
	}

	outcome, meal, err := s.LogMeal(ctx, msg)
	if err != nil {
		return domain.ChatReply{}, err
	}

	if o, ok := outcome.(domain.NotAMealMessage); ok {
		switch o.Intent {
		case domain.IntentStats:
			return s.summary(ctx, msg.User, msg.At, outcome)
		case domain.IntentExport:
			return s.export(ctx, msg.User, outcome)
		}
	}

	kind := domain.ReplyMeal
	if meal == nil {
		kind = domain.ReplyNotProcessed
	}
	return domain.ChatReply{Kind: kind, Text: outcomeText(outcome), Outcome: outcome, Meal: meal}, nil
}

// LogMeal classifies msg and persists it when it describes a meal. The
// returned record is nil for outcomes that are not logged.
func (s *ChatService) LogMeal(ctx context.Context, msg IncomingMessage) (domain.MessageOutcome, *domain.MealRecord, error) {
	if msg.At.IsZero() {
		msg.At = time.Now()
	}
	outcome := s.processor.Process(ctx, msg.Text)
	meal, err := s.journal.Record(ctx, msg.User, strings.TrimSpace(msg.Text), msg.Source, msg.At, outcome)
	if err != nil {
		return outcome, nil, err
	}
	return outcome, meal, nil
}

func (s *ChatService) addFood(ctx context.Context, text string) (domain.ChatReply, error) {
	switch cmd := ParseAddCommand(text).(type) {
	case domain.ParseError:
		return domain.ChatReply{Kind: domain.ReplyAddFailed, Text: addUsageText(cmd.Reason)}, nil
	case domain.AddFood:
		entry, err := s.catalog.AddCustomFood(ctx, cmd)
		var (
			dup *domain.DuplicateFoodError
			bad *domain.ValidationError
		)
		switch {
		case errors.As(err, &dup):
			return domain.ChatReply{Kind: domain.ReplyAddFailed, Text: duplicateFoodText(dup)}, nil
		case errors.Is(err, domain.ErrDuplicateFood):
			return domain.ChatReply{Kind: domain.ReplyAddFailed, Text: titleCase(cmd.Name) + " already exists in the database."}, nil
		case errors.As(err, &bad):
			return domain.ChatReply{Kind: domain.ReplyAddFailed, Text: invalidFoodText(bad)}, nil
		case err != nil:
			return domain.ChatReply{}, err
		}
		return domain.ChatReply{Kind: domain.ReplyFoodAdded, Text: foodAddedText(entry)}, nil
	}
	return domain.ChatReply{Kind: domain.ReplyAddFailed, Text: addUsageText("unrecognized command")}, nil
}

func (s *ChatService) deleteLast(ctx context.Context, user string) (domain.ChatReply, error) {
	meal, err := s.journal.DeleteLast(ctx, user)
	if errors.Is(err, domain.ErrNoMealsFound) {
		return domain.ChatReply{Kind: domain.ReplyMealDeleted, Text: noMealsToDeleteText}, nil
	}
	if err != nil {
		return domain.ChatReply{}, err
	}
	return domain.ChatReply{Kind: domain.ReplyMealDeleted, Text: mealDeletedText(meal), Meal: meal}, nil
}

func (s *ChatService) weekly(ctx context.Context, user string, at time.Time) (domain.ChatReply, error) {
	breakdown, err := s.journal.Weekly(ctx, user, at)
	if err != nil {
		return domain.ChatReply{}, err
	}
	return domain.ChatReply{Kind: domain.ReplyWeekly, Text: weeklyText(breakdown)}, nil
}

func (s *ChatService) summary(ctx context.Context, user string, at time.Time, outcome domain.MessageOutcome) (domain.ChatReply, error) {
	summary, recent, err := s.journal.Summary(ctx, user, at)
	if err != nil {
		return domain.ChatReply{}, err
	}
	return domain.ChatReply{Kind: domain.ReplySummary, Text: dailySummaryText(summary, recent), Outcome: outcome}, nil
}

func (s *ChatService) export(ctx context.Context, user string, outcome domain.MessageOutcome) (domain.ChatReply, error) {
	meals, err := s.journal.History(ctx, user, 0)
	if err != nil {
		return domain.ChatReply{}, err
	}
	return domain.ChatReply{Kind: domain.ReplyExport, Text: exportText(user, len(meals)), Outcome: outcome}, nil
}
