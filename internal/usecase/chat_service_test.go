package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mealtrack/backend/internal/domain"
)

func newTestChatService(t *testing.T) (*ChatService, *MockMealRepository) {
	t.Helper()
	catalog := newTestCatalogService(t, &MockCustomFoodRepository{})
	resolver := NewFuzzyResolver(ResolverConfig{}, nil)
	processor := NewMealProcessor(catalog, NewRuleExtractor(resolver, nil), resolver, MealProcessorConfig{}, nil)
	meals := NewMockMealRepository()
	return NewChatService(catalog, processor, NewMealJournal(meals, nil), nil), meals
}

var lunchTime = time.Date(2024, 3, 12, 13, 15, 0, 0, time.UTC)

func send(t *testing.T, svc *ChatService, text string) domain.ChatReply {
	t.Helper()
	reply, err := svc.HandleMessage(context.Background(), IncomingMessage{
		User:   "alice",
		Text:   text,
		Source: domain.SourceWhatsApp,
		At:     lunchTime,
	})
	if err != nil {
		t.Fatalf("HandleMessage(%q) error = %v", text, err)
	}
	return reply
}

func TestChatServiceRouting(t *testing.T) {
	tests := []struct {
		text     string
		kind     domain.ReplyKind
		contains string
	}{
		{"", domain.ReplyEmpty, "what you ate"},
		{"Hi!", domain.ReplyGreeting, "Welcome"},
		{"good morning", domain.ReplyGreeting, "Welcome"},
		{"help", domain.ReplyHelp, "Commands"},
		{"?", domain.ReplyHelp, "Commands"},
		{"Menu", domain.ReplyFoodList, "Breads\nidli, roti"},
		{"add protein shake 120", domain.ReplyAddFailed, "Usage"},
		{"add water, 0, 0, 1 glass", domain.ReplyAddFailed, "calories must be > 0"},
		{"add Roti 80 3 1 piece", domain.ReplyAddFailed, "already exists"},
		{"undo", domain.ReplyMealDeleted, "No meals found"},
		{"weekly", domain.ReplyWeekly, "Weekly Breakdown"},
		{"went for a walk", domain.ReplyNotProcessed, "couldn't find any food"},
		{"export", domain.ReplyExport, "No meals to export"},
		{"summary", domain.ReplySummary, "Meals logged: 0"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			svc, _ := newTestChatService(t)
			reply := send(t, svc, tt.text)
			if reply.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s", reply.Kind, tt.kind)
			}
			if !strings.Contains(reply.Text, tt.contains) {
				t.Errorf("Text = %q, want it to contain %q", reply.Text, tt.contains)
			}
		})
	}
}

func TestChatServiceLogsMeals(t *testing.T) {
	svc, meals := newTestChatService(t)

	reply := send(t, svc, "2 rotis and dal")
	if reply.Kind != domain.ReplyMeal || reply.Meal == nil {
		t.Fatalf("reply = %+v, want logged meal", reply)
	}
	if !strings.Contains(reply.Text, "Calories: 260 kcal") || !strings.Contains(reply.Text, "2x Roti (1 piece)") {
		t.Errorf("Text = %q", reply.Text)
	}

	if len(meals.meals) != 1 {
		t.Fatalf("stored %d meals, want 1", len(meals.meals))
	}
	stored := meals.meals[0]
	if stored.ItemsExtracted != "2x roti, 1x dal" {
		t.Errorf("ItemsExtracted = %q", stored.ItemsExtracted)
	}
	if stored.MealTag != domain.MealTagLunch || stored.Source != domain.SourceWhatsApp || stored.ID == "" {
		t.Errorf("stored = %+v", stored)
	}
	if !meals.users["alice"] {
		t.Error("user should be registered")
	}

	partial := send(t, svc, "dal and pizza")
	if !strings.Contains(partial.Text, "not found in database: pizza") {
		t.Errorf("partial Text = %q", partial.Text)
	}
	if got := meals.meals[1].ItemsExtracted; got != "1x dal (unmatched: pizza)" {
		t.Errorf("partial ItemsExtracted = %q", got)
	}

	summary := send(t, svc, "summary")
	if !strings.Contains(summary.Text, "Meals logged: 2") || !strings.Contains(summary.Text, "Total Calories: 380 kcal") {
		t.Errorf("summary Text = %q", summary.Text)
	}

	export := send(t, svc, "export")
	if !strings.Contains(export.Text, "2 meals") || !strings.Contains(export.Text, "/api/v1/users/alice/meals") {
		t.Errorf("export Text = %q", export.Text)
	}

	deleted := send(t, svc, "delete")
	if deleted.Meal == nil || deleted.Meal.Description != "dal and pizza" {
		t.Errorf("deleted = %+v", deleted.Meal)
	}
	if len(meals.meals) != 1 {
		t.Errorf("%d meals left, want 1", len(meals.meals))
	}
}

func TestChatServiceManualEntry(t *testing.T) {
	svc, meals := newTestChatService(t)

	reply := send(t, svc, "500 calories 30g protein")
	if reply.Kind != domain.ReplyManualEntry {
		t.Fatalf("Kind = %s, want manual_entry", reply.Kind)
	}
	if len(meals.meals) != 1 || meals.meals[0].TotalCalories != 500 || meals.meals[0].Source != domain.SourceManual {
		t.Errorf("stored = %+v", meals.meals)
	}
}

func TestChatServiceAddThenLog(t *testing.T) {
	svc, _ := newTestChatService(t)

	added := send(t, svc, "add protein shake 120 30 1 scoop")
	if added.Kind != domain.ReplyFoodAdded {
		t.Fatalf("Kind = %s, text = %q", added.Kind, added.Text)
	}

	reply := send(t, svc, "2 protein shake")
	if reply.Kind != domain.ReplyMeal || !strings.Contains(reply.Text, "Calories: 240 kcal") {
		t.Errorf("reply = %+v", reply)
	}
}

func TestChatServiceStoreFailure(t *testing.T) {
	svc, meals := newTestChatService(t)
	meals.logErr = errors.New("database is locked")

	_, err := svc.HandleMessage(context.Background(), IncomingMessage{User: "bob", Text: "dal", At: lunchTime})
	if err == nil {
		t.Error("expected storage error to surface")
	}
}

func TestChatServiceAddRejectedByStore(t *testing.T) {
	catalog := newTestCatalogService(t, &MockCustomFoodRepository{addErr: domain.ErrDuplicateFood})
	resolver := NewFuzzyResolver(ResolverConfig{}, nil)
	processor := NewMealProcessor(catalog, NewRuleExtractor(resolver, nil), resolver, MealProcessorConfig{}, nil)
	svc := NewChatService(catalog, processor, NewMealJournal(NewMockMealRepository(), nil), nil)

	reply := send(t, svc, "add oats 150 5 1 bowl")
	if reply.Kind != domain.ReplyAddFailed || !strings.Contains(reply.Text, "Oats already exists") {
		t.Errorf("reply = %+v, want already exists", reply)
	}
}
