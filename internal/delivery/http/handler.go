package http

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mealtrack/backend/internal/domain"
	"github.com/mealtrack/backend/internal/usecase"
	"go.uber.org/zap"
)

const (
	serviceName    = "mealtrack-backend"
	serviceVersion = "1.0.0"

	webhookErrorText = "Sorry, I encountered an error. Please try again later."
	suggestionLimit  = 5
)

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Services bundles the use cases the HTTP layer talks to
type Services struct {
	Chat      *usecase.ChatService
	Catalog   *usecase.CatalogService
	Processor *usecase.MealProcessor
	Journal   *usecase.MealJournal
	Database  HealthChecker // optional
	ModelMode bool          // true when the LLM extractor is wired in
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	services Services
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		services: services,
		logger:   logger.Named("http"),
		now:      time.Now,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	database := "not configured"
	if h.services.Database != nil {
		database = "connected"
		if err := h.services.Database.Ping(c.Request.Context()); err != nil {
			database = "error: " + err.Error()
		}
	}

	parserMode := "rule-based"
	if h.services.ModelMode {
		parserMode = "llm"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"service":     serviceName,
		"version":     serviceVersion,
		"timestamp":   h.now().Format(time.RFC3339),
		"database":    database,
		"parser_mode": parserMode,
		"foods":       len(h.services.Catalog.Foods()),
	})
}

// Ping answers keep-alive probes
func (h *Handler) Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

type twimlMessage struct {
	Body string `xml:",chardata"`
}

type twimlResponse struct {
	XMLName xml.Name       `xml:"Response"`
	Message []twimlMessage `xml:"Message"`
}

// Webhook handles Twilio WhatsApp form posts and answers with TwiML
func (h *Handler) Webhook(c *gin.Context) {
	msg := usecase.IncomingMessage{
		User:   c.PostForm("From"),
		Text:   c.PostForm("Body"),
		Source: domain.SourceWhatsApp,
		At:     h.now(),
	}

	text := webhookErrorText
	reply, err := h.services.Chat.HandleMessage(c.Request.Context(), msg)
	if err != nil {
		h.logger.Error("webhook message failed", zap.String("user", msg.User), zap.Error(err))
	} else {
		text = reply.Text
	}

	c.XML(http.StatusOK, twimlResponse{Message: []twimlMessage{{Body: text}}})
}

// MessageRequest is a chat message sent through the JSON API
type MessageRequest struct {
	User string `json:"user" binding:"required"`
	Text string `json:"text"`
}

// PostMessage runs a message through the same routing as the webhook
func (h *Handler) PostMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	reply, err := h.services.Chat.HandleMessage(c.Request.Context(), usecase.IncomingMessage{
		User:   req.User,
		Text:   req.Text,
		Source: domain.SourceAPI,
		At:     h.now(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	body := gin.H{"kind": reply.Kind, "reply": reply.Text}
	if reply.Outcome != nil {
		body["status"] = reply.Outcome.Kind()
		body["result"] = reply.Outcome
	}
	if reply.Meal != nil {
		body["meal"] = reply.Meal
	}
	c.JSON(http.StatusOK, body)
}

// ParseRequest asks for a dry-run parse of a meal description
type ParseRequest struct {
	Message string `json:"message" binding:"required"`
}

// ParseMeal classifies a message without storing anything
func (h *Handler) ParseMeal(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	outcome := h.services.Processor.Process(c.Request.Context(), req.Message)
	c.JSON(http.StatusOK, gin.H{"status": outcome.Kind(), "result": outcome})
}

// LogMealRequest logs a meal description for a user
type LogMealRequest struct {
	Description string `json:"description" binding:"required"`
}

// LogMeal classifies a description and stores it when it is a meal
func (h *Handler) LogMeal(c *gin.Context) {
	var req LogMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	outcome, meal, err := h.services.Chat.LogMeal(c.Request.Context(), usecase.IncomingMessage{
		User:   c.Param("user"),
		Text:   req.Description,
		Source: domain.SourceAPI,
		At:     h.now(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	status := http.StatusOK
	body := gin.H{"status": outcome.Kind(), "result": outcome}
	if meal != nil {
		status = http.StatusCreated
		body["meal"] = meal
	}
	c.JSON(status, body)
}

// ListFoods returns the catalog, or suggestions when q is set
func (h *Handler) ListFoods(c *gin.Context) {
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		c.JSON(http.StatusOK, gin.H{
			"query":       q,
			"suggestions": h.services.Catalog.Suggest(q, suggestionLimit),
		})
		return
	}

	foods := h.services.Catalog.Foods()
	c.JSON(http.StatusOK, gin.H{"count": len(foods), "foods": foods})
}

// AddFood registers a custom food
func (h *Handler) AddFood(c *gin.Context) {
	var req domain.AddFood
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	entry, err := h.services.Catalog.AddCustomFood(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// RemoveFood deletes a custom food
func (h *Handler) RemoveFood(c *gin.Context) {
	if err := h.services.Catalog.RemoveCustomFood(c.Request.Context(), c.Param("name")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DailySummary returns a user's totals for one day (?date=YYYY-MM-DD, default today)
func (h *Handler) DailySummary(c *gin.Context) {
	day := h.now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, day.Location())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	summary, recent, err := h.services.Journal.Summary(c.Request.Context(), c.Param("user"), day)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "recent_meals": recent})
}

// WeeklyBreakdown returns the last seven days for a user
func (h *Handler) WeeklyBreakdown(c *gin.Context) {
	week, err := h.services.Journal.Weekly(c.Request.Context(), c.Param("user"), h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, week)
}

// ListMeals exports a user's meals newest first (?limit=N, default all)
func (h *Handler) ListMeals(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	user := c.Param("user")
	meals, err := h.services.Journal.History(c.Request.Context(), user, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "count": len(meals), "meals": meals})
}

// DeleteLastMeal removes the user's most recent meal
func (h *Handler) DeleteLastMeal(c *gin.Context) {
	meal, err := h.services.Journal.DeleteLast(c.Request.Context(), c.Param("user"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": meal})
}

// respondError maps domain errors onto status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		duplicate  *domain.DuplicateFoodError
		validation *domain.ValidationError
	)

	switch {
	case errors.As(err, &duplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "existing": duplicate.Existing})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": validation.Field})
	case errors.Is(err, domain.ErrDuplicateFood):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidFood), errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoMealsFound), errors.Is(err, domain.ErrFoodNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
