// Package mcp exposes the meal engine as MCP tool calls over HTTP.
package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/gin-gonic/gin"
	"github.com/mealtrack/backend/internal/domain"
	"github.com/mealtrack/backend/internal/usecase"
	"go.uber.org/zap"
)

// Tool names
const (
	ToolParseMeal = "parse_meal"
	ToolLogMeal   = "log_meal"
	ToolAddFood   = "add_food"
	ToolListFoods = "list_foods"
)

const suggestionLimit = 5

// toolError is a failed call the client can fix
type toolError struct {
	status int
	msg    string
}

func (e *toolError) Error() string { return e.msg }

func badRequest(format string, args ...interface{}) error {
	return &toolError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// ParseMealParams are the parse_meal arguments
type ParseMealParams struct {
	Message string `json:"message" description:"Free-text meal description"`
}

// LogMealParams are the log_meal arguments
type LogMealParams struct {
	User        string `json:"user" description:"User the meal belongs to"`
	Description string `json:"description" description:"Description of the meal eaten"`
	Timestamp   string `json:"timestamp,omitempty" description:"RFC 3339 time the meal was eaten (defaults to now)"`
}

// AddFoodParams are the add_food arguments
type AddFoodParams struct {
	Name        string  `json:"name" description:"Food name"`
	Calories    float64 `json:"calories" description:"kcal per serving"`
	Protein     float64 `json:"protein" description:"grams of protein per serving"`
	ServingSize string  `json:"serving_size,omitempty" description:"Serving description"`
}

// ListFoodsParams are the list_foods arguments
type ListFoodsParams struct {
	Query string `json:"query,omitempty" description:"Optional name to find close matches for"`
}

type toolFunc func(c *gin.Context, req *protocol.CallToolRequest) (interface{}, error)

// Handler answers MCP tool calls
type Handler struct {
	chat      *usecase.ChatService
	catalog   *usecase.CatalogService
	processor *usecase.MealProcessor
	tools     map[string]toolFunc
	logger    *zap.Logger
	now       func() time.Time
}

// NewHandler creates an MCP handler over the meal use cases
func NewHandler(chat *usecase.ChatService, catalog *usecase.CatalogService, processor *usecase.MealProcessor, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		chat:      chat,
		catalog:   catalog,
		processor: processor,
		logger:    logger.Named("mcp"),
		now:       time.Now,
	}
	h.tools = map[string]toolFunc{
		ToolParseMeal: h.parseMeal,
		ToolLogMeal:   h.logMeal,
		ToolAddFood:   h.addFood,
		ToolListFoods: h.listFoods,
	}
	return h
}

// Register mounts POST /mcp
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/mcp", h.Handle)
}

// Handle decodes a CallToolRequest and routes it by tool name
func (h *Handler) Handle(c *gin.Context) {
	var request protocol.CallToolRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid JSON: %v", err)})
		return
	}

	tool, ok := h.tools[request.Name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Unknown tool: %s", request.Name)})
		return
	}

	data, err := tool(c, &request)
	if err != nil {
		var te *toolError
		if errors.As(err, &te) {
			c.JSON(te.status, gin.H{"error": te.msg})
			return
		}
		h.logger.Error("tool call failed", zap.String("tool", request.Name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	result, err := textResult(data)
	if err != nil {
		h.logger.Error("failed to encode tool result", zap.String("tool", request.Name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// textResult wraps data as a single JSON text content block
func textResult(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}

// extractParams converts the request arguments into target
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return badRequest("invalid arguments: %v", err)
	}
	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return badRequest("invalid arguments: %v", err)
	}
	return nil
}

func (h *Handler) parseMeal(c *gin.Context, req *protocol.CallToolRequest) (interface{}, error) {
	var params ParseMealParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Message) == "" {
		return nil, badRequest("message is required")
	}

	outcome := h.processor.Process(c.Request.Context(), params.Message)
	return gin.H{"status": outcome.Kind(), "result": outcome}, nil
}

func (h *Handler) logMeal(c *gin.Context, req *protocol.CallToolRequest) (interface{}, error) {
	var params LogMealParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.User == "" {
		return nil, badRequest("user is required")
	}
	if strings.TrimSpace(params.Description) == "" {
		return nil, badRequest("meal description is required")
	}

	at := h.now()
	if params.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, params.Timestamp)
		if err != nil {
			return nil, badRequest("timestamp must be RFC 3339: %v", err)
		}
		at = parsed
	}

	outcome, meal, err := h.chat.LogMeal(c.Request.Context(), usecase.IncomingMessage{
		User:   params.User,
		Text:   params.Description,
		Source: domain.SourceMCP,
		At:     at,
	})
	if err != nil {
		return nil, err
	}

	response := gin.H{"status": outcome.Kind(), "result": outcome, "logged": meal != nil}
	if meal != nil {
		response["meal"] = meal
	}
	return response, nil
}

func (h *Handler) addFood(c *gin.Context, req *protocol.CallToolRequest) (interface{}, error) {
	var params AddFoodParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	entry, err := h.catalog.AddCustomFood(c.Request.Context(), domain.AddFood{
		Name:        params.Name,
		Calories:    params.Calories,
		Protein:     params.Protein,
		ServingSize: params.ServingSize,
	})
	switch {
	case errors.Is(err, domain.ErrDuplicateFood):
		return nil, &toolError{status: http.StatusConflict, msg: err.Error()}
	case errors.Is(err, domain.ErrInvalidFood):
		return nil, badRequest("%v", err)
	case err != nil:
		return nil, err
	}
	return gin.H{"added": entry}, nil
}

func (h *Handler) listFoods(c *gin.Context, req *protocol.CallToolRequest) (interface{}, error) {
	var params ListFoodsParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	if q := strings.TrimSpace(params.Query); q != "" {
		return gin.H{"query": q, "suggestions": h.catalog.Suggest(q, suggestionLimit)}, nil
	}
	foods := h.catalog.Foods()
	return gin.H{"count": len(foods), "foods": foods}, nil
}
