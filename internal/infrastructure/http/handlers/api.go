// Package handlers provides the gin handlers of the JSON API
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	app "github.com/holidaytable/planner/internal/application/planner"
	"github.com/holidaytable/planner/internal/domain/planner"
	"github.com/holidaytable/planner/internal/ports/inbound"
	apperrors "github.com/holidaytable/planner/pkg/errors"
)

// APIHandlers handles REST API requests
type APIHandlers struct {
	planner inbound.PlannerService
	chat    inbound.ChatService
	logger  *zap.Logger
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(
	plannerService inbound.PlannerService,
	chatService inbound.ChatService,
	logger *zap.Logger,
) *APIHandlers {
	return &APIHandlers{
		planner: plannerService,
		chat:    chatService,
		logger:  logger.Named("api"),
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// UpdateSettingsRequest changes the party size and/or duration
type UpdateSettingsRequest struct {
	PeopleCount *int `json:"peopleCount"`
	EventDays   *int `json:"eventDays"`
}

// UpdateDrinkRequest sets the quantity of one catalog drink
type UpdateDrinkRequest struct {
	Count *int `json:"count" binding:"required"`
}

// SuggestDishRequest asks for a random dish name
type SuggestDishRequest struct {
	Cuisine planner.Cuisine `json:"cuisine"`
}

// ChatRequest is one user chat message
type ChatRequest struct {
	Message string `json:"message"`
}

// CatalogResponse lists what the settings and menu forms offer
type CatalogResponse struct {
	Drinks   []planner.DrinkOption `json:"drinks"`
	Cuisines []planner.Cuisine     `json:"cuisines"`
}

// RegisterRoutes mounts the API on rg
func (h *APIHandlers) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/state", h.GetState)
	rg.GET("/catalog", h.GetCatalog)
	rg.PUT("/settings", h.UpdateSettings)
	rg.PUT("/drinks/:id", h.UpdateDrink)
	rg.POST("/dishes", h.AddDish)
	rg.POST("/dishes/suggest", h.SuggestDish)
	rg.DELETE("/dishes/:id", h.RemoveDish)
	rg.GET("/shopping", h.GetShopping)
	rg.POST("/prices/refresh", h.RefreshPrices)
	rg.GET("/chat/:session", h.GetChat)
	rg.POST("/chat/:session", h.SendChat)
}

// GetState handles GET /api/v1/state
func (h *APIHandlers) GetState(c *gin.Context) {
	h.ok(c, http.StatusOK, h.planner.State(c.Request.Context()), "")
}

// GetCatalog handles GET /api/v1/catalog
func (h *APIHandlers) GetCatalog(c *gin.Context) {
	h.ok(c, http.StatusOK, CatalogResponse{
		Drinks:   planner.DrinkCatalog(),
		Cuisines: planner.SelectableCuisines(),
	}, "")
}

// UpdateSettings handles PUT /api/v1/settings
func (h *APIHandlers) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if !h.bind(c, &req) {
		return
	}
	if req.PeopleCount == nil && req.EventDays == nil {
		_ = c.Error(apperrors.NewValidationError("peopleCount or eventDays is required"))
		return
	}

	ctx := c.Request.Context()
	var state planner.AppState
	var err error
	if req.PeopleCount != nil {
		if state, err = h.planner.SetPeopleCount(ctx, *req.PeopleCount); err != nil {
			_ = c.Error(err)
			return
		}
	}
	if req.EventDays != nil {
		if state, err = h.planner.SetEventDays(ctx, *req.EventDays); err != nil {
			_ = c.Error(err)
			return
		}
	}

	h.ok(c, http.StatusOK, state, "Settings updated")
}

// UpdateDrink handles PUT /api/v1/drinks/:id
func (h *APIHandlers) UpdateDrink(c *gin.Context) {
	var req UpdateDrinkRequest
	if !h.bind(c, &req) {
		return
	}

	state, err := h.planner.SetDrinkCount(c.Request.Context(), c.Param("id"), *req.Count)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.ok(c, http.StatusOK, state, "Drink updated")
}

// AddDish handles POST /api/v1/dishes
func (h *APIHandlers) AddDish(c *gin.Context) {
	var cmd inbound.AddDishCommand
	if !h.bind(c, &cmd) {
		return
	}

	dish, err := h.planner.AddDish(c.Request.Context(), cmd)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.ok(c, http.StatusCreated, dish, "Dish added")
}

// SuggestDish handles POST /api/v1/dishes/suggest
func (h *APIHandlers) SuggestDish(c *gin.Context) {
	var req SuggestDishRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}

	name, err := h.planner.SuggestDish(c.Request.Context(), req.Cuisine)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"name": name}, "")
}

// RemoveDish handles DELETE /api/v1/dishes/:id
func (h *APIHandlers) RemoveDish(c *gin.Context) {
	state, err := h.planner.RemoveDish(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.ok(c, http.StatusOK, state, "Dish removed")
}

// GetShopping handles GET /api/v1/shopping
func (h *APIHandlers) GetShopping(c *gin.Context) {
	h.ok(c, http.StatusOK, app.NewShoppingView(h.planner.ShoppingList(c.Request.Context())), "")
}

// RefreshPrices handles POST /api/v1/prices/refresh
func (h *APIHandlers) RefreshPrices(c *gin.Context) {
	ctx := c.Request.Context()
	prices, err := h.planner.RefreshPrices(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.ok(c, http.StatusOK, gin.H{
		"received": prices,
		"shopping": app.NewShoppingView(h.planner.ShoppingList(ctx)),
	}, "Prices refreshed")
}

// GetChat handles GET /api/v1/chat/:session
func (h *APIHandlers) GetChat(c *gin.Context) {
	h.ok(c, http.StatusOK, h.chat.Transcript(c.Param("session")), "")
}

// SendChat handles POST /api/v1/chat/:session. A failed AI call still
// answers 200: the transcript carries the error reply.
func (h *APIHandlers) SendChat(c *gin.Context) {
	var req ChatRequest
	if !h.bind(c, &req) {
		return
	}

	transcript, err := h.chat.Send(c.Request.Context(), c.Param("session"), req.Message)
	if err != nil {
		h.logger.Warn("Chat turn failed", zap.String("session", c.Param("session")), zap.Error(err))
	}
	h.ok(c, http.StatusOK, transcript, "")
}

func (h *APIHandlers) bind(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		msg := err.Error()
		if strings.Contains(msg, "EOF") {
			msg = "request body is required"
		}
		_ = c.Error(apperrors.NewBadRequestError("Invalid JSON payload").WithMetadata("reason", msg))
		return false
	}
	return true
}

func (h *APIHandlers) ok(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, APIResponse{Success: true, Data: data, Message: message})
}
