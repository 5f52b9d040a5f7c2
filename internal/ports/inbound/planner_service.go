// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces the web UI, the JSON API and the terminal UI drive
package inbound

import (
	"context"
	"time"

	"github.com/holidaytable/planner/internal/domain/planner"
)

// PlannerService owns the planner state. Every mutation goes through
// Dispatch and is persisted before the call returns.
type PlannerService interface {
	// Queries
	State(ctx context.Context) planner.AppState
	ShoppingList(ctx context.Context) planner.Estimate

	// Dispatch applies one reducer action and persists the result
	Dispatch(ctx context.Context, action planner.Action) (planner.AppState, error)

	// Settings view
	SetPeopleCount(ctx context.Context, count int) (planner.AppState, error)
	SetEventDays(ctx context.Context, days int) (planner.AppState, error)
	SetDrinkCount(ctx context.Context, drinkID string, count int) (planner.AppState, error)

	// Menu view
	AddDish(ctx context.Context, cmd AddDishCommand) (*planner.Dish, error)
	SuggestDish(ctx context.Context, cuisine planner.Cuisine) (string, error)
	RemoveDish(ctx context.Context, dishID string) (planner.AppState, error)

	// Shopping view
	RefreshPrices(ctx context.Context) (planner.PriceCache, error)
}

// AddDishCommand asks the AI for a recipe and appends it to the menu
type AddDishCommand struct {
	Name    string          `json:"name" validate:"required,max=200"`
	Cuisine planner.Cuisine `json:"cuisine"`
}

// ChatService keeps one transcript per session
type ChatService interface {
	Transcript(sessionID string) ChatTranscript
	Send(ctx context.Context, sessionID, message string) (ChatTranscript, error)
}

// ChatRole tells who wrote a chat message
type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// ChatMessage is one line of the transcript
type ChatMessage struct {
	Role   ChatRole  `json:"role"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// ChatTranscript is a snapshot of a session
type ChatTranscript struct {
	SessionID string        `json:"session_id"`
	Messages  []ChatMessage `json:"messages"`
	Thinking  bool          `json:"thinking"`
}
