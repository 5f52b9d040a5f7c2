package outbound

import (
	"context"

	"github.com/holidaytable/planner/internal/domain/planner"
)

// AIGateway is the single boundary to the generative text service
type AIGateway interface {
	// GenerateRecipe asks for a full dish description and returns it with a fresh id
	GenerateRecipe(ctx context.Context, dishName string, cuisineHint planner.Cuisine) (*planner.Dish, error)
	// SuggestRandomDish returns one dish name for the cuisine
	SuggestRandomDish(ctx context.Context, cuisine planner.Cuisine) (string, error)
	// GetRealTimePrices returns euro unit prices keyed by product name
	GetRealTimePrices(ctx context.Context, names []string) (planner.PriceCache, error)
	// ChatWithAI answers a single free-form question with the given planner context
	ChatWithAI(ctx context.Context, message, plannerContext string) (string, error)
}

// TextGenerator is implemented by each AI provider client
type TextGenerator interface {
	// Name identifies the provider in logs and metrics
	Name() string
	// Generate sends one prompt and returns the reply text
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResponse, error)
	// RequiresCredential reports whether the provider needs an API key
	RequiresCredential() bool
	// HasCredential reports whether an API key was configured
	HasCredential() bool
}

// GenerationRequest is a provider neutral prompt
type GenerationRequest struct {
	Model  string
	Prompt string
	// JSON asks the provider to reply with a JSON document
	JSON bool
	// Schema constrains the JSON reply; implies JSON
	Schema *Schema
	// LiveSearch lets the provider ground the answer in a web search
	LiveSearch bool
	// Temperature is passed through when non-nil
	Temperature *float64
}

// GenerationResponse is the provider reply
type GenerationResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// SchemaType is a JSON schema primitive type
type SchemaType string

const (
	SchemaObject  SchemaType = "object"
	SchemaArray   SchemaType = "array"
	SchemaString  SchemaType = "string"
	SchemaNumber  SchemaType = "number"
	SchemaInteger SchemaType = "integer"
)

// Schema is the subset of JSON schema every provider understands
type Schema struct {
	Type       SchemaType         `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	// Order lists property names in the order the model should emit them
	Order    []string `json:"-"`
	Items    *Schema  `json:"items,omitempty"`
	Enum     []string `json:"enum,omitempty"`
	Required []string `json:"required,omitempty"`
}
