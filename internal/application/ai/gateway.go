// Package ai implements the planner's AI gateway on top of a text generation provider
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/holidaytable/planner/internal/domain/planner"
	"github.com/holidaytable/planner/internal/ports/outbound"
	apperrors "github.com/holidaytable/planner/pkg/errors"
)

// Operation names used in logs, metrics and spans
const (
	OpGenerateRecipe    = "generate_recipe"
	OpSuggestRandomDish = "suggest_random_dish"
	OpGetPrices         = "get_prices"
	OpChat              = "chat"
)

const (
	// MaxPriceQueryItems caps how many product names go into one price prompt
	MaxPriceQueryItems = 15

	FallbackDishName  = "Борщ"
	FallbackChatReply = "Вибачте, я не можу відповісти зараз."

	anyCuisine = "будь-яка"
)

// Models names the model used for each operation
type Models struct {
	Recipe     string `mapstructure:"recipe"`
	RandomDish string `mapstructure:"random_dish"`
	Prices     string `mapstructure:"prices"`
	Chat       string `mapstructure:"chat"`
}

// DefaultModels returns the Gemini models each operation was tuned for
func DefaultModels() Models {
	return Models{
		Recipe:     "gemini-2.5-flash",
		RandomDish: "gemini-2.5-flash-lite",
		Prices:     "gemini-2.5-flash",
		Chat:       "gemini-3-pro-preview",
	}
}

// WithDefaults fills empty model names from DefaultModels
func (m Models) WithDefaults() Models {
	d := DefaultModels()
	if m.Recipe == "" {
		m.Recipe = d.Recipe
	}
	if m.RandomDish == "" {
		m.RandomDish = d.RandomDish
	}
	if m.Prices == "" {
		m.Prices = d.Prices
	}
	if m.Chat == "" {
		m.Chat = d.Chat
	}
	return m
}

// Recorder receives one observation per gateway call
type Recorder interface {
	AIRequest(operation, provider, status string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) AIRequest(string, string, string, time.Duration) {}

// Gateway implements outbound.AIGateway
type Gateway struct {
	generator outbound.TextGenerator
	models    Models
	validate  *validator.Validate
	metrics   Recorder
	tracer    trace.Tracer
	logger    *zap.Logger
}

var _ outbound.AIGateway = (*Gateway)(nil)

// Option customizes a Gateway
type Option func(*Gateway)

// WithRecorder reports every call to r
func WithRecorder(r Recorder) Option {
	return func(g *Gateway) {
		if r != nil {
			g.metrics = r
		}
	}
}

// WithTracer opens spans on t instead of the global tracer
func WithTracer(t trace.Tracer) Option {
	return func(g *Gateway) {
		if t != nil {
			g.tracer = t
		}
	}
}

// NewGateway creates a new AI gateway
func NewGateway(generator outbound.TextGenerator, models Models, logger *zap.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		generator: generator,
		models:    models.WithDefaults(),
		validate:  validator.New(),
		metrics:   nopRecorder{},
		tracer:    otel.Tracer("github.com/holidaytable/planner/ai"),
		logger:    logger.Named("ai-gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.logger.Info("AI gateway initialized",
		zap.String("provider", generator.Name()),
		zap.Bool("credential_configured", !generator.RequiresCredential() || generator.HasCredential()))
	return g
}

// Provider returns the name of the underlying provider
func (g *Gateway) Provider() string { return g.generator.Name() }

// GenerateRecipe asks for a full dish description and returns it with a fresh id
func (g *Gateway) GenerateRecipe(ctx context.Context, dishName string, cuisineHint planner.Cuisine) (dish *planner.Dish, err error) {
	ctx, done := g.begin(ctx, OpGenerateRecipe, attribute.String("dish.name", dishName))
	defer func() { done(err, false) }()

	resp, err := g.call(ctx, OpGenerateRecipe, outbound.GenerationRequest{
		Model:  g.models.Recipe,
		Prompt: recipePrompt(dishName, cuisineHint),
		JSON:   true,
		Schema: recipeSchema(),
	})
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, apperrors.NewAIEmptyReplyError(OpGenerateRecipe)
	}

	var reply recipeReply
	if err := json.Unmarshal([]byte(extractJSON(text)), &reply); err != nil {
		g.logger.Warn("Recipe reply is not valid JSON", zap.String("dish", dishName), zap.Error(err))
		return nil, apperrors.NewAIDecodeError(OpGenerateRecipe, err)
	}
	if err := g.validate.Struct(reply); err != nil {
		g.logger.Warn("Recipe reply failed validation", zap.String("dish", dishName), zap.Error(err))
		return nil, apperrors.NewAIDecodeError(OpGenerateRecipe, err)
	}
	if reply.BaseServings != math.Trunc(reply.BaseServings) {
		err := fmt.Errorf("baseServings %v is not a whole number", reply.BaseServings)
		return nil, apperrors.NewAIDecodeError(OpGenerateRecipe, err)
	}

	d := reply.toDish(uuid.NewString())
	g.logger.Info("Recipe generated",
		zap.String("dish_id", d.ID),
		zap.String("name", d.Name),
		zap.Int("ingredients", len(d.Ingredients)))
	return &d, nil
}

// SuggestRandomDish returns one dish name for the cuisine, or a fixed fallback
func (g *Gateway) SuggestRandomDish(ctx context.Context, cuisine planner.Cuisine) (name string, err error) {
	ctx, done := g.begin(ctx, OpSuggestRandomDish, attribute.String("cuisine", string(cuisine)))
	fallback := false
	defer func() { done(err, fallback) }()

	resp, err := g.call(ctx, OpSuggestRandomDish, outbound.GenerationRequest{
		Model:  g.models.RandomDish,
		Prompt: randomDishPrompt(cuisine),
	})
	if err != nil {
		return "", err
	}

	name = strings.TrimSpace(resp.Text)
	if name == "" {
		fallback = true
		return FallbackDishName, nil
	}
	return name, nil
}

// GetRealTimePrices returns euro unit prices keyed by product name.
// Unparseable replies yield an empty map rather than an error.
func (g *Gateway) GetRealTimePrices(ctx context.Context, names []string) (prices planner.PriceCache, err error) {
	if err := g.checkCredential(); err != nil {
		return nil, err
	}
	prices = planner.PriceCache{}
	if len(names) == 0 {
		return prices, nil
	}
	if len(names) > MaxPriceQueryItems {
		names = names[:MaxPriceQueryItems]
	}

	ctx, done := g.begin(ctx, OpGetPrices, attribute.Int("items", len(names)))
	fallback := false
	defer func() { done(err, fallback) }()

	resp, err := g.call(ctx, OpGetPrices, outbound.GenerationRequest{
		Model:      g.models.Prices,
		Prompt:     pricesPrompt(names),
		JSON:       true,
		LiveSearch: true,
	})
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		fallback = true
		g.logger.Warn("Empty price reply")
		return prices, nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(extractJSON(text)), &raw); err != nil {
		fallback = true
		g.logger.Warn("Price reply is not a JSON object", zap.Error(err))
		return prices, nil
	}

	for name, v := range raw {
		if p, ok := toPrice(v); ok && strings.TrimSpace(name) != "" {
			prices[name] = p
		}
	}

	g.logger.Info("Prices fetched",
		zap.Int("requested", len(names)),
		zap.Int("received", len(prices)))
	return prices, nil
}

// ChatWithAI answers a single free-form question with the given planner context
func (g *Gateway) ChatWithAI(ctx context.Context, message, plannerContext string) (reply string, err error) {
	ctx, done := g.begin(ctx, OpChat)
	fallback := false
	defer func() { done(err, fallback) }()

	resp, err := g.call(ctx, OpChat, outbound.GenerationRequest{
		Model:  g.models.Chat,
		Prompt: chatPrompt(message, plannerContext),
	})
	if err != nil {
		return "", err
	}

	reply = strings.TrimSpace(resp.Text)
	if reply == "" {
		fallback = true
		return FallbackChatReply, nil
	}
	return reply, nil
}

func (g *Gateway) checkCredential() error {
	if g.generator.RequiresCredential() && !g.generator.HasCredential() {
		return apperrors.NewMissingCredentialError(g.generator.Name())
	}
	return nil
}

// call checks the credential and forwards the request to the provider
func (g *Gateway) call(ctx context.Context, operation string, req outbound.GenerationRequest) (*outbound.GenerationResponse, error) {
	if err := g.checkCredential(); err != nil {
		return nil, err
	}

	resp, err := g.generator.Generate(ctx, req)
	if err != nil {
		g.logger.Error("AI request failed",
			zap.String("operation", operation),
			zap.String("model", req.Model),
			zap.Error(err))
		return nil, apperrors.NewExternalServiceError(g.generator.Name(), err)
	}

	g.logger.Debug("AI request completed",
		zap.String("operation", operation),
		zap.String("model", resp.Model),
		zap.Int("tokens", resp.TokensUsed))
	return resp, nil
}

// begin opens a span and returns a func that closes it and records metrics
func (g *Gateway) begin(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(err error, fallback bool)) {
	start := time.Now()
	attrs = append(attrs,
		attribute.String("ai.operation", operation),
		attribute.String("ai.provider", g.generator.Name()))
	ctx, span := g.tracer.Start(ctx, "ai."+operation, trace.WithAttributes(attrs...))

	return ctx, func(err error, fallback bool) {
		status := "success"
		switch {
		case err != nil:
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case fallback:
			status = "fallback"
		}
		span.SetAttributes(attribute.String("ai.status", status))
		span.End()
		g.metrics.AIRequest(operation, g.generator.Name(), status, time.Since(start))
	}
}

// extractJSON trims prose or code fences around the outermost JSON object
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return text
	}
	return text[start : end+1]
}

func toPrice(v interface{}) (float64, bool) {
	var p float64
	switch n := v.(type) {
	case float64:
		p = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(strings.Replace(n, ",", ".", 1)), 64)
		if err != nil {
			return 0, false
		}
		p = parsed
	default:
		return 0, false
	}
	if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, false
	}
	return p, true
}

type ingredientReply struct {
	Name   string  `json:"name" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
	Unit   string  `json:"unit"`
}

type recipeReply struct {
	Name         string            `json:"name" validate:"required"`
	Emoji        string            `json:"emoji"`
	Cuisine      string            `json:"cuisine" validate:"required,oneof=українська німецька японська європейська інша"`
	BaseServings float64           `json:"baseServings" validate:"gte=1"`
	Ingredients  []ingredientReply `json:"ingredients" validate:"min=1,dive"`
	Instructions []string          `json:"instructions"`
}

func (r recipeReply) toDish(id string) planner.Dish {
	d := planner.Dish{
		ID:           id,
		Name:         strings.TrimSpace(r.Name),
		Emoji:        r.Emoji,
		Cuisine:      planner.Cuisine(r.Cuisine),
		BaseServings: int(r.BaseServings),
		Ingredients:  make([]planner.Ingredient, 0, len(r.Ingredients)),
		Instructions: make([]string, 0, len(r.Instructions)),
	}
	for _, ing := range r.Ingredients {
		d.Ingredients = append(d.Ingredients, planner.Ingredient{
			Name:   strings.TrimSpace(ing.Name),
			Amount: ing.Amount,
			Unit:   strings.TrimSpace(ing.Unit),
		})
	}
	d.Instructions = append(d.Instructions, r.Instructions...)
	return d
}

func recipePrompt(dishName string, cuisine planner.Cuisine) string {
	hint := string(cuisine)
	if strings.TrimSpace(hint) == "" {
		hint = anyCuisine
	}
	return fmt.Sprintf("Створи детальний рецепт для страви: \"%s\".\n"+
		"Кухня: %s.\n"+
		"Поверни JSON об'єкт.\n"+
		"Використовуй емодзі для поля \"emoji\", яке найкраще описує страву.\n"+
		"Кількість порцій за замовчуванням (baseServings) має бути 4.\n"+
		"Інгредієнти повинні мати числові значення для кількості (amount).", dishName, hint)
}

func randomDishPrompt(cuisine planner.Cuisine) string {
	return fmt.Sprintf("Напиши тільки одну назву популярної страви для кухні: %s. Лише назва, без зайвих слів.", cuisine)
}

func pricesPrompt(names []string) string {
	return fmt.Sprintf("Знайди актуальні середні ціни в супермаркетах Європи (в Євро) для наступних продуктів: %s.\n"+
		"Поверни JSON об'єкт, де ключ - це назва продукту, а значення - ціна за одиницю (наприклад за 1 кг або 1 шт) числом.",
		strings.Join(names, ", "))
}

func chatPrompt(message, plannerContext string) string {
	return fmt.Sprintf("Ти помічник з планування святкового столу. Контекст поточного меню: %s. Питання користувача: %s",
		plannerContext, message)
}

func recipeSchema() *outbound.Schema {
	cuisines := []string{
		string(planner.CuisineUkrainian),
		string(planner.CuisineGerman),
		string(planner.CuisineJapanese),
		string(planner.CuisineEuropean),
		string(planner.CuisineOther),
	}
	return &outbound.Schema{
		Type:  outbound.SchemaObject,
		Order: []string{"name", "emoji", "cuisine", "baseServings", "ingredients", "instructions"},
		Properties: map[string]*outbound.Schema{
			"name":         {Type: outbound.SchemaString},
			"emoji":        {Type: outbound.SchemaString},
			"cuisine":      {Type: outbound.SchemaString, Enum: cuisines},
			"baseServings": {Type: outbound.SchemaInteger},
			"ingredients": {
				Type: outbound.SchemaArray,
				Items: &outbound.Schema{
					Type:  outbound.SchemaObject,
					Order: []string{"name", "amount", "unit"},
					Properties: map[string]*outbound.Schema{
						"name":   {Type: outbound.SchemaString},
						"amount": {Type: outbound.SchemaNumber},
						"unit":   {Type: outbound.SchemaString},
					},
					Required: []string{"name", "amount", "unit"},
				},
			},
			"instructions": {
				Type:  outbound.SchemaArray,
				Items: &outbound.Schema{Type: outbound.SchemaString},
			},
		},
		Required: []string{"name", "emoji", "cuisine", "baseServings", "ingredients", "instructions"},
	}
}
