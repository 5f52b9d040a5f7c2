package ai_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/holidaytable/planner/internal/application/ai"
	"github.com/holidaytable/planner/internal/domain/planner"
	"github.com/holidaytable/planner/internal/ports/outbound"
	apperrors "github.com/holidaytable/planner/pkg/errors"
	"github.com/holidaytable/planner/test/testutils"
)

type recordedCall struct {
	operation, provider, status string
}

type fakeRecorder struct {
	calls []recordedCall
}

func (f *fakeRecorder) AIRequest(operation, provider, status string, _ time.Duration) {
	f.calls = append(f.calls, recordedCall{operation, provider, status})
}

const validRecipe = `{
	"name": "Олів'є",
	"emoji": "🥗",
	"cuisine": "українська",
	"baseServings": 4,
	"ingredients": [
		{"name": "Картопля", "amount": 400, "unit": "г"},
		{"name": "Яйця", "amount": 4, "unit": "шт"}
	],
	"instructions": ["Зварити", "Нарізати", "Змішати"],
	"calories": 320
}`

type GatewayTestSuite struct {
	suite.Suite
	gen      *testutils.MockTextGenerator
	recorder *fakeRecorder
	gateway  *ai.Gateway
	ctx      context.Context
}

func (s *GatewayTestSuite) SetupTest() {
	s.gen = testutils.NewMockTextGenerator()
	s.recorder = &fakeRecorder{}
	s.gateway = ai.NewGateway(s.gen, ai.Models{}, zap.NewNop(), ai.WithRecorder(s.recorder))
	s.ctx = context.Background()
}

func (s *GatewayTestSuite) TestGenerateRecipe() {
	s.Run("ValidReply_ShouldReturnDishWithFreshID", func() {
		s.SetupTest()
		// Arrange
		s.gen.On("Generate", mock.Anything, mock.MatchedBy(func(r outbound.GenerationRequest) bool {
			return r.Model == "gemini-2.5-flash" &&
				r.Schema != nil &&
				strings.Contains(r.Prompt, `"Олів'є"`) &&
				strings.Contains(r.Prompt, "Кухня: українська.")
		})).Return(testutils.Reply(validRecipe), nil).Once()

		// Act
		dish, err := s.gateway.GenerateRecipe(s.ctx, "Олів'є", planner.CuisineUkrainian)

		// Assert
		s.Require().NoError(err)
		s.NotEmpty(dish.ID)
		s.Equal("Олів'є", dish.Name)
		s.Equal(4, dish.BaseServings)
		s.Len(dish.Ingredients, 2)
		s.Equal(400.0, dish.Ingredients[0].Amount)
		s.Len(dish.Instructions, 3)
		s.NoError(dish.Validate())
		s.Equal([]recordedCall{{ai.OpGenerateRecipe, "mock", "success"}}, s.recorder.calls)
		s.gen.AssertExpectations(s.T())
	})

	s.Run("FractionalNotation_ShouldAcceptWholeServings", func() {
		s.SetupTest()
		reply := strings.Replace(validRecipe, `"baseServings": 4,`, `"baseServings": 6.0,`, 1)
		s.gen.On("Generate", mock.Anything, mock.Anything).Return(testutils.Reply(reply), nil).Once()

		dish, err := s.gateway.GenerateRecipe(s.ctx, "Олів'є", planner.CuisineUkrainian)

		s.Require().NoError(err)
		s.Equal(6, dish.BaseServings)
	})

	s.Run("PartialServings_ShouldFailDecode", func() {
		s.SetupTest()
		reply := strings.Replace(validRecipe, `"baseServings": 4,`, `"baseServings": 2.5,`, 1)
		s.gen.On("Generate", mock.Anything, mock.Anything).Return(testutils.Reply(reply), nil).Once()

		_, err := s.gateway.GenerateRecipe(s.ctx, "Олів'є", planner.CuisineUkrainian)

		s.True(apperrors.Is(err, apperrors.CodeAIDecodeFailed))
	})

	s.Run("TwoCalls_ShouldStampDistinctIDs", func() {
		s.SetupTest()
		s.gen.On("Generate", mock.Anything, mock.Anything).Return(testutils.Reply(validRecipe), nil)

		a, err := s.gateway.GenerateRecipe(s.ctx, "Олів'є", "")
		s.Require().NoError(err)
		b, err := s.gateway.GenerateRecipe(s.ctx, "Олів'є", "")
		s.Require().NoError(err)

		s.NotEqual(a.ID, b.ID)
	})

	s.Run("EmptyCuisine_ShouldAskForAnyCuisine", func() {
		s.SetupTest()
		s.gen.On("Generate", mock.Anything, mock.MatchedBy(func(r outbound.GenerationRequest) bool {
			return strings.Contains(r.Prompt, "Кухня: будь-яка.")
		})).Return(testutils.Reply(validRecipe), nil).Once()

		_, err := s.gateway.GenerateRecipe(s.ctx, "Суп", "")

		s.NoError(err)
		s.gen.AssertExpectations(s.T())
	})

	s.Run("FencedReply_ShouldExtractObject", func() {
		s.SetupTest()
		s.gen.On("Generate", mock.Anything, mock.Anything).
			Return(testutils.Reply("```json\n"+validRecipe+"\n```"), nil)

		dish, err := s.gateway.GenerateRecipe(s.ctx, "Олів'є", "")

		s.Require().NoError(err)
		s.Equal("Олів'є", dish.Name)
	})

	s.Run("MalformedJSON_ShouldReturnDecodeError", func() {
		s.SetupTest()
		s.gen.On("Generate", mock.Anything, mock.Anything).Return(testutils.Reply(`{"name": "Борщ",`), nil)

		dish, err := s.gateway.GenerateRecipe(s.ctx, "Борщ", "")

		s.Nil(dish)
		s.True(apperrors.Is(err, apperrors.CodeAIDecodeFailed))
		s.Equal("error", s.recorder.calls[0].status)
	})

	s.Run("ShapeViolations_ShouldReturnDecodeError", func() {
		cases := map[string]string{
			"MissingName":      `{"cuisine":"інша","baseServings":4,"ingredients":[{"name":"a","amount":1,"unit":"г"}]}`,
			"UnknownCuisine":   `{"name":"x","cuisine":"марсіанська","baseServings":4,"ingredients":[{"name":"a","amount":1,"unit":"г"}]}`,
			"ZeroServings":     `{"name":"x","cuisine":"інша","baseServings":0,"ingredients":[{"name":"a","amount":1,"unit":"г"}]}`,
			"NoIngredients":    `{"name":"x","cuisine":"інша","baseServings":4,"ingredients":[]}`,
			"NegativeAmount":   `{"name":"x","cuisine":"інша","baseServings":4,"ingredients":[{"name":"a","amount":-1,"unit":"г"}]}`,
			"NamelessProduct":  `{"name":"x","cuisine":"інша","baseServings":4,"ingredients":[{"name":"","amount":1,"unit":"г"}]}`,
			"StringAmount":     `{"name":"x","cuisine":"інша","baseServings":4,"ingredients":[{"name":"a","amount":"багато","unit":"г"}]}`,
			"TopLevelArray":    `[1,2,3]`,
		}
		for name, reply := range cases {
			s.Run(name, func() {
				s.SetupTest()
				s.gen.On("Generate", mock.Anything, mock.Anything).Return(testutils.Reply(reply), nil)

				_, err := s.gateway.GenerateRecipe(s.ctx, "x", "")

				s.True(apperrors.Is(err, apperrors.CodeAIDecodeFailed), "got %v", err)
			})
		}
	})

	s.Run("EmptyReply_ShouldReturnEmptyReplyError", func() {
		s.SetupTest()
		s.gen.On("Generate", mock.Anything, mock.Anything).Return(testutils.Reply("  "), nil)

		_, err := s.gateway.GenerateRecipe(s.ctx, "x", "")

		s.True(apperrors.Is(err, apperrors.CodeAIEmptyReply))
	})
}

func (s *GatewayTestSuite) TestMissingCredential_ShouldFailFastForEveryOperation() {
	s.gen.Credential = false

	_, err := s.gateway.GenerateRecipe(s.ctx, "x", "")
	s.True(apperrors.Is(err, apperrors.CodeMissingCredential))

	_, err = s.gateway.SuggestRandomDish(s.ctx, planner.CuisineGerman)
	s.True(apperrors.Is(err, apperrors.CodeMissingCredential))

	_, err = s.gateway.GetRealTimePrices(s.ctx, []string{"цукор"})
	s.True(apperrors.Is(err, apperrors.CodeMissingCredential))

	prices, err := s.gateway.GetRealTimePrices(s.ctx, nil)
	s.True(apperrors.Is(err, apperrors.CodeMissingCredential))
	s.Nil(prices)

	_, err = s.gateway.ChatWithAI(s.ctx, "привіт", "Гостей: 4, Меню: []")
	s.True(apperrors.Is(err, apperrors.CodeMissingCredential))

	s.gen.AssertNotCalled(s.T(), "Generate", mock.Anything, mock.Anything)
}

func (s *GatewayTestSuite) TestLocalProvider_ShouldNotNeedCredential() {
	s.gen.NeedsKey = false
	s.gen.Credential = false
	s.gen.On("Generate", mock.Anything, mock.Anything).Return(testutils.Reply("Айнтопф"), nil)

	name, err := s.gateway.SuggestRandomDish(s.ctx, planner.CuisineGerman)

	s.NoError(err)
	s.Equal("Айнтопф", name)
}

func (s *GatewayTestSuite) TestSuggestRandomDish() {
	s.Run("Reply_ShouldBeTrimmed", func() {
		s.SetupTest()
		s.gen.On("Generate", mock.Anything, mock.MatchedBy(func(r outbound.GenerationRequest) bool {
			return r.Model == "gemini-2.5-flash-lite" && !r.JSON && strings.Contains(r.Prompt, "кухні: японська.")
		})).Return(testutils.Reply("  Рамен\n"), nil).Once()

		name, err := s.gateway.SuggestRandomDish(s.ctx, planner.CuisineJapanese)

		s.NoError(err)
		s.Equal("Рамен", name)
		s.gen.AssertExpectations(s.T())
	})

	s.Run("EmptyReply_ShouldFallBackToBorscht", func() {
		s.SetupTest()
		s.gen.On("Generate", mock.Anything, mock.Anything).Return(testutils.Reply(""), nil)

		name, err := s.gateway.SuggestRandomDish(s.ctx, planner.CuisineUkrainian)

		s.NoError(err)
		s.Equal(ai.FallbackDishName, name)
		s.Equal("fallback", s.recorder.calls[0].status)
	})

	s.Run("TransportError_ShouldPropagate", func() {
		s.SetupTest()
		s.gen.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

		_, err := s.gateway.SuggestRandomDish(s.ctx, planner.CuisineUkrainian)

		s.True(apperrors.Is(err, apperrors.CodeExternalServiceError))
	})
}

func (s *GatewayTestSuite) TestGetRealTimePrices() {
	s.Run("EmptyInput_ShouldNotCallProvider", func() {
		s.SetupTest()

		prices, err := s.gateway.GetRealTimePrices(s.ctx, nil)

		s.NoError(err)
		s.NotNil(prices)
		s.Empty(prices)
		s.gen.AssertNotCalled(s.T(), "Generate", mock.Anything, mock.Anything)
		s.Empty(s.recorder.calls)
	})

	s.Run("LongInput_ShouldSendFirstFifteen", func() {
		s.SetupTest()
		names := make([]string, 20)
		for i := range names {
			names[i] = fmt.Sprintf("продукт%02d", i)
		}
		s.gen.On("Generate", mock.Anything, mock.MatchedBy(func(r outbound.GenerationRequest) bool {
			return r.LiveSearch && r.JSON &&
				strings.Contains(r.Prompt, "продукт14.") &&
				!strings.Contains(r.Prompt, "продукт15")
		})).Return(testutils.Reply(`{"продукт00": 1.5}`), nil).Once()

		prices, err := s.gateway.GetRealTimePrices(s.ctx, names)

		s.NoError(err)
		s.Equal(planner.PriceCache{"продукт00": 1.5}, prices)
		s.gen.AssertExpectations(s.T())
	})

	s.Run("GroundedProse_ShouldExtractObjectAndDropInvalidPrices", func() {
		s.SetupTest()
		reply := "Ось ціни:\n{\"цукор\": 1.2, \"сіль\": \"0,8\", \"вода\": 0, \"масло\": -3, \"сир\": \"дорого\", \"\": 4}\nДжерела: ..."
		s.gen.On("Generate", mock.Anything, mock.Anything).Return(testutils.Reply(reply), nil)

		prices, err := s.gateway.GetRealTimePrices(s.ctx, []string{"цукор", "сіль"})

		s.NoError(err)
		s.Equal(planner.PriceCache{"цукор": 1.2, "сіль": 0.8}, prices)
	})

	s.Run("Unparseable_ShouldReturnEmptyMap", func() {
		s.SetupTest()
		s.gen.On("Generate", mock.Anything, mock.Anything).Return(testutils.Reply("не знаю"), nil)

		prices, err := s.gateway.GetRealTimePrices(s.ctx, []string{"цукор"})

		s.NoError(err)
		s.Empty(prices)
		s.Equal("fallback", s.recorder.calls[0].status)
	})

	s.Run("TransportError_ShouldPropagate", func() {
		s.SetupTest()
		s.gen.On("Generate", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

		_, err := s.gateway.GetRealTimePrices(s.ctx, []string{"цукор"})

		s.True(apperrors.Is(err, apperrors.CodeExternalServiceError))
		s.ErrorIs(err, context.DeadlineExceeded)
	})
}

func (s *GatewayTestSuite) TestChatWithAI() {
	s.Run("Prompt_ShouldCarryContextAndQuestion", func() {
		s.SetupTest()
		want := "Ти помічник з планування святкового столу. Контекст поточного меню: Гостей: 6, Меню: [Борщ]. Питання користувача: Що ще додати?"
		s.gen.On("Generate", mock.Anything, mock.MatchedBy(func(r outbound.GenerationRequest) bool {
			return r.Model == "gemini-3-pro-preview" && r.Prompt == want
		})).Return(testutils.Reply("Вареники"), nil).Once()

		reply, err := s.gateway.ChatWithAI(s.ctx, "Що ще додати?", "Гостей: 6, Меню: [Борщ]")

		s.NoError(err)
		s.Equal("Вареники", reply)
		s.gen.AssertExpectations(s.T())
	})

	s.Run("EmptyReply_ShouldApologize", func() {
		s.SetupTest()
		s.gen.On("Generate", mock.Anything, mock.Anything).Return(testutils.Reply(""), nil)

		reply, err := s.gateway.ChatWithAI(s.ctx, "?", "")

		s.NoError(err)
		s.Equal(ai.FallbackChatReply, reply)
	})
}

func (s *GatewayTestSuite) TestModels_ShouldHonorOverrides() {
	gateway := ai.NewGateway(s.gen, ai.Models{Chat: "llama3.2:3b"}, zap.NewNop())
	s.gen.On("Generate", mock.Anything, mock.MatchedBy(func(r outbound.GenerationRequest) bool {
		return r.Model == "llama3.2:3b"
	})).Return(testutils.Reply("так"), nil).Once()

	_, err := gateway.ChatWithAI(s.ctx, "?", "")

	s.NoError(err)
	s.gen.AssertExpectations(s.T())
}

func TestGatewayTestSuite(t *testing.T) {
	suite.Run(t, new(GatewayTestSuite))
}
