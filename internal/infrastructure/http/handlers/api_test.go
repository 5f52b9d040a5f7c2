package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	chatapp "github.com/holidaytable/planner/internal/application/chat"
	app "github.com/holidaytable/planner/internal/application/planner"
	"github.com/holidaytable/planner/internal/domain/planner"
	"github.com/holidaytable/planner/internal/infrastructure/http/handlers"
	"github.com/holidaytable/planner/internal/infrastructure/http/middleware"
	"github.com/holidaytable/planner/internal/ports/inbound"
	apperrors "github.com/holidaytable/planner/pkg/errors"
	"github.com/holidaytable/planner/test/testutils"
)

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

type APIHandlersTestSuite struct {
	suite.Suite
	gateway *testutils.MockAIGateway
	repo    *testutils.FakeStateRepository
	planner *app.Service
	router  *gin.Engine
	http    *testutils.HTTPAssertions
}

func TestAPIHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(APIHandlersTestSuite))
}

func (s *APIHandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	s.gateway = new(testutils.MockAIGateway)
	s.repo = testutils.NewFakeStateRepository()
	s.planner = app.NewService(context.Background(), s.repo, s.gateway, nil, logger)
	chat := chatapp.NewService(s.planner, s.gateway, logger)

	m := middleware.New(logger)
	s.router = gin.New()
	s.router.Use(m.RequestID(), m.Recovery(), m.ErrorHandler())
	handlers.NewAPIHandlers(s.planner, chat, logger).RegisterRoutes(s.router.Group("/api/v1"))

	s.http = testutils.NewHTTPAssertions(s.T())
}

func (s *APIHandlersTestSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *APIHandlersTestSuite) TestGetState_ShouldReturnDefaults() {
	rec := s.do(http.MethodGet, "/api/v1/state", "")

	s.Equal(http.StatusOK, rec.Code)
	var resp envelope[planner.AppState]
	s.http.JSONBody(rec.Body.Bytes(), &resp)
	s.True(resp.Success)
	s.Equal(planner.DefaultPeopleCount, resp.Data.PeopleCount)
	s.Empty(resp.Data.Menu)
}

func (s *APIHandlersTestSuite) TestGetCatalog() {
	rec := s.do(http.MethodGet, "/api/v1/catalog", "")

	s.Equal(http.StatusOK, rec.Code)
	var resp envelope[handlers.CatalogResponse]
	s.http.JSONBody(rec.Body.Bytes(), &resp)
	s.Len(resp.Data.Drinks, len(planner.DrinkCatalog()))
	s.NotEmpty(resp.Data.Cuisines)
}

func (s *APIHandlersTestSuite) TestUpdateSettings() {
	s.Run("Both_ShouldPersist", func() {
		s.SetupTest()
		rec := s.do(http.MethodPut, "/api/v1/settings", `{"peopleCount": 10, "eventDays": 2}`)

		s.Equal(http.StatusOK, rec.Code)
		stored, ok := s.repo.Stored(planner.StorageKey)
		s.Require().True(ok)
		s.Equal(10, stored.PeopleCount)
		s.Equal(2, stored.EventDays)
	})

	s.Run("Empty_ShouldFailValidation", func() {
		s.SetupTest()
		rec := s.do(http.MethodPut, "/api/v1/settings", `{}`)

		s.http.ErrorCode(rec.Code, rec.Body.Bytes(), http.StatusBadRequest, apperrors.CodeValidationFailed)
	})

	s.Run("MalformedJSON_ShouldBeBadRequest", func() {
		s.SetupTest()
		rec := s.do(http.MethodPut, "/api/v1/settings", `{"peopleCount":`)

		s.http.ErrorCode(rec.Code, rec.Body.Bytes(), http.StatusBadRequest, apperrors.CodeBadRequest)
	})
}

func (s *APIHandlersTestSuite) TestUpdateDrink() {
	s.Run("KnownDrink", func() {
		s.SetupTest()
		rec := s.do(http.MethodPut, "/api/v1/drinks/wine_red", `{"count": 3}`)

		s.Equal(http.StatusOK, rec.Code)
		var resp envelope[planner.AppState]
		s.http.JSONBody(rec.Body.Bytes(), &resp)
		s.Require().Len(resp.Data.Drinks, 1)
		s.Equal(3, resp.Data.Drinks[0].Count)
	})

	s.Run("UnknownDrink_ShouldBeNotFound", func() {
		s.SetupTest()
		rec := s.do(http.MethodPut, "/api/v1/drinks/absinthe", `{"count": 1}`)

		s.http.ErrorCode(rec.Code, rec.Body.Bytes(), http.StatusNotFound, apperrors.CodeNotFound)
	})

	s.Run("MissingCount_ShouldBeBadRequest", func() {
		s.SetupTest()
		rec := s.do(http.MethodPut, "/api/v1/drinks/wine_red", `{}`)

		s.http.ErrorCode(rec.Code, rec.Body.Bytes(), http.StatusBadRequest, apperrors.CodeBadRequest)
	})
}

func (s *APIHandlersTestSuite) TestAddAndRemoveDish() {
	dish := testutils.NewDishBuilder().WithName("Олів'є").WithIngredient("картопля", 400, "г").Build()
	s.gateway.On("GenerateRecipe", mock.Anything, "Олів'є", planner.CuisineUkrainian).Return(&dish, nil).Once()

	rec := s.do(http.MethodPost, "/api/v1/dishes", `{"name": "Олів'є", "cuisine": "українська"}`)

	s.Equal(http.StatusCreated, rec.Code)
	var added envelope[planner.Dish]
	s.http.JSONBody(rec.Body.Bytes(), &added)
	s.Equal(dish.ID, added.Data.ID)

	rec = s.do(http.MethodDelete, "/api/v1/dishes/"+dish.ID, "")
	s.Equal(http.StatusOK, rec.Code)
	s.Empty(s.planner.State(context.Background()).Menu)
	s.gateway.AssertExpectations(s.T())
}

func (s *APIHandlersTestSuite) TestAddDish_Errors() {
	s.Run("BlankName_ShouldFailValidation", func() {
		s.SetupTest()
		rec := s.do(http.MethodPost, "/api/v1/dishes", `{"name": "  "}`)

		s.http.ErrorCode(rec.Code, rec.Body.Bytes(), http.StatusBadRequest, apperrors.CodeValidationFailed)
		s.gateway.AssertNotCalled(s.T(), "GenerateRecipe", mock.Anything, mock.Anything, mock.Anything)
	})

	s.Run("UndecodableReply_ShouldBeBadGateway", func() {
		s.SetupTest()
		s.gateway.On("GenerateRecipe", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperrors.NewAIDecodeError("generate_recipe", errors.New("not json"))).Once()

		rec := s.do(http.MethodPost, "/api/v1/dishes", `{"name": "Борщ"}`)

		s.http.ErrorCode(rec.Code, rec.Body.Bytes(), http.StatusBadGateway, apperrors.CodeAIDecodeFailed)
	})
}

func (s *APIHandlersTestSuite) TestSuggestDish() {
	s.gateway.On("SuggestRandomDish", mock.Anything, planner.CuisineGerman).Return("Шніцель", nil).Once()

	rec := s.do(http.MethodPost, "/api/v1/dishes/suggest", `{"cuisine": "німецька"}`)

	s.Equal(http.StatusOK, rec.Code)
	var resp envelope[map[string]string]
	s.http.JSONBody(rec.Body.Bytes(), &resp)
	s.Equal("Шніцель", resp.Data["name"])
	s.Zero(s.repo.Saves())
}

func (s *APIHandlersTestSuite) TestShoppingAndPriceRefresh() {
	_, err := s.planner.SetDrinkCount(context.Background(), "wine_red", 2)
	s.Require().NoError(err)

	rec := s.do(http.MethodGet, "/api/v1/shopping", "")
	var before envelope[app.ShoppingView]
	s.http.JSONBody(rec.Body.Bytes(), &before)
	s.Require().Len(before.Data.Drinks, 1)
	s.Equal(planner.UnknownPricePlaceholder, before.Data.Drinks[0].Price)
	s.Equal("€0.00", before.Data.TotalLabel)

	s.gateway.On("GetRealTimePrices", mock.Anything, mock.Anything).
		Return(planner.PriceCache{"Вино (червоне)": 7.5}, nil).Once()

	rec = s.do(http.MethodPost, "/api/v1/prices/refresh", "")

	s.Equal(http.StatusOK, rec.Code)
	var after envelope[struct {
		Received planner.PriceCache `json:"received"`
		Shopping app.ShoppingView   `json:"shopping"`
	}]
	s.http.JSONBody(rec.Body.Bytes(), &after)
	s.Equal(7.5, after.Data.Received["Вино (червоне)"])
	s.Equal("€15.00", after.Data.Shopping.TotalLabel)
}

func (s *APIHandlersTestSuite) TestRefreshPrices_FailureShouldMapToBadGateway() {
	s.gateway.On("GetRealTimePrices", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewExternalServiceError("gemini", errors.New("timeout"))).Once()

	rec := s.do(http.MethodPost, "/api/v1/prices/refresh", "")

	s.http.ErrorCode(rec.Code, rec.Body.Bytes(), http.StatusBadGateway, apperrors.CodeExternalServiceError)
}

func (s *APIHandlersTestSuite) TestChat() {
	s.Run("NewSession_ShouldGreet", func() {
		s.SetupTest()
		rec := s.do(http.MethodGet, "/api/v1/chat/abc", "")

		var resp envelope[inbound.ChatTranscript]
		s.http.JSONBody(rec.Body.Bytes(), &resp)
		s.Require().Len(resp.Data.Messages, 1)
		s.Equal(chatapp.Greeting, resp.Data.Messages[0].Text)
	})

	s.Run("Reply_ShouldBeAppended", func() {
		s.SetupTest()
		s.gateway.On("ChatWithAI", mock.Anything, "Що приготувати?", mock.Anything).Return("Вареники", nil).Once()

		rec := s.do(http.MethodPost, "/api/v1/chat/abc", `{"message": "Що приготувати?"}`)

		s.Equal(http.StatusOK, rec.Code)
		var resp envelope[inbound.ChatTranscript]
		s.http.JSONBody(rec.Body.Bytes(), &resp)
		s.Require().Len(resp.Data.Messages, 3)
		s.Equal("Вареники", resp.Data.Messages[2].Text)
	})

	s.Run("AIFailure_ShouldStillAnswerWithErrorReply", func() {
		s.SetupTest()
		s.gateway.On("ChatWithAI", mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("quota exceeded")).Once()

		rec := s.do(http.MethodPost, "/api/v1/chat/abc", `{"message": "Привіт"}`)

		s.Equal(http.StatusOK, rec.Code)
		var resp envelope[inbound.ChatTranscript]
		s.http.JSONBody(rec.Body.Bytes(), &resp)
		s.Require().Len(resp.Data.Messages, 3)
		s.Equal(chatapp.ErrorReply, resp.Data.Messages[2].Text)
	})
}
