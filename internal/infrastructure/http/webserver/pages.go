package webserver

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	app "github.com/holidaytable/planner/internal/application/planner"
	"github.com/holidaytable/planner/internal/domain/planner"
	"github.com/holidaytable/planner/internal/infrastructure/export"
	"github.com/holidaytable/planner/internal/ports/inbound"
	"github.com/holidaytable/planner/pkg/errors"
)

const (
	AppTitle = "Святковий Стіл AI"

	RecipeErrorMessage = "Не вдалося створити рецепт. Спробуйте ще раз."
	PriceErrorMessage  = "Помилка отримання цін"

	ExportFilename = "holiday-table-shopping.xlsx"

	flashError   = "error"
	flashName    = "name"
	flashCuisine = "cuisine"
	flashChat    = "chat"
)

type tab struct {
	Path  string
	Icon  string
	Label string
}

var tabs = []tab{
	{Path: "/settings", Icon: "⚙️", Label: "Налаштування"},
	{Path: "/menu", Icon: "👨‍🍳", Label: "Меню страв"},
	{Path: "/shopping", Icon: "🛒", Label: "Список та Бюджет"},
}

type drinkField struct {
	ID    string
	Name  string
	Count int
}

type ingredientView struct {
	Name   string
	Amount string
	Unit   string
}

type dishView struct {
	ID           string
	Name         string
	Emoji        string
	Cuisine      planner.Cuisine
	ScaleLabel   string
	Ingredients  []ingredientView
	Instructions []string
}

type pageData struct {
	Title    string
	Path     string
	Tabs     []tab
	State    planner.AppState
	Error    string
	Chat     inbound.ChatTranscript
	ChatOpen bool

	AlcoholDrinks []drinkField
	SoftDrinks    []drinkField

	Cuisines []planner.Cuisine
	DishName string
	Cuisine  planner.Cuisine
	Dishes   []dishView

	Shopping app.ShoppingView
}

func (s *WebServer) newPage(r *http.Request) (pageData, *Session) {
	sess := SessionFrom(r.Context())
	data := pageData{
		Title: AppTitle,
		Path:  r.URL.Path,
		Tabs:  tabs,
		State: s.planner.State(r.Context()),
	}
	if sess != nil {
		data.Error = sess.TakeFlash(flashError)
		data.ChatOpen = sess.TakeFlash(flashChat) != ""
		data.Chat = s.chat.Transcript(sess.ID)
	}
	return data, sess
}

func (s *WebServer) handleSettings(w http.ResponseWriter, r *http.Request) {
	data, _ := s.newPage(r)

	counts := make(map[string]int, len(data.State.Drinks))
	for _, d := range data.State.Drinks {
		counts[d.ID] = d.Count
	}
	fields := func(category planner.DrinkCategory) []drinkField {
		options := planner.DrinksByCategory(category)
		out := make([]drinkField, 0, len(options))
		for _, o := range options {
			out = append(out, drinkField{ID: o.ID, Name: o.Name, Count: counts[o.ID]})
		}
		return out
	}
	data.AlcoholDrinks = fields(planner.DrinkCategoryAlcohol)
	data.SoftDrinks = fields(planner.DrinkCategorySoft)

	s.render(w, "settings", data)
}

func (s *WebServer) handleUpdateParty(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	if v, ok := r.PostForm["people"]; ok {
		s.logFailure("set people", func() error {
			_, err := s.planner.SetPeopleCount(ctx, parseCount(first(v), 1))
			return err
		})
	}
	if v, ok := r.PostForm["days"]; ok {
		s.logFailure("set days", func() error {
			_, err := s.planner.SetEventDays(ctx, parseCount(first(v), 1))
			return err
		})
	}

	s.redirect(w, r, "/settings")
}

// handleUpdateDrinks applies every drink_<id> field whose value differs
// from the stored count
func (s *WebServer) handleUpdateDrinks(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	current := make(map[string]int)
	for _, d := range s.planner.State(ctx).Drinks {
		current[d.ID] = d.Count
	}

	for _, option := range planner.DrinkCatalog() {
		v, ok := r.PostForm["drink_"+option.ID]
		if !ok {
			continue
		}
		count := parseCount(first(v), 0)
		if count < 0 {
			count = 0
		}
		if count == current[option.ID] {
			continue
		}
		id := option.ID
		s.logFailure("set drink", func() error {
			_, err := s.planner.SetDrinkCount(ctx, id, count)
			return err
		})
	}

	s.redirect(w, r, "/settings")
}

func (s *WebServer) handleMenu(w http.ResponseWriter, r *http.Request) {
	data, sess := s.newPage(r)

	data.Cuisines = planner.SelectableCuisines()
	data.Cuisine = planner.CuisineUkrainian
	if sess != nil {
		data.DishName = sess.TakeFlash(flashName)
		if c := planner.Cuisine(sess.TakeFlash(flashCuisine)); c.Valid() {
			data.Cuisine = c
		}
	}

	people := data.State.PeopleCount
	data.Dishes = make([]dishView, 0, len(data.State.Menu))
	for _, d := range data.State.Menu {
		view := dishView{
			ID:           d.ID,
			Name:         d.Name,
			Emoji:        d.Emoji,
			Cuisine:      d.Cuisine,
			ScaleLabel:   fmt.Sprintf("%d ➔ %d осіб", d.BaseServings, people),
			Instructions: d.Instructions,
		}
		for _, ing := range planner.ScaleDish(d, people) {
			view.Ingredients = append(view.Ingredients, ingredientView{
				Name:   ing.Name,
				Amount: planner.FormatAmount(ing.Scaled, 1),
				Unit:   ing.Unit,
			})
		}
		data.Dishes = append(data.Dishes, view)
	}

	s.render(w, "menu", data)
}

func (s *WebServer) handleAddDish(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess := SessionFrom(r.Context())
	name := strings.TrimSpace(r.PostForm.Get("name"))
	cuisine := planner.Cuisine(r.PostForm.Get("cuisine"))
	if name == "" {
		s.redirect(w, r, "/menu")
		return
	}

	_, err := s.planner.AddDish(r.Context(), inbound.AddDishCommand{Name: name, Cuisine: cuisine})
	if err != nil && !errors.Is(err, errors.CodeStatePersistFailed) {
		s.logger.Warn("Add dish failed", zap.String("name", name), zap.Error(err))
		if sess != nil {
			sess.Flash(flashError, RecipeErrorMessage)
			sess.Flash(flashName, name)
			sess.Flash(flashCuisine, string(cuisine))
		}
	} else if sess != nil {
		sess.Flash(flashCuisine, string(cuisine))
	}

	s.redirect(w, r, "/menu")
}

func (s *WebServer) handleSuggestDish(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess := SessionFrom(r.Context())
	cuisine := planner.Cuisine(r.PostForm.Get("cuisine"))
	name := r.PostForm.Get("name")

	suggested, err := s.planner.SuggestDish(r.Context(), cuisine)
	if err != nil {
		s.logger.Warn("Suggest dish failed", zap.String("cuisine", string(cuisine)), zap.Error(err))
	} else {
		name = suggested
	}
	if sess != nil {
		sess.Flash(flashName, name)
		sess.Flash(flashCuisine, string(cuisine))
	}

	s.redirect(w, r, "/menu")
}

func (s *WebServer) handleRemoveDish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	s.logFailure("remove dish", func() error {
		_, err := s.planner.RemoveDish(ctx, id)
		return err
	})
	s.redirect(w, r, "/menu")
}

func (s *WebServer) handleShopping(w http.ResponseWriter, r *http.Request) {
	data, _ := s.newPage(r)
	data.Shopping = app.NewShoppingView(planner.EstimateCost(data.State))
	s.render(w, "shopping", data)
}

func (s *WebServer) handleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	if _, err := s.planner.RefreshPrices(r.Context()); err != nil && !errors.Is(err, errors.CodeStatePersistFailed) {
		s.logger.Warn("Price refresh failed", zap.Error(err))
		if sess := SessionFrom(r.Context()); sess != nil {
			sess.Flash(flashError, PriceErrorMessage)
		}
	}
	s.redirect(w, r, "/shopping")
}

func (s *WebServer) handleExport(w http.ResponseWriter, r *http.Request) {
	view := app.NewShoppingView(s.planner.ShoppingList(r.Context()))

	var buf bytes.Buffer
	if err := export.WriteShoppingList(&buf, view); err != nil {
		s.logger.Error("Export failed", zap.Error(err))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// handleChat is the no-script fallback of the chat overlay
func (s *WebServer) handleChat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	back := returnPath(r.PostForm.Get("return"))
	sess := SessionFrom(r.Context())
	if sess == nil {
		s.redirect(w, r, back)
		return
	}

	if _, err := s.chat.Send(r.Context(), sess.ID, r.PostForm.Get("message")); err != nil {
		s.logger.Warn("Chat turn failed", zap.Error(err))
	}
	sess.Flash(flashChat, "open")

	s.redirect(w, r, back)
}

func (s *WebServer) render(w http.ResponseWriter, name string, data pageData) {
	tmpl, ok := s.pages[name]
	if !ok {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		s.logger.Error("Template execution failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *WebServer) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// logFailure runs fn and logs its error. A failed save still changed the
// in-memory state, so it is logged as a warning only.
func (s *WebServer) logFailure(op string, fn func() error) {
	if err := fn(); err != nil {
		s.logger.Warn("Planner update failed", zap.String("operation", op), zap.Error(err))
	}
}

// parseCount reads a form number; non-numeric input yields fallback and
// values below fallback are left for the reducer to clamp
func parseCount(v string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

func returnPath(p string) string {
	for _, t := range tabs {
		if p == t.Path {
			return p
		}
	}
	return "/settings"
}
