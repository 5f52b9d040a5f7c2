// Package tui is the terminal front end of the planner. It drives the same
// planner and chat services as the web server, so both see one state.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/holidaytable/planner/internal/domain/planner"
	"github.com/holidaytable/planner/internal/ports/inbound"
	"github.com/holidaytable/planner/pkg/errors"
)

// ChatSessionID is the transcript the terminal writes to
const ChatSessionID = "terminal"

const (
	recipeErrorText = "Не вдалося створити рецепт. Спробуйте ще раз."
	priceErrorText  = "Помилка отримання цін"
)

type tab int

const (
	tabSettings tab = iota
	tabMenu
	tabShopping
	tabChat
	tabCount
)

var tabLabels = [tabCount]string{"⚙️ Налаштування", "👨‍🍳 Меню страв", "🛒 Список та Бюджет", "🤖 AI Асистент"}

type dishAddedMsg struct {
	dish *planner.Dish
	err  error
}

type dishSuggestedMsg struct {
	name string
	err  error
}

type pricesRefreshedMsg struct {
	err error
}

type chatRepliedMsg struct {
	transcript inbound.ChatTranscript
	err        error
}

// Option customizes a Model
type Option func(*Model)

// WithMarkdownStyle selects the glamour style for instructions and chat
// replies; "notty" renders plain text
func WithMarkdownStyle(style string) Option {
	return func(m *Model) { m.markdownStyle = style }
}

// Model is the bubbletea model of the planner
type Model struct {
	ctx     context.Context
	planner inbound.PlannerService
	chat    inbound.ChatService
	logger  *zap.Logger

	tab      tab
	state    planner.AppState
	settings []settingsField
	cursor   int
	dishSel  int
	cuisine  int
	errText  string
	busy     bool
	thinking bool

	transcript inbound.ChatTranscript

	dishInput     textinput.Model
	chatInput     textinput.Model
	spinner       spinner.Model
	body          viewport.Model
	markdown      *glamour.TermRenderer
	markdownStyle string

	width  int
	height int
}

// New creates the terminal model. Long-running AI calls use ctx.
func New(ctx context.Context, plannerService inbound.PlannerService, chatService inbound.ChatService, logger *zap.Logger, opts ...Option) *Model {
	dish := textinput.New()
	dish.Placeholder = "Наприклад: Олів'є"
	dish.CharLimit = 200

	msg := textinput.New()
	msg.Placeholder = "Напишіть повідомлення..."

	m := &Model{
		ctx:           ctx,
		planner:       plannerService,
		chat:          chatService,
		logger:        logger.Named("tui"),
		dishInput:     dish,
		chatInput:     msg,
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot)),
		body:          viewport.New(80, 20),
		markdownStyle: "auto",
	}
	for _, opt := range opts {
		opt(m)
	}

	m.markdown = newMarkdownRenderer(m.markdownStyle, 76)
	m.settings = settingsFields()
	m.reload()
	m.transcript = m.chat.Transcript(ChatSessionID)
	m.refresh()
	return m
}

func newMarkdownRenderer(style string, width int) *glamour.TermRenderer {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil
	}
	return r
}

// Init starts the cursor blink
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input and async results
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.body.Width = msg.Width
		m.body.Height = max(5, msg.Height-8)
		m.dishInput.Width = max(20, msg.Width-20)
		m.chatInput.Width = max(20, msg.Width-6)
		m.markdown = newMarkdownRenderer(m.markdownStyle, max(20, msg.Width-4))

	case tea.KeyMsg:
		cmd, quit := m.handleKey(msg)
		if quit {
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case dishAddedMsg:
		m.busy = false
		if msg.err != nil && !errors.Is(msg.err, errors.CodeStatePersistFailed) {
			m.logger.Warn("Add dish failed", zap.Error(msg.err))
			m.errText = recipeErrorText
		} else {
			m.dishInput.SetValue("")
			m.errText = ""
		}
		m.reload()

	case dishSuggestedMsg:
		m.busy = false
		if msg.err != nil {
			m.logger.Warn("Suggest dish failed", zap.Error(msg.err))
		} else {
			m.dishInput.SetValue(msg.name)
			m.dishInput.CursorEnd()
		}

	case pricesRefreshedMsg:
		m.busy = false
		if msg.err != nil && !errors.Is(msg.err, errors.CodeStatePersistFailed) {
			m.logger.Warn("Price refresh failed", zap.Error(msg.err))
			m.errText = priceErrorText
		} else {
			m.errText = ""
		}
		m.reload()

	case chatRepliedMsg:
		m.busy = false
		m.thinking = false
		m.transcript = msg.transcript
		if msg.err != nil {
			m.logger.Warn("Chat turn failed", zap.Error(msg.err))
		}
	}

	m.refresh()
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	// the web UI may have changed the shared state since the last key
	m.reload()

	switch msg.String() {
	case "ctrl+c", "esc":
		return nil, true
	case "tab":
		m.switchTab((m.tab + 1) % tabCount)
		return nil, false
	case "shift+tab":
		m.switchTab((m.tab + tabCount - 1) % tabCount)
		return nil, false
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.body, cmd = m.body.Update(msg)
		return cmd, false
	}

	switch m.tab {
	case tabSettings:
		m.handleSettingsKey(msg)
	case tabMenu:
		return m.handleMenuKey(msg), false
	case tabShopping:
		if msg.String() == "r" && !m.busy {
			return m.startBusy(m.refreshPrices()), false
		}
	case tabChat:
		return m.handleChatKey(msg), false
	}
	return nil, false
}

func (m *Model) switchTab(t tab) {
	m.tab = t
	m.errText = ""
	m.dishInput.Blur()
	m.chatInput.Blur()
	switch t {
	case tabMenu:
		m.dishInput.Focus()
	case tabChat:
		m.chatInput.Focus()
	}
	m.body.GotoTop()
}

func (m *Model) handleSettingsKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.settings)-1 {
			m.cursor++
		}
	case "right", "l", "+":
		m.adjust(1)
	case "left", "h", "-":
		m.adjust(-1)
	}
}

// adjust changes the focused setting by delta and dispatches it
func (m *Model) adjust(delta int) {
	field := m.settings[m.cursor]
	value := field.value(m.state) + delta

	var err error
	switch field.kind {
	case fieldPeople:
		_, err = m.planner.SetPeopleCount(m.ctx, value)
	case fieldDays:
		_, err = m.planner.SetEventDays(m.ctx, value)
	case fieldDrink:
		if value < 0 {
			return
		}
		_, err = m.planner.SetDrinkCount(m.ctx, field.drinkID, value)
	}
	if err != nil {
		m.logger.Warn("Settings update failed", zap.String("field", field.label), zap.Error(err))
	}
	m.reload()
}

func (m *Model) handleMenuKey(msg tea.KeyMsg) tea.Cmd {
	cuisines := planner.SelectableCuisines()

	switch msg.String() {
	case "enter":
		name := strings.TrimSpace(m.dishInput.Value())
		if name == "" || m.busy {
			return nil
		}
		return m.startBusy(m.addDish(name, cuisines[m.cuisine]))
	case "ctrl+r":
		if m.busy {
			return nil
		}
		return m.startBusy(m.suggestDish(cuisines[m.cuisine]))
	case "ctrl+left":
		m.cuisine = (m.cuisine + len(cuisines) - 1) % len(cuisines)
		return nil
	case "ctrl+right":
		m.cuisine = (m.cuisine + 1) % len(cuisines)
		return nil
	case "up":
		if m.dishSel > 0 {
			m.dishSel--
		}
		return nil
	case "down":
		if m.dishSel < len(m.state.Menu)-1 {
			m.dishSel++
		}
		return nil
	case "ctrl+d":
		if m.dishSel < len(m.state.Menu) {
			if _, err := m.planner.RemoveDish(m.ctx, m.state.Menu[m.dishSel].ID); err != nil {
				m.logger.Warn("Remove dish failed", zap.Error(err))
			}
			m.reload()
		}
		return nil
	}

	var cmd tea.Cmd
	m.dishInput, cmd = m.dishInput.Update(msg)
	return cmd
}

func (m *Model) handleChatKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "enter" {
		text := strings.TrimSpace(m.chatInput.Value())
		if text == "" || m.busy {
			return nil
		}
		m.chatInput.SetValue("")
		m.thinking = true
		m.transcript.Messages = append(m.transcript.Messages, inbound.ChatMessage{Role: inbound.ChatRoleUser, Text: text})
		return m.startBusy(m.sendChat(text))
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return cmd
}

func (m *Model) startBusy(op tea.Cmd) tea.Cmd {
	m.busy = true
	m.errText = ""
	return tea.Batch(op, m.spinner.Tick)
}

func (m *Model) addDish(name string, cuisine planner.Cuisine) tea.Cmd {
	return func() tea.Msg {
		dish, err := m.planner.AddDish(m.ctx, inbound.AddDishCommand{Name: name, Cuisine: cuisine})
		return dishAddedMsg{dish: dish, err: err}
	}
}

func (m *Model) suggestDish(cuisine planner.Cuisine) tea.Cmd {
	return func() tea.Msg {
		name, err := m.planner.SuggestDish(m.ctx, cuisine)
		return dishSuggestedMsg{name: name, err: err}
	}
}

func (m *Model) refreshPrices() tea.Cmd {
	return func() tea.Msg {
		_, err := m.planner.RefreshPrices(m.ctx)
		return pricesRefreshedMsg{err: err}
	}
}

func (m *Model) sendChat(text string) tea.Cmd {
	return func() tea.Msg {
		t, err := m.chat.Send(m.ctx, ChatSessionID, text)
		return chatRepliedMsg{transcript: t, err: err}
	}
}

// reload takes a fresh snapshot of the planner state
func (m *Model) reload() {
	m.state = m.planner.State(m.ctx)
	if m.dishSel >= len(m.state.Menu) {
		m.dishSel = max(0, len(m.state.Menu)-1)
	}
}

// Run starts the full-screen program and blocks until the user quits
func Run(ctx context.Context, plannerService inbound.PlannerService, chatService inbound.ChatService, logger *zap.Logger) error {
	program := tea.NewProgram(New(ctx, plannerService, chatService, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}
