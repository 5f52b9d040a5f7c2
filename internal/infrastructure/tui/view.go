package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	app "github.com/holidaytable/planner/internal/application/planner"
	"github.com/holidaytable/planner/internal/domain/planner"
	"github.com/holidaytable/planner/internal/ports/inbound"
)

type fieldKind int

const (
	fieldPeople fieldKind = iota
	fieldDays
	fieldDrink
)

// settingsField is one adjustable row of the settings tab
type settingsField struct {
	kind     fieldKind
	label    string
	drinkID  string
	category planner.DrinkCategory
}

func (f settingsField) value(s planner.AppState) int {
	switch f.kind {
	case fieldPeople:
		return s.PeopleCount
	case fieldDays:
		return s.EventDays
	default:
		return s.DrinkCount(f.drinkID)
	}
}

func settingsFields() []settingsField {
	fields := []settingsField{
		{kind: fieldPeople, label: "Кількість гостей"},
		{kind: fieldDays, label: "Тривалість (днів)"},
	}
	for _, category := range []planner.DrinkCategory{planner.DrinkCategoryAlcohol, planner.DrinkCategorySoft} {
		for _, d := range planner.DrinksByCategory(category) {
			fields = append(fields, settingsField{kind: fieldDrink, label: d.Name, drinkID: d.ID, category: category})
		}
	}
	return fields
}

// View draws the header, tabs, the scrollable body and the input line
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🎄 Святковий стіл"))
	b.WriteString(" ")
	b.WriteString(hintStyle.Render("Автозбереження увімкнено"))
	b.WriteString("\n\n")

	tabs := make([]string, 0, tabCount)
	for i, label := range tabLabels {
		if tab(i) == m.tab {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n")

	b.WriteString(m.body.View())
	b.WriteString("\n")

	if m.errText != "" {
		b.WriteString(errorStyle.Render(m.errText))
		b.WriteString("\n")
	}

	switch m.tab {
	case tabMenu:
		cuisine := planner.SelectableCuisines()[m.cuisine]
		b.WriteString(fmt.Sprintf("Кухня: %s  ", cursorStyle.Render(string(cuisine))))
		b.WriteString(m.dishInput.View())
	case tabChat:
		b.WriteString(m.chatInput.View())
	}
	if m.busy {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(m.hint()))

	return b.String()
}

func (m *Model) hint() string {
	switch m.tab {
	case tabSettings:
		return "↑/↓ вибір • ←/→ змінити • tab далі • esc вихід"
	case tabMenu:
		return "enter додати • ctrl+r 🎲 • ctrl+←/→ кухня • ↑/↓ страва • ctrl+d видалити"
	case tabShopping:
		return "r оновити ціни • pgup/pgdown прокрутка"
	default:
		return "enter надіслати • tab далі • esc вихід"
	}
}

// refresh rebuilds the body of the active tab
func (m *Model) refresh() {
	var content string
	switch m.tab {
	case tabSettings:
		content = m.settingsView()
	case tabMenu:
		content = m.menuView()
	case tabShopping:
		content = m.shoppingView()
	case tabChat:
		content = m.chatView()
	}
	m.body.SetContent(content)
	if m.tab == tabChat {
		m.body.GotoBottom()
	}
}

func (m *Model) settingsView() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Параметри вечірки"))
	b.WriteString("\n")

	var section planner.DrinkCategory
	for i, field := range m.settings {
		if field.kind == fieldDrink && field.category != section {
			section = field.category
			heading := "Алкогольні напої"
			if section == planner.DrinkCategorySoft {
				heading = "Безалкогольні напої"
			}
			b.WriteString(headingStyle.Render(heading))
			b.WriteString("\n")
		}

		marker := "  "
		label := field.label
		if i == m.cursor {
			marker = cursorStyle.Render("▸ ")
			label = cursorStyle.Render(label)
		}
		fmt.Fprintf(&b, "%s%-24s %d\n", marker, label, field.value(m.state))
	}
	return b.String()
}

func (m *Model) menuView() string {
	if len(m.state.Menu) == 0 {
		return hintStyle.Render("Меню поки що порожнє. Додайте першу страву!")
	}

	var b strings.Builder
	for i, dish := range m.state.Menu {
		marker := "  "
		if i == m.dishSel {
			marker = cursorStyle.Render("▸ ")
		}
		fmt.Fprintf(&b, "%s%s %s %s\n", marker, dish.Emoji, headingStyle.UnsetMarginTop().Render(dish.Name), hintStyle.Render(string(dish.Cuisine)))
		fmt.Fprintf(&b, "   Масштабування: %d ➔ %d осіб\n", dish.BaseServings, m.state.PeopleCount)

		if i != m.dishSel {
			continue
		}

		b.WriteString("   Інгредієнти:\n")
		for _, ing := range planner.ScaleDish(dish, m.state.PeopleCount) {
			fmt.Fprintf(&b, "    • %s  %s %s\n", ing.Name, planner.FormatAmount(ing.Scaled, 1), ing.Unit)
		}
		b.WriteString("   Інструкція приготування\n")
		b.WriteString(m.renderMarkdown(instructionsMarkdown(dish.Instructions)))
		b.WriteString("\n")
	}
	return b.String()
}

func instructionsMarkdown(steps []string) string {
	var b strings.Builder
	for i, step := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	return b.String()
}

func (m *Model) shoppingView() string {
	view := app.NewShoppingView(planner.EstimateCost(m.state))

	var b strings.Builder
	b.WriteString(headingStyle.Render("Орієнтовний бюджет"))
	b.WriteString("\n")
	b.WriteString(totalStyle.Render(view.TotalLabel))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Ціни базуються на даних з інтернету (Європа)"))
	b.WriteString("\n")

	b.WriteString(headingStyle.Render("Продукти"))
	b.WriteString("\n")
	if len(view.Ingredients) == 0 {
		b.WriteString(hintStyle.Render("Створіть меню для формування списку"))
		b.WriteString("\n")
	}
	for _, row := range view.Ingredients {
		fmt.Fprintf(&b, "  %-28s %8s %-6s %10s\n", row.Name, row.Quantity, row.Unit, row.Price)
	}

	b.WriteString(headingStyle.Render("Напої"))
	b.WriteString("\n")
	if len(view.Drinks) == 0 {
		b.WriteString(hintStyle.Render("Додайте напої в налаштуваннях"))
		b.WriteString("\n")
	}
	for _, row := range view.Drinks {
		fmt.Fprintf(&b, "  %-28s %8s %-6s %10s\n", row.Name, row.Quantity, row.Unit, row.Price)
	}
	return b.String()
}

func (m *Model) chatView() string {
	var b strings.Builder
	b.WriteString(headingStyle.UnsetMarginTop().Render("🤖 AI Асистент"))
	b.WriteString("\n\n")

	for _, msg := range m.transcript.Messages {
		if msg.Role == inbound.ChatRoleUser {
			b.WriteString(userMsgStyle.Render(msg.Text))
			b.WriteString("\n\n")
			continue
		}
		b.WriteString(modelMsgStyle.Render(m.renderMarkdown(msg.Text)))
		b.WriteString("\n")
	}
	if m.thinking {
		b.WriteString(hintStyle.Render("..."))
		b.WriteString("\n")
	}
	return b.String()
}

// renderMarkdown falls back to the raw text when glamour is unavailable
func (m *Model) renderMarkdown(text string) string {
	if m.markdown == nil {
		return text
	}
	out, err := m.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n") + "\n"
}
