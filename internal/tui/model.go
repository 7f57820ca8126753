// Package tui renders a dashboard in the terminal with Bubble Tea.
package tui

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"example.com/timestats/internal/dashboard"
	"example.com/timestats/internal/input"
	"example.com/timestats/internal/stats"
	"example.com/timestats/internal/view"
)

// ResizeDebounce is how long the terminal size must settle before relayout.
const ResizeDebounce = 250 * time.Millisecond

const (
	tabRow       = 1
	resizeTask   = "resize"
	tabSeparator = " "
)

// renderedMsg tells the model the dashboard re-rendered. The model re-reads
// the current view, so late or reordered deliveries are harmless.
type renderedMsg struct{}

type revealMsg struct {
	gen int
}

type resizedMsg struct {
	width, height int
}

// Model is the Bubble Tea model for one dashboard.
type Model struct {
	ctx  context.Context
	dash *dashboard.Dashboard
	send func(tea.Msg)

	view     view.RenderedView
	focus    int
	revealed int
	gen      int
	width    int
	height   int
	status   string
}

// New constructs a model for dash. The dashboard is expected to be started by the caller.
func New(ctx context.Context, dash *dashboard.Dashboard) *Model {
	m := &Model{ctx: ctx, dash: dash, width: 80}
	m.view = dash.View()
	m.focus = indexOf(dash.Timeframe())
	return m
}

// Run starts an interactive program and blocks until the user quits.
func Run(ctx context.Context, dash *dashboard.Dashboard) error {
	p, release := newProgram(ctx, dash, tea.WithAltScreen(), tea.WithMouseCellMotion())
	defer release()

	_, err := p.Run()
	return err
}

// newProgram wires a program to dash. release unsubscribes it and drops pending resize work.
func newProgram(ctx context.Context, dash *dashboard.Dashboard, opts ...tea.ProgramOption) (*tea.Program, func()) {
	m := New(ctx, dash)
	p := tea.NewProgram(m, append(opts, tea.WithContext(ctx))...)
	m.send = p.Send
	// Renders triggered by Select run inside Update, where a blocking Send would
	// wait on the event loop that is busy calling us.
	unsubscribe := dash.Subscribe(func(view.RenderedView) {
		go p.Send(renderedMsg{})
	})
	return p, func() {
		unsubscribe()
		dash.Scheduler().Cancel(resizeTask)
	}
}

func (m *Model) Init() tea.Cmd {
	return m.restartReveal()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case renderedMsg:
		m.status = ""
		current := m.dash.View()
		if reflect.DeepEqual(current, m.view) {
			return m, nil
		}
		m.view = current
		return m, m.restartReveal()
	case revealMsg:
		if msg.gen != m.gen || m.revealed >= len(m.view.Cards) {
			return m, nil
		}
		m.revealed++
		return m, m.revealTick()
	case tea.WindowSizeMsg:
		m.debounceResize(msg.Width, msg.Height)
		return m, nil
	case resizedMsg:
		m.width, m.height = msg.width, msg.height
		return m, nil
	case tea.MouseMsg:
		return m.updateMouse(msg)
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "left", "h", "shift+tab":
		m.focus = (m.focus + len(stats.Timeframes()) - 1) % len(stats.Timeframes())
	case "right", "l", "tab":
		m.focus = (m.focus + 1) % len(stats.Timeframes())
	case "d", "w", "m":
		m.focus = indexOf(shortcut(key))
		return m, m.activate(input.Activation{Target: shortcut(key), Kind: input.Keyboard, Key: "enter"})
	case "r":
		m.status = "refreshing..."
		return m, m.refresh()
	default:
		if input.IsConfirmKey(key) {
			return m, m.activate(input.Activation{Target: stats.Timeframes()[m.focus], Kind: input.Keyboard, Key: key})
		}
	}
	return m, nil
}

func (m *Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionPress || msg.Y != tabRow {
		return m, nil
	}
	x := 0
	for i, tf := range stats.Timeframes() {
		w := lipgloss.Width(m.renderTab(i, tf))
		if msg.X >= x && msg.X < x+w {
			m.focus = i
			return m, m.activate(input.Activation{Target: tf, Kind: input.Pointer})
		}
		x += w + lipgloss.Width(tabSeparator)
	}
	return m, nil
}

func (m *Model) activate(a input.Activation) tea.Cmd {
	changed, err := m.dash.Select(a)
	if err != nil {
		m.status = err.Error()
		return nil
	}
	if !changed {
		return nil
	}
	m.view = m.dash.View()
	return m.restartReveal()
}

func (m *Model) refresh() tea.Cmd {
	dash, ctx := m.dash, m.ctx
	return func() tea.Msg {
		dash.Refresh(ctx)
		return renderedMsg{}
	}
}

func (m *Model) debounceResize(width, height int) {
	if m.send == nil {
		m.width, m.height = width, height
		return
	}
	send := m.send
	m.dash.Scheduler().Debounce(resizeTask, ResizeDebounce, func() {
		send(resizedMsg{width: width, height: height})
	})
}

func (m *Model) restartReveal() tea.Cmd {
	m.gen++
	m.revealed = 0
	if len(m.view.Cards) == 0 {
		return nil
	}
	m.revealed = 1
	return m.revealTick()
}

func (m *Model) revealTick() tea.Cmd {
	gen := m.gen
	return tea.Tick(view.RevealStep, func(time.Time) tea.Msg { return revealMsg{gen: gen} })
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Time tracking report"))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.view.Loading {
		b.WriteString(mutedStyle.Render("Loading activities..."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderCards())
		b.WriteString("\n")
	}

	source, at := m.dash.LastRefresh()
	footer := "←/→ move · enter/space select · d/w/m · r refresh · q quit"
	if source != "" {
		footer = fmt.Sprintf("source: %s at %s · %s", source, at.Format("15:04:05"), footer)
	}
	if m.status != "" {
		footer = m.status + " · " + footer
	}
	b.WriteString(mutedStyle.Render(footer))
	return b.String()
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, 3)
	for i, tf := range stats.Timeframes() {
		tabs = append(tabs, m.renderTab(i, tf))
	}
	return strings.Join(tabs, tabSeparator)
}

func (m *Model) renderTab(i int, tf stats.Timeframe) string {
	style := tabStyle
	if tf == m.dash.Timeframe() {
		style = activeTab
	}
	if i == m.focus {
		style = style.Inherit(focusedTab)
	}
	return style.Render(strings.ToUpper(string(tf[:1])) + string(tf[1:]))
}

func (m *Model) renderCards() string {
	perRow := m.width / (cardStyle.GetWidth() + 2)
	if perRow < 1 {
		perRow = 1
	}
	var rows []string
	var row []string
	for i, card := range m.view.Cards {
		if i >= m.revealed {
			break
		}
		row = append(row, renderCard(card))
		if len(row) == perRow {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderCard(card view.CardData) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(accentFor(card.Icon)).Render(card.Title)
	current := hoursStyle.Render(formatHours(card.CurrentHours))
	previous := mutedStyle.Render(card.PreviousLabel + " - " + formatHours(card.PreviousHours))
	lines := []string{title, current, previous}
	if card.Missing {
		lines = append(lines, warnStyle.Render("no data"))
	}
	return cardStyle.BorderForeground(accentFor(card.Icon)).Render(strings.Join(lines, "\n"))
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64) + "hrs"
}

func shortcut(key string) stats.Timeframe {
	switch key {
	case "d":
		return stats.Daily
	case "m":
		return stats.Monthly
	default:
		return stats.Weekly
	}
}

func indexOf(tf stats.Timeframe) int {
	for i, t := range stats.Timeframes() {
		if t == tf {
			return i
		}
	}
	return 0
}
