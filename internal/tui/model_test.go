package tui

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"example.com/timestats/internal/dashboard"
	"example.com/timestats/internal/input"
	"example.com/timestats/internal/source"
	"example.com/timestats/internal/stats"
)

func newModel(t *testing.T) (*Model, *dashboard.Dashboard) {
	t.Helper()
	dash := dashboard.New(source.NewChain(nil, nil))
	dash.Refresh(context.Background())
	t.Cleanup(dash.Stop)
	return New(context.Background(), dash), dash
}

func press(m *Model, key tea.KeyMsg) {
	_, _ = m.Update(key)
}

func TestConfirmKeyAndClickProduceSameState(t *testing.T) {
	byKey, keyDash := newModel(t)
	press(byKey, tea.KeyMsg{Type: tea.KeyRight})
	press(byKey, tea.KeyMsg{Type: tea.KeyEnter})

	byClick, clickDash := newModel(t)
	// Daily(9) + sep(1) + Weekly(10) + sep(1) puts Monthly at x=21.
	_, _ = byClick.Update(tea.MouseMsg{X: 22, Y: tabRow, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})

	require.Equal(t, stats.Monthly, keyDash.Timeframe())
	require.Equal(t, keyDash.Timeframe(), clickDash.Timeframe())
	require.Equal(t, keyDash.Indicators(), clickDash.Indicators())
	require.Equal(t, byKey.view, byClick.view)
	require.Equal(t, 103.0, byKey.view.Cards[0].CurrentHours)
}

func TestSpaceConfirms(t *testing.T) {
	m, dash := newModel(t)
	press(m, tea.KeyMsg{Type: tea.KeyLeft})
	press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.Equal(t, stats.Daily, dash.Timeframe())
}

func TestFocusAloneDoesNotSelect(t *testing.T) {
	m, dash := newModel(t)
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, 2, m.focus)
	require.Equal(t, stats.Weekly, dash.Timeframe())
}

func TestShortcutSelects(t *testing.T) {
	m, dash := newModel(t)
	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	require.Equal(t, stats.Daily, dash.Timeframe())
	require.Equal(t, 0, m.focus)
	require.Equal(t, "Yesterday", m.view.Cards[0].PreviousLabel)
}

func TestClickOutsideTabsIgnored(t *testing.T) {
	m, dash := newModel(t)
	_, _ = m.Update(tea.MouseMsg{X: 2, Y: tabRow + 3, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	_, _ = m.Update(tea.MouseMsg{X: 2, Y: tabRow, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})
	require.Equal(t, stats.Weekly, dash.Timeframe())
}

func TestRevealIsStaggered(t *testing.T) {
	m, _ := newModel(t)
	cmd := m.Init()
	require.NotNil(t, cmd)
	require.Equal(t, 1, m.revealed)

	gen := m.gen
	for i := 0; i < 10; i++ {
		_, _ = m.Update(revealMsg{gen: gen})
	}
	require.Equal(t, len(m.view.Cards), m.revealed)

	_, _ = m.Update(revealMsg{gen: gen - 1})
	require.Equal(t, len(m.view.Cards), m.revealed)
}

func TestResizeIsDebounced(t *testing.T) {
	m, _ := newModel(t)
	var mu sync.Mutex
	var got []tea.Msg
	m.send = func(msg tea.Msg) {
		mu.Lock()
		got = append(got, msg)
		mu.Unlock()
	}

	_, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	_, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	require.Equal(t, 80, m.width)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 20*time.Millisecond)

	mu.Lock()
	msg := got[0]
	mu.Unlock()
	_, _ = m.Update(msg)
	require.Equal(t, 120, m.width)
	require.Equal(t, 40, m.height)
}

func TestViewShowsLoadingBeforeFirstAcquisition(t *testing.T) {
	dash := dashboard.New(source.NewChain(nil, nil))
	m := New(context.Background(), dash)
	require.Contains(t, m.View(), "Loading activities...")
}

func TestViewShowsCards(t *testing.T) {
	m, _ := newModel(t)
	m.revealed = len(m.view.Cards)
	out := m.View()
	require.Contains(t, out, "Self Care")
	require.Contains(t, out, "32hrs")
	require.Contains(t, out, "Last Week - 36hrs")
	require.Contains(t, out, "source: defaults")
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestProgramSelectThenQuitDoesNotBlock(t *testing.T) {
	dash := dashboard.New(source.NewChain(nil, nil))
	dash.Refresh(context.Background())
	t.Cleanup(dash.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p, release := newProgram(ctx, dash, tea.WithInput(nil), tea.WithOutput(io.Discard), tea.WithoutRenderer())
	defer release()

	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()

	go func() {
		for _, key := range []string{"d", "m", "q"} {
			p.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		}
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("program still running after select and quit (timeframe=%s)", dash.Timeframe())
	}
	require.Equal(t, stats.Monthly, dash.Timeframe())
}

func TestRenderedMsgPicksUpLatestView(t *testing.T) {
	m, dash := newModel(t)
	_, err := dash.Select(input.Activation{Target: stats.Monthly, Kind: input.Pointer})
	require.NoError(t, err)

	_, cmd := m.Update(renderedMsg{})
	require.NotNil(t, cmd)
	require.Equal(t, stats.Monthly, m.view.Timeframe)

	_, cmd = m.Update(renderedMsg{})
	require.Nil(t, cmd)
}
