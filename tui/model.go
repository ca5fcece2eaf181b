// Package tui is a terminal front end for a single local game.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/wricardo/tiles/game/engine"
	"github.com/wricardo/tiles/game/strategy"
)

const cellWidth = 7

// MovedMsg is emitted after a direction key was applied to the engine.
type MovedMsg struct {
	Direction engine.Direction
	Changed   bool
}

func movedCmd(dir engine.Direction, changed bool) tea.Cmd {
	return func() tea.Msg {
		return MovedMsg{Direction: dir, Changed: changed}
	}
}

type Model struct {
	engine *engine.GameEngine
	hinter strategy.Strategy
	keys   KeyMap
	help   help.Model
	hint   string
	width  int
	height int
}

// New wraps eng in a play screen. Hints come from the greedy strategy.
func New(eng *engine.GameEngine) Model {
	return Model{
		engine: eng,
		hinter: strategy.NewGreedy(),
		keys:   DefaultKeyMap(),
		help:   help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			return m.move(engine.Up)
		case key.Matches(msg, m.keys.Down):
			return m.move(engine.Down)
		case key.Matches(msg, m.keys.Left):
			return m.move(engine.Left)
		case key.Matches(msg, m.keys.Right):
			return m.move(engine.Right)
		case key.Matches(msg, m.keys.Reset):
			m.engine.Reset()
			m.hint = ""
			return m, nil
		case key.Matches(msg, m.keys.Hint):
			if dir, ok := m.hinter.NextMove(m.engine.GetBoard()); ok {
				m.hint = fmt.Sprintf("Try %s", dir)
			} else {
				m.hint = "No move changes the board"
			}
			return m, nil
		case key.Matches(msg, m.keys.Auto):
			if dir, ok := m.hinter.NextMove(m.engine.GetBoard()); ok {
				return m.move(dir)
			}
			return m, nil
		}
	}
	return m, nil
}

func (m Model) move(dir engine.Direction) (tea.Model, tea.Cmd) {
	if m.engine.IsStuck() {
		return m, nil
	}
	changed := m.engine.Move(dir)
	m.hint = ""
	return m, movedCmd(dir, changed)
}

func (m Model) View() string {
	state := m.engine.GetState()

	header := Title.Render(strings.ToUpper(state.ConfigName)) + "  " +
		Status.Render(fmt.Sprintf("max %d  moves %d  total %d",
			state.MaxTile, state.CurrentMovesCount, state.TotalMoves))

	footer := Message.Render(state.Message)
	if state.NoMovesLeft {
		footer = Stuck.Render(state.Message)
	}
	lines := []string{header, boardFrame.Render(renderBoard(state.Board)), footer}
	if m.hint != "" {
		lines = append(lines, Hint.Render(m.hint))
	}
	lines = append(lines, m.help.View(m.keys))

	view := lipgloss.JoinVertical(lipgloss.Left, lines...)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, view)
	}
	return view
}

// Engine exposes the wrapped engine, mainly for callers inspecting the final state
func (m Model) Engine() *engine.GameEngine {
	return m.engine
}

func renderBoard(b engine.Board) string {
	rows := make([]string, len(b))
	for r, row := range b {
		cells := make([]string, len(row))
		for c, v := range row {
			cells[c] = renderTile(v, cellWidth)
		}
		rows[r] = lipgloss.JoinHorizontal(lipgloss.Top, cells...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
