// Package tui is the terminal front end: a bubbletea program whose update
// loop is the presentation context. Consumer callbacks reach it through
// Bridge, which redispatches them with program.Send.
package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hejijunhao/jobtray/internal/model"
	"github.com/hejijunhao/jobtray/internal/output"
	"github.com/hejijunhao/jobtray/internal/tray"
)

// eventMsg carries one classified event into the update loop.
type eventMsg struct {
	event model.Event
}

type connectedMsg struct{}

type disconnectedMsg struct {
	err error
}

// Model is the bubbletea model. It drives a tray.Core, which is only ever
// touched from Update.
type Model struct {
	ctx    context.Context
	core   *tray.Core
	state  tray.State
	keys   KeyMap
	theme  Theme
	help   help.Model
	onQuit func()

	width  int
	height int
}

// Option configures a Model.
type Option func(*Model)

// WithOnQuit runs fn when the user quits, before the program exits.
func WithOnQuit(fn func()) Option {
	return func(m *Model) { m.onQuit = fn }
}

// WithTheme replaces DefaultTheme.
func WithTheme(t Theme) Option {
	return func(m *Model) { m.theme = t }
}

// New creates a Model over core. ctx is passed to the core's output writes.
func New(ctx context.Context, core *tray.Core, opts ...Option) Model {
	m := Model{
		ctx:   ctx,
		core:  core,
		keys:  DefaultKeyMap,
		theme: DefaultTheme,
		help:  help.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.state = core.State()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.Clear):
			m.core.Clear()
		case key.Matches(msg, m.keys.Reset):
			m.core.Reset()
		default:
			return m, nil
		}

	case eventMsg:
		m.core.Event(m.ctx, msg.event)

	case connectedMsg:
		m.core.Connected()

	case disconnectedMsg:
		m.core.Disconnected(msg.err)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	default:
		return m, nil
	}

	m.state = m.core.State()
	return m, nil
}

// State returns the last rendered state.
func (m Model) State() tray.State {
	return m.state
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")
	b.WriteString(m.renderHistory())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground).Render(output.AppName)
	topic := lipgloss.NewStyle().Foreground(m.theme.FaintText).Render("topic: " + m.state.Topic)

	var conn string
	if m.state.Connected {
		conn = lipgloss.NewStyle().Foreground(m.theme.Connected).Render("● connected")
	} else {
		conn = lipgloss.NewStyle().Foreground(m.theme.Disconnected).Render("○ reconnecting")
	}
	header := title + "  " + topic + "  " + conn

	style := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(m.theme.BorderColor)
	if m.width > 0 {
		style = style.Width(m.width)
	}
	return style.Render(header)
}

func (m Model) renderStatus() string {
	color := m.theme.StatusColor(m.state.Icon)
	line := lipgloss.NewStyle().Bold(true).Foreground(color).
		Render(output.Glyph(m.state.Icon) + " " + m.state.Tooltip())
	if !m.state.Connected && m.state.LastError != "" {
		errLine := lipgloss.NewStyle().Foreground(m.theme.FaintText).
			Render("last error: " + output.Truncate(m.state.LastError, 80))
		line += "\n" + errLine
	}
	return line
}

// historyRows is how many rows the list may use: everything left after the
// header, status, spacing and help lines.
func (m Model) historyRows() int {
	if m.height <= 0 {
		return len(m.state.Recent)
	}
	rows := m.height - 7
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m Model) renderHistory() string {
	if len(m.state.Recent) == 0 {
		return lipgloss.NewStyle().Foreground(m.theme.FaintText).Render("  "+tray.EmptyLabel) + "\n"
	}

	var b strings.Builder
	limit := m.historyRows()
	for i, e := range m.state.Recent {
		if i >= limit {
			more := len(m.state.Recent) - limit
			b.WriteString(lipgloss.NewStyle().Foreground(m.theme.FaintText).
				Render("  … " + strconv.Itoa(more) + " older"))
			b.WriteString("\n")
			break
		}
		b.WriteString("  ")
		b.WriteString(lipgloss.NewStyle().Foreground(m.theme.StatusColor(e.Status)).Render(output.Label(e)))
		b.WriteString("\n")
	}
	return b.String()
}
