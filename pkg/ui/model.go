package ui

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/chatwidget/pkg/widget"
	"github.com/rs/zerolog/log"
)

type changedMsg struct{}

type sentMsg struct {
	exchange *widget.Exchange
}

// Model is the bubbletea program of the terminal widget: a toggle button in
// the bottom right corner and the chat panel above it.
type Model struct {
	ctx     context.Context
	widget  *widget.Widget
	surface *Surface

	input    textinput.Model
	viewport viewport.Model

	width      int
	height     int
	inputEpoch int
	status     string

	copyText func(string) error
}

type ModelOption func(*Model)

// WithClipboard replaces the system clipboard used by ctrl+y.
func WithClipboard(f func(string) error) ModelOption {
	return func(m *Model) {
		if f != nil {
			m.copyText = f
		}
	}
}

func NewModel(ctx context.Context, w *widget.Widget, s *Surface, opts ...ModelOption) Model {
	inner := panelWidth - 2

	ti := textinput.New()
	ti.Placeholder = "Type your message..."
	ti.Prompt = ""
	ti.Width = inner - lipgloss.Width(sendLabel) - 6

	vp := viewport.New(inner, panelHeight-5)

	m := Model{
		ctx:        ctx,
		widget:     w,
		surface:    s,
		input:      ti,
		viewport:   vp,
		inputEpoch: s.InputEpoch(),
		copyText:   clipboard.WriteAll,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.surface.Changes()), textinput.Blink)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.refresh()
		return m, nil

	case changedMsg:
		m.refresh()
		return m, waitForChange(m.surface.Changes())

	case sentMsg:
		if msg.exchange != nil && msg.exchange.Err != nil {
			log.Debug().Err(msg.exchange.Err).Msg("send finished with error")
		}
		return m, nil

	case tea.MouseMsg:
		if m.onToggleButton(msg) {
			return m.toggle()
		}
		if m.surface.PanelVisible() {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+o":
			return m.toggle()
		case "ctrl+y":
			m.copyLastReply()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case "enter":
			if !m.surface.PanelVisible() {
				return m, nil
			}
			cmd := m.send()
			return m, cmd
		}
		if !m.surface.PanelVisible() {
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) toggle() (tea.Model, tea.Cmd) {
	if m.widget.Toggle() {
		m.refresh()
		return m, m.input.Focus()
	}
	m.input.Blur()
	return m, nil
}

// send empties the text field before the request goes out, a second enter
// while the first is in flight finds nothing to post.
func (m *Model) send() tea.Cmd {
	text := m.input.Value()
	m.input.Reset()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	ctx, w := m.ctx, m.widget
	return func() tea.Msg {
		return sentMsg{exchange: w.SendText(ctx, text)}
	}
}

func (m *Model) refresh() {
	if epoch := m.surface.InputEpoch(); epoch != m.inputEpoch {
		m.inputEpoch = epoch
		m.input.Reset()
	}
	m.viewport.SetContent(renderMessages(m.surface.Snapshot(), m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m *Model) copyLastReply() {
	text, ok := m.surface.LastBotText()
	if !ok {
		m.status = "no reply to copy yet"
		return
	}
	if err := m.copyText(text); err != nil {
		log.Warn().Err(err).Msg("could not copy reply to clipboard")
		m.status = "clipboard unavailable"
		return
	}
	m.status = "reply copied to clipboard"
}

// onToggleButton reports whether a left click landed on the toggle button,
// which is painted on the last line, flush right.
func (m Model) onToggleButton(msg tea.MouseMsg) bool {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return false
	}
	if m.width == 0 || m.height == 0 {
		return false
	}
	buttonWidth := lipgloss.Width(toggleStyle.Render(toggleLabel))
	return msg.Y == m.height-1 && msg.X >= m.width-buttonWidth
}

func (m Model) View() string {
	parts := make([]string, 0, 2)
	if m.surface.PanelVisible() {
		parts = append(parts, m.renderPanel())
	}
	parts = append(parts, toggleStyle.Render(toggleLabel))

	body := lipgloss.JoinVertical(lipgloss.Right, parts...)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Right, lipgloss.Bottom, body)
	}
	return body
}

func (m Model) renderPanel() string {
	inner := panelWidth - 2

	header := headerStyle.Width(inner).Render(headerTitle)
	row := inputRowStyle.Width(inner).Render(
		lipgloss.JoinHorizontal(lipgloss.Center, m.input.View(), " ", sendStyle.Render(sendLabel)),
	)
	status := statusStyle.Width(inner).Render(m.status)

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), row, status))
}
