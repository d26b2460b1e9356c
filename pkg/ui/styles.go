package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/chatwidget/pkg/widget"
)

const (
	panelWidth  = 50
	panelHeight = 24

	toggleLabel = "💬"
	headerTitle = "ChatBot"
	sendLabel   = "Send"
)

var (
	accent     = lipgloss.Color("#533483")
	panelBg    = lipgloss.Color("#0f3460")
	botBg      = lipgloss.Color("#1a1a2e")
	inputRowBg = lipgloss.Color("#16213e")
	white      = lipgloss.Color("#FFFFFF")

	toggleStyle = lipgloss.NewStyle().
			Background(accent).
			Foreground(white).
			Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent)

	headerStyle = lipgloss.NewStyle().
			Background(accent).
			Foreground(white).
			Bold(true).
			Align(lipgloss.Center)

	userBubbleStyle = lipgloss.NewStyle().
			Background(accent).
			Foreground(white).
			Padding(0, 1)

	botBubbleStyle = lipgloss.NewStyle().
			Background(botBg).
			Foreground(white).
			Padding(0, 1)

	inputRowStyle = lipgloss.NewStyle().
			Background(inputRowBg).
			Padding(0, 1)

	sendStyle = lipgloss.NewStyle().
			Background(accent).
			Foreground(white).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
)

// renderMessages lays the bubbles out like the browser list: user bubbles on
// the right, bot bubbles on the left, at most three quarters of the width.
func renderMessages(bubbles []BubbleSnapshot, width int) string {
	if width <= 0 {
		width = panelWidth
	}
	maxBubble := width * 3 / 4
	if maxBubble < 4 {
		maxBubble = width
	}

	rows := make([]string, 0, len(bubbles))
	for _, b := range bubbles {
		style, pos := botBubbleStyle, lipgloss.Left
		if b.Sender == widget.SenderUser {
			style, pos = userBubbleStyle, lipgloss.Right
		}

		textWidth := 0
		for _, line := range strings.Split(b.Text, "\n") {
			if w := lipgloss.Width(line); w > textWidth {
				textWidth = w
			}
		}
		bubbleWidth := textWidth + style.GetHorizontalPadding()
		if bubbleWidth > maxBubble {
			bubbleWidth = maxBubble
		}

		rendered := style.Width(bubbleWidth).Render(b.Text)
		rows = append(rows, lipgloss.PlaceHorizontal(width, pos, rendered))
	}
	return strings.Join(rows, "\n\n")
}
