package ui

import (
	"strings"
	"sync"

	"github.com/go-go-golems/chatwidget/pkg/reveal"
	"github.com/go-go-golems/chatwidget/pkg/widget"
)

// Surface is the widget.View of the terminal panel. The widget mutates it
// from any goroutine; the bubbletea model reads it when repainting and is
// woken through Changes.
type Surface struct {
	mu         sync.Mutex
	visible    bool
	input      string
	inputEpoch int
	bubbles    []*surfaceBubble

	changes chan struct{}
}

var _ widget.View = (*Surface)(nil)

func NewSurface() *Surface {
	return &Surface{changes: make(chan struct{}, 1)}
}

// Changes receives a value whenever the surface changed since the last read.
// Notifications are coalesced and never block the writer.
func (s *Surface) Changes() <-chan struct{} {
	return s.changes
}

func (s *Surface) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Surface) SetPanelVisible(visible bool) {
	s.mu.Lock()
	s.visible = visible
	s.mu.Unlock()
	s.notify()
}

func (s *Surface) PanelVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// SetInput stages text for Widget.SendMessage. The terminal model posts
// through Widget.SendText and keeps its text field to itself.
func (s *Surface) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

func (s *Surface) InputValue() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// ClearInput empties the input; the model resets its text field when it sees
// the epoch move.
func (s *Surface) ClearInput() {
	s.mu.Lock()
	s.input = ""
	s.inputEpoch++
	s.mu.Unlock()
	s.notify()
}

func (s *Surface) InputEpoch() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputEpoch
}

func (s *Surface) AppendBubble(sender widget.Sender, content string) widget.Bubble {
	b := &surfaceBubble{surface: s, sender: sender, content: content}
	s.mu.Lock()
	s.bubbles = append(s.bubbles, b)
	s.mu.Unlock()
	s.notify()
	return b
}

// BubbleSnapshot is a bubble as it should be painted, with line breaks
// turned back into newlines.
type BubbleSnapshot struct {
	Sender widget.Sender
	Text   string
}

func (s *Surface) Snapshot() []BubbleSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]BubbleSnapshot, 0, len(s.bubbles))
	for _, b := range s.bubbles {
		ret = append(ret, BubbleSnapshot{Sender: b.sender, Text: plainText(b.content)})
	}
	return ret
}

// LastBotText returns the text of the most recent bot bubble that is not a
// typing placeholder.
func (s *Surface) LastBotText() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.bubbles) - 1; i >= 0; i-- {
		b := s.bubbles[i]
		if b.sender != widget.SenderBot || b.content == widget.TypingText {
			continue
		}
		return plainText(b.content), true
	}
	return "", false
}

func plainText(content string) string {
	return strings.ReplaceAll(content, reveal.LineBreak, "\n")
}

type surfaceBubble struct {
	surface *Surface
	sender  widget.Sender
	content string
}

func (b *surfaceBubble) SetContent(content string) {
	b.surface.mu.Lock()
	b.content = content
	b.surface.mu.Unlock()
	b.surface.notify()
}

func (b *surfaceBubble) AppendContent(fragment string) {
	b.surface.mu.Lock()
	b.content += fragment
	b.surface.mu.Unlock()
	b.surface.notify()
}

func (b *surfaceBubble) Content() string {
	b.surface.mu.Lock()
	defer b.surface.mu.Unlock()
	return b.content
}
