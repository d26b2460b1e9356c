// Package headless provides an in-memory widget.View. It keeps the state a
// browser DOM would hold so a widget can run without any screen.
package headless

import (
	"sync"

	"github.com/go-go-golems/chatwidget/pkg/widget"
)

// Message is a snapshot of one bubble.
type Message struct {
	Sender  widget.Sender
	Content string
}

type View struct {
	mu       sync.RWMutex
	visible  bool
	input    string
	bubbles  []*Bubble
	scrolled int
	onChange func()
}

var _ widget.View = (*View)(nil)

type Option func(*View)

// WithOnChange registers a callback run after every mutation, outside the lock.
func WithOnChange(f func()) Option {
	return func(v *View) {
		v.onChange = f
	}
}

func NewView(opts ...Option) *View {
	v := &View{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *View) changed() {
	if v.onChange != nil {
		v.onChange()
	}
}

func (v *View) SetPanelVisible(visible bool) {
	v.mu.Lock()
	v.visible = visible
	v.mu.Unlock()
	v.changed()
}

func (v *View) PanelVisible() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.visible
}

// SetInput types text into the input field.
func (v *View) SetInput(text string) {
	v.mu.Lock()
	v.input = text
	v.mu.Unlock()
	v.changed()
}

func (v *View) InputValue() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.input
}

func (v *View) ClearInput() {
	v.SetInput("")
}

func (v *View) AppendBubble(sender widget.Sender, content string) widget.Bubble {
	b := &Bubble{view: v, sender: sender, content: content}
	v.mu.Lock()
	v.bubbles = append(v.bubbles, b)
	v.scrolled = len(v.bubbles)
	v.mu.Unlock()
	v.changed()
	return b
}

// ScrolledToBottom reports whether the last bubble is in view.
func (v *View) ScrolledToBottom() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.scrolled == len(v.bubbles)
}

func (v *View) Messages() []Message {
	v.mu.RLock()
	defer v.mu.RUnlock()
	ret := make([]Message, 0, len(v.bubbles))
	for _, b := range v.bubbles {
		ret = append(ret, Message{Sender: b.sender, Content: b.content})
	}
	return ret
}

func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.bubbles)
}

// Bubble is a message in a headless View.
type Bubble struct {
	view    *View
	sender  widget.Sender
	content string
}

var _ widget.Bubble = (*Bubble)(nil)

func (b *Bubble) Sender() widget.Sender {
	return b.sender
}

func (b *Bubble) SetContent(content string) {
	b.view.mu.Lock()
	b.content = content
	b.view.mu.Unlock()
	b.view.changed()
}

func (b *Bubble) AppendContent(fragment string) {
	b.view.mu.Lock()
	b.content += fragment
	b.view.mu.Unlock()
	b.view.changed()
}

func (b *Bubble) Content() string {
	b.view.mu.RLock()
	defer b.view.mu.RUnlock()
	return b.content
}
