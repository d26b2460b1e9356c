package widget

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-go-golems/chatwidget/pkg/reveal"
	"github.com/go-go-golems/chatwidget/pkg/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	TypingText       = "Typing..."
	ErrorText        = "Sorry, I encountered an error."
	ConnectErrorText = "Unable to connect to the server."

	DefaultRevealDelay = 30 * time.Millisecond
)

// NewSessionID derives a session identifier from the creation time.
func NewSessionID(now time.Time) string {
	return fmt.Sprintf("session_%d", now.UnixMilli())
}

// Widget is one chat widget instance. It owns its session identifier and
// drives the view it was built with.
type Widget struct {
	view      View
	transport Transport
	animator  *reveal.Animator
	sessionID string
	delay     time.Duration

	mu      sync.Mutex
	visible bool
	current *reveal.Run
}

type Option func(*Widget)

func WithSessionID(id string) Option {
	return func(w *Widget) {
		if id != "" {
			w.sessionID = id
		}
	}
}

func WithRevealDelay(d time.Duration) Option {
	return func(w *Widget) {
		if d > 0 {
			w.delay = d
		}
	}
}

func WithAnimator(a *reveal.Animator) Option {
	return func(w *Widget) {
		if a != nil {
			w.animator = a
		}
	}
}

// New builds a widget with its panel hidden.
func New(view View, t Transport, opts ...Option) *Widget {
	w := &Widget{
		view:      view,
		transport: t,
		animator:  reveal.NewAnimator(),
		sessionID: NewSessionID(time.Now()),
		delay:     DefaultRevealDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	view.SetPanelVisible(false)
	return w
}

func (w *Widget) SessionID() string {
	return w.sessionID
}

// Toggle flips the panel between shown and hidden and returns the new state.
func (w *Widget) Toggle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = !w.visible
	w.view.SetPanelVisible(w.visible)
	return w.visible
}

func (w *Widget) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

// AppendMessage renders a bubble for sender. A typing bubble always shows
// TypingText, whatever text is passed.
func (w *Widget) AppendMessage(sender Sender, text string, isTyping bool) Bubble {
	content := TypingText
	if !isTyping {
		content = reveal.Markup(text)
	}
	return w.view.AppendBubble(sender, content)
}

// TypeResponse reveals text into the bubble one character per delay. A
// non-positive delay uses the widget's delay. A reveal still running on this
// widget is finished at once before the new one starts.
func (w *Widget) TypeResponse(b Bubble, text string, delay time.Duration) *reveal.Run {
	if delay <= 0 {
		delay = w.delay
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current != nil {
		w.current.Finish()
	}
	w.current = w.animator.Start(b, text, delay)
	return w.current
}

// Exchange records what a single send rendered.
type Exchange struct {
	Message     string
	User        Bubble
	Placeholder Bubble
	// Reveal is set when a reply is being revealed into Placeholder.
	Reveal *reveal.Run
	// Err is the failure rendered into Placeholder, if any.
	Err error
}

// SendMessage posts the current input. Empty or blank input is ignored and
// nil is returned. Failures are rendered into the placeholder bubble, never
// returned.
func (w *Widget) SendMessage(ctx context.Context) *Exchange {
	message := strings.TrimSpace(w.view.InputValue())
	if message == "" {
		return nil
	}

	w.view.ClearInput()
	return w.send(ctx, message)
}

// SendText posts text the way SendMessage posts the input, for views that
// keep their own input field and have already cleared it.
func (w *Widget) SendText(ctx context.Context, text string) *Exchange {
	message := strings.TrimSpace(text)
	if message == "" {
		return nil
	}
	return w.send(ctx, message)
}

func (w *Widget) send(ctx context.Context, message string) *Exchange {
	ex := &Exchange{Message: message}
	ex.User = w.AppendMessage(SenderUser, message, false)
	ex.Placeholder = w.AppendMessage(SenderBot, "", true)

	reply, err := w.transport.Chat(ctx, transport.Request{
		Message:   message,
		SessionID: w.sessionID,
	})
	ex.Err = err

	switch {
	case err == nil:
		ex.Placeholder.SetContent("")
		ex.Reveal = w.TypeResponse(ex.Placeholder, reply, 0)
	case errors.Is(err, transport.ErrNoResponse):
		log.Warn().Err(err).Str("session_id", w.sessionID).Msg("chat backend returned no response")
		ex.Placeholder.SetContent(ErrorText)
	default:
		log.Warn().Err(err).Str("session_id", w.sessionID).Msg("could not reach chat backend")
		ex.Placeholder.SetContent(ConnectErrorText)
	}

	return ex
}
