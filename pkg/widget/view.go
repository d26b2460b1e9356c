package widget

import (
	"context"

	"github.com/go-go-golems/chatwidget/pkg/reveal"
	"github.com/go-go-golems/chatwidget/pkg/transport"
)

// Sender selects the styling of a bubble.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// View is the presentation layer the widget drives: toggle button, panel,
// header, message list and input row. Implementations must be safe for
// concurrent use since replies are rendered from other goroutines.
type View interface {
	SetPanelVisible(visible bool)
	InputValue() string
	ClearInput()
	// AppendBubble adds a bubble at the end of the message list and scrolls
	// the list to the bottom.
	AppendBubble(sender Sender, content string) Bubble
}

// Bubble is a handle to a rendered message that can be rewritten in place.
type Bubble interface {
	reveal.Target
	Content() string
}

// Transport delivers a message to the chat backend and returns the reply.
// Errors wrapping transport.ErrNoResponse are application errors, anything
// else is treated as a connection failure.
type Transport interface {
	Chat(ctx context.Context, req transport.Request) (string, error)
}

var _ Transport = (*transport.Client)(nil)
