package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/go-go-golems/chatwidget/pkg/widget"
	"github.com/pkg/errors"
)

const (
	userPrefix = "you> "
	botPrefix  = "bot> "
)

// LineView is a widget.View for terminals without a screen to draw on. It
// prints one line per bubble and streams revealed fragments as they arrive.
// The typing placeholder is not printed.
type LineView struct {
	mu      sync.Mutex
	out     io.Writer
	visible bool
	input   string
	open    *lineBubble
}

var _ widget.View = (*LineView)(nil)

func NewLineView(out io.Writer) *LineView {
	return &LineView{out: out}
}

func (v *LineView) SetPanelVisible(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible = visible
}

func (v *LineView) SetInput(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.input = text
}

func (v *LineView) InputValue() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.input
}

func (v *LineView) ClearInput() {
	v.SetInput("")
}

func (v *LineView) AppendBubble(sender widget.Sender, content string) widget.Bubble {
	b := &lineBubble{view: v, content: content}
	if sender == widget.SenderUser {
		v.mu.Lock()
		v.closeLocked()
		_, _ = fmt.Fprintln(v.out, userPrefix+plainText(content))
		v.mu.Unlock()
	}
	return b
}

// EndLine terminates a reply that was being streamed.
func (v *LineView) EndLine() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closeLocked()
}

func (v *LineView) closeLocked() {
	if v.open != nil {
		_, _ = fmt.Fprintln(v.out)
		v.open = nil
	}
}

type lineBubble struct {
	view    *LineView
	content string
}

// SetContent with an empty string opens a streamed reply line. Any other
// content is printed as a complete line.
func (b *lineBubble) SetContent(content string) {
	v := b.view
	v.mu.Lock()
	defer v.mu.Unlock()

	b.content = content
	if content == "" {
		if v.open != b {
			v.closeLocked()
			_, _ = io.WriteString(v.out, botPrefix)
			v.open = b
		}
		return
	}
	if v.open == b {
		v.open = nil
		_, _ = fmt.Fprintln(v.out)
	} else {
		v.closeLocked()
	}
	_, _ = fmt.Fprintln(v.out, botPrefix+plainText(content))
}

func (b *lineBubble) AppendContent(fragment string) {
	v := b.view
	v.mu.Lock()
	defer v.mu.Unlock()

	b.content += fragment
	if v.open == b {
		_, _ = io.WriteString(v.out, plainText(fragment))
	}
}

func (b *lineBubble) Content() string {
	b.view.mu.Lock()
	defer b.view.mu.Unlock()
	return b.content
}

// RunLines reads one message per line from in and sends it through w,
// waiting for each reply to be fully revealed before reading the next line.
func RunLines(ctx context.Context, w *widget.Widget, v *LineView, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		v.SetInput(scanner.Text())
		ex := w.SendMessage(ctx)
		if ex == nil || ex.Reveal == nil {
			continue
		}

		select {
		case <-ex.Reveal.Done():
			v.EndLine()
		case <-ctx.Done():
			ex.Reveal.Stop()
			v.EndLine()
			return ctx.Err()
		}
	}
	return errors.Wrap(scanner.Err(), "reading input")
}
