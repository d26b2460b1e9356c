package widget_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-go-golems/chatwidget/pkg/headless"
	"github.com/go-go-golems/chatwidget/pkg/reveal"
	"github.com/go-go-golems/chatwidget/pkg/transport"
	"github.com/go-go-golems/chatwidget/pkg/widget"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// instantClock fires every timer right away.
type instantClock struct{}

func (instantClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// holdClock never fires, reveals only progress through Finish.
type holdClock struct{}

func (holdClock) After(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

type transportFunc func(ctx context.Context, req transport.Request) (string, error)

func (f transportFunc) Chat(ctx context.Context, req transport.Request) (string, error) {
	return f(ctx, req)
}

func reply(text string, err error) transportFunc {
	return func(context.Context, transport.Request) (string, error) {
		return text, err
	}
}

func newWidget(t transportFunc, clock reveal.Clock) (*widget.Widget, *headless.View) {
	view := headless.NewView()
	w := widget.New(view, t,
		widget.WithSessionID("session_42"),
		widget.WithAnimator(reveal.NewAnimator(reveal.WithClock(clock))),
	)
	return w, view
}

func TestPanelStartsHiddenAndToggles(t *testing.T) {
	w, view := newWidget(reply("", nil), instantClock{})
	require.False(t, w.Visible())
	require.False(t, view.PanelVisible())

	for i := 1; i <= 5; i++ {
		visible := w.Toggle()
		require.Equal(t, i%2 == 1, visible)
		require.Equal(t, visible, view.PanelVisible())
	}

	w.Toggle()
	require.False(t, w.Visible())
	require.False(t, view.PanelVisible())
}

func TestSessionIDIsPerInstance(t *testing.T) {
	require.Equal(t, "session_1700000000000", widget.NewSessionID(time.UnixMilli(1700000000000)))

	a := widget.New(headless.NewView(), reply("", nil), widget.WithSessionID("a"))
	b := widget.New(headless.NewView(), reply("", nil), widget.WithSessionID("b"))
	require.Equal(t, "a", a.SessionID())
	require.Equal(t, "b", b.SessionID())

	c := widget.New(headless.NewView(), reply("", nil))
	require.Regexp(t, `^session_\d+$`, c.SessionID())
}

func TestAppendMessage(t *testing.T) {
	w, view := newWidget(reply("", nil), instantClock{})

	user := w.AppendMessage(widget.SenderUser, "one\ntwo", false)
	typing := w.AppendMessage(widget.SenderBot, "ignored", true)

	require.Equal(t, "one<br>two", user.Content())
	require.Equal(t, widget.TypingText, typing.Content())
	require.Equal(t, []headless.Message{
		{Sender: widget.SenderUser, Content: "one<br>two"},
		{Sender: widget.SenderBot, Content: widget.TypingText},
	}, view.Messages())
	require.True(t, view.ScrolledToBottom())

	typing.SetContent("done")
	require.Equal(t, "done", view.Messages()[1].Content)
}

func TestSendMessageIgnoresBlankInput(t *testing.T) {
	called := false
	w, view := newWidget(func(context.Context, transport.Request) (string, error) {
		called = true
		return "x", nil
	}, instantClock{})

	for _, input := range []string{"", "   ", "\n\t "} {
		view.SetInput(input)
		require.Nil(t, w.SendMessage(context.Background()))
		require.Equal(t, input, view.InputValue())
	}
	require.Equal(t, 0, view.Len())
	require.False(t, called)
}

func TestSendTextLeavesInputAlone(t *testing.T) {
	var got []string
	w, view := newWidget(func(_ context.Context, req transport.Request) (string, error) {
		got = append(got, req.Message)
		return "ok", nil
	}, instantClock{})

	view.SetInput("draft")
	require.Nil(t, w.SendText(context.Background(), "  "))
	ex := w.SendText(context.Background(), " typed elsewhere ")
	require.NotNil(t, ex)
	ex.Reveal.Wait()

	require.Equal(t, []string{"typed elsewhere"}, got)
	require.Equal(t, "draft", view.InputValue())
	require.Equal(t, 2, view.Len())
}

func TestSendMessageRendersBubblesBeforeReply(t *testing.T) {
	release := make(chan struct{})
	seen := make(chan []headless.Message, 1)
	var view *headless.View
	var got transport.Request

	w, v := newWidget(func(_ context.Context, req transport.Request) (string, error) {
		got = req
		seen <- view.Messages()
		<-release
		return "ok", nil
	}, instantClock{})
	view = v

	view.SetInput("  hello  ")
	done := make(chan *widget.Exchange, 1)
	go func() { done <- w.SendMessage(context.Background()) }()

	inFlight := <-seen
	require.Equal(t, []headless.Message{
		{Sender: widget.SenderUser, Content: "hello"},
		{Sender: widget.SenderBot, Content: widget.TypingText},
	}, inFlight)
	require.Equal(t, "", view.InputValue())

	close(release)
	ex := <-done
	require.NotNil(t, ex.Reveal)
	ex.Reveal.Wait()

	require.Equal(t, transport.Request{Message: "hello", SessionID: "session_42"}, got)
	require.Equal(t, 2, view.Len())
	require.Equal(t, "ok", ex.Placeholder.Content())
}

func TestSendMessageRevealsReplyWithLineBreaks(t *testing.T) {
	w, view := newWidget(reply("hi\nthere", nil), instantClock{})

	view.SetInput("hey")
	ex := w.SendMessage(context.Background())
	require.NotNil(t, ex)
	require.NoError(t, ex.Err)
	ex.Reveal.Wait()

	require.Equal(t, "hi<br>there", ex.Placeholder.Content())
	require.True(t, ex.Reveal.Completed())
}

func TestSendMessageApplicationError(t *testing.T) {
	w, view := newWidget(reply("", errors.WithStack(transport.ErrNoResponse)), instantClock{})

	view.SetInput("hey")
	ex := w.SendMessage(context.Background())

	require.Nil(t, ex.Reveal)
	require.Equal(t, widget.ErrorText, ex.Placeholder.Content())
	require.Equal(t, widget.ErrorText, view.Messages()[1].Content)
}

func TestSendMessageTransportError(t *testing.T) {
	w, view := newWidget(reply("", errors.New("connection refused")), instantClock{})

	view.SetInput("hey")
	ex := w.SendMessage(context.Background())

	require.Nil(t, ex.Reveal)
	require.Error(t, ex.Err)
	require.Equal(t, widget.ConnectErrorText, ex.Placeholder.Content())
}

func TestNewerReplySupersedesRunningReveal(t *testing.T) {
	w, view := newWidget(reply("", nil), holdClock{})

	first := w.AppendMessage(widget.SenderBot, "", true)
	second := w.AppendMessage(widget.SenderBot, "", true)

	run1 := w.TypeResponse(first, "first reply", 0)
	require.Equal(t, "f", first.Content())

	run2 := w.TypeResponse(second, "second", 0)
	run1.Wait()

	require.True(t, run1.Completed())
	require.Equal(t, "first reply", first.Content())
	require.Equal(t, "s", second.Content())
	require.False(t, run2.Completed())

	run2.Stop()
	run2.Wait()
	require.Equal(t, 2, view.Len())
}

func TestOverlappingSendsKeepTheirOwnPlaceholders(t *testing.T) {
	var mu sync.Mutex
	gates := map[string]chan struct{}{
		"one": make(chan struct{}),
		"two": make(chan struct{}),
	}
	started := make(chan string, 2)

	view := headless.NewView()
	w := widget.New(view, transportFunc(func(_ context.Context, req transport.Request) (string, error) {
		mu.Lock()
		gate := gates[req.Message]
		mu.Unlock()
		started <- req.Message
		<-gate
		return "re: " + req.Message, nil
	}), widget.WithAnimator(reveal.NewAnimator(reveal.WithClock(instantClock{}))))

	results := make(chan *widget.Exchange, 2)
	view.SetInput("one")
	go func() { results <- w.SendMessage(context.Background()) }()
	require.Equal(t, "one", <-started)
	view.SetInput("two")
	go func() { results <- w.SendMessage(context.Background()) }()
	require.Equal(t, "two", <-started)
	require.Equal(t, 4, view.Len())

	close(gates["two"])
	exTwo := <-results
	close(gates["one"])
	exOne := <-results

	for _, ex := range []*widget.Exchange{exOne, exTwo} {
		ex.Reveal.Wait()
		require.Equal(t, "re: "+ex.Message, ex.Placeholder.Content())
	}
	require.Equal(t, 4, view.Len())
}

func TestSendMessageOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"pong"}`))
	}))
	defer srv.Close()

	view := headless.NewView()
	w := widget.New(view, transport.NewClient(srv.URL), widget.WithRevealDelay(time.Millisecond))

	view.SetInput("ping")
	ex := w.SendMessage(context.Background())
	require.NotNil(t, ex.Reveal)
	ex.Reveal.Wait()
	require.Equal(t, []headless.Message{
		{Sender: widget.SenderUser, Content: "ping"},
		{Sender: widget.SenderBot, Content: "pong"},
	}, view.Messages())
}

func TestSendMessageOverHTTPReportsReplyShape(t *testing.T) {
	for body, want := range map[string]string{
		`[]`:                widget.ErrorText,
		`"hello"`:           widget.ErrorText,
		`42`:                widget.ErrorText,
		`{"response":42}`:   widget.ErrorText,
		`{"response":null}`: widget.ErrorText,
		`{}`:                widget.ErrorText,
		`null`:              widget.ConnectErrorText,
		`<html>`:            widget.ConnectErrorText,
	} {
		t.Run(body, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			view := headless.NewView()
			w := widget.New(view, transport.NewClient(srv.URL))
			view.SetInput("ping")
			ex := w.SendMessage(context.Background())
			require.Equal(t, want, ex.Placeholder.Content())
		})
	}
}
