package cmds

import (
	"context"
	"io"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/chatwidget/pkg/transport"
	"github.com/go-go-golems/chatwidget/pkg/ui"
	"github.com/go-go-golems/chatwidget/pkg/widget"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type ChatCommand struct {
	*cmds.CommandDescription
}

var _ cmds.WriterCommand = &ChatCommand{}

type ChatSettings struct {
	BaseURL        string `glazed:"base-url"`
	RevealDelay    string `glazed:"reveal-delay"`
	RequestTimeout string `glazed:"request-timeout"`
	Plain          bool   `glazed:"plain"`
}

func NewChatCommand() (*ChatCommand, error) {
	return &ChatCommand{
		CommandDescription: cmds.NewCommandDescription(
			"chat",
			cmds.WithShort("Open the chat widget in the terminal"),
			cmds.WithLong(`Open the chat widget in the terminal.

Press ctrl+o or click the button in the bottom right corner to open the
panel, enter to send, ctrl+y to copy the last reply and esc to quit.
When stdin or stdout is not a terminal, messages are read one per line.`),
			cmds.WithFlags(
				fields.New(
					"base-url",
					fields.TypeString,
					fields.WithHelp("Base URL of the chat backend"),
					fields.WithDefault(transport.DefaultBaseURL),
				),
				fields.New(
					"reveal-delay",
					fields.TypeString,
					fields.WithHelp("Delay between two revealed characters"),
					fields.WithDefault(widget.DefaultRevealDelay.String()),
				),
				fields.New(
					"request-timeout",
					fields.TypeString,
					fields.WithHelp("Give up on a chat request after this long, 0s waits forever"),
					fields.WithDefault("0s"),
				),
				fields.New(
					"plain",
					fields.TypeBool,
					fields.WithHelp("Read and print messages line by line instead of drawing the widget"),
					fields.WithDefault(false),
				),
			),
		),
	}, nil
}

func (s *ChatSettings) httpClient() (*http.Client, error) {
	timeout, err := parseDuration("request-timeout", s.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return &http.Client{Timeout: timeout}, nil
}

func (c *ChatCommand) RunIntoWriter(ctx context.Context, parsed *values.Values, out io.Writer) error {
	s := &ChatSettings{}
	if err := parsed.DecodeSectionInto(values.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "init chat settings")
	}

	hc, err := s.httpClient()
	if err != nil {
		return err
	}
	delay, err := parseDuration("reveal-delay", s.RevealDelay)
	if err != nil {
		return err
	}
	client := transport.NewClient(s.BaseURL, transport.WithHTTPClient(hc))
	opts := []widget.Option{widget.WithRevealDelay(delay)}

	interactive := isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
	if s.Plain || !interactive {
		view := ui.NewLineView(out)
		w := widget.New(view, client, opts...)
		w.Toggle()
		err := ui.RunLines(ctx, w, view, os.Stdin)
		if errors.Is(err, ctx.Err()) {
			return nil
		}
		return err
	}

	// log lines would be drawn over the widget
	if viper.GetString("log-file") == "" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}

	surface := ui.NewSurface()
	w := widget.New(surface, client, opts...)
	p := tea.NewProgram(
		ui.NewModel(ctx, w, surface),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "running chat widget")
	}
	return nil
}
