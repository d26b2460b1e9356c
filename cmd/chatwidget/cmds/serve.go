package cmds

import (
	"context"
	"os"
	"time"

	"github.com/go-go-golems/chatwidget/pkg/backend"
	"github.com/go-go-golems/chatwidget/pkg/engine"
	"github.com/go-go-golems/chatwidget/pkg/events"
	"github.com/go-go-golems/chatwidget/pkg/history"
	"github.com/go-go-golems/chatwidget/pkg/redisstream"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type ServeCommand struct {
	*cmds.CommandDescription
}

var _ cmds.BareCommand = &ServeCommand{}

type ServeSettings struct {
	Addr            string   `glazed:"addr"`
	CORSOrigins     []string `glazed:"cors-origins"`
	ShutdownTimeout string   `glazed:"shutdown-timeout"`

	Engine        string  `glazed:"engine"`
	OpenAIAPIKey  string  `glazed:"openai-api-key"`
	OpenAIBaseURL string  `glazed:"openai-base-url"`
	Model         string  `glazed:"model"`
	Temperature   float64 `glazed:"temperature"`
	SystemPrompt  string  `glazed:"system-prompt"`

	MaxHistoryTokens     int    `glazed:"max-history-tokens"`
	SessionIdle          string `glazed:"session-idle"`
	SessionEvictInterval string `glazed:"session-evict-interval"`

	Redis redisstream.Settings
}

func NewServeCommand() (*ServeCommand, error) {
	redisSection, err := redisstream.NewSection()
	if err != nil {
		return nil, errors.Wrap(err, "build redis section")
	}

	desc := cmds.NewCommandDescription(
		"serve",
		cmds.WithShort("Run the chat backend the widget posts to"),
		cmds.WithFlags(
			fields.New("addr", fields.TypeString, fields.WithHelp("Address to listen on"), fields.WithDefault(backend.DefaultAddr)),
			fields.New("cors-origins", fields.TypeStringList, fields.WithHelp("Origins allowed to call the backend from a browser"), fields.WithDefault([]string{"*"})),
			fields.New("shutdown-timeout", fields.TypeString, fields.WithHelp("Grace period for in-flight requests on shutdown"), fields.WithDefault("30s")),

			fields.New("engine", fields.TypeChoice, fields.WithHelp("Reply engine"), fields.WithChoices("openai", "echo"), fields.WithDefault("openai")),
			fields.New("openai-api-key", fields.TypeString, fields.WithHelp("API key of the OpenAI-compatible endpoint (defaults to $GROQ_API_KEY, then $OPENAI_API_KEY)"), fields.WithDefault("")),
			fields.New("openai-base-url", fields.TypeString, fields.WithHelp("Base URL of the OpenAI-compatible endpoint"), fields.WithDefault(engine.DefaultBaseURL)),
			fields.New("model", fields.TypeString, fields.WithHelp("Model name"), fields.WithDefault(engine.DefaultModel)),
			fields.New("temperature", fields.TypeFloat, fields.WithHelp("Sampling temperature, 0 keeps the endpoint default"), fields.WithDefault(0.0)),
			fields.New("system-prompt", fields.TypeString, fields.WithHelp("System prompt sent before the conversation"), fields.WithDefault(engine.DefaultSystemPrompt)),

			fields.New("max-history-tokens", fields.TypeInteger, fields.WithHelp("Token budget of the conversation sent to the model, 0 disables trimming"), fields.WithDefault(history.DefaultMaxTokens)),
			fields.New("session-idle", fields.TypeString, fields.WithHelp("Drop sessions idle for this long, 0s keeps them forever"), fields.WithDefault("30m")),
			fields.New("session-evict-interval", fields.TypeString, fields.WithHelp("How often idle sessions are looked for"), fields.WithDefault("1m")),
		),
		cmds.WithSections(redisSection),
	)
	return &ServeCommand{CommandDescription: desc}, nil
}

func buildEngine(s *ServeSettings) (engine.Engine, string, error) {
	switch s.Engine {
	case "echo":
		return engine.Echo{}, "echo", nil
	case "openai":
		key := s.OpenAIAPIKey
		if key == "" {
			key = os.Getenv("GROQ_API_KEY")
		}
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		e, err := engine.NewOpenAI(engine.OpenAISettings{
			APIKey:      key,
			BaseURL:     s.OpenAIBaseURL,
			Model:       s.Model,
			Temperature: float32(s.Temperature),
		})
		if err != nil {
			return nil, "", err
		}
		return e, e.Model(), nil
	default:
		return nil, "", errors.Errorf("unknown engine %q", s.Engine)
	}
}

func (c *ServeCommand) Run(ctx context.Context, parsed *values.Values) error {
	s := &ServeSettings{}
	if err := parsed.DecodeSectionInto(values.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "init serve settings")
	}
	if err := parsed.DecodeSectionInto(redisstream.Slug, &s.Redis); err != nil {
		return errors.Wrap(err, "init redis settings")
	}

	var durations [3]time.Duration
	for i, f := range []struct{ flag, value string }{
		{"shutdown-timeout", s.ShutdownTimeout},
		{"session-idle", s.SessionIdle},
		{"session-evict-interval", s.SessionEvictInterval},
	} {
		d, err := parseDuration(f.flag, f.value)
		if err != nil {
			return err
		}
		durations[i] = d
	}
	shutdownTimeout, sessionIdle, evictInterval := durations[0], durations[1], durations[2]

	eng, model, err := buildEngine(s)
	if err != nil {
		return err
	}

	var counter history.Counter = history.RuneCounter{}
	if tc, err := history.NewTokenCounter(); err != nil {
		log.Warn().Err(err).Msg("falling back to approximate token counts")
	} else {
		counter = tc
	}

	store := history.NewMemoryStore()
	store.SetEvictionConfig(sessionIdle, evictInterval)

	wlog := events.NewWatermillLogger(log.Logger)
	ps, err := redisstream.BuildPubSub(s.Redis, wlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := ps.Close(); err != nil {
			log.Warn().Err(err).Msg("closing event transport")
		}
	}()
	if s.Redis.Enabled {
		if err := redisstream.EnsureGroupAtTail(ctx, ps.Redis(), events.TopicChat, s.Redis.Group); err != nil {
			return err
		}
	}

	router, err := events.NewRouter(wlog)
	if err != nil {
		return err
	}
	events.AddExchangeHandler(router, "exchange-log", ps.Subscriber, events.LogHandler(log.Logger))

	svc := backend.NewService(store, eng,
		backend.WithTrimmer(history.NewTrimmer(s.MaxHistoryTokens, counter)),
		backend.WithSystemPrompt(s.SystemPrompt),
		backend.WithPublisher(events.NewPublisher(ps.Publisher)),
		backend.WithModelName(model),
	)

	srv := backend.NewServer(
		backend.ServerConfig{
			Addr:            s.Addr,
			ShutdownTimeout: shutdownTimeout,
		},
		backend.NewRouter(backend.NewHandler(svc), s.CORSOrigins),
		backend.WithEvictingStore(store),
		backend.WithEventRouter(router),
	)

	log.Info().
		Str("engine", s.Engine).
		Str("model", model).
		Bool("redis", s.Redis.Enabled).
		Msg("chat backend configured")

	return srv.Run(ctx)
}
