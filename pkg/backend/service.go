// Package backend is the HTTP service the chat widget talks to. It keeps a
// history per session and asks an engine for every reply.
package backend

import (
	"context"
	"time"

	"github.com/go-go-golems/chatwidget/pkg/engine"
	"github.com/go-go-golems/chatwidget/pkg/events"
	"github.com/go-go-golems/chatwidget/pkg/history"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var ErrMissingFields = errors.New("Session ID and message are required")

type Service struct {
	store        history.Store
	engine       engine.Engine
	trimmer      *history.Trimmer
	systemPrompt string
	publisher    *events.Publisher
	model        string
	now          func() time.Time
}

type ServiceOption func(*Service)

func WithTrimmer(t *history.Trimmer) ServiceOption {
	return func(s *Service) {
		s.trimmer = t
	}
}

func WithSystemPrompt(prompt string) ServiceOption {
	return func(s *Service) {
		s.systemPrompt = prompt
	}
}

// WithPublisher publishes every exchange, failed ones included.
func WithPublisher(p *events.Publisher) ServiceOption {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithModelName labels published exchanges.
func WithModelName(model string) ServiceOption {
	return func(s *Service) {
		s.model = model
	}
}

func NewService(store history.Store, eng engine.Engine, opts ...ServiceOption) *Service {
	s := &Service{
		store:        store,
		engine:       eng,
		systemPrompt: engine.DefaultSystemPrompt,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Respond records message in the session's history and returns the
// assistant's reply. The human message stays in the history when the engine
// fails, the reply is only recorded on success.
func (s *Service) Respond(ctx context.Context, sessionID, message string) (string, error) {
	if sessionID == "" || message == "" {
		return "", errors.WithStack(ErrMissingFields)
	}

	start := s.now()
	reply, err := s.respond(ctx, sessionID, message)

	ex := events.Exchange{
		SessionID: sessionID,
		Message:   message,
		Model:     s.model,
		LatencyMS: s.now().Sub(start).Milliseconds(),
		CreatedAt: start,
	}
	if err != nil {
		ex.Error = err.Error()
	} else {
		ex.Response = reply
	}
	s.publish(ctx, ex)

	return reply, err
}

func (s *Service) respond(ctx context.Context, sessionID, message string) (string, error) {
	if err := s.store.Append(ctx, sessionID, history.Human(message)); err != nil {
		return "", errors.Wrap(err, "recording message")
	}
	msgs, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return "", errors.Wrap(err, "loading history")
	}

	prompt := make([]history.Message, 0, len(msgs)+1)
	if s.systemPrompt != "" {
		prompt = append(prompt, history.System(s.systemPrompt))
	}
	prompt = s.trimmer.Trim(append(prompt, msgs...))

	reply, err := s.engine.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	if err := s.store.Append(ctx, sessionID, history.AI(reply)); err != nil {
		return "", errors.Wrap(err, "recording reply")
	}
	return reply, nil
}

func (s *Service) publish(ctx context.Context, ex events.Exchange) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExchange(ctx, ex); err != nil {
		log.Warn().Err(err).Str("session_id", ex.SessionID).Msg("could not publish chat exchange")
	}
}
