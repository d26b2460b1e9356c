package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ExchangeHandlerFunc consumes a decoded exchange. Returning an error nacks
// the message.
type ExchangeHandlerFunc func(ctx context.Context, ex Exchange) error

// NewRouter returns a router with panic recovery installed and no handlers.
func NewRouter(logger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "creating event router")
	}
	router.AddMiddleware(middleware.Recoverer)
	return router, nil
}

// AddExchangeHandler subscribes f to the chat topic.
func AddExchangeHandler(router *message.Router, name string, sub message.Subscriber, f ExchangeHandlerFunc) {
	router.AddNoPublisherHandler(name, TopicChat, sub, func(msg *message.Message) error {
		ex, err := ParseExchange(msg)
		if err != nil {
			// a malformed payload will never decode, drop it
			log.Warn().Err(err).Str("uuid", msg.UUID).Msg("dropping malformed exchange")
			return nil
		}
		return f(msg.Context(), ex)
	})
}

// LogHandler writes one log line per exchange.
func LogHandler(logger zerolog.Logger) ExchangeHandlerFunc {
	return func(_ context.Context, ex Exchange) error {
		var ev *zerolog.Event
		if ex.Error != "" {
			ev = logger.Warn().Str("error", ex.Error)
		} else {
			ev = logger.Info().Int("response_len", len(ex.Response))
		}
		ev.Str("session_id", ex.SessionID).
			Str("model", ex.Model).
			Int("message_len", len(ex.Message)).
			Str("exchange_id", ex.ID).
			Dur("latency", ex.Latency()).
			Msg("chat exchange")
		return nil
	}
}
