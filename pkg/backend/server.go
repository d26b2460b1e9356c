package backend

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/chatwidget/pkg/history"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const DefaultAddr = ":5000"

type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Server runs the HTTP handler together with the event router and the
// history eviction loop, and stops all of them when its context ends.
type Server struct {
	httpSrv         *http.Server
	store           *history.MemoryStore
	router          *message.Router
	shutdownTimeout time.Duration
}

type ServerOption func(*Server)

// WithEvictingStore runs the store's eviction loop for the server's lifetime.
func WithEvictingStore(store *history.MemoryStore) ServerOption {
	return func(s *Server) {
		s.store = store
	}
}

// WithEventRouter runs router for the server's lifetime and closes it on
// shutdown.
func WithEventRouter(router *message.Router) ServerOption {
	return func(s *Server) {
		s.router = router
	}
}

func NewServer(cfg ServerConfig, handler http.Handler, opts ...ServerOption) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	s := &Server{
		httpSrv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", s.httpSrv.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve blocks until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if ctx == nil {
		return errors.New("ctx is nil")
	}
	eg, egCtx := errgroup.WithContext(ctx)
	srvCtx, srvCancel := context.WithCancel(egCtx)
	defer srvCancel()

	if s.store != nil {
		s.store.StartEvictionLoop(srvCtx)
	}

	if s.router != nil {
		eg.Go(func() error {
			if err := s.router.Run(srvCtx); err != nil {
				return errors.Wrap(err, "event router")
			}
			return nil
		})
	}

	eg.Go(func() error {
		<-srvCtx.Done()
		log.Info().Msg("shutting down chat backend")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
			return err
		}
		if s.router != nil {
			if err := s.router.Close(); err != nil {
				log.Error().Err(err).Msg("event router close error")
			}
		}
		log.Info().Msg("server shutdown complete")
		return nil
	})

	eg.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Msg("starting chat backend")
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvCancel()
			return errors.Wrap(err, "serving http")
		}
		return nil
	})

	return eg.Wait()
}
