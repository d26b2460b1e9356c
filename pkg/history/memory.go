package history

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type session struct {
	messages     []Message
	lastActivity time.Time
}

// MemoryStore is a Store kept in process memory. Sessions that stay idle
// longer than the configured duration are dropped by the eviction loop.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	now      func() time.Time

	evictIdle     time.Duration
	evictInterval time.Duration
	evictRunning  bool
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: map[string]*session{},
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return []Message{}, nil
	}
	ret := make([]Message, len(sess.messages))
	copy(ret, sess.messages)
	return ret, nil
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, msgs ...Message) error {
	if sessionID == "" {
		return errors.New("empty session id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	sess.messages = append(sess.messages, msgs...)
	sess.lastActivity = s.now()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return errors.Wrapf(ErrSessionNotFound, "session %q", sessionID)
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) SetEvictionConfig(idle, interval time.Duration) {
	s.mu.Lock()
	s.evictIdle = idle
	s.evictInterval = interval
	s.mu.Unlock()
}

// StartEvictionLoop runs until ctx is done. It does nothing when eviction is
// not configured or a loop is already running.
func (s *MemoryStore) StartEvictionLoop(ctx context.Context) {
	s.mu.Lock()
	if s.evictRunning || s.evictIdle <= 0 || s.evictInterval <= 0 {
		s.mu.Unlock()
		return
	}
	s.evictRunning = true
	interval := s.evictInterval
	s.mu.Unlock()

	go s.runEvictionLoop(ctx, interval)
}

func (s *MemoryStore) runEvictionLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.evictRunning = false
			s.mu.Unlock()
			return
		case now := <-ticker.C:
			if n := s.EvictIdle(now); n > 0 {
				log.Debug().Int("evicted", n).Msg("evicted idle chat sessions")
			}
		}
	}
}

// EvictIdle drops every session whose last activity is at least the idle
// duration before now and returns how many were dropped.
func (s *MemoryStore) EvictIdle(now time.Time) int {
	if now.IsZero() {
		now = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evictIdle <= 0 {
		return 0
	}

	evicted := 0
	for id, sess := range s.sessions {
		if sess.lastActivity.IsZero() || now.Sub(sess.lastActivity) < s.evictIdle {
			continue
		}
		delete(s.sessions, id)
		evicted++
	}
	return evicted
}
