// Package history keeps the per-session conversation the backend feeds to
// the language model, and trims it to a token budget.
package history

import (
	"context"

	"github.com/pkg/errors"
)

type Role string

const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message { return Message{Role: RoleSystem, Content: content} }
func Human(content string) Message  { return Message{Role: RoleHuman, Content: content} }
func AI(content string) Message     { return Message{Role: RoleAI, Content: content} }

var ErrSessionNotFound = errors.New("session not found")

// Store holds the messages of every session.
type Store interface {
	// Get returns a copy of the session's messages. Unknown sessions yield
	// an empty slice.
	Get(ctx context.Context, sessionID string) ([]Message, error)
	Append(ctx context.Context, sessionID string, msgs ...Message) error
	// Delete returns ErrSessionNotFound for unknown sessions.
	Delete(ctx context.Context, sessionID string) error
	Len() int
}
