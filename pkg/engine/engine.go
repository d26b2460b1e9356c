// Package engine turns a conversation into the assistant's next reply.
package engine

import (
	"context"
	"fmt"

	"github.com/go-go-golems/chatwidget/pkg/history"
	"github.com/pkg/errors"
)

const DefaultSystemPrompt = "You are a helpful assistant. Answer all questions to the best of your ability."

var ErrEmptyCompletion = errors.New("completion returned no choices")

// Engine completes a conversation. msgs are ordered oldest first and may
// start with a system message.
type Engine interface {
	Complete(ctx context.Context, msgs []history.Message) (string, error)
}

// Echo answers without any model, repeating the last human message.
type Echo struct{}

var _ Engine = Echo{}

func (Echo) Complete(ctx context.Context, msgs []history.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == history.RoleHuman {
			return fmt.Sprintf("You said: %s", msgs[i].Content), nil
		}
	}
	return "", errors.New("no human message to answer")
}
