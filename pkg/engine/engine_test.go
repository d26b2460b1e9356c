package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-go-golems/chatwidget/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEcho(t *testing.T) {
	ctx := context.Background()

	reply, err := Echo{}.Complete(ctx, []history.Message{
		history.System(DefaultSystemPrompt),
		history.Human("first"),
		history.AI("You said: first"),
		history.Human("second"),
	})
	require.NoError(t, err)
	require.Equal(t, "You said: second", reply)

	_, err = Echo{}.Complete(ctx, []history.Message{history.System("x")})
	require.Error(t, err)
}

type completionRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func fakeCompletions(t *testing.T, body string, got *completionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIComplete(t *testing.T) {
	var got completionRequest
	srv := fakeCompletions(t, `{
		"id": "c1",
		"object": "chat.completion",
		"model": "llama-3.1-8b-instant",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello!"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 2, "total_tokens": 14}
	}`, &got)

	e, err := NewOpenAI(OpenAISettings{APIKey: "test-key", BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	require.Equal(t, DefaultModel, e.Model())

	reply, err := e.Complete(context.Background(), []history.Message{
		history.System(DefaultSystemPrompt),
		history.Human("hi"),
		history.AI("hey"),
		history.Human("how are you?"),
	})
	require.NoError(t, err)
	require.Equal(t, "Hello!", reply)

	require.Equal(t, DefaultModel, got.Model)
	require.Len(t, got.Messages, 4)
	roles := []string{}
	for _, m := range got.Messages {
		roles = append(roles, m.Role)
	}
	require.Equal(t, []string{"system", "user", "assistant", "user"}, roles)
	require.Equal(t, "how are you?", got.Messages[3].Content)
}

func TestOpenAIEmptyChoices(t *testing.T) {
	srv := fakeCompletions(t, `{"id": "c2", "object": "chat.completion", "choices": []}`, nil)

	e, err := NewOpenAI(OpenAISettings{APIKey: "test-key", BaseURL: srv.URL, Model: "other"})
	require.NoError(t, err)

	_, err = e.Complete(context.Background(), []history.Message{history.Human("hi")})
	require.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestOpenAIAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	e, err := NewOpenAI(OpenAISettings{APIKey: "bad", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = e.Complete(context.Background(), []history.Message{history.Human("hi")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid api key")
}

func TestOpenAIRequiresKeyAndKnownRoles(t *testing.T) {
	_, err := NewOpenAI(OpenAISettings{})
	require.Error(t, err)

	e, err := NewOpenAI(OpenAISettings{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	_, err = e.Complete(context.Background(), []history.Message{{Role: "tool", Content: "x"}})
	require.ErrorContains(t, err, "unknown message role")
}
