package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is where the chat backend listens unless configured otherwise.
const DefaultBaseURL = "http://127.0.0.1:5000"

// ErrNoResponse is returned when the backend answered with a JSON body that
// carries no reply.
var ErrNoResponse = errors.New("reply carries no response")

// Request is the body posted to the chat endpoint.
type Request struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// Reply is the body the chat endpoint answers with.
type Reply struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Client posts chat messages to {baseURL}/chat.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Endpoint() string {
	return c.baseURL + "/chat"
}

// Chat sends one message and returns the reply text. The status code is not
// interpreted: whatever JSON comes back is inspected for a response field.
func (c *Client) Chat(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", errors.Wrap(err, "encode chat request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build chat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", errors.Wrap(err, "post chat message")
	}
	defer func() { _ = resp.Body.Close() }()

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", errors.Wrapf(err, "decode chat reply (status %d)", resp.StatusCode)
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", errors.Errorf("chat reply is null (status %d)", resp.StatusCode)
	}

	// any other JSON value without a string response is an answer the
	// widget reports as an application error
	response, serverErr := replyFields(raw)
	if response == "" {
		log.Debug().
			Int("status", resp.StatusCode).
			Str("session_id", req.SessionID).
			Str("error", serverErr).
			Msg("chat reply without response")
		return "", errors.WithStack(ErrNoResponse)
	}

	return response, nil
}

// replyFields extracts the response and error strings of a reply object.
// Fields of another shape read as empty.
func replyFields(raw json.RawMessage) (response string, serverErr string) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", ""
	}
	if v, ok := obj["response"]; ok {
		_ = json.Unmarshal(v, &response)
	}
	if v, ok := obj["error"]; ok {
		_ = json.Unmarshal(v, &serverErr)
	}
	return response, serverErr
}
