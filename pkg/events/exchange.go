// Package events publishes every chat exchange the backend handles on a
// watermill topic, so that other processes can follow the conversation.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	TopicChat = "chat"

	MetadataSessionID = "session_id"
)

// Exchange is one request to the chat endpoint and its outcome. Exactly one
// of Response and Error is set.
type Exchange struct {
	// ID doubles as the watermill message UUID, PublishExchange fills it in
	// when empty.
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response,omitempty"`
	Error     string    `json:"error,omitempty"`
	Model     string    `json:"model,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

func (e Exchange) Latency() time.Duration {
	return time.Duration(e.LatencyMS) * time.Millisecond
}

type Publisher struct {
	pub   message.Publisher
	topic string
}

func NewPublisher(pub message.Publisher) *Publisher {
	return &Publisher{pub: pub, topic: TopicChat}
}

func (p *Publisher) PublishExchange(ctx context.Context, ex Exchange) error {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	payload, err := json.Marshal(ex)
	if err != nil {
		return errors.Wrap(err, "marshalling exchange")
	}
	msg := message.NewMessage(ex.ID, payload)
	msg.Metadata.Set(MetadataSessionID, ex.SessionID)
	msg.SetContext(ctx)

	if err := p.pub.Publish(p.topic, msg); err != nil {
		return errors.Wrapf(err, "publishing exchange to %s", p.topic)
	}
	return nil
}

func ParseExchange(msg *message.Message) (Exchange, error) {
	var ex Exchange
	if err := json.Unmarshal(msg.Payload, &ex); err != nil {
		return Exchange{}, errors.Wrapf(err, "decoding exchange %s", msg.UUID)
	}
	return ex, nil
}
