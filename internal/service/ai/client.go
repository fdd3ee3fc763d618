package ai

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxTokens   = 500
	DefaultTemperature = float32(0.7)
	DefaultTimeout     = 30 * time.Second
)

// ApologyReply is returned to customers whenever the completion model cannot
// produce an answer.
const ApologyReply = "Desculpe, estou com dificuldades técnicas no momento. Tente novamente em instantes."

// Client sends composed prompts to a chat model. It never returns an error:
// every failure turns into ApologyReply.
type Client struct {
	chatModel model.BaseChatModel
	timeout   time.Duration
}

// NewClient wraps chatModel. A non-positive timeout falls back to
// DefaultTimeout.
func NewClient(chatModel model.BaseChatModel, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{chatModel: chatModel, timeout: timeout}
}

// Complete asks the model to answer prompt as a single user message.
func (c *Client) Complete(ctx context.Context, prompt string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("[ai] completion panicked")
			reply = ApologyReply
		}
	}()

	if c == nil || c.chatModel == nil {
		log.Error().Msg("[ai] completion model not configured")
		return ApologyReply
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	msg, err := c.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)},
		model.WithMaxTokens(DefaultMaxTokens),
		model.WithTemperature(DefaultTemperature),
	)
	if err != nil {
		log.Warn().Err(err).Dur("elapsed", time.Since(started)).Msg("[ai] completion failed")
		return ApologyReply
	}
	if msg == nil {
		log.Warn().Msg("[ai] completion returned no message")
		return ApologyReply
	}

	log.Debug().Int("length", len(msg.Content)).Dur("elapsed", time.Since(started)).Msg("[ai] completion received")
	return msg.Content
}
