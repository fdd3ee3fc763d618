package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"

	"github.com/naga-ia/agente/backend/internal/model/chat"
	"github.com/naga-ia/agente/backend/internal/model/persona"
)

// PromptHistoryLimit caps how many history lines reach the model, regardless
// of how many the session keeps.
const PromptHistoryLimit = 6

const promptTemplate = "{persona}{instruction}{clock}{history}\n\nPergunta atual do cliente: {question}\n\nSua resposta:"

const followUpInstruction = "\n\nIMPORTANTE: Esta NÃO é a primeira mensagem. NÃO se apresente novamente. NÃO use saudações como 'Boa noite'. Responda diretamente à pergunta de forma natural."

// PromptInput is everything a prompt depends on.
type PromptInput struct {
	Persona  string
	Now      time.Time
	First    bool
	History  []chat.Line
	Question string
}

// Composer turns a conversation turn into the single text prompt sent to the
// completion model.
type Composer struct {
	personas persona.Store
	location *time.Location
	now      func() time.Time
	template prompt.ChatTemplate
}

// ComposerOption customizes a Composer.
type ComposerOption func(*Composer)

// WithNow overrides the composer clock.
func WithNow(now func() time.Time) ComposerOption {
	return func(c *Composer) { c.now = now }
}

// WithLocation overrides the civil time zone used for greetings.
func WithLocation(loc *time.Location) ComposerOption {
	return func(c *Composer) { c.location = loc }
}

// NewComposer returns a Composer reading the persona from personas on every
// call.
func NewComposer(personas persona.Store, opts ...ComposerOption) *Composer {
	c := &Composer{
		personas: personas,
		location: BrasiliaLocation(),
		now:      time.Now,
		template: prompt.FromMessages(schema.FString, schema.UserMessage(promptTemplate)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose builds the prompt for turn.
func (c *Composer) Compose(ctx context.Context, turn chat.Turn) (string, error) {
	return c.build(ctx, PromptInput{
		Persona:  persona.LoadOr(c.personas, persona.DefaultPrompt),
		Now:      c.now().In(c.location),
		First:    turn.First,
		History:  turn.History,
		Question: turn.Question,
	})
}

// buildPrompt renders in with the default template.
func buildPrompt(ctx context.Context, in PromptInput) (string, error) {
	return NewComposer(nil).build(ctx, in)
}

func (c *Composer) build(ctx context.Context, in PromptInput) (string, error) {
	greeting := Greeting(in.Now.Hour())

	instruction := followUpInstruction
	clock := ""
	if in.First {
		instruction = fmt.Sprintf("\n\nIMPORTANTE: Esta é a PRIMEIRA mensagem da conversa. Use a saudação '%s' e apresente-se conforme as instruções.", greeting)
		clock = fmt.Sprintf("\n\nHorário atual em Brasília: %s (%s)", in.Now.Format("15:04"), greeting)
	}

	history := ""
	if len(in.History) > 0 {
		history = "\n\nHistórico da conversa:\n" + chat.JoinLines(lastLines(in.History, PromptHistoryLimit))
	}

	msgs, err := c.template.Format(ctx, map[string]any{
		"persona":     in.Persona,
		"instruction": instruction,
		"clock":       clock,
		"history":     history,
		"question":    in.Question,
	})
	if err != nil {
		return "", errors.Wrap(err, "format prompt")
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", errors.New("prompt template produced no message")
	}
	return msgs[0].Content, nil
}

// Greeting picks the Portuguese greeting for a local hour.
func Greeting(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Bom dia"
	case hour >= 12 && hour < 18:
		return "Boa tarde"
	default:
		return "Boa noite"
	}
}

// BrasiliaLocation returns America/Sao_Paulo, or a fixed UTC-3 zone when the
// tz database is unavailable.
func BrasiliaLocation() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("-03", -3*60*60)
	}
	return loc
}

func lastLines(lines []chat.Line, n int) []chat.Line {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
