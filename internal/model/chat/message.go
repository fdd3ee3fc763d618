package chat

import "strings"

// Speaker identifies who produced a history line.
type Speaker string

const (
	Customer Speaker = "Cliente"
	Agent    Speaker = "Atendente"
)

// Line is one turn of a session history.
type Line struct {
	Speaker Speaker `json:"speaker"`
	Content string  `json:"content"`
}

// CustomerLine wraps a question asked by the customer.
func CustomerLine(content string) Line {
	return Line{Speaker: Customer, Content: content}
}

// AgentLine wraps a reply produced by the assistant.
func AgentLine(content string) Line {
	return Line{Speaker: Agent, Content: content}
}

// String renders the line the way it is fed back to the model.
func (l Line) String() string {
	return string(l.Speaker) + ": " + l.Content
}

// JoinLines renders history lines one per row.
func JoinLines(lines []Line) string {
	rendered := make([]string, len(lines))
	for i, line := range lines {
		rendered[i] = line.String()
	}
	return strings.Join(rendered, "\n")
}
