package chat

// Reply is the outcome of one exchange on a session.
type Reply struct {
	Text      string `json:"resposta"`
	SessionID string `json:"session_id,omitempty"`
}

// Turn carries what the prompt composer needs to know about a session at the
// moment a question arrives.
type Turn struct {
	SessionID string
	First     bool
	History   []Line
	Question  string
}
