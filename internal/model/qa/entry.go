package qa

import "time"

// Entry is one question/answer pair of the knowledge base. Its index is the
// position in the table and shifts whenever an earlier entry is deleted.
type Entry struct {
	Question string `json:"pergunta"`
	Answer   string `json:"resposta"`
}

// Action names a knowledge base mutation in the audit log.
type Action string

const (
	ActionAdd    Action = "add"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// AuditEntry records a mutation. For edits and deletes it carries the values
// the entry held before the change.
type AuditEntry struct {
	Action    Action
	Timestamp time.Time
	Index     int
	Question  string
	Answer    string
}

// UnansweredEntry records an exchange a collaborator flagged as not answered
// by the knowledge base.
type UnansweredEntry struct {
	Timestamp time.Time
	Question  string
	Answer    string
}
