package engine

import "github.com/google/uuid"

// Status is the conversation state.
type Status string

const (
	StatusNotStarted     Status = "not_started"
	StatusAwaitingAnswer Status = "awaiting_answer"
	StatusProcessing     Status = "processing"
	StatusCompleted      Status = "completed"
	StatusErrored        Status = "errored"
)

// Session is the state of one conversation. Answers grow monotonically
// until completion; CurrentIndex stays within [0, len(questions)].
type Session struct {
	ID           string            `json:"id"`
	Answers      map[string]string `json:"answers"`
	CurrentIndex int               `json:"current_index"`
	Status       Status            `json:"status"`
}

func newSession() Session {
	return Session{
		ID:      uuid.New().String(),
		Answers: make(map[string]string),
		Status:  StatusNotStarted,
	}
}

// Snapshot returns a copy safe to hand outside the engine.
func (s Session) Snapshot() Session {
	answers := make(map[string]string, len(s.Answers))
	for k, v := range s.Answers {
		answers[k] = v
	}
	s.Answers = answers
	return s
}
