package model

// Question is one node in the questionnaire graph. Questions are presented
// in list order unless a branching rule redirects the walk.
type Question struct {
	ID       string   `json:"id" yaml:"id"`
	Variable string   `json:"variable,omitempty" yaml:"variable,omitempty"`
	Text     string   `json:"question" yaml:"question"`
	Options  []string `json:"options,omitempty" yaml:"options,omitempty"`

	// Branching maps a normalized answer to the id of the next question.
	// Answers with no matching key fall through to the next list position.
	Branching map[string]string `json:"branching,omitempty" yaml:"branching,omitempty"`
}

// Var returns the name the answer is stored under. Defaults to the
// question id when no explicit variable is configured.
func (q Question) Var() string {
	if q.Variable != "" {
		return q.Variable
	}
	return q.ID
}

// Prompts holds the operator-configurable conversation texts. Empty fields
// fall back to built-in defaults at the point of use.
type Prompts struct {
	Welcome       string `json:"welcome_message,omitempty" yaml:"welcome_message,omitempty"`
	Template      string `json:"prompt_template,omitempty" yaml:"prompt_template,omitempty"`
	SystemMessage string `json:"system_message,omitempty" yaml:"system_message,omitempty"`
}

// Questionnaire is the full conversation definition loaded from the
// registry file. Immutable during a conversation; replaced wholesale on
// reload.
type Questionnaire struct {
	Questions []Question `json:"questions" yaml:"questions"`
	Prompts   Prompts    `json:"prompts" yaml:"prompts"`
}

// FindIndex returns the index of the first question with the given id,
// or -1. Duplicate ids resolve to the first occurrence.
func (q Questionnaire) FindIndex(id string) int {
	for i, question := range q.Questions {
		if question.ID == id {
			return i
		}
	}
	return -1
}
