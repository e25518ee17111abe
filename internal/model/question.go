package model

// Option is one selectable answer of a question.
type Option struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Question as served by the quiz catalog.
type Question struct {
	ID              string   `json:"id" yaml:"id"`
	Prompt          string   `json:"prompt" yaml:"prompt"`
	Options         []Option `json:"options" yaml:"options"`
	CorrectOptionID string   `json:"correctOptionId" yaml:"correct_option_id"`
}

// HasOption reports whether optionID is one of the question's options.
func (q Question) HasOption(optionID string) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// Valid reports whether the correct option is one of the options.
func (q Question) Valid() bool {
	return q.HasOption(q.CorrectOptionID)
}

// AnswerSet maps a question index to the committed option ID.
type AnswerSet map[int]string

type SelectionKind string

const (
	Unanswered  SelectionKind = "unanswered"
	Uncommitted SelectionKind = "uncommitted"
	Committed   SelectionKind = "committed"
)

// Selection is the state of one question in an attempt. OptionID is empty
// when Kind is Unanswered.
type Selection struct {
	Kind     SelectionKind `json:"kind"`
	OptionID string        `json:"optionId,omitempty"`
}
