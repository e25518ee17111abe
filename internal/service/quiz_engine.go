package service

import (
	"context"
	"edu_player_backend/internal/model"
	"edu_player_backend/internal/util"
	"errors"
	"fmt"
	"sync"
)

type QuizState string

const (
	QuizInProgress QuizState = "in_progress"
	QuizSubmitted  QuizState = "submitted"
)

type pendingSelection struct {
	index    int
	optionID string
}

// QuizEngine holds one quiz attempt. State moves InProgress -> Submitted and
// only a full reload (LoadQuestions) starts over.
type QuizEngine struct {
	mu        sync.Mutex
	questions []model.Question
	answers   model.AnswerSet
	pending   *pendingSelection
	current   int
	state     QuizState
	result    *model.QuizResult
	closed    bool
}

func NewQuizEngine() *QuizEngine {
	return &QuizEngine{
		answers: model.AnswerSet{},
		state:   QuizInProgress,
	}
}

// LoadQuestions replaces the question set and resets the attempt. On failure
// the current state is left untouched.
func (e *QuizEngine) LoadQuestions(ctx context.Context, source QuestionSource) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return util.ErrViewClosed
	}

	questions, err := source.FetchQuestions(ctx)
	if err != nil {
		var fe *util.FetchError
		if errors.As(err, &fe) {
			return err
		}
		return &util.FetchError{Op: opLoadQuestions, Err: err}
	}

	for _, q := range questions {
		if !q.Valid() {
			return &util.FetchError{Op: opLoadQuestions, Err: fmt.Errorf("question %q: %w", q.ID, util.ErrInvalidQuestion)}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// 视图已销毁，丢弃结果
	if e.closed {
		return util.ErrViewClosed
	}

	e.questions = questions
	e.answers = model.AnswerSet{}
	e.pending = nil
	e.current = 0
	e.state = QuizInProgress
	e.result = nil
	return nil
}

// SelectOption records a pending choice; it reaches the AnswerSet on the next
// navigation or on submit.
func (e *QuizEngine) SelectOption(questionIndex int, optionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return util.ErrViewClosed
	}
	if e.state == QuizSubmitted {
		return util.ErrQuizSubmitted
	}
	if questionIndex < 0 || questionIndex >= len(e.questions) {
		return util.ErrQuestionOutOfRange
	}
	if !e.questions[questionIndex].HasOption(optionID) {
		return util.ErrUnknownOption
	}

	if e.pending != nil && e.pending.index != questionIndex {
		e.commitLocked()
	}
	e.pending = &pendingSelection{index: questionIndex, optionID: optionID}
	return nil
}

// GoToQuestion commits the pending selection and moves to index. Moving one
// past the last question wraps to 0; other out-of-range indexes are ignored.
// It returns the resulting index.
func (e *QuizEngine) GoToQuestion(index int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.goToLocked(index)
}

func (e *QuizEngine) Next() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.goToLocked(e.current + 1)
}

func (e *QuizEngine) Previous() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.goToLocked(e.current - 1)
}

func (e *QuizEngine) goToLocked(index int) (int, error) {
	if e.closed {
		return e.current, util.ErrViewClosed
	}

	e.commitLocked()

	n := len(e.questions)
	switch {
	case n == 0:
	case index == n:
		e.current = 0
	case index >= 0 && index < n:
		e.current = index
	}
	return e.current, nil
}

// Submit commits the pending selection and scores every question. Unanswered
// questions count as wrong.
func (e *QuizEngine) Submit() (model.QuizResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return model.QuizResult{}, util.ErrViewClosed
	}
	if e.state == QuizSubmitted {
		return *e.result, util.ErrQuizSubmitted
	}

	e.commitLocked()
	result := e.scoreLocked()
	e.result = &result
	e.state = QuizSubmitted
	return result, nil
}

// Result returns the submitted result, or counts over the answers committed
// so far while the attempt is in progress.
func (e *QuizEngine) Result() model.QuizResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.result != nil {
		return *e.result
	}
	return e.scoreLocked()
}

func (e *QuizEngine) Selection(index int) (model.Selection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.questions) {
		return model.Selection{}, util.ErrQuestionOutOfRange
	}
	return e.selectionLocked(index), nil
}

// Answers returns a copy of the committed answers.
func (e *QuizEngine) Answers() model.AnswerSet {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(model.AnswerSet, len(e.answers))
	for k, v := range e.answers {
		out[k] = v
	}
	return out
}

func (e *QuizEngine) State() QuizState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *QuizEngine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Close tears the view down; loads still in flight are discarded.
func (e *QuizEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.pending = nil
}

type QuestionView struct {
	Index           int             `json:"index"`
	ID              string          `json:"id"`
	Prompt          string          `json:"prompt"`
	Options         []model.Option  `json:"options"`
	Selection       model.Selection `json:"selection"`
	CorrectOptionID string          `json:"correctOptionId,omitempty"`
	Correct         *bool           `json:"correct,omitempty"`
}

type QuizView struct {
	State        QuizState         `json:"state"`
	CurrentIndex int               `json:"currentIndex"`
	Total        int               `json:"total"`
	Questions    []QuestionView    `json:"questions"`
	Result       *model.QuizResult `json:"result,omitempty"`
}

// Snapshot renders the attempt. Correct options are only revealed once the
// quiz is submitted.
func (e *QuizEngine) Snapshot() QuizView {
	e.mu.Lock()
	defer e.mu.Unlock()

	view := QuizView{
		State:        e.state,
		CurrentIndex: e.current,
		Total:        len(e.questions),
		Questions:    make([]QuestionView, len(e.questions)),
	}
	for i, q := range e.questions {
		qv := QuestionView{
			Index:     i,
			ID:        q.ID,
			Prompt:    q.Prompt,
			Options:   q.Options,
			Selection: e.selectionLocked(i),
		}
		if e.state == QuizSubmitted {
			correct := e.answers[i] == q.CorrectOptionID
			qv.CorrectOptionID = q.CorrectOptionID
			qv.Correct = &correct
		}
		view.Questions[i] = qv
	}
	if e.result != nil {
		r := *e.result
		view.Result = &r
	}
	return view
}

func (e *QuizEngine) commitLocked() {
	if e.pending == nil {
		return
	}
	e.answers[e.pending.index] = e.pending.optionID
	e.pending = nil
}

func (e *QuizEngine) selectionLocked(index int) model.Selection {
	if e.pending != nil && e.pending.index == index {
		return model.Selection{Kind: model.Uncommitted, OptionID: e.pending.optionID}
	}
	if optionID, ok := e.answers[index]; ok {
		return model.Selection{Kind: model.Committed, OptionID: optionID}
	}
	return model.Selection{Kind: model.Unanswered}
}

func (e *QuizEngine) scoreLocked() model.QuizResult {
	result := model.QuizResult{TotalCount: len(e.questions)}
	for i, q := range e.questions {
		optionID, ok := e.answers[i]
		if !ok {
			continue
		}
		result.AnsweredCount++
		if optionID == q.CorrectOptionID {
			result.CorrectCount++
		}
	}
	result.WrongCount = result.TotalCount - result.CorrectCount
	return result
}
