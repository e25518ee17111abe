package service

import (
	"context"
	"edu_player_backend/internal/model"
	"edu_player_backend/pkg/logger"
	"edu_player_backend/pkg/monitoring"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AttemptStore keeps submitted attempts. Optional.
type AttemptStore interface {
	Create(ctx context.Context, attempt *model.QuizAttempt) error
	ListByUser(ctx context.Context, userID uint, page, limit int) ([]model.QuizAttempt, int64, error)
}

type QuizService struct {
	Source   QuestionSource
	Views    *ViewRegistry[*QuizEngine]
	Attempts AttemptStore

	recording sync.WaitGroup
}

func NewQuizService(source QuestionSource, attempts AttemptStore) *QuizService {
	return &QuizService{
		Source:   source,
		Views:    NewViewRegistry[*QuizEngine]("quiz"),
		Attempts: attempts,
	}
}

// StartView loads the question set into a new view. Nothing is registered
// when the load fails.
func (s *QuizService) StartView(ctx context.Context, session model.Session) (string, QuizView, error) {
	engine := NewQuizEngine()
	if err := engine.LoadQuestions(ctx, s.Source); err != nil {
		monitoring.CatalogFetchFailures.WithLabelValues("questions").Inc()
		return "", QuizView{}, err
	}
	id := s.Views.Add(session.UserID, engine)
	return id, engine.Snapshot(), nil
}

// ReloadView is the manual retry: a full reload that also resets a submitted attempt.
func (s *QuizService) ReloadView(ctx context.Context, session model.Session, viewID string) (QuizView, error) {
	engine, err := s.Views.Get(session.UserID, viewID)
	if err != nil {
		return QuizView{}, err
	}
	if err := engine.LoadQuestions(ctx, s.Source); err != nil {
		monitoring.CatalogFetchFailures.WithLabelValues("questions").Inc()
		return QuizView{}, err
	}
	return engine.Snapshot(), nil
}

func (s *QuizService) GetView(session model.Session, viewID string) (QuizView, error) {
	engine, err := s.Views.Get(session.UserID, viewID)
	if err != nil {
		return QuizView{}, err
	}
	return engine.Snapshot(), nil
}

func (s *QuizService) Select(session model.Session, viewID string, questionIndex int, optionID string) (QuizView, error) {
	engine, err := s.Views.Get(session.UserID, viewID)
	if err != nil {
		return QuizView{}, err
	}
	if err := engine.SelectOption(questionIndex, optionID); err != nil {
		return QuizView{}, err
	}
	return engine.Snapshot(), nil
}

func (s *QuizService) GoTo(session model.Session, viewID string, index int) (QuizView, error) {
	engine, err := s.Views.Get(session.UserID, viewID)
	if err != nil {
		return QuizView{}, err
	}
	if _, err := engine.GoToQuestion(index); err != nil {
		return QuizView{}, err
	}
	return engine.Snapshot(), nil
}

func (s *QuizService) Submit(session model.Session, viewID string) (QuizView, error) {
	engine, err := s.Views.Get(session.UserID, viewID)
	if err != nil {
		return QuizView{}, err
	}
	result, err := engine.Submit()
	if err != nil {
		return QuizView{}, err
	}
	monitoring.QuizSubmissions.Inc()

	if s.Attempts != nil {
		s.recordAttempt(session, viewID, result, engine.Answers())
	}
	return engine.Snapshot(), nil
}

// ListAttempts pages through stored attempts; ok is false when attempts are not stored.
func (s *QuizService) ListAttempts(ctx context.Context, session model.Session, page, limit int) ([]model.QuizAttempt, int64, bool, error) {
	if s.Attempts == nil {
		return nil, 0, false, nil
	}
	attempts, total, err := s.Attempts.ListByUser(ctx, session.UserID, page, limit)
	return attempts, total, true, err
}

func (s *QuizService) CloseView(session model.Session, viewID string) error {
	return s.Views.Remove(session.UserID, viewID)
}

// Drain waits for attempt writes still in flight.
func (s *QuizService) Drain(ctx context.Context) error {
	return waitGroup(ctx, &s.recording)
}

func (s *QuizService) recordAttempt(session model.Session, viewID string, result model.QuizResult, answers model.AnswerSet) {
	attempt := &model.QuizAttempt{
		UserID:        session.UserID,
		ViewID:        viewID,
		CorrectCount:  result.CorrectCount,
		WrongCount:    result.WrongCount,
		AnsweredCount: result.AnsweredCount,
		TotalCount:    result.TotalCount,
		Answers:       answers,
	}

	s.recording.Add(1)
	go func() {
		defer s.recording.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Attempts.Create(ctx, attempt); err != nil {
			logger.Log.Warn("Failed to record quiz attempt", zap.Error(err), zap.String("viewId", viewID))
		}
	}()
}
