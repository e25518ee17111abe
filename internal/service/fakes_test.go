package service

import (
	"context"
	"edu_player_backend/internal/model"
	"sync"
	"time"
)

type fakeQuestionSource struct {
	questions []model.Question
	err       error
	// onFetch runs inside FetchQuestions, before it returns.
	onFetch func()
}

func (f *fakeQuestionSource) FetchQuestions(ctx context.Context) ([]model.Question, error) {
	if f.onFetch != nil {
		f.onFetch()
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Question, len(f.questions))
	copy(out, f.questions)
	return out, nil
}

type fakeLessonSource struct {
	lessons []model.Lesson
	err     error
	onFetch func()
}

func (f *fakeLessonSource) FetchLessons(ctx context.Context) ([]model.Lesson, error) {
	if f.onFetch != nil {
		f.onFetch()
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Lesson, len(f.lessons))
	copy(out, f.lessons)
	return out, nil
}

type recordingSink struct {
	mu        sync.Mutex
	name      string
	err       error
	// delay holds each delivery back, like a slow remote store.
	delay     time.Duration
	snapshots []model.ProgressSnapshot
	sessions  []model.Session
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) SaveProgress(ctx context.Context, session model.Session, snapshot model.ProgressSnapshot) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snapshot)
	s.sessions = append(s.sessions, session)
	return s.err
}

func (s *recordingSink) saved() []model.ProgressSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ProgressSnapshot(nil), s.snapshots...)
}

func threeQuestions() []model.Question {
	opts := []model.Option{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}, {ID: "c", Label: "C"}, {ID: "x", Label: "X"}}
	return []model.Question{
		{ID: "q1", Prompt: "first", Options: opts, CorrectOptionID: "a"},
		{ID: "q2", Prompt: "second", Options: opts, CorrectOptionID: "b"},
		{ID: "q3", Prompt: "third", Options: opts, CorrectOptionID: "c"},
	}
}
