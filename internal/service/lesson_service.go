package service

import (
	"context"
	"edu_player_backend/internal/model"
	"edu_player_backend/pkg/monitoring"
	"sync"
)

// ProgressHistory lists stored snapshots. Only available with the database sink.
type ProgressHistory interface {
	ListByUser(ctx context.Context, userID uint, limit int) ([]model.ProgressRecord, error)
}

type LessonService struct {
	Source  LessonSource
	Sink    ProgressSink
	Options TrackerOptions
	Views   *ViewRegistry[*LessonTracker]
	History ProgressHistory

	// 所有播放视图共享，用于关闭时等待进度写入完成
	persists sync.WaitGroup
}

func NewLessonService(source LessonSource, sink ProgressSink, opts TrackerOptions, history ProgressHistory) *LessonService {
	return &LessonService{
		Source:  source,
		Sink:    sink,
		Options: opts,
		Views:   NewViewRegistry[*LessonTracker]("lesson"),
		History: history,
	}
}

func (s *LessonService) StartView(ctx context.Context, session model.Session) (string, LessonView, error) {
	tracker := NewLessonTracker(session, s.Sink, s.Options)
	tracker.persists = &s.persists
	if err := tracker.LoadLesson(ctx, s.Source); err != nil {
		monitoring.CatalogFetchFailures.WithLabelValues("lessons").Inc()
		return "", LessonView{}, err
	}
	id := s.Views.Add(session.UserID, tracker)
	return id, tracker.Snapshot(), nil
}

func (s *LessonService) ReloadView(ctx context.Context, session model.Session, viewID string) (LessonView, error) {
	tracker, err := s.Views.Get(session.UserID, viewID)
	if err != nil {
		return LessonView{}, err
	}
	if err := tracker.LoadLesson(ctx, s.Source); err != nil {
		monitoring.CatalogFetchFailures.WithLabelValues("lessons").Inc()
		return LessonView{}, err
	}
	return tracker.Snapshot(), nil
}

func (s *LessonService) GetView(session model.Session, viewID string) (LessonView, error) {
	return s.apply(session, viewID, func(*LessonTracker) error { return nil })
}

func (s *LessonService) Play(session model.Session, viewID string) (LessonView, error) {
	return s.apply(session, viewID, (*LessonTracker).Play)
}

func (s *LessonService) Pause(session model.Session, viewID string) (LessonView, error) {
	return s.apply(session, viewID, (*LessonTracker).Pause)
}

func (s *LessonService) Next(session model.Session, viewID string) (LessonView, error) {
	return s.apply(session, viewID, func(t *LessonTracker) error {
		_, err := t.Next()
		return err
	})
}

func (s *LessonService) Previous(session model.Session, viewID string) (LessonView, error) {
	return s.apply(session, viewID, func(t *LessonTracker) error {
		_, err := t.Previous()
		return err
	})
}

func (s *LessonService) ToggleBookmark(session model.Session, viewID string) (LessonView, error) {
	return s.apply(session, viewID, func(t *LessonTracker) error {
		_, err := t.ToggleBookmark()
		return err
	})
}

func (s *LessonService) RecordNote(session model.Session, viewID, text string) (model.Note, error) {
	tracker, err := s.Views.Get(session.UserID, viewID)
	if err != nil {
		return model.Note{}, err
	}
	return tracker.RecordNote(text)
}

func (s *LessonService) CloseView(session model.Session, viewID string) error {
	return s.Views.Remove(session.UserID, viewID)
}

// Drain waits for snapshot deliveries of every tracker this service created,
// including views already closed or swept. Call it after the views are
// closed and before the sink's backing store goes away.
func (s *LessonService) Drain(ctx context.Context) error {
	return waitGroup(ctx, &s.persists)
}

// ListProgress returns stored snapshots; ok is false without a database sink.
func (s *LessonService) ListProgress(ctx context.Context, session model.Session, limit int) ([]model.ProgressRecord, bool, error) {
	if s.History == nil {
		return nil, false, nil
	}
	records, err := s.History.ListByUser(ctx, session.UserID, limit)
	return records, true, err
}

func (s *LessonService) apply(session model.Session, viewID string, op func(*LessonTracker) error) (LessonView, error) {
	tracker, err := s.Views.Get(session.UserID, viewID)
	if err != nil {
		return LessonView{}, err
	}
	if err := op(tracker); err != nil {
		return LessonView{}, err
	}
	return tracker.Snapshot(), nil
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
