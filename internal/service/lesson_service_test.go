package service

import (
	"context"
	"edu_player_backend/internal/model"
	"edu_player_backend/internal/repository"
	"errors"
	"testing"
	"time"
)

func twoLessons() []model.Lesson {
	return []model.Lesson{
		{ID: "intro", Title: "Intro", DurationSeconds: 600},
		{ID: "slices", Title: "Slices", DurationSeconds: 900, ElapsedSeconds: 120},
	}
}

func TestLessonServiceFlow(t *testing.T) {
	svc := NewLessonService(&fakeLessonSource{lessons: twoLessons()}, nil, manualOptions(), nil)
	defer svc.Views.CloseAll()

	id, view, err := svc.StartView(context.Background(), testSession)
	if err != nil {
		t.Fatalf("StartView: %v", err)
	}
	if view.ActiveIndex != 0 || view.Lesson.ID != "intro" {
		t.Fatalf("view = %+v", view)
	}

	if view, err = svc.Play(testSession, id); err != nil || !view.Playing {
		t.Fatalf("Play = %+v, %v", view, err)
	}
	if view, err = svc.Next(testSession, id); err != nil || view.Playing || view.Lesson.ID != "slices" {
		t.Fatalf("Next = %+v, %v", view, err)
	}
	if view, err = svc.ToggleBookmark(testSession, id); err != nil || !view.Lesson.Bookmarked {
		t.Fatalf("ToggleBookmark = %+v, %v", view, err)
	}

	note, err := svc.RecordNote(testSession, id, "len vs cap")
	if err != nil || note.AtSeconds != 120 {
		t.Fatalf("RecordNote = %+v, %v", note, err)
	}

	if view, err = svc.Previous(testSession, id); err != nil || view.Lesson.ID != "intro" {
		t.Fatalf("Previous = %+v, %v", view, err)
	}
	if view, err = svc.Pause(testSession, id); err != nil || view.Playing {
		t.Fatalf("Pause = %+v, %v", view, err)
	}

	if err := svc.CloseView(testSession, id); err != nil {
		t.Fatalf("CloseView: %v", err)
	}
}

func TestLessonServiceProgressHistory(t *testing.T) {
	svc := NewLessonService(&fakeLessonSource{lessons: twoLessons()}, nil, manualOptions(), nil)
	if _, ok, _ := svc.ListProgress(context.Background(), testSession, 10); ok {
		t.Error("history reported without a store")
	}

	repo := repository.NewProgressRepository(openTestDB(t))
	sink := NewDatabaseProgressSink(repo)
	svc = NewLessonService(&fakeLessonSource{lessons: twoLessons()}, sink, manualOptions(), repo)
	defer svc.Views.CloseAll()

	id, _, err := svc.StartView(context.Background(), testSession)
	if err != nil {
		t.Fatalf("StartView: %v", err)
	}
	tracker, _ := svc.Views.Get(testSession.UserID, id)
	tracker.PersistProgress()
	tracker.persists.Wait()

	records, ok, err := svc.ListProgress(context.Background(), testSession, 10)
	if err != nil || !ok {
		t.Fatalf("ListProgress: ok=%v err=%v", ok, err)
	}
	if len(records) != 1 || records[0].LessonID != "intro" {
		t.Errorf("records = %+v", records)
	}
}

func TestLessonServiceDrainWaitsForSnapshots(t *testing.T) {
	sink := &recordingSink{name: "slow", delay: 50 * time.Millisecond}
	svc := NewLessonService(&fakeLessonSource{lessons: twoLessons()}, sink, manualOptions(), nil)

	id, _, err := svc.StartView(context.Background(), testSession)
	if err != nil {
		t.Fatalf("StartView: %v", err)
	}
	tracker, _ := svc.Views.Get(testSession.UserID, id)
	tracker.PersistProgress()

	// 关闭视图不会丢弃已经发出的快照
	svc.Views.CloseAll()
	if err := svc.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if got := len(sink.saved()); got != 1 {
		t.Errorf("delivered %d snapshots before Drain returned, want 1", got)
	}
}

func TestLessonServiceDrainCoversClosedViews(t *testing.T) {
	sink := &recordingSink{name: "slow", delay: 50 * time.Millisecond}
	svc := NewLessonService(&fakeLessonSource{lessons: twoLessons()}, sink, manualOptions(), nil)

	id, _, _ := svc.StartView(context.Background(), testSession)
	tracker, _ := svc.Views.Get(testSession.UserID, id)
	tracker.PersistProgress()
	if err := svc.CloseView(testSession, id); err != nil {
		t.Fatalf("CloseView: %v", err)
	}

	if err := svc.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if got := len(sink.saved()); got != 1 {
		t.Errorf("delivered %d snapshots, want 1", got)
	}
}

func TestLessonServiceDrainIsBounded(t *testing.T) {
	sink := &recordingSink{name: "stuck", delay: time.Hour}
	svc := NewLessonService(&fakeLessonSource{lessons: twoLessons()}, sink, manualOptions(), nil)

	id, _, _ := svc.StartView(context.Background(), testSession)
	tracker, _ := svc.Views.Get(testSession.UserID, id)
	tracker.PersistProgress()
	svc.Views.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := svc.Drain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Drain err = %v, want deadline exceeded", err)
	}
}
