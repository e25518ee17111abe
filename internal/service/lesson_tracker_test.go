package service

import (
	"context"
	"edu_player_backend/internal/model"
	"edu_player_backend/internal/util"
	"edu_player_backend/pkg/monitoring"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

var testSession = model.Session{UserID: 7, Role: model.Student, Token: "tok"}

// manualOptions keep the ticker goroutine idle so tests drive Tick directly.
func manualOptions() TrackerOptions {
	return TrackerOptions{TickInterval: time.Hour, PersistEvery: 5, PersistTimeout: time.Second}
}

func loadedTracker(t *testing.T, sink ProgressSink, opts TrackerOptions, lessons ...model.Lesson) *LessonTracker {
	t.Helper()
	tr := NewLessonTracker(testSession, sink, opts)
	t.Cleanup(tr.Close)
	if err := tr.LoadLesson(context.Background(), &fakeLessonSource{lessons: lessons}); err != nil {
		t.Fatalf("LoadLesson: %v", err)
	}
	return tr
}

func TestTickStopsAtDuration(t *testing.T) {
	sink := &recordingSink{name: "recording"}
	tr := loadedTracker(t, sink, manualOptions(), model.Lesson{ID: "intro", DurationSeconds: 600})

	if err := tr.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	for i := 0; i < 650; i++ {
		tr.Tick()
	}
	tr.persists.Wait()

	progress, ok := tr.Progress()
	if !ok {
		t.Fatal("no active lesson")
	}
	if progress.ElapsedSeconds != 600 || progress.PercentComplete != 100 {
		t.Errorf("progress = %+v", progress)
	}
	if tr.Playing() {
		t.Error("still playing after reaching the end")
	}

	saved := sink.saved()
	if len(saved) != 120 {
		t.Fatalf("persisted %d snapshots, want 120", len(saved))
	}
	// 快照异步发送，只检查最终进度出现过
	final := false
	for _, snap := range saved {
		if snap.ElapsedSeconds == 600 && snap.PercentComplete == 100 && snap.LessonID == "intro" {
			final = true
		}
	}
	if !final {
		t.Error("completion snapshot was not persisted")
	}
}

func TestFinalSnapshotOffCadence(t *testing.T) {
	sink := &recordingSink{name: "recording"}
	tr := loadedTracker(t, sink, manualOptions(), model.Lesson{ID: "short", DurationSeconds: 7})

	tr.Play()
	for i := 0; i < 10; i++ {
		tr.Tick()
	}
	tr.persists.Wait()

	// tick 5 on cadence, tick 7 on completion
	if got := len(sink.saved()); got != 2 {
		t.Errorf("persisted %d snapshots, want 2", got)
	}
}

func TestSnapshotCarriesSession(t *testing.T) {
	sink := &recordingSink{name: "recording"}
	tr := loadedTracker(t, sink, manualOptions(), model.Lesson{ID: "intro", DurationSeconds: 600})

	tr.PersistProgress()
	tr.persists.Wait()

	if len(sink.sessions) != 1 || sink.sessions[0].UserID != testSession.UserID {
		t.Errorf("sessions = %+v", sink.sessions)
	}
}

func TestPersistFailureIsNotSurfaced(t *testing.T) {
	sink := &recordingSink{name: "failing", err: errors.New("503")}
	counter := monitoring.ProgressPersistFailures.WithLabelValues("failing")
	before := testutil.ToFloat64(counter)

	tr := loadedTracker(t, sink, manualOptions(), model.Lesson{ID: "intro", DurationSeconds: 600})
	tr.Play()
	for i := 0; i < 5; i++ {
		tr.Tick()
	}
	tr.persists.Wait()

	if !tr.Playing() {
		t.Error("playback stopped after a failed persist")
	}
	if p, _ := tr.Progress(); p.ElapsedSeconds != 5 {
		t.Errorf("elapsed = %d, want 5", p.ElapsedSeconds)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("failure counter advanced by %v, want 1", got)
	}
}

func TestPauseStopsTicks(t *testing.T) {
	tr := loadedTracker(t, nil, manualOptions(), model.Lesson{ID: "intro", DurationSeconds: 600})

	tr.Play()
	tr.Tick()
	tr.Pause()
	tr.Tick()

	if p, _ := tr.Progress(); p.ElapsedSeconds != 1 {
		t.Errorf("elapsed = %d, want 1", p.ElapsedSeconds)
	}
	if tr.Playing() {
		t.Error("playing after pause")
	}
}

func TestPlayWithoutLessons(t *testing.T) {
	tr := loadedTracker(t, nil, manualOptions())

	if err := tr.Play(); !errors.Is(err, util.ErrNoActiveLesson) {
		t.Errorf("Play err = %v, want ErrNoActiveLesson", err)
	}
	if _, err := tr.ToggleBookmark(); !errors.Is(err, util.ErrNoActiveLesson) {
		t.Errorf("ToggleBookmark err = %v", err)
	}
	if tr.ActiveIndex() != -1 {
		t.Errorf("active = %d, want -1", tr.ActiveIndex())
	}
	view := tr.Snapshot()
	if view.Lesson != nil || view.Progress != nil || view.Total != 0 {
		t.Errorf("view = %+v", view)
	}
}

func TestPlayFinishedLessonIsNoop(t *testing.T) {
	tr := loadedTracker(t, nil, manualOptions(), model.Lesson{ID: "done", DurationSeconds: 60, ElapsedSeconds: 60})

	if err := tr.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if tr.Playing() {
		t.Error("finished lesson started playing")
	}
}

func TestZeroDurationLesson(t *testing.T) {
	tr := loadedTracker(t, nil, manualOptions(), model.Lesson{ID: "empty"})

	p, ok := tr.Progress()
	if !ok || p.PercentComplete != 0 {
		t.Errorf("progress = %+v, ok = %v", p, ok)
	}
}

func TestNextPreviousBoundaries(t *testing.T) {
	tr := loadedTracker(t, nil, manualOptions(),
		model.Lesson{ID: "one", DurationSeconds: 60},
		model.Lesson{ID: "two", DurationSeconds: 60},
	)

	if got, _ := tr.Previous(); got != 0 {
		t.Errorf("Previous at first = %d", got)
	}
	if got, _ := tr.Next(); got != 1 {
		t.Errorf("Next = %d, want 1", got)
	}

	tr.Play()
	if got, _ := tr.Next(); got != 1 {
		t.Errorf("Next at last = %d", got)
	}
	if !tr.Playing() {
		t.Error("no-op Next paused playback")
	}

	if got, _ := tr.Previous(); got != 0 {
		t.Errorf("Previous = %d, want 0", got)
	}
	if tr.Playing() {
		t.Error("switching lessons did not pause")
	}

	view := tr.Snapshot()
	if view.HasPrevious || !view.HasNext || view.Lesson.ID != "one" {
		t.Errorf("view = %+v", view)
	}
}

func TestToggleBookmark(t *testing.T) {
	tr := loadedTracker(t, nil, manualOptions(), model.Lesson{ID: "intro", DurationSeconds: 60})

	if on, _ := tr.ToggleBookmark(); !on {
		t.Error("first toggle should bookmark")
	}
	if on, _ := tr.ToggleBookmark(); on {
		t.Error("second toggle should clear")
	}
}

func TestRecordNoteUsesPlaybackPosition(t *testing.T) {
	tr := loadedTracker(t, nil, manualOptions(), model.Lesson{ID: "slices", DurationSeconds: 900, ElapsedSeconds: 120})

	note, err := tr.RecordNote("  capacity doubles  ")
	if err != nil {
		t.Fatalf("RecordNote: %v", err)
	}
	if note.AtSeconds != 120 || note.LessonID != "slices" || note.Text != "capacity doubles" || note.ID == "" {
		t.Errorf("note = %+v", note)
	}
}

func TestLoadClampsElapsed(t *testing.T) {
	tr := loadedTracker(t, nil, manualOptions(),
		model.Lesson{ID: "over", DurationSeconds: 600, ElapsedSeconds: 1000},
		model.Lesson{ID: "under", DurationSeconds: 600, ElapsedSeconds: -5},
	)

	if p, _ := tr.Progress(); p.ElapsedSeconds != 600 {
		t.Errorf("over elapsed = %d", p.ElapsedSeconds)
	}
	tr.Next()
	if p, _ := tr.Progress(); p.ElapsedSeconds != 0 {
		t.Errorf("under elapsed = %d", p.ElapsedSeconds)
	}
}

func TestLoadFailureReturnsFetchError(t *testing.T) {
	tr := NewLessonTracker(testSession, nil, manualOptions())
	defer tr.Close()

	err := tr.LoadLesson(context.Background(), &fakeLessonSource{err: errors.New("timeout")})
	var fe *util.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FetchError", err)
	}
}

func TestCloseDiscardsInFlightLessonLoad(t *testing.T) {
	tr := NewLessonTracker(testSession, nil, manualOptions())
	src := &fakeLessonSource{lessons: []model.Lesson{{ID: "intro", DurationSeconds: 60}}, onFetch: tr.Close}

	if err := tr.LoadLesson(context.Background(), src); !errors.Is(err, util.ErrViewClosed) {
		t.Fatalf("err = %v, want ErrViewClosed", err)
	}
	if tr.ActiveIndex() != -1 {
		t.Errorf("closed tracker activated a lesson")
	}
}

func TestPlaybackAdvancesOnTicker(t *testing.T) {
	opts := TrackerOptions{TickInterval: 5 * time.Millisecond, PersistEvery: 100, PersistTimeout: time.Second}
	tr := loadedTracker(t, nil, opts, model.Lesson{ID: "tiny", DurationSeconds: 3})

	tr.Play()
	deadline := time.Now().Add(2 * time.Second)
	for tr.Playing() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if tr.Playing() {
		t.Fatal("playback did not finish")
	}
	if p, _ := tr.Progress(); p.ElapsedSeconds != 3 {
		t.Errorf("elapsed = %d, want 3", p.ElapsedSeconds)
	}
}
