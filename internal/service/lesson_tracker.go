package service

import (
	"context"
	"edu_player_backend/internal/model"
	"edu_player_backend/internal/util"
	"edu_player_backend/pkg/logger"
	"edu_player_backend/pkg/monitoring"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// elapsedUnit is the playback time added per tick, in seconds.
const elapsedUnit = 1

type TrackerOptions struct {
	// TickInterval is the wall-clock interval between ticks.
	TickInterval time.Duration
	// PersistEvery sends a snapshot to the sink every N ticks while playing.
	PersistEvery   int
	PersistTimeout time.Duration
}

func DefaultTrackerOptions() TrackerOptions {
	return TrackerOptions{
		TickInterval:   time.Second,
		PersistEvery:   5,
		PersistTimeout: 5 * time.Second,
	}
}

// LessonTracker is the playback state of one lesson player view.
type LessonTracker struct {
	mu      sync.Mutex
	session model.Session
	sink    ProgressSink
	opts    TrackerOptions

	lessons []model.Lesson
	active  int
	playing bool
	ticks   int
	// playGen changes every time playback stops so a ticker goroutine that
	// is shutting down cannot advance a later playback.
	playGen int
	stop    context.CancelFunc
	closed  bool

	// persists tracks snapshot deliveries still running. LessonService
	// points every tracker at one group so shutdown can drain them all.
	persists *sync.WaitGroup
}

func NewLessonTracker(session model.Session, sink ProgressSink, opts TrackerOptions) *LessonTracker {
	if sink == nil {
		sink = NopProgressSink{}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.PersistEvery <= 0 {
		opts.PersistEvery = 5
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 5 * time.Second
	}
	return &LessonTracker{
		session: session,
		sink:    sink,
		opts:    opts,
		active:  -1,

		persists: &sync.WaitGroup{},
	}
}

// LoadLesson fetches the lesson sequence and activates the first one. An
// empty sequence leaves the tracker without an active lesson.
func (t *LessonTracker) LoadLesson(ctx context.Context, source LessonSource) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return util.ErrViewClosed
	}
	t.stopPlaybackLocked()
	t.mu.Unlock()

	lessons, err := source.FetchLessons(ctx)
	if err != nil {
		var fe *util.FetchError
		if errors.As(err, &fe) {
			return err
		}
		return &util.FetchError{Op: opLoadLessons, Err: err}
	}

	for i := range lessons {
		l := &lessons[i]
		if l.DurationSeconds < 0 {
			l.DurationSeconds = 0
		}
		if l.ElapsedSeconds < 0 {
			l.ElapsedSeconds = 0
		}
		if l.ElapsedSeconds > l.DurationSeconds {
			l.ElapsedSeconds = l.DurationSeconds
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return util.ErrViewClosed
	}

	t.stopPlaybackLocked()
	t.lessons = lessons
	t.active = -1
	if len(lessons) > 0 {
		t.active = 0
	}
	t.ticks = 0
	return nil
}

// Play starts the tick loop. It is a no-op when already playing or when the
// active lesson is finished.
func (t *LessonTracker) Play() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return util.ErrViewClosed
	}
	lesson := t.activeLocked()
	if lesson == nil {
		return util.ErrNoActiveLesson
	}
	if t.playing || lesson.ElapsedSeconds >= lesson.DurationSeconds {
		return nil
	}

	t.playing = true
	t.ticks = 0
	ctx, cancel := context.WithCancel(context.Background())
	t.stop = cancel
	go t.run(ctx, t.playGen)
	return nil
}

func (t *LessonTracker) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return util.ErrViewClosed
	}
	t.stopPlaybackLocked()
	return nil
}

func (t *LessonTracker) run(ctx context.Context, gen int) {
	ticker := time.NewTicker(t.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			if gen == t.playGen {
				t.tickLocked()
			}
			t.mu.Unlock()
		}
	}
}

// Tick advances playback by one unit. It is driven by the play loop.
func (t *LessonTracker) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tickLocked()
}

func (t *LessonTracker) tickLocked() {
	if !t.playing {
		return
	}
	lesson := t.activeLocked()
	if lesson == nil {
		t.stopPlaybackLocked()
		return
	}

	lesson.ElapsedSeconds += elapsedUnit
	if lesson.ElapsedSeconds > lesson.DurationSeconds {
		lesson.ElapsedSeconds = lesson.DurationSeconds
	}
	t.ticks++

	finished := lesson.ElapsedSeconds >= lesson.DurationSeconds
	if finished || t.ticks%t.opts.PersistEvery == 0 {
		t.persistLocked()
	}
	// 播放到末尾自动停止，不自动切换到下一课
	if finished {
		t.stopPlaybackLocked()
	}
}

// PersistProgress sends the current snapshot to the sink without waiting.
// Failures are logged and counted only.
func (t *LessonTracker) PersistProgress() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.activeLocked() == nil {
		return
	}
	t.persistLocked()
}

func (t *LessonTracker) persistLocked() {
	snapshot := t.snapshotLocked()
	sink := t.sink
	session := t.session
	timeout := t.opts.PersistTimeout

	t.persists.Add(1)
	go func() {
		defer t.persists.Done()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := sink.SaveProgress(ctx, session, snapshot); err != nil {
			perr := &util.PersistError{LessonID: snapshot.LessonID, Err: err}
			monitoring.ProgressPersistFailures.WithLabelValues(sink.Name()).Inc()
			logger.Log.Warn("Progress snapshot dropped",
				zap.Error(perr),
				zap.Uint("userId", session.UserID),
				zap.String("sink", sink.Name()),
			)
		}
	}()
}

func (t *LessonTracker) ToggleBookmark() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false, util.ErrViewClosed
	}
	lesson := t.activeLocked()
	if lesson == nil {
		return false, util.ErrNoActiveLesson
	}
	lesson.Bookmarked = !lesson.Bookmarked
	return lesson.Bookmarked, nil
}

// Next and Previous move the active lesson; both are no-ops at the ends of
// the sequence. Switching lessons pauses playback.
func (t *LessonTracker) Next() (int, error) {
	return t.move(1)
}

func (t *LessonTracker) Previous() (int, error) {
	return t.move(-1)
}

func (t *LessonTracker) move(delta int) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return t.active, util.ErrViewClosed
	}
	target := t.active + delta
	if t.active < 0 || target < 0 || target >= len(t.lessons) {
		return t.active, nil
	}

	t.stopPlaybackLocked()
	t.active = target
	t.ticks = 0
	return t.active, nil
}

// RecordNote pins text to the current playback position of the active lesson.
func (t *LessonTracker) RecordNote(text string) (model.Note, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return model.Note{}, util.ErrViewClosed
	}
	lesson := t.activeLocked()
	if lesson == nil {
		return model.Note{}, util.ErrNoActiveLesson
	}
	return model.Note{
		ID:        model.GenerateUUID(),
		LessonID:  lesson.ID,
		Text:      strings.TrimSpace(text),
		AtSeconds: lesson.ElapsedSeconds,
		CreatedAt: time.Now(),
	}, nil
}

// Progress returns the snapshot of the active lesson, false when there is none.
func (t *LessonTracker) Progress() (model.ProgressSnapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.activeLocked() == nil {
		return model.ProgressSnapshot{}, false
	}
	return t.snapshotLocked(), true
}

func (t *LessonTracker) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

func (t *LessonTracker) ActiveIndex() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Close stops playback; results of loads still in flight are discarded.
// Snapshots already handed to the sink keep running; LessonService.Drain
// waits for them.
func (t *LessonTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.stopPlaybackLocked()
}

type LessonView struct {
	ActiveIndex int                     `json:"activeIndex"`
	Total       int                     `json:"total"`
	Playing     bool                    `json:"playing"`
	HasPrevious bool                    `json:"hasPrevious"`
	HasNext     bool                    `json:"hasNext"`
	Lesson      *model.Lesson           `json:"lesson,omitempty"`
	Progress    *model.ProgressSnapshot `json:"progress,omitempty"`
}

func (t *LessonTracker) Snapshot() LessonView {
	t.mu.Lock()
	defer t.mu.Unlock()

	view := LessonView{
		ActiveIndex: t.active,
		Total:       len(t.lessons),
		Playing:     t.playing,
	}
	if lesson := t.activeLocked(); lesson != nil {
		l := *lesson
		l.Objectives = append([]string(nil), lesson.Objectives...)
		snapshot := t.snapshotLocked()
		view.Lesson = &l
		view.Progress = &snapshot
		view.HasPrevious = t.active > 0
		view.HasNext = t.active < len(t.lessons)-1
	}
	return view
}

func (t *LessonTracker) activeLocked() *model.Lesson {
	if t.active < 0 || t.active >= len(t.lessons) {
		return nil
	}
	return &t.lessons[t.active]
}

func (t *LessonTracker) snapshotLocked() model.ProgressSnapshot {
	lesson := t.activeLocked()
	return model.ProgressSnapshot{
		LessonID:        lesson.ID,
		PercentComplete: lesson.PercentComplete(),
		ElapsedSeconds:  lesson.ElapsedSeconds,
	}
}

func (t *LessonTracker) stopPlaybackLocked() {
	t.playing = false
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
	t.playGen++
}
