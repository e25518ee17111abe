package model

import "time"

// Lesson as served by the lesson catalog.
type Lesson struct {
	ID              string   `json:"id" yaml:"id"`
	Title           string   `json:"title" yaml:"title"`
	DurationSeconds int      `json:"durationSeconds" yaml:"duration_seconds"`
	ElapsedSeconds  int      `json:"elapsedSeconds" yaml:"elapsed_seconds"`
	Bookmarked      bool     `json:"bookmarked" yaml:"bookmarked"`
	Objectives      []string `json:"objectives" yaml:"objectives"`
}

// PercentComplete is zero for lessons without a duration.
func (l Lesson) PercentComplete() float64 {
	if l.DurationSeconds <= 0 {
		return 0
	}
	return float64(l.ElapsedSeconds) * 100 / float64(l.DurationSeconds)
}

// Note is a learner note pinned to a playback position.
type Note struct {
	ID        string    `json:"id"`
	LessonID  string    `json:"lessonId"`
	Text      string    `json:"text"`
	AtSeconds int       `json:"atSeconds"`
	CreatedAt time.Time `json:"createdAt"`
}
