package model

// ProgressSnapshot is the point-in-time progress of a lesson.
type ProgressSnapshot struct {
	LessonID        string  `json:"lessonId"`
	PercentComplete float64 `json:"percentComplete"`
	ElapsedSeconds  int     `json:"elapsedSeconds"`
}

// ProgressRecord 持久化的课程进度快照
type ProgressRecord struct {
	RecordBase
	UserID          uint    `gorm:"index" json:"userId"`
	LessonID        string  `gorm:"size:128;index" json:"lessonId"`
	PercentComplete float64 `gorm:"not null" json:"percentComplete"`
	ElapsedSeconds  int     `gorm:"not null" json:"elapsedSeconds"`
}

func (ProgressRecord) TableName() string {
	return "progress_records"
}
