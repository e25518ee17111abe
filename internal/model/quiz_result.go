package model

// QuizResult holds correctness counts for one attempt.
type QuizResult struct {
	CorrectCount  int `json:"correctCount"`
	WrongCount    int `json:"wrongCount"`
	AnsweredCount int `json:"answeredCount"`
	TotalCount    int `json:"totalCount"`
}

// QuizAttempt 存储已提交的测验结果
type QuizAttempt struct {
	RecordBase
	UserID        uint      `gorm:"index" json:"userId"`
	ViewID        string    `gorm:"type:varchar(36);index" json:"viewId"`
	CorrectCount  int       `gorm:"not null" json:"correctCount"`
	WrongCount    int       `gorm:"not null" json:"wrongCount"`
	AnsweredCount int       `gorm:"not null" json:"answeredCount"`
	TotalCount    int       `gorm:"not null" json:"totalCount"`
	Answers       AnswerSet `gorm:"serializer:json;type:text" json:"answers"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
