package repository

import (
	"context"
	"edu_player_backend/internal/model"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.AutoMigrate(&model.ProgressRecord{}, &model.QuizAttempt{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestProgressRepositoryLatestAndList(t *testing.T) {
	repo := NewProgressRepository(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	records := []model.ProgressRecord{
		{UserID: 1, LessonID: "intro", ElapsedSeconds: 10, RecordBase: model.RecordBase{CreatedAt: base}},
		{UserID: 1, LessonID: "intro", ElapsedSeconds: 20, RecordBase: model.RecordBase{CreatedAt: base.Add(time.Minute)}},
		{UserID: 1, LessonID: "slices", ElapsedSeconds: 5, RecordBase: model.RecordBase{CreatedAt: base.Add(2 * time.Minute)}},
		{UserID: 2, LessonID: "intro", ElapsedSeconds: 99, RecordBase: model.RecordBase{CreatedAt: base.Add(3 * time.Minute)}},
	}
	for i := range records {
		if err := repo.Create(ctx, &records[i]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	latest, err := repo.Latest(ctx, 1, "intro")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.ElapsedSeconds != 20 {
		t.Errorf("latest elapsed = %d, want 20", latest.ElapsedSeconds)
	}

	list, err := repo.ListByUser(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 || list[0].LessonID != "slices" {
		t.Errorf("list = %+v", list)
	}

	if _, err := repo.Latest(ctx, 3, "intro"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("Latest for unknown user err = %v", err)
	}
}

func TestQuizAttemptRepository(t *testing.T) {
	repo := NewQuizAttemptRepository(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		attempt := &model.QuizAttempt{
			RecordBase:     model.RecordBase{CreatedAt: base.Add(time.Duration(i) * time.Minute)},
			UserID:       1,
			ViewID:       model.GenerateUUID(),
			CorrectCount: i,
			TotalCount:   3,
			Answers:      model.AnswerSet{0: "a", 2: "c"},
		}
		if err := repo.Create(ctx, attempt); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	other := &model.QuizAttempt{UserID: 2, ViewID: "other-view", TotalCount: 3}
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("Create: %v", err)
	}

	page1, total, err := repo.ListByUser(ctx, 1, 1, 2)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if total != 3 || len(page1) != 2 || page1[0].CorrectCount != 2 {
		t.Errorf("page 1 = %+v, total = %d", page1, total)
	}

	page2, _, err := repo.ListByUser(ctx, 1, 2, 2)
	if err != nil {
		t.Fatalf("ListByUser page 2: %v", err)
	}
	if len(page2) != 1 || page2[0].CorrectCount != 0 {
		t.Errorf("page 2 = %+v", page2)
	}

	found, err := repo.FindByView(ctx, page2[0].ViewID)
	if err != nil {
		t.Fatalf("FindByView: %v", err)
	}
	if found.Answers[0] != "a" || found.Answers[2] != "c" {
		t.Errorf("answers = %v", found.Answers)
	}
}
