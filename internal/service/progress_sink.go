package service

import (
	"bytes"
	"context"
	"edu_player_backend/internal/model"
	"edu_player_backend/internal/repository"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ProgressSink receives progress snapshots. Callers never wait on the
// outcome beyond logging it.
type ProgressSink interface {
	Name() string
	SaveProgress(ctx context.Context, session model.Session, snapshot model.ProgressSnapshot) error
}

type HTTPProgressSink struct {
	URL    string
	Client *http.Client
}

func NewHTTPProgressSink(url string, timeout time.Duration) *HTTPProgressSink {
	return &HTTPProgressSink{URL: url, Client: &http.Client{Timeout: timeout}}
}

func (s *HTTPProgressSink) Name() string { return "http" }

type progressPayload struct {
	UserID uint `json:"userId"`
	model.ProgressSnapshot
}

func (s *HTTPProgressSink) SaveProgress(ctx context.Context, session model.Session, snapshot model.ProgressSnapshot) error {
	body, err := json.Marshal(progressPayload{UserID: session.UserID, ProgressSnapshot: snapshot})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("progress endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

type DatabaseProgressSink struct {
	Repo *repository.ProgressRepository
}

func NewDatabaseProgressSink(repo *repository.ProgressRepository) *DatabaseProgressSink {
	return &DatabaseProgressSink{Repo: repo}
}

func (s *DatabaseProgressSink) Name() string { return "database" }

func (s *DatabaseProgressSink) SaveProgress(ctx context.Context, session model.Session, snapshot model.ProgressSnapshot) error {
	return s.Repo.Create(ctx, &model.ProgressRecord{
		UserID:          session.UserID,
		LessonID:        snapshot.LessonID,
		PercentComplete: snapshot.PercentComplete,
		ElapsedSeconds:  snapshot.ElapsedSeconds,
	})
}

type NopProgressSink struct{}

func (NopProgressSink) Name() string { return "none" }

func (NopProgressSink) SaveProgress(context.Context, model.Session, model.ProgressSnapshot) error {
	return nil
}
