package service

import (
	"context"
	"edu_player_backend/internal/config"
	"edu_player_backend/internal/model"
	"edu_player_backend/internal/util"
	"edu_player_backend/pkg/logger"
	"edu_player_backend/pkg/tracing"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type QuestionSource interface {
	FetchQuestions(ctx context.Context) ([]model.Question, error)
}

type LessonSource interface {
	FetchLessons(ctx context.Context) ([]model.Lesson, error)
}

const (
	opLoadQuestions = "load questions"
	opLoadLessons   = "load lessons"
)

// HTTPCatalog loads question sets and lessons from the remote mock API.
type HTTPCatalog struct {
	BaseURL       string
	QuestionsPath string
	LessonsPath   string
	Client        *http.Client
}

func NewHTTPCatalog(cfg config.CatalogConfig) *HTTPCatalog {
	return &HTTPCatalog{
		BaseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		QuestionsPath: cfg.QuestionsPath,
		LessonsPath:   cfg.LessonsPath,
		Client:        &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *HTTPCatalog) FetchQuestions(ctx context.Context) ([]model.Question, error) {
	var questions []model.Question
	if err := c.getJSON(ctx, opLoadQuestions, c.QuestionsPath, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *HTTPCatalog) FetchLessons(ctx context.Context) ([]model.Lesson, error) {
	var lessons []model.Lesson
	if err := c.getJSON(ctx, opLoadLessons, c.LessonsPath, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (c *HTTPCatalog) getJSON(ctx context.Context, op, path string, out interface{}) (err error) {
	url := c.BaseURL + path

	ctx, span := tracing.Start(ctx, "catalog "+op, attribute.String("http.url", url))
	defer func() { tracing.End(span, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &util.FetchError{Op: op, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return &util.FetchError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &util.FetchError{Op: op, URL: url, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &util.FetchError{Op: op, URL: url, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}

// FileCatalog reads a YAML (or JSON) question bank and lesson list from disk.
type FileCatalog struct {
	QuestionsFile string
	LessonsFile   string
}

func NewFileCatalog(cfg config.CatalogConfig) *FileCatalog {
	return &FileCatalog{QuestionsFile: cfg.QuestionsFile, LessonsFile: cfg.LessonsFile}
}

func (c *FileCatalog) FetchQuestions(ctx context.Context) ([]model.Question, error) {
	var questions []model.Question
	if err := readYAML(ctx, opLoadQuestions, c.QuestionsFile, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *FileCatalog) FetchLessons(ctx context.Context) ([]model.Lesson, error) {
	var lessons []model.Lesson
	if err := readYAML(ctx, opLoadLessons, c.LessonsFile, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

func readYAML(ctx context.Context, op, path string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return &util.FetchError{Op: op, URL: "file://" + path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &util.FetchError{Op: op, URL: "file://" + path, Err: err}
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return &util.FetchError{Op: op, URL: "file://" + path, Err: fmt.Errorf("decode file: %w", err)}
	}
	return nil
}

// CachedCatalog keeps the last successful load of each catalog kind in redis.
type CachedCatalog struct {
	Questions QuestionSource
	Lessons   LessonSource
	Redis     *redis.Client
	TTL       time.Duration
	Prefix    string
}

func NewCachedCatalog(questions QuestionSource, lessons LessonSource, rdb *redis.Client, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		Questions: questions,
		Lessons:   lessons,
		Redis:     rdb,
		TTL:       ttl,
		Prefix:    "catalog:",
	}
}

func (c *CachedCatalog) FetchQuestions(ctx context.Context) ([]model.Question, error) {
	return cachedFetch(ctx, c, "questions", c.Questions.FetchQuestions)
}

func (c *CachedCatalog) FetchLessons(ctx context.Context) ([]model.Lesson, error) {
	return cachedFetch(ctx, c, "lessons", c.Lessons.FetchLessons)
}

func cachedFetch[T any](ctx context.Context, c *CachedCatalog, kind string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	key := c.Prefix + kind

	raw, err := c.Redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var items []T
		if jsonErr := json.Unmarshal(raw, &items); jsonErr == nil {
			return items, nil
		}
		logger.Log.Warn("Discarding undecodable catalog cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		// 缓存不可用时直接回源
		logger.Log.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
	}

	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(items); err == nil {
		if err := c.Redis.Set(ctx, key, raw, c.TTL).Err(); err != nil {
			logger.Log.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return items, nil
}
