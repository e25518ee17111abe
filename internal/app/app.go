package app

import (
	"context"
	"edu_player_backend/internal/config"
	"edu_player_backend/internal/controller"
	"edu_player_backend/internal/repository"
	"edu_player_backend/internal/service"
	"edu_player_backend/pkg/configwatcher"
	"edu_player_backend/pkg/database"
	"edu_player_backend/pkg/logger"
	"edu_player_backend/pkg/monitoring"
	"edu_player_backend/pkg/security"
	"edu_player_backend/pkg/tracing"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	ctx             context.Context
	cancel          context.CancelFunc
	configCallbacks []func(*config.Config)
	// background 跟踪清理协程和配置监听协程，Shutdown 等待其退出
	background sync.WaitGroup
}

type repositories struct {
	progress *repository.ProgressRepository
	attempts *repository.QuizAttemptRepository
}

type services struct {
	quiz    *service.QuizService
	lesson  *service.LessonService
	janitor *service.ViewJanitor
}

type controllers struct {
	quiz   *controller.QuizController
	lesson *controller.LessonController
	admin  *controller.AdminController
	health *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	if db == nil {
		return &repositories{}
	}
	return &repositories{
		progress: repository.NewProgressRepository(db),
		attempts: repository.NewQuizAttemptRepository(db),
	}
}

// buildCatalog picks the configured source and wraps it in the redis cache
// when one is available.
func buildCatalog(cfg *config.CatalogConfig, rdb *redis.Client) (service.QuestionSource, service.LessonSource) {
	var questions service.QuestionSource
	var lessons service.LessonSource

	switch cfg.Type {
	case config.CatalogFile:
		fc := service.NewFileCatalog(*cfg)
		questions, lessons = fc, fc
	default:
		hc := service.NewHTTPCatalog(*cfg)
		questions, lessons = hc, hc
	}

	if rdb != nil && cfg.CacheTTL > 0 {
		cached := service.NewCachedCatalog(questions, lessons, rdb, cfg.CacheTTL)
		return cached, cached
	}
	return questions, lessons
}

func buildSink(cfg *config.ProgressConfig, repos *repositories) service.ProgressSink {
	switch cfg.Sink {
	case config.SinkHTTP:
		return service.NewHTTPProgressSink(cfg.URL, cfg.Timeout)
	case config.SinkDatabase:
		if repos.progress != nil {
			return service.NewDatabaseProgressSink(repos.progress)
		}
	}
	return service.NopProgressSink{}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	questions, lessons := buildCatalog(&cfg.Catalog, rdb)
	sink := buildSink(&cfg.Progress, repos)

	opts := service.TrackerOptions{
		TickInterval:   cfg.Progress.TickInterval,
		PersistEvery:   cfg.Progress.PersistEvery,
		PersistTimeout: cfg.Progress.Timeout,
	}

	s := &services{}

	// 未启用数据库时必须传入 nil 接口，而不是 nil 指针
	if repos.attempts != nil {
		s.quiz = service.NewQuizService(questions, repos.attempts)
	} else {
		s.quiz = service.NewQuizService(questions, nil)
	}

	if repos.progress != nil && cfg.Progress.Sink == config.SinkDatabase {
		s.lesson = service.NewLessonService(lessons, sink, opts, repos.progress)
	} else {
		s.lesson = service.NewLessonService(lessons, sink, opts, nil)
	}

	s.janitor = service.NewViewJanitor(cfg.Views.IdleTTL, map[string]service.Sweeper{
		"quiz":   s.quiz.Views,
		"lesson": s.lesson.Views,
	})

	logger.Log.Info("Services initialized",
		zap.String("catalog", cfg.Catalog.Type),
		zap.String("sink", sink.Name()),
	)
	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		quiz:   controller.NewQuizController(s.quiz),
		lesson: controller.NewLessonController(s.lesson),
		admin:  controller.NewAdminController(s.janitor),
		health: controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if cfg.RateLimit.MaxRequests > 0 && window > 0 {
		router.Use(security.RateLimiter(a.ctx, cfg.RateLimit.MaxRequests, window))
	}

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	interval := a.Config.Views.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	a.background.Add(1)
	go func() {
		defer a.background.Done()
		s.janitor.Run(a.ctx, interval)
	}()

	if a.ConfigDir == "" {
		return
	}

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.janitor.SetTTL(newCfg.Views.IdleTTL)
		logger.Log.Info("View idle TTL updated", zap.Duration("ttl", newCfg.Views.IdleTTL))
	})

	a.background.Add(1)
	go func() {
		defer a.background.Done()
		err := configwatcher.WatchConfig(a.ctx, a.ConfigDir, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

// NewApp wires the application. configDir enables hot reload when non-empty.
func NewApp(cfg *config.Config, configDir string) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		ctx:       ctx,
		cancel:    cancel,
	}

	if cfg.Database.Enabled {
		db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("initialize database: %w", err)
		}
		app.DB = db
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("initialize redis: %w", err)
		}
		app.Redis = rdb
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("edu-player", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("initialize tracing: %w", err)
		}
		app.tracer = tp
	}

	repos := app.initRepositories(app.DB)
	app.services = app.initServices(repos, cfg, app.Redis)
	controllers := app.initControllers(app.services)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)
	app.startBackgroundTasks(app.services)

	return app, nil
}

// Shutdown stops background work, closes every open view and waits for
// their pending writes before the stores are closed. Pending writes are
// bounded by the progress timeout.
func (a *App) Shutdown(ctx context.Context) {
	a.cancel()
	a.background.Wait()

	if a.services != nil {
		a.services.quiz.Views.CloseAll()
		a.services.lesson.Views.CloseAll()

		drainCtx, cancel := context.WithTimeout(ctx, a.drainTimeout())
		if err := a.services.lesson.Drain(drainCtx); err != nil {
			logger.Log.Warn("Progress snapshots still pending at shutdown", zap.Error(err))
		}
		if err := a.services.quiz.Drain(drainCtx); err != nil {
			logger.Log.Warn("Quiz attempts still pending at shutdown", zap.Error(err))
		}
		cancel()
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	if a.Redis != nil {
		a.Redis.Close()
	}

	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func (a *App) drainTimeout() time.Duration {
	if t := a.Config.Progress.Timeout; t > 0 {
		return t
	}
	return 5 * time.Second
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Shutdown(ctx)
	logger.Log.Info("Server exiting")
}
