package app

import (
	"context"
	"lingua_backend/internal/config"
	"lingua_backend/internal/controller"
	"lingua_backend/internal/middleware"
	"lingua_backend/internal/repository"
	"lingua_backend/internal/service"
	"lingua_backend/pkg/configwatcher"
	"lingua_backend/pkg/database"
	"lingua_backend/pkg/kvstore"
	"lingua_backend/pkg/logger"
	"lingua_backend/pkg/monitoring"
	"lingua_backend/pkg/security"
	"lingua_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	Store           kvstore.Store
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	authUser   *repository.AuthUserRepository
	profile    *repository.ProfileRepository
	progress   *repository.ProgressRepository
	lesson     *repository.LessonRepository
	quizResult *repository.QuizResultRepository
}

type services struct {
	auth    service.AuthProvider
	ai      service.TextGenerator
	archive *service.ArchiveService
	user    *service.UserService
	lesson  *service.LessonService
	quiz    *service.QuizService
}

type controllers struct {
	auth    *controller.AuthController
	profile *controller.ProfileController
	lesson  *controller.LessonController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(store kvstore.Store) *repositories {
	return &repositories{
		authUser:   repository.NewAuthUserRepository(store),
		profile:    repository.NewProfileRepository(store),
		progress:   repository.NewProgressRepository(store),
		lesson:     repository.NewLessonRepository(store),
		quizResult: repository.NewQuizResultRepository(store),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, generator service.TextGenerator, archive *service.ArchiveService) *services {
	s := &services{ai: generator, archive: archive}
	s.auth = service.NewAuthProvider(cfg, repos.authUser)
	s.user = service.NewUserService(s.auth, repos.profile, repos.progress, repos.quizResult)
	s.lesson = service.NewLessonService(
		repos.profile,
		repos.progress,
		repos.lesson,
		generator,
		service.NewCurriculum(cfg.Curriculum.Catalog),
		archive,
	)
	s.quiz = service.NewQuizService(
		repos.profile,
		repos.progress,
		repos.lesson,
		repos.quizResult,
		cfg.Curriculum.MaxStage,
	)
	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.user),
		profile: controller.NewProfileController(s.user),
		lesson:  controller.NewLessonController(s.lesson, s.quiz),
		health:  controller.NewHealthController(a.Store),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(gin.Recovery())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(cfg.Tracing.ServiceName))
	}

	router.Use(monitoring.MetricsMiddleware())
}

// NewApp 按配置打开存储、模型客户端和归档并组装服务
func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	// 监控初始化，冲突计数器需在存储之前注册
	monitoring.Init()

	store, err := database.InitStore(cfg, kvstore.WithConflictObserver(monitoring.ObserveConflict))
	if err != nil {
		logger.Log.Fatal("Failed to initialize store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}

	archive, err := service.NewArchiveService(context.Background(), &cfg.Storage)
	if err != nil {
		logger.Log.Fatal("Failed to initialize lesson archive", zap.String("type", cfg.Storage.Type), zap.Error(err))
	}

	ai := service.NewAIService(cfg.AI)

	app := New(cfg, store, ai, archive)
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.SetMode(newCfg.Server.Mode)
		ai.Reload(newCfg.AI)
	})

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(context.Background(), &cfg.Tracing)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	return app
}

// New 使用给定的存储和模型客户端组装路由，测试中直接调用
func New(cfg *config.Config, store kvstore.Store, generator service.TextGenerator, archive *service.ArchiveService) *App {
	if archive == nil {
		archive = &service.ArchiveService{}
	}

	app := &App{
		Config: cfg,
		Store:  store,
	}

	repos := app.initRepositories(store)
	app.services = app.initServices(repos, cfg, generator, archive)
	controllers := app.initControllers(app.services)

	router := gin.New()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	return app
}

func (a *App) watchConfig(ctx context.Context) {
	if a.Config.ConfigFile == "" || len(a.configCallbacks) == 0 {
		return
	}

	w := configwatcher.New(a.Config.ConfigFile)
	for _, cb := range a.configCallbacks {
		w.OnReload(cb)
	}

	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	a.watchConfig(ctx)

	// 启动服务器
	go func() {
		logger.Log.Info("Server running",
			zap.String("port", a.Config.Server.Port),
			zap.String("store", a.Config.Store.Driver),
			zap.String("ai_provider", a.Config.AI.Provider),
			zap.String("curriculum", a.Config.Curriculum.Catalog),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")
	stopWatch()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	if err := a.Store.Close(); err != nil {
		logger.Log.Error("Failed to close store", zap.Error(err))
	}

	logger.Log.Info("Server exiting")
	logger.Log.Sync()
}
