package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/edu-center-api/api/swagger"
	"github.com/noah-isme/edu-center-api/internal/handler"
	internalmiddleware "github.com/noah-isme/edu-center-api/internal/middleware"
	"github.com/noah-isme/edu-center-api/internal/repository"
	"github.com/noah-isme/edu-center-api/internal/service"
	"github.com/noah-isme/edu-center-api/internal/view"
	"github.com/noah-isme/edu-center-api/pkg/antiforgery"
	"github.com/noah-isme/edu-center-api/pkg/cache"
	"github.com/noah-isme/edu-center-api/pkg/config"
	"github.com/noah-isme/edu-center-api/pkg/database"
	"github.com/noah-isme/edu-center-api/pkg/i18n"
	"github.com/noah-isme/edu-center-api/pkg/inflight"
	"github.com/noah-isme/edu-center-api/pkg/jobs"
	"github.com/noah-isme/edu-center-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edu-center-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edu-center-api/pkg/middleware/requestid"
)

// @title Edu Center API
// @version 1.0.0
// @description Administration API for multi-tenant educational centers
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	metrics := service.NewMetricsService()
	app := buildApp(ctx, cfg, db, redisClient, metrics, logr)

	autoSubmit := jobs.NewQueue("exam-auto-submit", app.exams.HandleAutoSubmit, jobs.QueueConfig{
		Workers:    cfg.Exams.AutoSubmitWorkers,
		MaxRetries: cfg.Exams.AutoSubmitRetries,
		Logger:     logr.Named("jobs"),
		OnDiscard: func(job jobs.Job, err error) {
			logr.Error("auto-submit discarded", zap.String("job_id", job.ID), zap.Any("payload", job.Payload), zap.Error(err))
		},
	})
	autoSubmit.Start(ctx)
	app.exams.AttachQueue(autoSubmit)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, sessionFields))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, app.antiForgeryHeader))
	r.Use(internalmiddleware.Locale(i18n.NewResolver(cfg.Locale.Default, cfg.Locale.Supported, cfg.Locale.Currency)))
	if cfg.Metrics.Enabled {
		r.Use(internalmiddleware.Metrics(metrics, "/metrics", "/health", "/ready"))
	}

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}
	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), app.handlers, app.guards)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	autoSubmit.Stop()
}

type application struct {
	handlers          handler.Handlers
	guards            handler.Guards
	exams             *service.StudentExamService
	antiForgeryHeader string
}

func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, metrics *service.MetricsService, logr *zap.Logger) *application {
	validate := validator.New()

	users := repository.NewUserRepository(db)
	roots := repository.NewRootRepository(db)
	employees := repository.NewEmployeeRepository(db)
	finance := repository.NewFinanceRepository(db)
	subjects := repository.NewSubjectRepository(db)
	teachers := repository.NewTeacherRepository(db)
	subscriptions := repository.NewSubscriptionRepository(db)
	wallets := repository.NewWalletRepository(db)
	exams := repository.NewExamRepository(db)
	authority := repository.NewAuthorityRepository(db)
	content := repository.NewContentRepository(db)

	var subjectStore service.YearSubjectStore
	if redisClient != nil {
		subjectStore = repository.NewSubjectCacheRepository(redisClient)
	}
	subjectCache := service.NewSubjectCache(subjectStore, metrics, cfg.Cache.SubjectsTTL, logr.Named("cache"), cfg.Cache.Enabled && subjectStore != nil)

	authSvc := service.NewAuthService(users, validate, logr.Named("auth"), service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	rootSvc := service.NewRootService(roots, validate, logr.Named("roots"))
	branchSvc := service.NewBranchService(roots, validate, logr.Named("branches"))
	employeeSvc := service.NewEmployeeService(employees, roots, validate, logr.Named("employees"))
	financeSvc := service.NewFinanceService(finance, employees, validate, logr.Named("finance"))
	subjectSvc := service.NewSubjectService(subjects, subjectCache, validate, logr.Named("subjects"))
	teacherSvc := service.NewTeacherService(teachers, subjects, validate, logr.Named("teachers"))
	subscriptionSvc := service.NewSubscriptionService(subscriptions, subjects, subjectCache, logr.Named("subscriptions"))
	walletSvc := service.NewWalletExamService(wallets, cfg.Wallet.ExpiringWithinDays, logr.Named("wallet"))
	examSvc := service.NewStudentExamService(ctx, exams, service.ExamServiceConfig{
		Warning:        cfg.Exams.WarningThreshold,
		Critical:       cfg.Exams.CriticalThreshold,
		PassPercentage: cfg.Exams.PassPercentage,
	}, metrics, logr.Named("exams"))
	authoritySvc := service.NewAuthorityService(authority, users, validate, logr.Named("authority"))
	contentSvc := service.NewContentService(content, logr.Named("content"))
	exportSvc := service.NewFinanceExportService(finance, metrics, logr.Named("export"), nil, nil, nil)

	renderer := view.MustNew()
	issuer := antiforgery.NewIssuer(antiForgerySecret(cfg), cfg.AntiForgery.TTL)
	header := cfg.AntiForgery.HeaderName
	if header == "" {
		header = internalmiddleware.DefaultAntiForgeryHeader
	}

	guards := handler.Guards{
		Auth:  internalmiddleware.JWT(authSvc),
		Audit: users,
	}
	if cfg.AntiForgery.Enabled {
		guards.AntiForgery = internalmiddleware.AntiForgery(issuer, header, metrics, logr.Named("antiforgery"))
	}
	if cfg.InFlight.Enabled {
		var guard inflight.Guard = inflight.NewMemoryGuard()
		if redisClient != nil {
			guard = inflight.NewRedisGuard(redisClient, "inflight")
		}
		guards.InFlight = internalmiddleware.InFlight(guard, cfg.InFlight.TTL, metrics, logr.Named("inflight"))
	}

	return &application{
		handlers: handler.Handlers{
			Auth:         handler.NewAuthHandler(authSvc, issuer, header),
			Roots:        handler.NewRootHandler(rootSvc),
			Branches:     handler.NewBranchHandler(branchSvc),
			Employees:    handler.NewEmployeeHandler(employeeSvc, renderer),
			Finance:      handler.NewFinanceHandler(financeSvc),
			Subjects:     handler.NewSubjectHandler(subjectSvc),
			Teachers:     handler.NewTeacherHandler(teacherSvc),
			Subscription: handler.NewSubscriptionHandler(subscriptionSvc),
			Wallet:       handler.NewWalletHandler(walletSvc, renderer),
			StudentExams: handler.NewStudentExamHandler(examSvc, renderer),
			Authority:    handler.NewAuthorityHandler(authoritySvc),
			Content:      handler.NewContentHandler(contentSvc),
			Export:       handler.NewExportHandler(exportSvc),
		},
		guards:            guards,
		exams:             examSvc,
		antiForgeryHeader: header,
	}
}

func antiForgerySecret(cfg *config.Config) string {
	if cfg.AntiForgery.Secret != "" {
		return cfg.AntiForgery.Secret
	}
	return cfg.JWT.Secret
}

func sessionFields(c *gin.Context) []zap.Field {
	session, ok := internalmiddleware.Session(c)
	if !ok {
		return nil
	}
	return []zap.Field{zap.String("user_id", session.UserID), zap.Int64("root_code", session.RootCode)}
}
