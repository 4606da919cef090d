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
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-records-api/api/swagger"
	"github.com/noah-isme/school-records-api/internal/handler"
	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/repository"
	"github.com/noah-isme/school-records-api/internal/router"
	"github.com/noah-isme/school-records-api/internal/service"
	"github.com/noah-isme/school-records-api/internal/store"
	"github.com/noah-isme/school-records-api/pkg/cache"
	"github.com/noah-isme/school-records-api/pkg/config"
	"github.com/noah-isme/school-records-api/pkg/database"
	"github.com/noah-isme/school-records-api/pkg/logger"
	"github.com/noah-isme/school-records-api/pkg/storage"
)

// @title School Records API
// @version 1.0.0
// @description Student, staff, fee, attendance, exam and timetable records
// @BasePath /
// @schemes http

const shutdownTimeout = 15 * time.Second

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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := service.NewMetricsService()
	probes := map[string]handler.ReadinessProbe{}

	backend, closeBackend, err := openPersister(ctx, cfg, logr, probes)
	if err != nil {
		return err
	}
	defer closeBackend()

	st := store.New(service.NewInstrumentedPersister(backend, metrics, logr), defaultSettings(cfg.School))
	if err := st.Load(ctx); err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	var ledgerCache *service.LedgerCache
	if cfg.Ledger.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close() //nolint:errcheck
		probes["redis"] = redisProbe(client)
		cacheSvc := service.NewCacheService(repository.NewCacheRepository(client, logr), metrics, cfg.Ledger.CacheTTL, logr, true)
		ledgerCache = service.NewLedgerCache(cacheSvc, cfg.Ledger.CacheTTL)
	}

	validate := validator.New()
	students := service.NewStudentService(st, ledgerCache, validate, logr)
	fees := service.NewFeeService(st, ledgerCache, validate, logr)
	attendance := service.NewAttendanceService(st, validate, logr)
	exports := service.NewExportService(st, fees, logr, nil, nil)

	engine := router.New(router.Handlers{
		Students:   handler.NewStudentHandler(students, fees, attendance, exports),
		Teachers:   handler.NewTeacherHandler(service.NewTeacherService(st, validate, logr)),
		Staff:      handler.NewStaffHandler(service.NewStaffService(st, validate, logr)),
		Fees:       handler.NewFeeHandler(fees, exports),
		Attendance: handler.NewAttendanceHandler(attendance),
		Exams:      handler.NewExamHandler(service.NewExamService(st, validate, logr)),
		Schedules:  handler.NewScheduleHandler(service.NewScheduleService(st, validate, logr)),
		Settings:   handler.NewSettingsHandler(service.NewSettingsService(st, validate, logr)),
		Recycle:    handler.NewRecycleHandler(service.NewRecycleService(st, ledgerCache, logr)),
		Directory:  handler.NewDirectoryHandler(service.NewDirectoryService(st)),
		Export:     handler.NewExportHandler(exports),
		Metrics:    handler.NewMetricsHandler(metrics, probes),
	}, router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		MetricsService: metrics,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openPersister connects the configured storage backend and registers its
// readiness probe.
func openPersister(ctx context.Context, cfg *config.Config, logr *zap.Logger, probes map[string]handler.ReadinessProbe) (store.Persister, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewDocumentRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		probes["postgres"] = postgresProbe(db)
		return repo, func() { _ = db.Close() }, nil
	case config.StorageDriverFile:
		local, err := storage.NewLocalStorage(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		probes["data_dir"] = func() error {
			_, err := os.Stat(cfg.Storage.DataDir)
			return err
		}
		return local, func() {}, nil
	default:
		logr.Warn("records are kept in memory and lost on restart")
		return store.NewMemoryPersister(), func() {}, nil
	}
}

func defaultSettings(school config.SchoolConfig) models.Settings {
	return models.Settings{
		SchoolInfo: models.SchoolInfo{
			Name:    school.Name,
			Address: school.Address,
			Phone:   school.Phone,
			Email:   school.Email,
		},
		Preferences: models.Preferences{
			Currency:      school.Currency,
			AcademicYear:  school.AcademicYear,
			DateFormat:    "YYYY-MM-DD",
			ReceiptPrefix: "RCT",
		},
		Security: models.Security{SessionTimeoutMinutes: 30},
	}
}

func postgresProbe(db *sqlx.DB) handler.ReadinessProbe {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return db.PingContext(ctx)
	}
}

func redisProbe(client *redis.Client) handler.ReadinessProbe {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return client.Ping(ctx).Err()
	}
}
