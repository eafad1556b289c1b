package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	cronrunner "superyield/internal/cron"
	"superyield/internal/db"
	"superyield/internal/handler"
	"superyield/internal/logger"
	"superyield/internal/middleware"
	gormrepository "superyield/internal/repository/gorm"
	"superyield/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The journal is optional; without a DSN decisions are not persisted.
	var journal *service.JournalService
	decisions := &handler.DecisionHandler{}
	health := &handler.HealthHandler{}
	dbConn, err := db.Open(cfg.DB)
	switch {
	case errors.Is(err, db.ErrDisabled):
		log.Warn("db.dsn not set; decision journal disabled")
	case err != nil:
		log.Fatal("db open failed", zap.Error(err))
	default:
		defer db.Close(dbConn)
		if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
			log.Warn("failed to set timezone", zap.Error(err))
		}
		if err := db.AutoMigrate(dbConn); err != nil {
			log.Fatal("auto-migrate failed", zap.Error(err))
		}
		store := gormrepository.New(dbConn.Gorm)
		journal = &service.JournalService{Repo: store, Logger: log}
		decisions.Repo = store
		health.DB = dbConn
	}

	decisionAgent, err := newAgent(cfg, log)
	if err != nil {
		return err
	}
	state, err := newStateProvider(ctx, cfg.Chain, log)
	if err != nil {
		log.Warn("vault state provider unavailable", zap.Error(err))
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.AccessLog(log))
	engine.Use(middleware.CORS())
	engine.Use(middleware.RequireBearer(cfg.Auth))

	health.Register(engine)
	handler.RegisterDocs(engine)
	agents := &handler.AgentHandler{
		Agent:        decisionAgent,
		State:        state,
		Journal:      journal,
		Logger:       log,
		DefaultModel: cfg.Reasoner.Model,
		StreamBuffer: cfg.Stream.Buffer,
	}
	agents.Register(engine)
	decisions.Register(engine)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	cronRunner := cronrunner.New(log, ctx)
	if cfg.Scheduler.Enabled {
		if err := scheduleAutopilot(ctx, cfg, cronRunner, decisionAgent, state, journal, log); err != nil {
			log.Warn("cron register autopilot failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	return nil
}
