package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"symptomwise-backend/config"
	"symptomwise-backend/database"
	"symptomwise-backend/middleware"
	"symptomwise-backend/routes"
	"symptomwise-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server for the web and WhatsApp channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	if err := config.Load(); err != nil {
		return errors.Wrap(err, "load configuration")
	}
	cfg := config.Get()

	logger, err := newLogger(cfg)
	if err != nil {
		return errors.Wrap(err, "create logger")
	}
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := database.Connect(cfg); err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer database.Disconnect()

	if !cfg.WhatsAppEnabled() {
		logger.Warn("WhatsApp sending is not configured; webhook replies will be dropped")
	}

	metrics := services.NewMetrics()
	chatbot, err := buildChatbot(cfg, logger, metrics)
	if err != nil {
		return err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger, metrics))
	router.Use(middleware.CORS(cfg.Security.AllowedOrigins))
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return errors.Wrap(err, "set trusted proxies")
	}

	routes.SetupRoutes(router, cfg, routes.Dependencies{
		Chatbot:  chatbot,
		WhatsApp: services.NewWhatsAppService(cfg.WhatsApp, logger),
		Metrics:  metrics,
		Logger:   logger,
	})
	for _, route := range router.Routes() {
		logger.Debug("Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	// No write timeout: streamed replies may outlast any fixed bound.
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listen")
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
	return nil
}
