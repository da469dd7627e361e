package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	"gridsync/internal/auth"
	"gridsync/internal/extract"
	"gridsync/internal/health"
	"gridsync/internal/hub"
	"gridsync/internal/inference"
	"gridsync/internal/pipeline"
	"gridsync/internal/runs"
	"gridsync/internal/sheetsync"
	"gridsync/internal/smartsheet"
	"gridsync/pkg/database"
	"gridsync/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := utils.LoadDotEnv(".env"); err != nil {
		slog.Error("load .env", "err", err)
		os.Exit(1)
	}
	cfg, err := utils.LoadConfig(*configPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := utils.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	if err := cfg.Validate(); err != nil {
		logger.Warn("incomplete credentials, affected endpoints will fail", "err", err)
	}

	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		logger.Error("open db", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		logger.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	gen := inference.NewGemini(inference.GeminiConfig{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
		Timeout: cfg.HTTPTimeout,
	}, logger)
	store := smartsheet.New(smartsheet.Config{
		Token:     cfg.Smartsheet.Token,
		BaseURL:   cfg.Smartsheet.BaseURL,
		Timeout:   cfg.HTTPTimeout,
		RateLimit: cfg.Smartsheet.RateLimit,
	}, logger)

	progress := hub.NewHub(0)
	syncer := sheetsync.New(store, progress, logger)
	runRepo := runs.NewRepo(db)
	checker := health.NewChecker(db, progress)
	tokens := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), pipeline.RequestLogger(logger))
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	router.MaxMultipartMemory = 32 << 20

	checker.RegisterRoutes(router)

	api := router.Group("")
	api.Use(auth.Middleware(tokens))
	api.GET("/ws", hub.WSHandler(progress, logger))
	pipeline.NewHandler(extract.NewExtractor(gen, logger), syncer, runRepo, logger).RegisterRoutes(api)
	runs.NewHandler(runRepo).RegisterRoutes(api)

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcSrv := grpc.NewServer()
	checker.Register(grpcSrv)
	grpcLn, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Error("grpc listen failed", "addr", cfg.GRPCAddr, "err", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		checker.Run(ctx, 15*time.Second)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("gRPC health listening", "addr", cfg.GRPCAddr)
		if err := grpcSrv.Serve(grpcLn); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("HTTP API listening", "addr", cfg.ListenAddr, "auth", tokens.Enabled())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}

	logger.Info("shutting down servers")
	checker.Shutdown()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "err", err)
	}
	grpcSrv.GracefulStop()

	wg.Wait()
	logger.Info("servers stopped")
}
