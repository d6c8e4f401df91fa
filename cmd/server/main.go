package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/babytracker/internal/auth"
	"github.com/babytracker/internal/config"
	"github.com/babytracker/internal/db"
	"github.com/babytracker/internal/handler"
	"github.com/babytracker/internal/logging"
	"github.com/babytracker/internal/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	zlog, err := logging.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// 初始化数据库
	dbLevel := logger.Warn
	if cfg.LogLevel == "debug" {
		dbLevel = logger.Info
	}
	gdb, err := db.Open(db.Options{Path: cfg.DatabasePath, URL: cfg.DatabaseURL, LogLevel: dbLevel})
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}

	if err := db.EnsureUser(gdb, cfg.BootstrapEmail, cfg.BootstrapName, cfg.BootstrapPassword); err != nil {
		zlog.Fatal("failed to ensure bootstrap user", zap.Error(err))
	}

	tickets := auth.NewTickets(cfg.AuthSecret, cfg.AuthTTL)
	api := handler.NewAPI(gdb, tickets, cfg.Location)

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, zlog, cfg.SessionSecret)
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("failed to run server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}
