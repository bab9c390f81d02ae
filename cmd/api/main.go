package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/GoSim-25-26J-441/items-backend/config"
	"github.com/GoSim-25-26J-441/items-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/items-backend/internal/logger"
	"github.com/GoSim-25-26J-441/items-backend/internal/persistence"
	"github.com/GoSim-25-26J-441/items-backend/internal/server"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}

	lg, err := logger.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Printf("logger: %v", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = lg.Sync(ctx)
	}()

	bootstrap.SetGinMode(cfg.App.Environment)

	store, err := persistence.Open(cfg)
	if err != nil {
		lg.Error("open persistence", zap.Error(err))
		return 1
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    cfg.App.ServiceName,
		Version:        cfg.App.Version,
		Store:          store,
		Logger:         lg,
		StaticDir:      cfg.Server.StaticDir,
		AllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
	})

	srv := server.New(cfg.Server.Addr(), router, store,
		server.WithLogger(lg.With(zap.String("driver", cfg.Persistence.Driver))),
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)

	if err := srv.Run(context.Background()); err != nil {
		lg.Error("server failed to start", zap.Error(err))
		return 1
	}
	return 0
}
