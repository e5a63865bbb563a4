package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/assets"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/controller"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/physics"
	"github.com/Lucalangella/NEWTON-LAB/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to lab config yaml")
	flag.Parse()

	cfg, err := loadLabConfig(*configPath)
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	logger := log.New(parseLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host := physics.NewHeadlessHost()
	ctrl := controller.New(host, controller.Options{
		Loader: assets.NewSTLLoader(logger),
		Logger: logger,
	})
	_ = ctrl.Enqueue(controller.ConfigCommand{Config: cfg.Physics})

	srvConfig := server.DefaultConfig()
	srvConfig.ListenAddr = cfg.ListenAddr
	srvConfig.QUICAddr = cfg.QUICAddr
	srv := server.New(ctrl, srvConfig, logger)

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	if err = srv.Start(ctx); err != nil {
		fmt.Println("Error starting inspector:", err)
		os.Exit(1)
	}

	// The controller loop owns the host: commands, simulation stepping and
	// broadcast effects all run inside one tick.
	go func() {
		if err := ctrl.Run(ctx, cfg.TickInterval); err != nil && ctx.Err() == nil {
			logger.Error("controller loop exited", log.Error(err))
		}
	}()

	<-stopCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err = srv.Stop(shutdownCtx); err != nil {
		fmt.Println("Error stopping inspector:", err)
	}
}

func parseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
