package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vector-ops/dualkv/internal/config"
	"github.com/vector-ops/dualkv/internal/script"
	"github.com/vector-ops/dualkv/internal/server"
	"github.com/vector-ops/dualkv/internal/storage"
	"github.com/vector-ops/dualkv/internal/utils"
)

const usage = "tcp-server [-config file.yaml] <port>"

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to a YAML config file")

	var debug bool
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := utils.NewLogger(os.Stdout, level)

	port, err := config.ParseServerArgs(usage, flag.Args())
	if err != nil {
		logger.Error("incorrect arguments", "err", err)
		os.Exit(1)
	}

	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		logger.Error("invalid config", "err", err)
		os.Exit(1)
	}
	cfg.Port = port

	srv := server.NewStreamServer(cfg, storage.NewKeyVal(), script.File(cfg.PopulationScript), logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received, shutting down")
		srv.Close()
	}()

	if err := srv.Start(); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
