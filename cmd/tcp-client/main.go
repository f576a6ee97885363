package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/vector-ops/dualkv/internal/config"
	"github.com/vector-ops/dualkv/internal/runner"
	"github.com/vector-ops/dualkv/internal/script"
	"github.com/vector-ops/dualkv/internal/shell"
	"github.com/vector-ops/dualkv/internal/transport"
	"github.com/vector-ops/dualkv/internal/utils"
)

const usage = "tcp-client [-config file.yaml] <host> <port>"

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flag.Parse()

	logger := utils.NewLogger(os.Stdout, slog.LevelInfo)

	host, port, err := config.ParseClientArgs(usage, flag.Args())
	if err != nil {
		logger.Error("incorrect arguments", "err", err)
		os.Exit(1)
	}

	cfg, err := config.LoadClientConfig(configPath)
	if err != nil {
		logger.Error("invalid config", "err", err)
		os.Exit(1)
	}
	cfg.Host, cfg.Port = host, port

	addr := utils.FormatHostPort(cfg.Host, cfg.Port)
	logger.Info("starting tcp client", "addr", addr)

	tr, err := transport.DialTCP(context.Background(), addr, transport.DialOptions{
		Attempts:   cfg.DialAttempts,
		BackoffMin: cfg.DialBackoffMin,
		BackoffMax: cfg.DialBackoffMax,
	})
	if err != nil {
		logger.Error("error connecting to server", "err", err)
		os.Exit(1)
	}
	logger.Info("connection established", "localAddr", tr.GetLocalAddress(), "remoteAddr", tr.GetRemoteAddress())

	r := runner.New(tr, cfg.ResponseTimeout, logger)
	sh := shell.New(os.Stdin, r, script.File(cfg.OperationsScript), tr, logger)
	if _, err := sh.Run(); err != nil {
		logger.Error("close error", "err", err)
	}
}
