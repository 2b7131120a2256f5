package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jwtly10/litpost"
	"github.com/jwtly10/litpost/internal/config"
	"github.com/jwtly10/litpost/internal/lsp"
	"github.com/jwtly10/litpost/internal/lsp/server"
	"github.com/jwtly10/litpost/internal/rpc"
	"github.com/jwtly10/litpost/internal/transformer"
	"github.com/sourcegraph/jsonrpc2"

	_ "github.com/jwtly10/litpost/kernel/python"
	_ "github.com/jwtly10/litpost/kernel/shell"
)

// getLogFile returns a log file for the lsp server to write to.
//
// During development (-debug flag) uses persistent log for easy access.
func getLogFile(debug bool) (*os.File, error) {
	if debug {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		logDir := filepath.Join(homeDir, ".litpost")
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, err
		}
		return os.OpenFile(filepath.Join(logDir, "litpost-ls.log"),
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	}

	return os.CreateTemp("", "litpost-ls-*.log")
}

func main() {
	var debug, renderOnSave bool
	var configPath string
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&renderOnSave, "render-on-save", false, "Write the rendered post whenever a document is saved")
	flag.StringVar(&configPath, "config", "", "Path to the config file (default ./"+config.FileName+")")
	flag.Parse()

	logFile, err := getLogFile(debug)
	if err != nil {
		slog.Error("failed to setup logging", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	// stdout carries the protocol
	handler := slog.NewTextHandler(io.MultiWriter(os.Stderr, logFile), &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("starting litpost-ls", "logfile", logFile.Name())

	cfg, err := config.Load(configPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	k, err := cfg.Kernel()
	if err != nil {
		slog.Error("failed to create kernel", "error", err)
		os.Exit(1)
	}

	s, err := server.NewServer(server.Options{
		DocService: lsp.DocumentServiceOptions{
			Renderer:     litpost.NewRenderer(k, cfg.RenderOptions()),
			DateLayout:   cfg.DateFormat,
			RenderOnSave: renderOnSave,
			FinalTransformerOpts: transformer.TransformOptions{
				WriterMode: cfg.WriteMode(),
				NoBackup:   cfg.NoBackup,
				OutputDir:  cfg.Output,
			},
		},
	})
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	<-jsonrpc2.NewConn(
		context.Background(),
		jsonrpc2.NewBufferedStream(rpc.NewStdRWC(), jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(s.Handle),
	).DisconnectNotify()
}
