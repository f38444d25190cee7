package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/fileripper/internal/config"
	"github.com/JonMunkholm/fileripper/internal/export"
	"github.com/JonMunkholm/fileripper/internal/logging"
	"github.com/JonMunkholm/fileripper/internal/process"
	"github.com/JonMunkholm/fileripper/internal/web"
)

func main() {
	os.Exit(run())
}

func run() int {
	definitionsFlag := flag.String("definitions", "", "path to the file definitions document (JSON or YAML)")
	onceFlag := flag.Bool("once", false, "run a single pass and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-once] [-definitions path | path]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	// Command line wins over the environment
	if *definitionsFlag != "" {
		cfg.Process.DefinitionsFile = *definitionsFlag
	} else if flag.NArg() > 0 {
		cfg.Process.DefinitionsFile = flag.Arg(0)
	}
	if *onceFlag {
		cfg.Process.RunOnce = true
	}
	if cfg.Process.DefinitionsFile == "" {
		flag.Usage()
		slog.Error("no definitions file provided")
		return 2
	}

	logFile, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	defer logFile.Close()
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		return 1
	}

	slog.Info("configuration loaded", "config", cfg.String())

	processor := process.New(process.Options{
		DefinitionsFile: cfg.Process.DefinitionsFile,
		Exporters: export.NewFactory(export.Options{
			HTTPTimeout:    cfg.Export.HTTPTimeout,
			DBTimeout:      cfg.Export.DBTimeout,
			PublishTimeout: cfg.Export.PublishTimeout,
			S3: export.S3Config{
				Endpoint:  cfg.Storage.Endpoint,
				Region:    cfg.Storage.Region,
				AccessKey: cfg.Storage.AccessKey,
				SecretKey: cfg.Storage.SecretKey,
				UseSSL:    cfg.Storage.UseSSL,
			},
			Logger: slog.Default(),
		}),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Process.RunOnce {
		if _, err := processor.Execute(ctx); err != nil {
			slog.Error("pass failed", "error", err)
			return 1
		}
		return 0
	}

	var server *web.Server
	if cfg.Server.Enabled {
		server = web.NewServer(processor, web.Config{
			Addr:        cfg.Server.Addr(),
			ReadTimeout: cfg.Server.ReadTimeout,
		})
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("status server stopped", "error", err)
				stop()
			}
		}()
	}

	processor.Run(ctx, cfg.Process.PollInterval)

	slog.Info("stopping fileripper...")
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}
	return 0
}
