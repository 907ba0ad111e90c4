package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobmcallan/taskmgr-verify/internal/common"
	"github.com/bobmcallan/taskmgr-verify/internal/config"
	"github.com/bobmcallan/taskmgr-verify/internal/fixture"
	"github.com/bobmcallan/taskmgr-verify/internal/server"
)

// configPaths is a custom flag type that allows multiple -config flags.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

func main() {
	var configFiles configPaths
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
	port := flag.Int("port", 0, "Server port (overrides config)")
	host := flag.String("host", "", "Server host (overrides config)")
	tasksFile := flag.String("tasks", "", "TOML task list to serve (overrides config)")
	showVersion := flag.Bool("version", false, "Print version information")
	flag.Parse()

	if *showVersion {
		fmt.Println(config.VersionLine("taskmgr-fixture"))
		os.Exit(0)
	}

	if len(configFiles) == 0 {
		if _, err := os.Stat("taskmgr-verify.toml"); err == nil {
			configFiles = append(configFiles, "taskmgr-verify.toml")
		}
	}

	cfg, err := config.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(2)
	}
	if *port > 0 {
		cfg.Fixture.Port = *port
	}
	if *host != "" {
		cfg.Fixture.Host = *host
	}
	if *tasksFile != "" {
		cfg.Fixture.TasksFile = *tasksFile
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)

	tasks := fixture.DefaultTasks(time.Now())
	if cfg.Fixture.TasksFile != "" {
		tasks, err = fixture.LoadFile(cfg.Fixture.TasksFile)
		if err != nil {
			logger.Error().Str("error", err.Error()).Msg("failed to load task list")
			os.Exit(1)
		}
	}
	store := fixture.NewStore(tasks...)

	logger.Info().
		Int("tasks", len(tasks)).
		Str("tasks_file", cfg.Fixture.TasksFile).
		Msg("task store seeded")

	srv := server.New(cfg.Fixture, store, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Str("error", err.Error()).Msg("server failed to start")
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Str("error", err.Error()).Msg("server shutdown failed")
	}
}
