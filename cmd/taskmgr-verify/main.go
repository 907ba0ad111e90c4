package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bobmcallan/taskmgr-verify/internal/browser"
	"github.com/bobmcallan/taskmgr-verify/internal/common"
	"github.com/bobmcallan/taskmgr-verify/internal/config"
	"github.com/bobmcallan/taskmgr-verify/internal/runner"
)

// Exit codes.
const (
	exitOK       = 0
	exitFatal    = 1
	exitUsage    = 2
	exitNotFound = 3
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
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("taskmgr-verify", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configFiles configPaths
		overrides   config.FlagOverrides
		strict      bool
		showVersion bool
	)
	fs.Var(&configFiles, "config", "Configuration file path (can be specified multiple times)")
	fs.Var(&configFiles, "c", "Configuration file path (shorthand)")
	fs.StringVar(&overrides.URL, "url", "", "Target page URL (overrides config)")
	fs.StringVar(&overrides.TaskName, "task", "", "Task name the task item must contain")
	fs.StringVar(&overrides.Screenshot, "out", "", "Screenshot output path")
	fs.StringVar(&overrides.Driver, "driver", "", "Browser driver: chromedp or playwright")
	fs.IntVar(&overrides.Timeout, "timeout", 0, "Visibility wait budget in seconds")
	fs.BoolVar(&overrides.Headful, "headful", false, "Show the browser window")
	fs.BoolVar(&strict, "strict", false, "Exit 3 when the element is not found")
	fs.BoolVar(&showVersion, "version", false, "Print version information")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if showVersion {
		fmt.Fprintln(stdout, config.VersionLine("taskmgr-verify"))
		return exitOK
	}

	if len(configFiles) == 0 {
		for _, path := range configSearchPaths() {
			if _, err := os.Stat(path); err == nil {
				configFiles = append(configFiles, path)
				break
			}
		}
	}

	cfg, err := config.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return exitUsage
	}

	config.ApplyFlagOverrides(cfg, overrides)

	if issues := cfg.Validate(); len(issues) > 0 {
		fmt.Fprintln(stderr, "Configuration error:")
		for _, issue := range issues {
			fmt.Fprintf(stderr, "  - %s\n", issue)
		}
		fmt.Fprintln(stderr, "Values can be set via TOML file, TASKMGR_* environment variables, or CLI flags.")
		return exitUsage
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)
	logger.Debug().
		Str("config_files", fmt.Sprintf("%v", configFiles)).
		Str("version", config.GetVersion()).
		Msg("configuration loaded")

	driver, err := browser.New(cfg.Browser, logger)
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to create browser driver")
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Browser.TimeoutSeconds)*time.Second)
	defer cancel()

	report, err := runner.New(driver, runner.ScenarioFromConfig(cfg), stdout, logger).Run(ctx)
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("verification aborted")
		fmt.Fprintf(stderr, "FAIL: %v\n", err)
		return exitFatal
	}

	logger.Info().
		Str("outcome", report.Outcome.String()).
		Dur("elapsed", report.Elapsed).
		Msg("verification finished")

	if strict && report.Outcome == runner.OutcomeVisibilityTimeout {
		return exitNotFound
	}
	return exitOK
}

// configSearchPaths returns TOML files to auto-discover (first match wins).
// Binary-relative paths are tried before the working directory.
func configSearchPaths() []string {
	candidates := []string{
		"taskmgr-verify.toml",
		"config/taskmgr-verify.toml",
	}

	exe, err := os.Executable()
	if err != nil {
		return candidates
	}
	binDir := filepath.Dir(exe)

	paths := append([]string{
		filepath.Join(binDir, "taskmgr-verify.toml"),
		filepath.Join(binDir, "config", "taskmgr-verify.toml"),
	}, candidates...)

	seen := make(map[string]bool, len(paths))
	deduped := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		deduped = append(deduped, p)
	}
	return deduped
}
