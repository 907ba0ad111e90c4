package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type TestConfig struct {
	Results struct {
		Dir string `toml:"dir"`
	} `toml:"results"`
	Browser struct {
		Image       string `toml:"image"`
		TimeoutSecs int    `toml:"timeout_seconds"`
	} `toml:"browser"`
}

var (
	globalConfig     *TestConfig
	globalConfigOnce sync.Once
	resultsDir       string
	resultsDirOnce   sync.Once
)

// LoadTestConfig reads tests/test_config.toml when present, over defaults.
func LoadTestConfig() *TestConfig {
	globalConfigOnce.Do(func() {
		globalConfig = &TestConfig{}
		globalConfig.Results.Dir = filepath.Join(FindProjectRoot(), "tests", "results")
		globalConfig.Browser.Image = "chromedp/headless-shell:latest"
		globalConfig.Browser.TimeoutSecs = 60

		configPaths := []string{
			filepath.Join(FindProjectRoot(), "tests", "test_config.toml"),
			"test_config.toml",
		}

		for _, path := range configPaths {
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			if err := toml.Unmarshal(data, globalConfig); err == nil {
				return
			}
		}
	})
	return globalConfig
}

// GetResultsDir returns the per-run artifacts directory, creating it on first use.
// TASKMGR_TEST_RESULTS_DIR overrides the configured location.
func GetResultsDir() string {
	if dir := os.Getenv("TASKMGR_TEST_RESULTS_DIR"); dir != "" {
		if abs, err := filepath.Abs(dir); err == nil {
			return abs
		}
		return dir
	}

	resultsDirOnce.Do(func() {
		timestamp := time.Now().Format("2006-01-02-15-04-05")
		resultsDir = filepath.Join(LoadTestConfig().Results.Dir, timestamp)
		if err := os.MkdirAll(resultsDir, 0755); err != nil {
			panic("failed to create results dir: " + err.Error())
		}
	})
	return resultsDir
}

// ArtifactPath returns a path under the results directory for a named test artifact.
func ArtifactPath(parts ...string) string {
	return filepath.Join(append([]string{GetResultsDir()}, parts...)...)
}

// FindProjectRoot walks up from the working directory to the directory holding go.mod.
func FindProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}

// WriteResultsSummary appends a one-suite summary to summary.md in the results dir.
func WriteResultsSummary(suite string, passed, failed int) error {
	f, err := os.OpenFile(ArtifactPath("summary.md"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	status := "PASS"
	if failed > 0 {
		status = "FAIL"
	}

	_, err = fmt.Fprintf(f, "# Test Results: %s\n\n## %s\n- Status: %s\n- Passed: %d\n- Failed: %d\n",
		time.Now().Format("2006-01-02 15:04:05"), suite, status, passed, failed)
	return err
}
