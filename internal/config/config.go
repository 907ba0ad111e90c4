package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the verifier configuration.
type Config struct {
	Target   TargetConfig   `toml:"target"`
	Scenario ScenarioConfig `toml:"scenario"`
	Browser  BrowserConfig  `toml:"browser"`
	Output   OutputConfig   `toml:"output"`
	Logging  LoggingConfig  `toml:"logging"`
	Fixture  FixtureConfig  `toml:"fixture"`
}

// TargetConfig is the page the runner navigates to.
type TargetConfig struct {
	URL string `toml:"url"`
}

// ScenarioConfig describes the element chain to verify.
type ScenarioConfig struct {
	ItemSelector   string `toml:"item_selector"`
	TaskName       string `toml:"task_name"`
	ButtonRole     string `toml:"button_role"`
	ButtonName     string `toml:"button_name"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// BrowserConfig contains browser session settings.
type BrowserConfig struct {
	Driver         string `toml:"driver"`
	Headless       bool   `toml:"headless"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RemoteURL      string `toml:"remote_url"`
	ExecPath       string `toml:"exec_path"`
	Viewport       string `toml:"viewport"`
}

// OutputConfig contains artifact settings.
type OutputConfig struct {
	Screenshot string `toml:"screenshot"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// FixtureConfig contains settings for the fixture task-manager server.
type FixtureConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	TasksFile string `toml:"tasks_file"`
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies TASKMGR_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if u := os.Getenv("TASKMGR_VERIFY_URL"); u != "" {
		config.Target.URL = u
	}
	if name := os.Getenv("TASKMGR_VERIFY_TASK"); name != "" {
		config.Scenario.TaskName = name
	}
	if secs := os.Getenv("TASKMGR_VERIFY_TIMEOUT"); secs != "" {
		if s, err := strconv.Atoi(secs); err == nil {
			config.Scenario.TimeoutSeconds = s
		}
	}
	if shot := os.Getenv("TASKMGR_VERIFY_SCREENSHOT"); shot != "" {
		config.Output.Screenshot = shot
	}
	if driver := os.Getenv("TASKMGR_BROWSER_DRIVER"); driver != "" {
		config.Browser.Driver = driver
	}
	if headless := os.Getenv("TASKMGR_BROWSER_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = h
		}
	}
	if remote := os.Getenv("TASKMGR_BROWSER_REMOTE_URL"); remote != "" {
		config.Browser.RemoteURL = remote
	}
	if level := os.Getenv("TASKMGR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if port := os.Getenv("TASKMGR_FIXTURE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Fixture.Port = p
		}
	}
	if host := os.Getenv("TASKMGR_FIXTURE_HOST"); host != "" {
		config.Fixture.Host = host
	}
}

// FlagOverrides carries command-line values. Zero values leave config untouched.
type FlagOverrides struct {
	URL        string
	TaskName   string
	Screenshot string
	Driver     string
	Timeout    int
	Headful    bool
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, f FlagOverrides) {
	if f.URL != "" {
		config.Target.URL = f.URL
	}
	if f.TaskName != "" {
		config.Scenario.TaskName = f.TaskName
	}
	if f.Screenshot != "" {
		config.Output.Screenshot = f.Screenshot
	}
	if f.Driver != "" {
		config.Browser.Driver = f.Driver
	}
	if f.Timeout > 0 {
		config.Scenario.TimeoutSeconds = f.Timeout
	}
	if f.Headful {
		config.Browser.Headless = false
	}
}

// Validate returns a list of human-readable problems with the configuration.
func (c *Config) Validate() []string {
	var issues []string

	if c.Target.URL == "" {
		issues = append(issues, "target.url is required")
	} else if u, err := url.Parse(c.Target.URL); err != nil || u.Scheme == "" || u.Host == "" {
		issues = append(issues, fmt.Sprintf("target.url %q is not an absolute URL", c.Target.URL))
	}
	if strings.TrimSpace(c.Scenario.ItemSelector) == "" {
		issues = append(issues, "scenario.item_selector is required")
	}
	if strings.TrimSpace(c.Scenario.TaskName) == "" {
		issues = append(issues, "scenario.task_name is required")
	}
	if c.Scenario.ButtonRole == "" || c.Scenario.ButtonName == "" {
		issues = append(issues, "scenario.button_role and scenario.button_name are required")
	}
	if c.Scenario.TimeoutSeconds <= 0 {
		issues = append(issues, "scenario.timeout_seconds must be positive")
	}
	if c.Browser.TimeoutSeconds <= 0 {
		issues = append(issues, "browser.timeout_seconds must be positive")
	}
	// The run deadline has to outlast both visibility waits, or a missing
	// element surfaces as a deadline error instead of an assertion failure.
	if c.Scenario.TimeoutSeconds > 0 && c.Browser.TimeoutSeconds > 0 &&
		2*c.Scenario.TimeoutSeconds >= c.Browser.TimeoutSeconds {
		issues = append(issues, fmt.Sprintf("browser.timeout_seconds (%d) must exceed twice scenario.timeout_seconds (%d)",
			c.Browser.TimeoutSeconds, c.Scenario.TimeoutSeconds))
	}
	switch c.Browser.Driver {
	case DriverChromedp, DriverPlaywright:
	default:
		issues = append(issues, fmt.Sprintf("browser.driver %q is not one of %s, %s", c.Browser.Driver, DriverChromedp, DriverPlaywright))
	}
	if c.Browser.RemoteURL != "" && c.Browser.Driver != DriverChromedp {
		issues = append(issues, "browser.remote_url is only supported by the chromedp driver")
	}
	if c.Browser.Viewport != "" {
		if _, _, err := c.Browser.ParseViewport(); err != nil {
			issues = append(issues, err.Error())
		}
	}
	if c.Output.Screenshot == "" {
		issues = append(issues, "output.screenshot is required")
	}

	return issues
}

// ParseViewport parses the WxH viewport string. A blank viewport yields 0, 0.
func (b BrowserConfig) ParseViewport() (int64, int64, error) {
	if b.Viewport == "" {
		return 0, 0, nil
	}
	parts := strings.SplitN(b.Viewport, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("browser.viewport %q must be WxH", b.Viewport)
	}
	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("browser.viewport %q must be WxH with positive integers", b.Viewport)
	}
	return int64(w), int64(h), nil
}
