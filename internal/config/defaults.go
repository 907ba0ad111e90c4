package config

// Browser drivers.
const (
	DriverChromedp   = "chromedp"
	DriverPlaywright = "playwright"
)

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			URL: "http://127.0.0.1:3000/",
		},
		Scenario: ScenarioConfig{
			ItemSelector:   ".task-item",
			TaskName:       "My Test Task",
			ButtonRole:     "button",
			ButtonName:     "下载输出",
			TimeoutSeconds: 5,
		},
		Browser: BrowserConfig{
			Driver:         DriverChromedp,
			Headless:       true,
			TimeoutSeconds: 30,
		},
		Output: OutputConfig{
			Screenshot: "verification/verification.png",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Outputs: []string{"console"},
		},
		Fixture: FixtureConfig{
			Host: "127.0.0.1",
			Port: 3000,
		},
	}
}
