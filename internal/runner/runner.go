// Package runner executes the download-button verification: open a page,
// find the task item, assert its download button is visible, screenshot it.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/taskmgr-verify/internal/browser"
	"github.com/bobmcallan/taskmgr-verify/internal/common"
	"github.com/bobmcallan/taskmgr-verify/internal/config"
	"github.com/bobmcallan/taskmgr-verify/internal/diagnose"
	"github.com/bobmcallan/taskmgr-verify/internal/locator"
	"github.com/google/uuid"
)

// Messages printed to the report writer.
const (
	SuccessMessage = "Successfully found the element and took a screenshot."
	FailureMessage = "AssertionError: The task item was not found. Dumping page content:"
)

// Outcome is the recovered result of a run. Faults that are not a visibility
// failure are returned as errors instead.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeVisibilityTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeVisibilityTimeout:
		return "visibility_timeout"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Scenario is the fixed element chain under test.
type Scenario struct {
	URL          string
	ItemSelector string
	TaskName     string
	ButtonRole   string
	ButtonName   string
	Timeout      time.Duration
	Screenshot   string
}

// ScenarioFromConfig builds a Scenario from the loaded configuration.
func ScenarioFromConfig(cfg *config.Config) Scenario {
	return Scenario{
		URL:          cfg.Target.URL,
		ItemSelector: cfg.Scenario.ItemSelector,
		TaskName:     cfg.Scenario.TaskName,
		ButtonRole:   cfg.Scenario.ButtonRole,
		ButtonName:   cfg.Scenario.ButtonName,
		Timeout:      time.Duration(cfg.Scenario.TimeoutSeconds) * time.Second,
		Screenshot:   cfg.Output.Screenshot,
	}
}

// Item locates the task item container.
func (s Scenario) Item() locator.Locator {
	return locator.Query(s.ItemSelector).WithText(s.TaskName)
}

// Button locates the download control inside the task item.
func (s Scenario) Button() locator.Locator {
	return s.Item().GetByRole(s.ButtonRole, s.ButtonName)
}

// Report describes a completed run.
type Report struct {
	RunID   string
	Outcome Outcome
	Elapsed time.Duration

	// Success only.
	ScreenshotPath  string
	ScreenshotBytes int

	// Visibility timeout only.
	FailedLocator string
	Markup        string
	Summary       *diagnose.Summary

	ConsoleErrors []string
}

// Runner runs a Scenario through a browser driver.
type Runner struct {
	driver   browser.Driver
	scenario Scenario
	out      io.Writer
	logger   *common.Logger
}

// New creates a Runner that prints its report to out.
func New(driver browser.Driver, scenario Scenario, out io.Writer, logger *common.Logger) *Runner {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Runner{driver: driver, scenario: scenario, out: out, logger: logger}
}

// Run executes the scenario once. A visibility failure is reported through
// the returned Report; every other fault is returned as an error. The browser
// session is closed on every path.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.New().String()}
	logger := r.logger.WithCorrelationId(report.RunID)

	logger.Info().
		Str("driver", r.driver.Name()).
		Str("url", r.scenario.URL).
		Str("task", r.scenario.TaskName).
		Msg("verification started")

	session, err := r.driver.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn().Str("error", cerr.Error()).Msg("browser session close failed")
		} else {
			logger.Debug().Msg("browser session closed")
		}
	}()

	page, err := session.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}

	if err := page.Goto(ctx, r.scenario.URL); err != nil {
		return nil, err
	}
	logger.Debug().Str("url", r.scenario.URL).Msg("page loaded")

	item := r.scenario.Item()
	button := r.scenario.Button()

	verr := r.expectVisible(ctx, page, item, button)
	report.ConsoleErrors = page.ConsoleErrors()
	for _, msg := range report.ConsoleErrors {
		logger.Warn().Str("message", msg).Msg("javascript error on page")
	}

	switch {
	case verr == nil:
		if err := r.capture(ctx, page, item, report); err != nil {
			return nil, err
		}
		fmt.Fprintln(r.out, SuccessMessage)
		report.Outcome = OutcomeSuccess
		logger.Info().
			Str("screenshot", report.ScreenshotPath).
			Int("bytes", report.ScreenshotBytes).
			Msg("verification passed")

	case errors.Is(verr, browser.ErrNotVisible):
		report.Outcome = OutcomeVisibilityTimeout
		var ve *browser.VisibilityError
		if errors.As(verr, &ve) {
			report.FailedLocator = ve.Locator
		}
		fmt.Fprintln(r.out, FailureMessage)

		markup, err := page.Content(ctx)
		if err != nil {
			return nil, err
		}
		report.Markup = markup
		fmt.Fprintln(r.out, markup)

		r.diagnose(logger, report)

	default:
		return nil, verr
	}

	report.Elapsed = time.Since(start)
	return report, nil
}

// expectVisible asserts the container, then the control inside it.
func (r *Runner) expectVisible(ctx context.Context, page browser.Page, item, button locator.Locator) error {
	if err := page.ExpectVisible(ctx, item, r.scenario.Timeout); err != nil {
		return err
	}
	return page.ExpectVisible(ctx, button, r.scenario.Timeout)
}

// capture screenshots the container and writes it to the scenario path.
func (r *Runner) capture(ctx context.Context, page browser.Page, item locator.Locator, report *Report) error {
	buf, err := page.Screenshot(ctx, item)
	if err != nil {
		return err
	}
	if len(buf) == 0 {
		return fmt.Errorf("screenshot %s: browser returned no image data", item.Describe())
	}

	path := r.scenario.Screenshot
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create screenshot dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("write screenshot %s: %w", path, err)
	}

	report.ScreenshotPath = path
	report.ScreenshotBytes = len(buf)
	return nil
}

// diagnose logs what the markup says about the missing elements.
func (r *Runner) diagnose(logger *common.Logger, report *Report) {
	summary, err := diagnose.Summarize(report.Markup, r.scenario.ItemSelector, r.scenario.TaskName, r.scenario.ButtonName)
	if err != nil {
		logger.Warn().Str("error", err.Error()).Msg("could not summarise page markup")
		return
	}
	report.Summary = summary

	logger.Warn().
		Str("locator", report.FailedLocator).
		Int("scope_count", summary.ScopeCount).
		Bool("task_name_present", summary.TaskNamePresent).
		Bool("label_present", summary.LabelPresent).
		Str("title", summary.Title).
		Msg(summary.Hint())
}
