package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bobmcallan/taskmgr-verify/internal/common"
	"github.com/bobmcallan/taskmgr-verify/internal/config"
	"github.com/bobmcallan/taskmgr-verify/internal/locator"
	"github.com/playwright-community/playwright-go"
)

// PlaywrightDriver launches Chromium through the Playwright driver.
// Browsers must already be installed (playwright install chromium).
type PlaywrightDriver struct {
	cfg    config.BrowserConfig
	logger *common.Logger
}

// NewPlaywrightDriver creates a playwright-backed driver.
func NewPlaywrightDriver(cfg config.BrowserConfig, logger *common.Logger) *PlaywrightDriver {
	return &PlaywrightDriver{cfg: cfg, logger: logger}
}

func (d *PlaywrightDriver) Name() string { return config.DriverPlaywright }

func (d *PlaywrightDriver) Start(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("running playwright: %w", err)
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(d.cfg.Headless),
	}
	if d.cfg.ExecPath != "" {
		opts.ExecutablePath = playwright.String(d.cfg.ExecPath)
	}
	if deadline, ok := ctx.Deadline(); ok {
		opts.Timeout = playwright.Float(float64(time.Until(deadline).Milliseconds()))
	}

	d.logger.Debug().Bool("headless", d.cfg.Headless).Msg("launching chromium via playwright")
	b, err := pw.Chromium.Launch(opts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launching chromium: %w", err)
	}

	w, h, _ := d.cfg.ParseViewport()
	return &playwrightSession{pw: pw, browser: b, width: int(w), height: int(h)}, nil
}

type playwrightSession struct {
	pw            *playwright.Playwright
	browser       playwright.Browser
	width, height int

	once sync.Once
}

func (s *playwrightSession) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := playwright.BrowserNewContextOptions{}
	if s.width > 0 && s.height > 0 {
		opts.Viewport = &playwright.Size{Width: s.width, Height: s.height}
	}
	bctx, err := s.browser.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	p := &playwrightPage{page: page, console: &consoleLog{}}
	page.OnConsole(func(msg playwright.ConsoleMessage) {
		if msg.Type() == "error" {
			p.console.add("console.error: " + msg.Text())
		}
	})
	page.OnPageError(func(err error) {
		p.console.add("EXCEPTION: " + err.Error())
	})
	return p, nil
}

// Close closes the browser (and with it every context and page), then stops
// the driver process.
func (s *playwrightSession) Close() error {
	var err error
	s.once.Do(func() {
		err = errors.Join(s.browser.Close(), s.pw.Stop())
	})
	return err
}

type playwrightPage struct {
	page    playwright.Page
	console *consoleLog
}

// resolve translates a locator chain into playwright locators. The first
// match is used, mirroring the chromedp driver.
func (p *playwrightPage) resolve(l locator.Locator) (playwright.Locator, error) {
	if l.IsZero() {
		return nil, errEmptyLocator
	}
	var loc playwright.Locator
	for i, st := range l.Steps() {
		switch st.Kind {
		case locator.StepCSS:
			var hasText interface{}
			if st.HasText != "" {
				hasText = st.HasText
			}
			if i == 0 {
				loc = p.page.Locator(st.Selector, playwright.PageLocatorOptions{HasText: hasText})
			} else {
				loc = loc.Locator(st.Selector, playwright.LocatorLocatorOptions{HasText: hasText})
			}
		case locator.StepRole:
			var name interface{}
			if st.Name != "" {
				name = st.Name
			}
			if i == 0 {
				loc = p.page.GetByRole(playwright.AriaRole(st.Role), playwright.PageGetByRoleOptions{Name: name})
			} else {
				loc = loc.GetByRole(playwright.AriaRole(st.Role), playwright.LocatorGetByRoleOptions{Name: name})
			}
		default:
			return nil, fmt.Errorf("unknown locator step %q", st.Kind)
		}
	}
	return loc.First(), nil
}

func (p *playwrightPage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Goto(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *playwrightPage) ExpectVisible(ctx context.Context, l locator.Locator, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loc, err := p.resolve(l)
	if err != nil {
		return err
	}
	ms := float64(timeout.Milliseconds())
	err = playwright.NewPlaywrightAssertions(ms).Locator(loc).ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{
		Timeout: playwright.Float(ms),
	})
	return classifyAssertion(ctx, l, timeout, err)
}

// classifyAssertion maps a ToBeVisible result onto the driver contract. Only
// the assertion mismatch, reported as a plain error, is a VisibilityError.
// Protocol failures (closed target, crashed driver) wrap ErrPlaywright and are
// fatal, as is a cancelled run.
func classifyAssertion(ctx context.Context, l locator.Locator, timeout time.Duration, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("wait for %s: %w", l.Describe(), ctxErr)
	}
	var pwErr *playwright.Error
	if errors.Is(err, playwright.ErrPlaywright) || errors.Is(err, playwright.ErrTargetClosed) ||
		errors.Is(err, playwright.ErrTimeout) || errors.As(err, &pwErr) {
		return fmt.Errorf("wait for %s: %w", l.Describe(), err)
	}
	return &VisibilityError{Locator: l.Describe(), Timeout: timeout, Cause: err}
}

func (p *playwrightPage) Screenshot(ctx context.Context, l locator.Locator) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc, err := p.resolve(l)
	if err != nil {
		return nil, err
	}
	buf, err := loc.Screenshot()
	if err != nil {
		return nil, fmt.Errorf("screenshot %s: %w", l.Describe(), err)
	}
	return buf, nil
}

func (p *playwrightPage) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := p.page.Content()
	if err != nil {
		return "", fmt.Errorf("read page content: %w", err)
	}
	return html, nil
}

func (p *playwrightPage) ConsoleErrors() []string {
	return p.console.list()
}
