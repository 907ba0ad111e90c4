package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/taskmgr-verify/internal/common"
	"github.com/bobmcallan/taskmgr-verify/internal/config"
	"github.com/bobmcallan/taskmgr-verify/internal/locator"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

const pollInterval = 100 * time.Millisecond

// contentJS serializes the document the same way page.content() does in
// Playwright: doctype followed by the root element's outer HTML.
const contentJS = `(() => {
	let out = '';
	if (document.doctype) out = new XMLSerializer().serializeToString(document.doctype);
	if (document.documentElement) out += document.documentElement.outerHTML;
	return out;
})()`

// ChromedpDriver launches Chrome locally, or attaches to one over CDP when
// RemoteURL is set.
type ChromedpDriver struct {
	cfg    config.BrowserConfig
	logger *common.Logger
}

// NewChromedpDriver creates a chromedp-backed driver.
func NewChromedpDriver(cfg config.BrowserConfig, logger *common.Logger) *ChromedpDriver {
	return &ChromedpDriver{cfg: cfg, logger: logger}
}

func (d *ChromedpDriver) Name() string { return config.DriverChromedp }

// allocatorOptions returns exec allocator flags for a local browser.
func (d *ChromedpDriver) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if d.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(d.cfg.ExecPath))
	}
	return opts
}

// Start allocates a browser and waits until it answers.
func (d *ChromedpDriver) Start(ctx context.Context) (Session, error) {
	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if d.cfg.RemoteURL != "" {
		d.logger.Debug().Str("remote_url", d.cfg.RemoteURL).Msg("attaching to remote browser")
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, d.cfg.RemoteURL)
	} else {
		d.logger.Debug().Bool("headless", d.cfg.Headless).Msg("launching local browser")
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, d.allocatorOptions()...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	w, h, _ := d.cfg.ParseViewport()
	return &chromedpSession{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		width:         w,
		height:        h,
	}, nil
}

type chromedpSession struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	width, height int64

	mu     sync.Mutex
	pages  []*chromedpPage
	closed bool
	once   sync.Once
}

// NewPage opens a new tab in the session's browser.
func (s *chromedpSession) NewPage(ctx context.Context) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("browser session is closed")
	}

	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	p := &chromedpPage{ctx: tabCtx, cancel: tabCancel, console: &consoleLog{}}
	listenConsole(tabCtx, p.console)

	actions := []chromedp.Action{}
	if s.width > 0 && s.height > 0 {
		actions = append(actions, chromedp.EmulateViewport(s.width, s.height))
	}
	// The first Run attaches the tab, so it must use the tab's own context.
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		tabCancel()
		return nil, fmt.Errorf("open page: %w", err)
	}
	if err := ctx.Err(); err != nil {
		tabCancel()
		return nil, fmt.Errorf("open page: %w", err)
	}

	s.pages = append(s.pages, p)
	return p, nil
}

// Close shuts the tabs, then the browser, then the allocator.
func (s *chromedpSession) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		pages := s.pages
		s.pages = nil
		s.mu.Unlock()

		for _, p := range pages {
			p.cancel()
		}
		err = chromedp.Cancel(s.browserCtx)
		s.browserCancel()
		s.allocCancel()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			err = nil
		}
	})
	return err
}

type chromedpPage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	console *consoleLog
}

// listenConsole records uncaught exceptions and console.error calls.
func listenConsole(ctx context.Context, log *consoleLog) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *runtime.EventExceptionThrown:
			desc := e.ExceptionDetails.Text
			if e.ExceptionDetails.Exception != nil && e.ExceptionDetails.Exception.Description != "" {
				desc = e.ExceptionDetails.Exception.Description
			}
			log.add("EXCEPTION: " + desc)
		case *runtime.EventConsoleAPICalled:
			if e.Type != runtime.APITypeError {
				return
			}
			var parts []string
			for _, arg := range e.Args {
				if arg.Value != nil {
					parts = append(parts, string(arg.Value))
				} else if arg.Description != "" {
					parts = append(parts, arg.Description)
				}
			}
			if len(parts) > 0 {
				log.add("console.error: " + strings.Join(parts, " "))
			}
		}
	})
}

// runWithin runs actions on the tab while honouring the caller's ctx as well
// as the tab's own lifetime.
func runWithin(ctx, tabCtx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ctxErr, err)
		}
		return err
	}
	return nil
}

func (p *chromedpPage) Goto(ctx context.Context, url string) error {
	if err := runWithin(ctx, p.ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *chromedpPage) ExpectVisible(ctx context.Context, l locator.Locator, timeout time.Duration) error {
	if l.IsZero() {
		return errEmptyLocator
	}
	var visible bool
	err := runWithin(ctx, p.ctx, chromedp.Poll(l.VisibleScript(), &visible,
		chromedp.WithPollingInterval(pollInterval),
		chromedp.WithPollingTimeout(timeout),
	))
	if errors.Is(err, chromedp.ErrPollingTimeout) {
		return &VisibilityError{Locator: l.Describe(), Timeout: timeout}
	}
	if err != nil {
		return fmt.Errorf("wait for %s: %w", l.Describe(), err)
	}
	return nil
}

func (p *chromedpPage) Screenshot(ctx context.Context, l locator.Locator) ([]byte, error) {
	if l.IsZero() {
		return nil, errEmptyLocator
	}
	var buf []byte
	if err := runWithin(ctx, p.ctx, chromedp.Screenshot(l.FirstScript(), &buf, chromedp.ByJSPath)); err != nil {
		return nil, fmt.Errorf("screenshot %s: %w", l.Describe(), err)
	}
	return buf, nil
}

func (p *chromedpPage) Content(ctx context.Context) (string, error) {
	var html string
	if err := runWithin(ctx, p.ctx, chromedp.Evaluate(contentJS, &html)); err != nil {
		return "", fmt.Errorf("read page content: %w", err)
	}
	return html, nil
}

func (p *chromedpPage) ConsoleErrors() []string {
	return p.console.list()
}
