package runner

import (
	"context"
	"sync"
	"time"

	"github.com/bobmcallan/taskmgr-verify/internal/browser"
	"github.com/bobmcallan/taskmgr-verify/internal/locator"
)

// fakeDriver scripts browser behaviour per locator description.
type fakeDriver struct {
	startErr   error
	gotoErr    error
	invisible  map[string]bool
	expectErr  error
	shot       []byte
	shotErr    error
	markup     string
	contentErr error
	closeErr   error
	console    []string

	mu       sync.Mutex
	sessions []*fakeSession
	visited  []string
	waited   []string
	timeouts []time.Duration
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) Start(ctx context.Context) (browser.Session, error) {
	if d.startErr != nil {
		return nil, d.startErr
	}
	s := &fakeSession{d: d}
	d.mu.Lock()
	d.sessions = append(d.sessions, s)
	d.mu.Unlock()
	return s, nil
}

func (d *fakeDriver) closeCounts() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]int, len(d.sessions))
	for i, s := range d.sessions {
		out[i] = s.closes
	}
	return out
}

type fakeSession struct {
	d      *fakeDriver
	closes int
}

func (s *fakeSession) NewPage(ctx context.Context) (browser.Page, error) {
	return &fakePage{d: s.d}, nil
}

func (s *fakeSession) Close() error {
	s.d.mu.Lock()
	s.closes++
	s.d.mu.Unlock()
	return s.d.closeErr
}

type fakePage struct {
	d *fakeDriver
}

func (p *fakePage) Goto(ctx context.Context, url string) error {
	p.d.visited = append(p.d.visited, url)
	return p.d.gotoErr
}

func (p *fakePage) ExpectVisible(ctx context.Context, l locator.Locator, timeout time.Duration) error {
	p.d.waited = append(p.d.waited, l.Describe())
	p.d.timeouts = append(p.d.timeouts, timeout)
	if p.d.expectErr != nil {
		return p.d.expectErr
	}
	if p.d.invisible[l.Describe()] {
		return &browser.VisibilityError{Locator: l.Describe(), Timeout: timeout}
	}
	return nil
}

func (p *fakePage) Screenshot(ctx context.Context, l locator.Locator) ([]byte, error) {
	return p.d.shot, p.d.shotErr
}

func (p *fakePage) Content(ctx context.Context) (string, error) {
	return p.d.markup, p.d.contentErr
}

func (p *fakePage) ConsoleErrors() []string {
	return p.d.console
}
