// Package browser drives a real browser for the verifier. Two drivers exist:
// chromedp (local or remote Chrome over CDP) and playwright.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/taskmgr-verify/internal/locator"
)

// ErrNotVisible is matched (errors.Is) by every visibility-assertion failure.
// Drivers return it only when the wait budget ran out; any other failure is
// returned as-is.
var ErrNotVisible = errors.New("element not visible")

// errEmptyLocator is returned when a page action gets a locator with no steps.
var errEmptyLocator = errors.New("empty locator")

// VisibilityError reports which locator failed to become visible in time.
type VisibilityError struct {
	Locator string
	Timeout time.Duration
	Cause   error
}

func (e *VisibilityError) Error() string {
	msg := fmt.Sprintf("%s: %s within %s", ErrNotVisible, e.Locator, e.Timeout)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *VisibilityError) Is(target error) bool {
	return target == ErrNotVisible
}

func (e *VisibilityError) Unwrap() error {
	return e.Cause
}

// Driver starts browser sessions.
type Driver interface {
	Name() string
	Start(ctx context.Context) (Session, error)
}

// Session is an exclusively owned browser process. Close releases it; calls
// after the first are no-ops.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is one navigable document within a session.
type Page interface {
	Goto(ctx context.Context, url string) error
	// ExpectVisible waits up to timeout for the first match of l to be visible.
	ExpectVisible(ctx context.Context, l locator.Locator, timeout time.Duration) error
	// Screenshot captures the first match of l as PNG.
	Screenshot(ctx context.Context, l locator.Locator) ([]byte, error)
	// Content returns the serialized document, doctype included.
	Content(ctx context.Context) (string, error)
	// ConsoleErrors returns JS exceptions and console.error output seen so far.
	ConsoleErrors() []string
}
