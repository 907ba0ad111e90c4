package common

import "sync"

// testResult is the part of testing.TB a Tally needs.
type testResult interface {
	Failed() bool
	Cleanup(func())
}

// Tally counts passed and failed tests for the results summary.
type Tally struct {
	mu     sync.Mutex
	passed int
	failed int
}

// Track records t's result when it finishes. Cleanup runs after FailNow too,
// so tests stopped by require are still counted as failed.
func (c *Tally) Track(t testResult) {
	t.Cleanup(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if t.Failed() {
			c.failed++
		} else {
			c.passed++
		}
	})
}

// Counts returns the number of passed and failed tests tracked so far.
func (c *Tally) Counts() (passed, failed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.passed, c.failed
}
