package browser

import (
	"strings"
	"sync"
)

// consoleLog accumulates JS errors reported by a page.
type consoleLog struct {
	mu     sync.Mutex
	errors []string
}

// add records msg unless it is favicon or CSP noise.
func (c *consoleLog) add(msg string) {
	if msg == "" || strings.Contains(msg, "favicon") || strings.Contains(msg, "Content Security Policy") {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
}

func (c *consoleLog) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.errors))
	copy(out, c.errors)
	return out
}
