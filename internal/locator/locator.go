// Package locator describes elements on a rendered page without touching the
// page. A Locator is a value: it is resolved afresh every time a driver acts
// on it, so waits and retries always see the current DOM.
package locator

import (
	"fmt"
	"strings"
)

// StepKind distinguishes the two kinds of query a chain can hold.
type StepKind string

const (
	// StepCSS selects descendants by CSS selector, optionally filtered by text.
	StepCSS StepKind = "css"
	// StepRole selects descendants by ARIA role, optionally filtered by accessible name.
	StepRole StepKind = "role"
)

// Step is one link of a locator chain. Each step is evaluated inside every
// element matched by the step before it.
type Step struct {
	Kind     StepKind `json:"kind"`
	Selector string   `json:"selector,omitempty"`
	HasText  string   `json:"hasText,omitempty"`
	Role     string   `json:"role,omitempty"`
	Name     string   `json:"name,omitempty"`
}

// Locator is an ordered chain of steps.
type Locator struct {
	steps []Step
}

// Query starts a chain with a CSS selector scoped to the document.
func Query(selector string) Locator {
	return Locator{steps: []Step{{Kind: StepCSS, Selector: selector}}}
}

// WithText narrows the last CSS step to elements whose text contains text.
// Matching ignores case and collapses whitespace.
func (l Locator) WithText(text string) Locator {
	out := l.clone()
	if n := len(out.steps); n > 0 && out.steps[n-1].Kind == StepCSS {
		out.steps[n-1].HasText = text
		return out
	}
	out.steps = append(out.steps, Step{Kind: StepCSS, Selector: "*", HasText: text})
	return out
}

// GetByRole appends a role step evaluated inside the current matches. A blank
// name matches any accessible name.
func (l Locator) GetByRole(role, name string) Locator {
	out := l.clone()
	out.steps = append(out.steps, Step{Kind: StepRole, Role: role, Name: name})
	return out
}

// Steps returns a copy of the chain.
func (l Locator) Steps() []Step {
	return append([]Step(nil), l.steps...)
}

// IsZero reports whether the locator has no steps.
func (l Locator) IsZero() bool {
	return len(l.steps) == 0
}

// Describe renders the chain for logs and error messages.
func (l Locator) Describe() string {
	parts := make([]string, 0, len(l.steps)*2)
	for _, s := range l.steps {
		switch s.Kind {
		case StepCSS:
			parts = append(parts, s.Selector)
			if s.HasText != "" {
				parts = append(parts, fmt.Sprintf("has-text=%q", s.HasText))
			}
		case StepRole:
			if s.Name != "" {
				parts = append(parts, fmt.Sprintf("role=%s[name=%q]", s.Role, s.Name))
			} else {
				parts = append(parts, "role="+s.Role)
			}
		}
	}
	return strings.Join(parts, " >> ")
}

func (l Locator) String() string {
	return l.Describe()
}

func (l Locator) clone() Locator {
	return Locator{steps: l.Steps()}
}
