// Package diagnose explains a failed verification from the dumped page markup.
package diagnose

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxTextLen bounds each scope text recorded in a Summary.
const maxTextLen = 80

// Summary is what the static markup says about the expected elements.
type Summary struct {
	Title           string
	ScopeSelector   string
	ScopeCount      int
	ScopeTexts      []string
	TaskName        string
	TaskNamePresent bool
	Label           string
	LabelPresent    bool
}

// Summarize parses markup and reports how many scope elements exist, what they
// say, and whether the task name and button label appear anywhere in the page.
func Summarize(markup, scopeSelector, taskName, label string) (*Summary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse page markup: %w", err)
	}

	s := &Summary{
		Title:         normalize(doc.Find("title").First().Text()),
		ScopeSelector: scopeSelector,
		TaskName:      taskName,
		Label:         label,
	}

	doc.Find(scopeSelector).Each(func(_ int, sel *goquery.Selection) {
		s.ScopeCount++
		s.ScopeTexts = append(s.ScopeTexts, truncate(normalize(sel.Text()), maxTextLen))
	})

	body := strings.ToLower(normalize(doc.Find("body").Text()))
	s.TaskNamePresent = taskName != "" && strings.Contains(body, strings.ToLower(normalize(taskName)))
	s.LabelPresent = label != "" && (strings.Contains(body, strings.ToLower(normalize(label))) || hasAriaLabel(doc, label))

	return s, nil
}

// Hint is a one-line reading of the summary for logs.
func (s *Summary) Hint() string {
	switch {
	case s.ScopeCount == 0:
		return fmt.Sprintf("no %s elements in the page", s.ScopeSelector)
	case !s.TaskNamePresent:
		return fmt.Sprintf("%d %s elements, none mention %q", s.ScopeCount, s.ScopeSelector, s.TaskName)
	case !s.LabelPresent:
		return fmt.Sprintf("task %q is present but %q is not rendered", s.TaskName, s.Label)
	default:
		return "elements exist in the markup; likely hidden or rendered late"
	}
}

func hasAriaLabel(doc *goquery.Document, label string) bool {
	want := strings.ToLower(normalize(label))
	found := false
	doc.Find("[aria-label]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		v, _ := sel.Attr("aria-label")
		if strings.Contains(strings.ToLower(normalize(v)), want) {
			found = true
			return false
		}
		return true
	})
	return found
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
