package locator

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_WithText(t *testing.T) {
	l := Query(".task-item").WithText("My Test Task")

	steps := l.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, StepCSS, steps[0].Kind)
	assert.Equal(t, ".task-item", steps[0].Selector)
	assert.Equal(t, "My Test Task", steps[0].HasText)
}

func TestGetByRole_AppendsScopedStep(t *testing.T) {
	item := Query(".task-item").WithText("My Test Task")
	button := item.GetByRole("button", "下载输出")

	require.Len(t, button.Steps(), 2)
	assert.Equal(t, Step{Kind: StepRole, Role: "button", Name: "下载输出"}, button.Steps()[1])

	// Deriving a child never mutates the parent.
	assert.Len(t, item.Steps(), 1)
}

func TestWithText_AfterRoleAddsFilterStep(t *testing.T) {
	l := Query("ul").GetByRole("listitem", "").WithText("done")

	steps := l.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, Step{Kind: StepCSS, Selector: "*", HasText: "done"}, steps[2])
}

func TestSteps_ReturnsCopy(t *testing.T) {
	l := Query(".a")
	steps := l.Steps()
	steps[0].Selector = ".b"

	assert.Equal(t, ".a", l.Steps()[0].Selector)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		l    Locator
		want string
	}{
		{"css", Query(".task-item"), ".task-item"},
		{"css with text", Query(".task-item").WithText("My Test Task"), `.task-item >> has-text="My Test Task"`},
		{"role with name", Query(".task-item").GetByRole("button", "下载输出"), `.task-item >> role=button[name="下载输出"]`},
		{"role without name", Query("nav").GetByRole("link", ""), "nav >> role=link"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.l.Describe())
			assert.Equal(t, tt.want, tt.l.String())
		})
	}
}

func TestIsZero(t *testing.T) {
	assert.True(t, Locator{}.IsZero())
	assert.False(t, Query("body").IsZero())
}

func TestScripts_EmbedStepsAsJSON(t *testing.T) {
	l := Query(".task-item").WithText(`it's "quoted"`).GetByRole("button", "下载输出")

	want, err := json.Marshal(l.Steps())
	require.NoError(t, err)

	for name, script := range map[string]string{
		"first":   l.FirstScript(),
		"visible": l.VisibleScript(),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Contains(t, script, "const steps = "+string(want)+";")
			assert.True(t, strings.HasPrefix(script, "(() => {"))
			assert.True(t, strings.HasSuffix(script, "})()"))
		})
	}

	assert.Contains(t, l.VisibleScript(), "isVisible(els[0])")
	assert.Contains(t, l.FirstScript(), "els[0] : null")
}

func TestResolver_MatchesLikeAccessibilityTree(t *testing.T) {
	script := Query(".task-item").WithText("My Test Task").GetByRole("button", "下载输出").VisibleScript()

	assert.Contains(t, script, "roleOf(el) !== st.role || hiddenForAria(el)")
	assert.Contains(t, script, "norm(textOf(el)).includes(norm(st.hasText))")
	assert.Contains(t, script, "'SCRIPT', 'STYLE', 'NOSCRIPT'")
	assert.NotContains(t, script, "textContent")
}
