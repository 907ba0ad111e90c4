package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/taskmgr-verify/internal/common"
	"github.com/bobmcallan/taskmgr-verify/internal/config"
	"github.com/bobmcallan/taskmgr-verify/internal/fixture"
	"github.com/bobmcallan/taskmgr-verify/internal/runner"
	"github.com/bobmcallan/taskmgr-verify/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireChrome(t *testing.T) {
	t.Helper()
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("chrome not installed")
}

func fixtureURL(t *testing.T, tasks ...fixture.Task) string {
	t.Helper()
	srv := server.New(config.FixtureConfig{}, fixture.NewStore(tasks...), common.NewSilentLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL + "/"
}

func TestE2E_MatchingPage(t *testing.T) {
	requireChrome(t)
	url := fixtureURL(t, fixture.DefaultTasks(time.Now())...)
	out := filepath.Join(t.TempDir(), "verification", "verification.png")

	for i := 0; i < 2; i++ {
		var stdout, stderr bytes.Buffer
		code := run([]string{"-url", url, "-out", out}, &stdout, &stderr)

		require.Equal(t, exitOK, code, stderr.String())
		assert.Equal(t, runner.SuccessMessage+"\n", stdout.String())

		info, err := os.Stat(out)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestE2E_TaskMissing(t *testing.T) {
	requireChrome(t)
	url := fixtureURL(t, fixture.Task{Name: "Another Task", Status: fixture.StatusCompleted})
	out := filepath.Join(t.TempDir(), "shot.png")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-url", url, "-out", out, "-timeout", "1"}, &stdout, &stderr)

	assert.Equal(t, exitOK, code, stderr.String())
	assert.True(t, strings.HasPrefix(stdout.String(), runner.FailureMessage+"\n"))
	assert.Contains(t, stdout.String(), "Another Task")
	assert.Contains(t, stdout.String(), "</html>")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))

	stdout.Reset()
	code = run([]string{"-url", url, "-out", out, "-timeout", "1", "-strict"}, &stdout, &stderr)
	assert.Equal(t, exitNotFound, code)
}

func TestE2E_TaskRunningHasNoDownload(t *testing.T) {
	requireChrome(t)
	url := fixtureURL(t, fixture.Task{Name: "My Test Task", Status: fixture.StatusRunning})

	var stdout, stderr bytes.Buffer
	code := run([]string{"-url", url, "-out", filepath.Join(t.TempDir(), "x.png"), "-timeout", "1"}, &stdout, &stderr)

	assert.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(stdout.String(), runner.FailureMessage))
}
