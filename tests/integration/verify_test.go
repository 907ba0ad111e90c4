package integration

import (
	"bytes"
	"context"
	"net"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/taskmgr-verify/internal/browser"
	"github.com/bobmcallan/taskmgr-verify/internal/common"
	"github.com/bobmcallan/taskmgr-verify/internal/config"
	"github.com/bobmcallan/taskmgr-verify/internal/fixture"
	"github.com/bobmcallan/taskmgr-verify/internal/runner"
	"github.com/bobmcallan/taskmgr-verify/internal/server"
	testcommon "github.com/bobmcallan/taskmgr-verify/tests/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startFixture serves the task list on a random loopback port.
func startFixture(t *testing.T, tasks ...fixture.Task) int {
	t.Helper()
	srv := server.New(config.FixtureConfig{}, fixture.NewStore(tasks...), common.NewSilentLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.Listener.Addr().(*net.TCPAddr).Port
}

func verify(t *testing.T, remote *testcommon.BrowserContainer, url, shot string) (*runner.Report, string, error) {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Target.URL = url
	cfg.Output.Screenshot = shot
	cfg.Scenario.TimeoutSeconds = 2
	cfg.Browser.RemoteURL = remote.RemoteURL()

	logger := common.NewSilentLogger()
	driver, err := browser.New(cfg.Browser, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var out bytes.Buffer
	report, err := runner.New(driver, runner.ScenarioFromConfig(cfg), &out, logger).Run(ctx)
	return report, out.String(), err
}

func TestRemoteBrowser_Verification(t *testing.T) {
	completedPort := startFixture(t, fixture.DefaultTasks(time.Now())...)
	runningPort := startFixture(t, fixture.Task{Name: "My Test Task", Status: fixture.StatusRunning})

	remote := testcommon.StartBrowser(t, completedPort, runningPort)

	var tally testcommon.Tally
	defer func() {
		if t.Failed() {
			remote.CollectLogs(testcommon.ArtifactPath("logs"))
		}
		passed, failed := tally.Counts()
		testcommon.WriteResultsSummary("integration", passed, failed)
	}()

	t.Run("download button present", func(t *testing.T) {
		tally.Track(t)
		shot := testcommon.ArtifactPath("verification.png")
		report, stdout, err := verify(t, remote, remote.HostURL(completedPort, "/"), shot)
		require.NoError(t, err)

		assert.Equal(t, runner.OutcomeSuccess, report.Outcome)
		assert.Equal(t, runner.SuccessMessage+"\n", stdout)

		info, err := os.Stat(shot)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	})

	t.Run("task still running", func(t *testing.T) {
		tally.Track(t)
		shot := testcommon.ArtifactPath("running.png")
		report, stdout, err := verify(t, remote, remote.HostURL(runningPort, "/"), shot)
		require.NoError(t, err)

		assert.Equal(t, runner.OutcomeVisibilityTimeout, report.Outcome)
		assert.True(t, strings.HasPrefix(stdout, runner.FailureMessage+"\n"))
		assert.Contains(t, report.Markup, "My Test Task")
		require.NotNil(t, report.Summary)
		assert.True(t, report.Summary.TaskNamePresent)
		assert.False(t, report.Summary.LabelPresent)

		_, statErr := os.Stat(shot)
		assert.True(t, os.IsNotExist(statErr))
	})
}
