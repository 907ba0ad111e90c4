package common

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// BrowserContainer wraps a headless-shell container reachable over the DevTools protocol.
type BrowserContainer struct {
	container testcontainers.Container
	remoteURL string
}

// RemoteURL returns the DevTools websocket base URL for chromedp's remote allocator.
func (b *BrowserContainer) RemoteURL() string {
	return b.remoteURL
}

// HostURL rewrites a host-local port into the address the container sees.
func (b *BrowserContainer) HostURL(port int, path string) string {
	return fmt.Sprintf("http://%s:%d%s", testcontainers.HostInternal, port, path)
}

// CollectLogs saves container stdout/stderr to dir/.
func (b *BrowserContainer) CollectLogs(dir string) {
	if b == nil || b.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reader, err := b.container.Logs(ctx)
	if err != nil {
		return
	}
	defer reader.Close()

	logs, err := io.ReadAll(reader)
	if err != nil {
		return
	}
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "headless-shell.log"), logs, 0644)
}

// Cleanup terminates the container.
// Uses a fresh context for teardown in case the main context expired.
func (b *BrowserContainer) Cleanup() {
	if b == nil || b.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	b.container.Terminate(ctx)
}

// StartBrowser runs chromedp/headless-shell with access to the given host ports.
// The test is skipped when Docker is unavailable.
func StartBrowser(t *testing.T, hostPorts ...int) *BrowserContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	cfg := LoadTestConfig()
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Browser.TimeoutSecs)*time.Second)
	defer cancel()

	ctr, err := testcontainers.Run(ctx, cfg.Browser.Image,
		testcontainers.WithExposedPorts("9222/tcp"),
		testcontainers.WithHostPortAccess(hostPorts...),
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/json/version").WithPort("9222/tcp").WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		if ctr != nil {
			ctr.Terminate(context.Background())
		}
		t.Skipf("headless-shell container unavailable: %v", err)
	}

	b := &BrowserContainer{container: ctr}
	t.Cleanup(b.Cleanup)

	host, err := ctr.Host(ctx)
	if err != nil {
		t.Fatalf("get browser host: %v", err)
	}
	mapped, err := ctr.MappedPort(ctx, "9222/tcp")
	if err != nil {
		t.Fatalf("get browser mapped port: %v", err)
	}
	b.remoteURL = fmt.Sprintf("ws://%s:%s/", host, mapped.Port())
	return b
}
