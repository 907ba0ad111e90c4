package common

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/bobmcallan/taskmgr-verify/internal/config"
	"github.com/ternarybob/arbor/models"
)

func consoleLogger(level string) *Logger {
	return NewLoggerFromConfig(config.LoggingConfig{Level: level, Outputs: []string{"console"}})
}

func TestNewLoggerFromConfig_Console(t *testing.T) {
	if consoleLogger("info") == nil {
		t.Fatal("NewLoggerFromConfig returned nil")
	}
}

func TestLogger_FluentAPI(t *testing.T) {
	logger := consoleLogger("error")
	logger.Info().Str("url", "http://127.0.0.1:3000/").Msg("navigating")
	logger.Warn().Int("count", 2).Msg("warning")
	logger.Error().Err(nil).Msg("error message")
	logger.Debug().Bool("headless", true).Msg("debug")
}

func TestNewLoggerFromConfig_FileOutput(t *testing.T) {
	path := t.TempDir() + "/verify.log"
	logger := NewLoggerFromConfig(config.LoggingConfig{
		Level:    "info",
		Outputs:  []string{"file"},
		FilePath: path,
	})
	if logger == nil {
		t.Fatal("NewLoggerFromConfig returned nil")
	}
	logger.Info().Str("k", "v").Msg("to file")
}

func TestNewLoggerWithOutput_WritesToProvidedWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("info", &buf)
	logger.Info().Str("task", "My Test Task").Msg("hello")

	output := buf.String()
	if output == "" {
		t.Fatal("Expected output to provided writer, got empty string")
	}
	if !strings.Contains(output, "hello") {
		t.Errorf("expected message in output, got %q", output)
	}
}

func TestNewSilentLogger_DoesNotWriteToGlobalWriters(t *testing.T) {
	var buf bytes.Buffer
	_ = NewLoggerWithOutput("info", &buf)
	buf.Reset()

	silent := NewSilentLogger()
	silent.Info().Str("key", "value").Msg("this should NOT appear")
	silent.Error().Msg("this should NOT appear either")

	if buf.Len() > 0 {
		t.Errorf("Silent logger wrote %d bytes to global writer: %s", buf.Len(), buf.String())
	}
}

// stdout carries the verification messages and page dump; logs must stay off it.
func TestNewLoggerFromConfig_DoesNotWriteToStdout(t *testing.T) {
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdout = w

	logger := consoleLogger("info")
	logger.Info().Str("step", "navigate").Msg("this must not go to stdout")
	logger.Error().Msg("neither should this")

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	buf.ReadFrom(r)
	r.Close()

	if buf.Len() > 0 {
		t.Errorf("Logger wrote %d bytes to stdout: %s", buf.Len(), buf.String())
	}
}

func TestWithCorrelationId_ReturnsNewLogger(t *testing.T) {
	logger := consoleLogger("info")
	correlated := logger.WithCorrelationId("run-123")

	if correlated == nil {
		t.Fatal("WithCorrelationId returned nil")
	}
	if correlated == logger {
		t.Error("WithCorrelationId should return a new Logger instance")
	}
	correlated.Info().Str("step", "screenshot").Msg("done")
}

func TestFormatEvent_MessageAndError(t *testing.T) {
	line := formatEvent(models.LogEvent{Message: "browser session close failed", Error: "context canceled"})
	want := "browser session close failed error=context canceled\n"
	if line != want {
		t.Errorf("formatEvent = %q, want %q", line, want)
	}

	if got := formatEvent(models.LogEvent{Message: "closed"}); got != "closed\n" {
		t.Errorf("formatEvent without fields = %q", got)
	}
}

func TestFileWriterConfig_Defaults(t *testing.T) {
	wc := fileWriterConfig(config.LoggingConfig{})
	if wc.FileName != defaultLogFile || wc.MaxSize != defaultMaxSize || wc.MaxBackups != defaultMaxBackups {
		t.Errorf("unexpected defaults: %+v", wc)
	}

	wc = fileWriterConfig(config.LoggingConfig{FilePath: "x.log", MaxSizeMB: 2, MaxBackups: 1})
	if wc.FileName != "x.log" || wc.MaxSize != 2*1024*1024 || wc.MaxBackups != 1 {
		t.Errorf("explicit values not kept: %+v", wc)
	}
}
