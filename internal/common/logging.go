// Package common holds the arbor logger used by both binaries. Log lines go to
// stderr (and optionally a file); stdout is left to the verification report.
package common

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/bobmcallan/taskmgr-verify/internal/config"
	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
	"github.com/ternarybob/arbor/writers"
)

const (
	defaultLevel      = "info"
	defaultLogFile    = "logs/taskmgr-verify.log"
	defaultMaxSize    = 500 * 1024
	defaultMaxBackups = 5
	timeFormat        = "2006-01-02T15:04:05Z07:00"
)

// Logger is the project's handle on arbor.
type Logger struct {
	arbor.ILogger
}

// nopWriter swallows events. A logger built only on it never reaches the
// writers arbor keeps in its global registry.
type nopWriter struct{}

func (w nopWriter) Write(p []byte) (int, error)           { return len(p), nil }
func (w nopWriter) WithLevel(_ log.Level) writers.IWriter { return w }
func (w nopWriter) GetFilePath() string                   { return "" }
func (w nopWriter) Close() error                          { return nil }

// textWriter prints events as "message key=value ..." with keys sorted.
type textWriter struct {
	out   io.Writer
	level log.Level
}

func (w *textWriter) Write(p []byte) (int, error) {
	var evt models.LogEvent
	if err := json.Unmarshal(p, &evt); err != nil {
		return w.out.Write(p)
	}
	if evt.Level < w.level {
		return len(p), nil
	}
	if _, err := io.WriteString(w.out, formatEvent(evt)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *textWriter) WithLevel(level log.Level) writers.IWriter {
	w.level = level
	return w
}

func (w *textWriter) GetFilePath() string { return "" }
func (w *textWriter) Close() error        { return nil }

func formatEvent(evt models.LogEvent) string {
	var b strings.Builder
	b.WriteString(evt.Message)

	keys := make([]string, 0, len(evt.Fields))
	for k := range evt.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, evt.Fields[k])
	}
	if evt.Error != "" {
		fmt.Fprintf(&b, " error=%s", evt.Error)
	}
	b.WriteByte('\n')
	return b.String()
}

func fileWriterConfig(cfg config.LoggingConfig) models.WriterConfiguration {
	wc := models.WriterConfiguration{
		Type:       models.LogWriterTypeFile,
		FileName:   cfg.FilePath,
		MaxSize:    int64(cfg.MaxSizeMB) * 1024 * 1024,
		MaxBackups: cfg.MaxBackups,
		TimeFormat: timeFormat,
	}
	if wc.FileName == "" {
		wc.FileName = defaultLogFile
	}
	if wc.MaxSize <= 0 {
		wc.MaxSize = defaultMaxSize
	}
	if wc.MaxBackups <= 0 {
		wc.MaxBackups = defaultMaxBackups
	}
	return wc
}

// NewLoggerFromConfig builds a logger for the [logging] section. Unknown
// outputs are ignored; no outputs means console.
func NewLoggerFromConfig(cfg config.LoggingConfig) *Logger {
	outputs := cfg.Outputs
	if len(outputs) == 0 {
		outputs = []string{"console"}
	}

	l := arbor.NewLogger()
	for _, out := range outputs {
		switch out {
		case "console":
			l = l.WithConsoleWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeConsole,
				Writer:     os.Stderr,
				TimeFormat: timeFormat,
			})
		case "file":
			l = l.WithFileWriter(fileWriterConfig(cfg))
		}
	}

	return &Logger{ILogger: withLevel(l.WithMemoryWriter(models.WriterConfiguration{
		Type: models.LogWriterTypeMemory,
	}), cfg.Level)}
}

// NewLoggerWithOutput sends plain text lines to w. Tests use it to capture logs.
func NewLoggerWithOutput(level string, w io.Writer) *Logger {
	arbor.RegisterWriter(arbor.WRITER_CONSOLE, &textWriter{out: w, level: log.TraceLevel})

	l := arbor.NewLogger().WithMemoryWriter(models.WriterConfiguration{
		Type: models.LogWriterTypeMemory,
	})
	return &Logger{ILogger: withLevel(l, level)}
}

// NewSilentLogger discards everything.
func NewSilentLogger() *Logger {
	return &Logger{ILogger: arbor.NewLogger().WithWriters([]writers.IWriter{nopWriter{}})}
}

// WithCorrelationId tags every event with a run or request ID.
func (l *Logger) WithCorrelationId(id string) *Logger {
	return &Logger{ILogger: l.ILogger.WithCorrelationId(id)}
}

func withLevel(l arbor.ILogger, level string) arbor.ILogger {
	if level == "" {
		level = defaultLevel
	}
	return l.WithLevelFromString(level)
}
