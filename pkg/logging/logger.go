// Package logging configures the hclog loggers used by the furnace tools.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Prefix marks every text log line.
const Prefix = "🔥 "

// warnOutput receives setup warnings that cannot go through a logger yet.
var warnOutput io.Writer = os.Stderr

// Options selects the logger output.
type Options struct {
	Name   string
	Level  string // trace, debug, info, warn, error; "json" or "json:<level>" switches to JSON
	Output io.Writer
}

// ResolveLevel picks the log level: CLI flag, then FURNACE_LOG_LEVEL, then
// "info". The second value names where the level came from.
func ResolveLevel(cliLevel string) (string, string) {
	if cliLevel != "" {
		return cliLevel, "CLI --log-level"
	}
	if env := os.Getenv("FURNACE_LOG_LEVEL"); env != "" {
		return env, "FURNACE_LOG_LEVEL"
	}
	return "info", "default"
}

// NewLogger creates an hclog logger with UTC timestamps. Text output gets the
// 🔥 line prefix; FURNACE_JSON_LOG=1 or a "json:" level selects JSON.
// FURNACE_LOG_PATH appends to a file instead of the given output.
func NewLogger(opts Options) hclog.Logger {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	if logPath := os.Getenv("FURNACE_LOG_PATH"); logPath != "" {
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(warnOutput, "%s⚠️ cannot open FURNACE_LOG_PATH %s, using default log output: %v\n", Prefix, logPath, err)
		} else {
			output = file
		}
	}

	level := opts.Level
	jsonFormat := os.Getenv("FURNACE_JSON_LOG") == "1"
	if strings.HasPrefix(level, "json") {
		jsonFormat = true
		level = "info"
		if _, after, ok := strings.Cut(opts.Level, ":"); ok && after != "" {
			level = after
		}
	}

	if !jsonFormat {
		output = NewPrefixWriter(Prefix, output)
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       opts.Name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z",
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// NewTestLogger returns a trace-level logger for tests.
func NewTestLogger(name string, w io.Writer) hclog.Logger {
	if w == nil {
		w = io.Discard
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  hclog.Trace,
		Output: w,
	})
}

// PrefixWriter prepends a prefix to every complete line written through it.
// A trailing partial line is held until its newline arrives or Flush is called.
type PrefixWriter struct {
	prefix string
	writer io.Writer
	buffer bytes.Buffer
}

// NewPrefixWriter wraps w.
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{prefix: prefix, writer: w}
}

// Write implements io.Writer.
func (pw *PrefixWriter) Write(p []byte) (int, error) {
	pw.buffer.Write(p)
	for {
		idx := bytes.IndexByte(pw.buffer.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := pw.buffer.Next(idx + 1)
		if err := pw.emit(line); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Flush writes any buffered partial line.
func (pw *PrefixWriter) Flush() error {
	if pw.buffer.Len() == 0 {
		return nil
	}
	line := pw.buffer.Next(pw.buffer.Len())
	return pw.emit(line)
}

func (pw *PrefixWriter) emit(line []byte) error {
	if _, err := io.WriteString(pw.writer, pw.prefix); err != nil {
		return err
	}
	_, err := pw.writer.Write(line)
	return err
}
