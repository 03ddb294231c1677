package core

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pterm/pterm"
)

// DefaultLogger prints human readable pterm lines and, at debug verbosity,
// mirrors every record through a slog text handler.
type DefaultLogger struct {
	level   LogLevel
	handler *slog.Logger
	output  io.Writer
	attrs   []any
}

func NewDefaultLogger(output io.Writer, level LogLevel) *DefaultLogger {
	var slogLevel slog.Level
	switch level {
	case LevelTrace, LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	handler := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: slogLevel,
	}))

	return &DefaultLogger{
		level:   level,
		handler: handler,
		output:  output,
	}
}

// LevelFromVerbosity maps the -v count of the CLI to a log level.
func LevelFromVerbosity(count int) LogLevel {
	switch {
	case count >= 2:
		return LevelTrace
	case count == 1:
		return LevelDebug
	default:
		return LevelInfo
	}
}

func (l *DefaultLogger) Trace(msg string, args ...any) {
	if l.level <= LevelTrace {
		pterm.Debug.WithWriter(l.output).Println("TRACE: " + l.format(msg, args))
		l.handler.Debug(msg, args...)
	}
}

func (l *DefaultLogger) Debug(msg string, args ...any) {
	if l.level <= LevelDebug {
		pterm.Debug.WithWriter(l.output).Println(l.format(msg, args))
		l.handler.Debug(msg, args...)
	}
}

func (l *DefaultLogger) Info(msg string, args ...any) {
	if l.level <= LevelInfo {
		pterm.Info.WithWriter(l.output).Println(l.format(msg, args))
		l.mirror(slog.LevelInfo, msg, args)
	}
}

func (l *DefaultLogger) Warn(msg string, args ...any) {
	if l.level <= LevelWarn {
		pterm.Warning.WithWriter(l.output).Println(l.format(msg, args))
		l.mirror(slog.LevelWarn, msg, args)
	}
}

func (l *DefaultLogger) Error(msg string, args ...any) {
	if l.level <= LevelError {
		pterm.Error.WithWriter(l.output).Println(l.format(msg, args))
		l.mirror(slog.LevelError, msg, args)
	}
}

func (l *DefaultLogger) With(args ...any) Logger {
	return &DefaultLogger{
		level:   l.level,
		handler: l.handler.With(args...),
		output:  l.output,
		attrs:   append(append([]any(nil), l.attrs...), args...),
	}
}

func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level = level
}

// mirror only duplicates info and above into slog when running verbose.
func (l *DefaultLogger) mirror(level slog.Level, msg string, args []any) {
	if l.level > LevelDebug {
		return
	}
	switch level {
	case slog.LevelWarn:
		l.handler.Warn(msg, args...)
	case slog.LevelError:
		l.handler.Error(msg, args...)
	default:
		l.handler.Info(msg, args...)
	}
}

func (l *DefaultLogger) format(msg string, args []any) string {
	all := append(append([]any(nil), l.attrs...), args...)
	if len(all) == 0 {
		return msg
	}
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(all); i += 2 {
		if i+1 < len(all) {
			fmt.Fprintf(&sb, " %v=%v", all[i], all[i+1])
		} else {
			fmt.Fprintf(&sb, " %v", all[i])
		}
	}
	return sb.String()
}
