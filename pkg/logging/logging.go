// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	stdLog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = zerolog.ErrorLevel

var (
	mu sync.Mutex
	// logWriter is the sink behind the global logger. Defaults to stderr so
	// stdout stays free for command output and RPC frames.
	logWriter io.Writer = os.Stderr
)

// Options selects how the global logger writes.
type Options struct {
	Level   string
	Format  string // console (default) or json
	NoColor bool
	Writer  io.Writer // nil keeps the current writer
}

// stdLogWriter reformats stdlib log output as zerolog debug events.
type stdLogWriter struct {
	logger zerolog.Logger
}

func (w *stdLogWriter) Write(p []byte) (n int, err error) {
	message := strings.TrimSuffix(string(p), "\n")

	// "2025/05/23 14:40:15 file.go:35: message"
	parts := strings.SplitN(message, " ", 4)
	if len(parts) >= 4 {
		stdTime, err := time.Parse("2006/01/02 15:04:05", parts[0]+" "+parts[1])
		if err == nil {
			w.logger.Debug().
				Str("file", strings.TrimSuffix(parts[2], ":")).
				Time("time", stdTime).
				Msg(parts[3])
			return len(p), nil
		}
	}

	w.logger.Debug().Msg(message)
	return len(p), nil
}

func init() {
	log.Logger = zerolog.New(consoleWriter(logWriter, false)).
		Level(DefaultLevel).
		With().Timestamp().Logger()
}

// Configure installs the global logger. An unknown level falls back to
// DefaultLevel and is reported as an error.
func Configure(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	level, levelErr := ParseLevel(opts.Level)
	zerolog.SetGlobalLevel(level)

	if opts.Writer != nil {
		logWriter = opts.Writer
	}

	var w io.Writer
	switch strings.ToLower(opts.Format) {
	case "", FormatConsole:
		w = consoleWriter(logWriter, opts.NoColor)
	case FormatJSON:
		w = logWriter
	default:
		w = consoleWriter(logWriter, opts.NoColor)
		if levelErr == nil {
			levelErr = fmt.Errorf("unknown log format %q", opts.Format)
		}
	}

	logContext := zerolog.New(w).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	stdLog.SetFlags(0)
	stdLog.SetOutput(&stdLogWriter{logger: WithLevelOverride(log.Logger, zerolog.DebugLevel)})

	return levelErr
}

// ConfigureGlobal sets the global level, keeping the current writer.
func ConfigureGlobal(level zerolog.Level) {
	_ = Configure(Options{Level: level.String()})
}

// ParseLevel converts a level name. Empty selects DefaultLevel.
func ParseLevel(levelString string) (zerolog.Level, error) {
	if levelString == "" {
		return DefaultLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil || level == zerolog.NoLevel {
		return DefaultLevel, fmt.Errorf("invalid log level %q", levelString)
	}
	return level, nil
}

// NewLogger returns a component logger writing to the global sink.
func NewLogger(component string, level zerolog.Level) zerolog.Logger {
	mu.Lock()
	w := logWriter
	mu.Unlock()
	return NewLoggerWithWriter(component, level, w)
}

// NewLoggerWithWriter returns a JSON component logger writing to w.
func NewLoggerWithWriter(component string, level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Str("component", component).Logger()
}

func consoleWriter(out io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
}

// LevelOverrideHook assigns a level to NoLevel events and drops everything
// when the minimum severity is above the target.
type LevelOverrideHook struct {
	minSeverity zerolog.Level
	targetLevel zerolog.Level
}

// NewLevelOverrideHook creates a new LevelOverrideHook instance.
func NewLevelOverrideHook(minSeverity, targetLevel zerolog.Level) *LevelOverrideHook {
	return &LevelOverrideHook{
		minSeverity: minSeverity,
		targetLevel: targetLevel,
	}
}

// Run implements zerolog.Hook.
func (h LevelOverrideHook) Run(e *zerolog.Event, currentLevel zerolog.Level, _ string) {
	if h.minSeverity > h.targetLevel {
		e.Discard()
		return
	}
	if currentLevel == zerolog.NoLevel {
		e.Str("level", h.targetLevel.String())
	}
}

// WithLevelOverride wraps logger with a LevelOverrideHook.
func WithLevelOverride(logger zerolog.Logger, targetLevel zerolog.Level) zerolog.Logger {
	return logger.Hook(NewLevelOverrideHook(logger.GetLevel(), targetLevel))
}
