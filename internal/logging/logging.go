// Package logging builds the application's zerolog logger and the chi
// request logging middleware.
package logging

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"tasklist/internal/config"
)

// New creates a logger writing to console (or JSON) on stderr and,
// when cfg.File is set, to a rotating log file. The returned closer
// releases the file and is never nil.
func New(cfg config.Log, stderr *os.File) (zerolog.Logger, io.Closer, error) {
	console := selectOutput(cfg.Format, stderr)

	var (
		writer io.Writer = console
		closer io.Closer = nopCloser{}
	)

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("failed to create log directory: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		writer = zerolog.MultiLevelWriter(console, lj)
		closer = lj
	}

	return NewWithWriter(cfg.Level, writer), closer, nil
}

// NewWithWriter creates a logger at level writing JSON to w. It is mostly
// useful in tests.
func NewWithWriter(level string, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps a config level to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func selectOutput(format string, f *os.File) io.Writer {
	switch strings.ToLower(format) {
	case "json":
		return f
	case "console":
		return zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}

	if os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(f.Fd())) {
		return zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}
	return f
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// RequestLogger logs one line per request with status, size and duration.
// Server errors log at error level, client errors at warn.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				event := logger.Info()
				switch {
				case status >= http.StatusInternalServerError:
					event = logger.Error()
				case status >= http.StatusBadRequest:
					event = logger.Warn()
				}

				event.
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
