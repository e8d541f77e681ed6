package utilities

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/antonio-alexander/go-blog-hateoas/internal"
)

type Level int

const (
	Error Level = 1
	Info  Level = 2
	Debug Level = 3
	Trace Level = 4
)

func (l Level) String() string {
	switch l {
	default:
		return ""
	case Error:
		return "error"
	case Info:
		return "info"
	case Debug:
		return "debug"
	case Trace:
		return "trace"
	}
}

// ParseLevel converts a LOG_LEVEL value, anything unknown is Error
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	default:
		return Error
	case "info":
		return Info
	case "debug":
		return Debug
	case "trace":
		return Trace
	}
}

type Logger interface {
	Error(ctx context.Context, format string, v ...any)
	Info(ctx context.Context, format string, v ...any)
	Debug(ctx context.Context, format string, v ...any)
	Trace(ctx context.Context, format string, v ...any)
}

type logger struct {
	sync.RWMutex
	*log.Logger
	config struct {
		Level Level
	}
}

// NewLogger creates a logger writing to stdout (or the io.Writer provided),
// it's silent until configured
func NewLogger(parameters ...any) interface {
	internal.Configurer
	Logger
} {
	var w io.Writer = os.Stdout

	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case io.Writer:
			w = p
		}
	}
	return &logger{
		Logger: log.New(w, "", log.Ltime|log.Ldate|log.Lmsgprefix),
	}
}

func (l *logger) Configure(envs map[string]string) error {
	l.Lock()
	defer l.Unlock()

	l.config.Level = Error
	if logLevel, ok := envs["LOG_LEVEL"]; ok {
		l.config.Level = ParseLevel(logLevel)
	}
	return nil
}

func (l *logger) printf(ctx context.Context, level Level, format string, v ...any) {
	l.RLock()
	enabled := l.config.Level >= level
	l.RUnlock()
	if !enabled {
		return
	}
	prefix := "[" + level.String() + "] "
	if correlationId := internal.CorrelationIdFromCtx(ctx); correlationId != "" {
		prefix += "(" + correlationId + ") "
	}
	l.Printf(prefix+format, v...)
}

func (l *logger) Error(ctx context.Context, format string, v ...any) {
	l.printf(ctx, Error, format, v...)
}

func (l *logger) Info(ctx context.Context, format string, v ...any) {
	l.printf(ctx, Info, format, v...)
}

func (l *logger) Debug(ctx context.Context, format string, v ...any) {
	l.printf(ctx, Debug, format, v...)
}

func (l *logger) Trace(ctx context.Context, format string, v ...any) {
	l.printf(ctx, Trace, format, v...)
}
