// Package log gives every process the same log shape: slog records
// tagged with the component and field vocabulary defined in fields.go.
package log

import (
	"log/slog"
	"os"
)

// Logger is a slog.Logger bound to a component. The leveled methods
// are the embedded slog ones; the component travels as a plain field
// so downstream handlers need no custom state.
type Logger struct {
	*slog.Logger
}

type Config struct {
	Level   slog.Level
	Handler slog.Handler // defaults to a text handler on stdout
}

func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo}
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level})
	}
	return &Logger{Logger: slog.New(handler)}
}

// WithComponent returns a logger whose every record carries the
// component field, for processes that log outside request scope.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With(FieldComponent, component)}
}
