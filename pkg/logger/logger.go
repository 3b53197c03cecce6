package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Logger — минимальный интерфейс логгера, используемый во всём приложении.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
	With(args ...any) Logger
}

type slogLogger struct {
	log *slog.Logger
}

// NewSlogLogger создаёт текстовый логгер уровня Debug, пишущий в stdout.
func NewSlogLogger() Logger {
	return NewSlogLoggerWith(os.Stdout, "development")
}

// NewSlogLoggerWith создаёт логгер для заданного режима запуска:
// production — JSON уровня Info, остальные режимы — текст уровня Debug.
func NewSlogLoggerWith(w io.Writer, env string) Logger {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	return &slogLogger{log: slog.New(handler)}
}

func (l *slogLogger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Infof(format string, args ...any) {
	l.log.Info(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Warnf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Errorf(err error, format string, args ...any) {
	if err == nil {
		l.log.Error(fmt.Sprintf(format, args...))
		return
	}
	l.log.Error(fmt.Sprintf(format, args...), slog.String("error", err.Error()))
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{log: l.log.With(args...)}
}

// Nop возвращает логгер, отбрасывающий все записи. Используется в тестах.
func Nop() Logger {
	return &slogLogger{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
