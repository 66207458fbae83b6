package whatsapp

import (
	"fmt"
	"log/slog"

	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/pavelc4/aether-fetch/pkg/logger"
)

// slogAdapter routes whatsmeow logs into the shared logger.
type slogAdapter struct {
	log    *slog.Logger
	module string
}

func NewLogger(module string) waLog.Logger {
	return &slogAdapter{log: logger.With("module", module), module: module}
}

func (l *slogAdapter) Warnf(msg string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(msg, args...))
}

func (l *slogAdapter) Errorf(msg string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(msg, args...))
}

func (l *slogAdapter) Infof(msg string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(msg, args...))
}

func (l *slogAdapter) Debugf(msg string, args ...interface{}) {
	if logger.IsDebug() {
		l.log.Debug(fmt.Sprintf(msg, args...))
	}
}

func (l *slogAdapter) Sub(module string) waLog.Logger {
	return NewLogger(l.module + "/" + module)
}
