package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/relumip/pkg/errors"
)

var (
	globalMu     sync.RWMutex
	globalLogger Logger = NewZerologLogger(os.Stderr, LevelInfo)
)

// SetupLogger configures the global logger to write JSON lines to stderr at
// the given level and routes library warnings through it.
func SetupLogger(loglevel string) {
	SetupLoggerWithWriter(os.Stderr, loglevel)
}

// SetupLoggerWithWriter is SetupLogger with an explicit destination.
func SetupLoggerWithWriter(w io.Writer, loglevel string) {
	logger := NewZerologLogger(w, ToLogLevel(loglevel))
	SetLogger(logger)
	errors.SetWarnFunc(func(warning error) {
		logger.Warn(warning.Error(), ErrAttrKey, warning)
	})
}

// ToLogLevel parses a level name. It panics on unknown names.
func ToLogLevel(level string) Level {
	switch level {
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

// GetLogger returns the global logger.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger replaces the global logger.
func SetLogger(l Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return &ZerologLogger{logger: zerolog.Nop(), level: LevelError + 1}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "error.stacktrace"
)
