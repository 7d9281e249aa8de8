// Package logging provides the simulator's leveled, contextual logging (A2):
// a thin wrapper around go-ethereum's log package, the structured-logging
// library the rest of the retrieved corpus's node/client code builds on.
package logging

import (
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
)

// Logger is a component-scoped leveled logger. The zero value is not usable;
// construct one with New.
type Logger struct {
	inner log.Logger
}

var currentLevel = log.LevelInfo

// Configure sets the process-wide minimum log level, e.g. from the config
// loader's (A1) or EVMSIM_LOG_LEVEL's value. Unrecognized values fall back
// to info. Affects every Logger returned by New from this point on.
func Configure(level string) {
	switch strings.ToLower(level) {
	case "trace", "debug":
		currentLevel = log.LevelDebug
	case "warn", "warning":
		currentLevel = log.LevelWarn
	case "error", "crit":
		currentLevel = log.LevelError
	default:
		currentLevel = log.LevelInfo
	}
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, currentLevel, false)))
}

// New returns a logger scoped to component, e.g. "simulator" or "resolver".
func New(component string) Logger {
	return Logger{inner: log.New("component", component)}
}

func (l Logger) Debug(msg string, ctx ...interface{}) { l.inner.Debug(msg, ctx...) }
func (l Logger) Info(msg string, ctx ...interface{})  { l.inner.Info(msg, ctx...) }
func (l Logger) Warn(msg string, ctx ...interface{})  { l.inner.Warn(msg, ctx...) }
func (l Logger) Error(msg string, ctx ...interface{}) { l.inner.Error(msg, ctx...) }
