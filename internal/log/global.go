package log

import "sync"

var (
	mu            sync.RWMutex
	defaultLogger *Logger
)

// SetDefaultLogger replaces the process-wide logger. The CLI calls this
// once after flags are parsed; everything downstream inherits it.
func SetDefaultLogger(logger *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// DefaultLogger returns the process-wide logger, creating one with the
// default configuration on first use.
func DefaultLogger() *Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = Default()
	}
	return defaultLogger
}
