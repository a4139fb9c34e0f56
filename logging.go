package deepcopy

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// loggerBox lets SetLogger swap the package logger atomically without
// taking a lock on every copy call — the common path never logs at all.
var loggerBox atomic.Pointer[zap.Logger]

func init() {
	loggerBox.Store(zap.NewNop())
}

// SetLogger installs a zap logger used on the degraded and error paths of
// Copy/TryCopy: a panicking Clone method (ConstructionError), an
// UnsupportedTypeError, and a Clone result of an incompatible type that
// falls back to reflection-based copying. Ordinary
// copies — including every cache hit, immutable alias, and shallow
// duplication — never touch the logger. Passing nil restores the no-op
// logger.
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loggerBox.Store(logger)
}

func logger() *zap.Logger {
	return loggerBox.Load()
}
