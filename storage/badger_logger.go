package storage

import (
	"github.com/dgraph-io/badger/v2"
	"go.uber.org/zap"
)

// badgerLogger routes badger's printf-style logging to zap. Badger's info
// output is chatty, so it is logged at debug.
type badgerLogger struct {
	sugar *zap.SugaredLogger
}

var _ badger.Logger = (*badgerLogger)(nil)

func NewBadgerLogger(logger *zap.Logger) badger.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &badgerLogger{sugar: logger.Named("badger").WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (logger *badgerLogger) Errorf(format string, args ...interface{}) {
	logger.sugar.Errorf(format, args...)
}

func (logger *badgerLogger) Warningf(format string, args ...interface{}) {
	logger.sugar.Warnf(format, args...)
}

func (logger *badgerLogger) Infof(format string, args ...interface{}) {
	logger.sugar.Debugf(format, args...)
}

func (logger *badgerLogger) Debugf(format string, args ...interface{}) {
	logger.sugar.Debugf(format, args...)
}
