package core

import "go.uber.org/zap"

type options struct {
	logger   *zap.Logger
	defaults Config
}

type Option func(*options)

// WithLogger sets the logger for ignored configuration and other events.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDefaults overlays the non-zero fields of config onto the engine
// defaults.
func WithDefaults(config Config) Option {
	return func(o *options) {
		o.defaults = o.defaults.Overlay(config)
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
