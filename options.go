package tecs

import "go.uber.org/zap"

// Option configures an engine at construction.
type Option func(*engine)

// WithLogger sets the engine's logger. Engines log nothing by default.
func WithLogger(log *zap.Logger) Option {
	return func(e *engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithDestroyHook registers fn to run for every destroyed entity, before its
// components are removed.
func WithDestroyHook(fn EntityDestroyCallback) Option {
	return func(e *engine) {
		e.onDestroy = fn
	}
}
