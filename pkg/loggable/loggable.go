// Package loggable provides a small leveled-logger embedding shared by the
// client and server connection types.
package loggable

import "log"

// Loggable embeds four independently configurable loggers. A nil logger
// means that level is silently discarded, which is the default: callers
// that never ask for logging pay nothing for it.
type Loggable struct {
	debug *log.Logger
	info  *log.Logger
	warn  *log.Logger
	error *log.Logger
}

// Option configures a Loggable.
type Option func(*Loggable) error

// WithDebugLogger sets the logger used by Debugf.
func WithDebugLogger(l *log.Logger) Option {
	return func(lg *Loggable) error {
		lg.debug = l
		return nil
	}
}

// WithInfoLogger sets the logger used by Infof.
func WithInfoLogger(l *log.Logger) Option {
	return func(lg *Loggable) error {
		lg.info = l
		return nil
	}
}

// WithWarnLogger sets the logger used by Warnf.
func WithWarnLogger(l *log.Logger) Option {
	return func(lg *Loggable) error {
		lg.warn = l
		return nil
	}
}

// WithErrorLogger sets the logger used by Errorf.
func WithErrorLogger(l *log.Logger) Option {
	return func(lg *Loggable) error {
		lg.error = l
		return nil
	}
}

func (l *Loggable) Debugf(format string, args ...any) {
	if l.debug != nil {
		l.debug.Printf(format, args...)
	}
}

func (l *Loggable) Infof(format string, args ...any) {
	if l.info != nil {
		l.info.Printf(format, args...)
	}
}

func (l *Loggable) Warnf(format string, args ...any) {
	if l.warn != nil {
		l.warn.Printf(format, args...)
	}
}

func (l *Loggable) Errorf(format string, args ...any) {
	if l.error != nil {
		l.error.Printf(format, args...)
	}
}
