// Package diag provides the single diagnostic channel used by the tracer.
// All conditions worth telling the operator about (wild frees, missing symbol
// information, out-of-memory inside the tracer) funnel through here; nothing
// in the tracer ever reports failure to the host through its return values.
package diag

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus logger with once-only notices and a fatal path.
type Logger struct {
	mu   sync.Mutex
	log  *logrus.Logger
	seen map[string]bool
	exit func(int)
}

// New creates a diagnostic logger writing to w. A nil writer means stdout.
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stdout
	}
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(logrus.InfoLevel)
	return &Logger{
		log:  log,
		seen: make(map[string]bool),
		exit: os.Exit,
	}
}

// Discard returns a logger that swallows everything. Useful for hosts that
// want a silent tracer and for tests.
func Discard() *Logger {
	l := New(io.Discard)
	l.log.SetLevel(logrus.PanicLevel)
	return l
}

// SetOutput redirects the channel.
func (l *Logger) SetOutput(w io.Writer) {
	l.log.SetOutput(w)
}

// Infof reports a routine condition.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

// Warnf reports an absorbed error, such as a wild-pointer free.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

// WarnOncef reports a condition at most once per key for the lifetime of the
// logger. Used for symbolization-unavailable, which would otherwise repeat on
// every report.
func (l *Logger) WarnOncef(key, format string, args ...interface{}) {
	l.mu.Lock()
	if l.seen[key] {
		l.mu.Unlock()
		return
	}
	l.seen[key] = true
	l.mu.Unlock()
	l.log.Warnf(format, args...)
}

// Fatalf reports a terminal condition inside the tracer and requests process
// termination. Distinct from the host's own failure handling.
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
	l.exit(1)
}

// WithField mirrors the underlying logrus API for callers that want
// structured context on a diagnostic.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.log.WithField(key, value)
}
