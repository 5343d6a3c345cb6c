// Package logging provides a thin per-subsystem wrapper over the standard
// library logger rather than introducing a new structured-logging
// dependency for a concern that stays plain outside heavier subsystems.
package logging

import (
	"log"
	"os"
)

// Logger prefixes every line with its subsystem tag, e.g. "[bus]".
type Logger struct {
	prefix string
	std    *log.Logger
}

// New creates a Logger for the given subsystem.
func New(subsystem string) *Logger {
	return &Logger{
		prefix: "[" + subsystem + "] ",
		std:    log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
	}
}

func (l *Logger) Infof(format string, args ...any) {
	l.std.Printf(l.prefix+format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.std.Printf(l.prefix+"WARN "+format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.std.Printf(l.prefix+"ERROR "+format, args...)
}
