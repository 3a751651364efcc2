// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package schedlog provides a structured logging wrapper around logrus for
// the engine and its tiers. The engine never depends on logrus directly;
// it depends on this package so a caller can swap loggers without touching
// engine code.
package schedlog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps a *logrus.Logger configured for the scheduler's output
// style: full timestamps, level selectable via LOG_LEVEL.
type Logger struct {
	log *logrus.Logger
}

// New returns a Logger writing to stdout, level defaulting to info unless
// overridden by the LOG_LEVEL environment variable (trace|debug|info|warn|
// error).
func New() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	l.SetLevel(levelFromEnv(os.Getenv("LOG_LEVEL")))
	return &Logger{log: l}
}

func levelFromEnv(level string) logrus.Level {
	switch level {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// SetLevel changes the logger's level at runtime.
func (l *Logger) SetLevel(level string) {
	l.log.SetLevel(levelFromEnv(level))
}

// WithFields returns a structured entry with the given fields attached,
// for tier/submission-scoped logging (e.g. tier name, submission ID).
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.log.WithFields(fields)
}

func (l *Logger) Debugf(format string, v ...interface{}) { l.log.Debugf(format, v...) }
func (l *Logger) Infof(format string, v ...interface{})  { l.log.Infof(format, v...) }
func (l *Logger) Warnf(format string, v ...interface{})  { l.log.Warnf(format, v...) }
func (l *Logger) Errorf(format string, v ...interface{}) { l.log.Errorf(format, v...) }

// Nop returns a Logger that discards all output, used by tests and by
// callers of the library that don't want scheduler log lines.
func Nop() *Logger {
	l := logrus.New()
	l.SetOutput(nopWriter{})
	return &Logger{log: l}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
