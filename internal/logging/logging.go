// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging constructs the structured logger used by pipeline services.
package logging

import (
	"io"

	"github.com/phuslu/log"
)

// New returns a console logger at the given level ("debug", "info", "warn",
// "error"); an unrecognized level falls back to info.
func New(level string) *log.Logger {
	return &log.Logger{
		Level:      parseLevel(level),
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			ColorOutput: true,
		},
	}
}

func parseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	return &log.Logger{
		Level:  log.ErrorLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}
