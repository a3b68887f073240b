// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options mirror the LOG_* settings.
type Options struct {
	Level      string // logrus level name, info when empty or unknown
	JSON       bool   // JSON lines instead of text
	File       string // rotated log file; stderr only when empty
	MaxSizeMB  int    // megabytes
	MaxAgeDays int    // days
}

// Setup applies opts to the standard logrus logger and returns a closer for the log file.
func Setup(opts Options) io.Closer {
	return Configure(logrus.StandardLogger(), opts)
}

// Configure applies opts to l.
func Configure(l *logrus.Logger, opts Options) io.Closer {
	if opts.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if opts.File == "" {
		l.SetOutput(os.Stderr)
		return io.NopCloser(nil)
	}
	rotator := &lumberjack.Logger{
		Filename: opts.File,
		MaxSize:  opts.MaxSizeMB,  // megabytes
		MaxAge:   opts.MaxAgeDays, // days
	}
	l.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator
}
