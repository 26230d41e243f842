// Package logging - Construction of the logrus loggers used across the module.
package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures a logger.
type Options struct {
	// Level is a logrus level name; empty means info.
	Level string
	// File is an optional log file, rotated by size.
	File string
	// NoColors disables terminal colours.
	NoColors bool
	// Caller adds the calling file, line and function to each entry.
	Caller bool
	// Output replaces stderr as the console destination.
	Output io.Writer
}

// New builds a logger writing to stderr and, when configured, to a rotating
// log file.
//
// Arguments:
//   - opts: Level, destinations and formatting.
//
// Returns:
//   - *logrus.Logger: The logger.
//   - error: An error for unknown level names or an unusable log directory.
func New(opts Options) (*logrus.Logger, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		l, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, errors.Wrap(err, "log level")
		}
		level = l
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&formatter.Formatter{
		NoColors:        opts.NoColors,
		TimestampFormat: "2006-01-02 15:04:05.000",
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, s[len(s)-1])
		},
	})
	logger.SetReportCaller(opts.Caller)

	console := opts.Output
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{console}
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(err, "create log directory")
			}
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		})
	}
	logger.SetOutput(io.MultiWriter(writers...))
	return logger, nil
}

// Discard returns a logger that drops every entry.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
