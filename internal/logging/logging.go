package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	lj "gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Options describes where the agent writes its own logs.
type Options struct {
	Level      logrus.Level
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	GELFAddr string
	GELFMode string
	GELFHost string
}

type closers []io.Closer

func (c closers) Close() error {
	var errs []error
	for _, closer := range c {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Setup configures logger with a JSON formatter writing to stderr, an
// optional rotated file and an optional GELF hook. The returned closer
// releases the file and the GELF connection.
func Setup(logger *logrus.Logger, opts Options) (io.Closer, error) {
	writers := []io.Writer{os.Stderr}
	var open closers

	if opts.File != "" {
		file := &lj.Logger{
			Filename:   opts.File,
			MaxSize:    valOr(opts.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(opts.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(opts.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   opts.Compress,
		}
		writers = append(writers, file)
		open = append(open, file)
	}

	if opts.GELFAddr != "" {
		hook, err := NewGELFHook(opts.GELFAddr, opts.GELFMode, opts.GELFHost, opts.Level)
		if err != nil {
			open.Close()
			return nil, fmt.Errorf("failed to setup gelf logging: %w", err)
		}
		logger.AddHook(hook)
		open = append(open, hook)
	}

	logger.SetLevel(opts.Level)
	logger.SetOutput(io.MultiWriter(writers...))
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	return open, nil
}

func valOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
