// Package logging builds the process logger: standard error plus a rotating
// log file.
package logging

import (
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	// File is the log file path. Empty logs to standard error only.
	File       string
	MaxSizeMB  int
	MaxBackups int
	Stderr     io.Writer
}

// New returns a logger and a close func for the file sink.
func New(opts Options) (*log.Logger, func() error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	file := strings.TrimSpace(opts.File)
	if file == "" {
		return log.New(stderr, "", log.LstdFlags), func() error { return nil }
	}
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 50
	}
	maxBackups := opts.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 5
	}
	sink := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSize, // MB
		MaxBackups: maxBackups,
		Compress:   true,
	}
	return log.New(io.MultiWriter(stderr, sink), "", log.LstdFlags), sink.Close
}
