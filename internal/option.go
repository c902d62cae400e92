package internal

import (
	"io"

	"github.com/starford/favshelf/internal/collector"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	logOutput io.Writer
	progress  func(collector.Progress)
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogOutput sends log records to w instead of stdout.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithProgress reports each note processed by Collect.
func WithProgress(fn func(collector.Progress)) Option {
	return func(a *application) {
		a.progress = fn
	}
}
