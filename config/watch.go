package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/syssam/fixgen/internal/watch"
)

// Watch loads the configuration file at path, passes it to fn, and passes
// every successfully reloaded configuration to fn until ctx is done.
// A file that fails to load or validate is logged and skipped; fn keeps
// the last valid configuration.
func Watch(ctx context.Context, path string, logger *slog.Logger, fn func(*Global)) error {
	if logger == nil {
		logger = slog.Default()
	}
	g, err := Load(path)
	if err != nil {
		return err
	}
	fn(g)
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	return watch.Run(ctx, watch.Options{
		Paths:  []string{abs},
		Match:  func(p string) bool { return filepath.Clean(p) == abs },
		Logger: logger,
	}, func([]string) error {
		g, err := Load(abs)
		if err != nil {
			return err
		}
		logger.Info("configuration reloaded", slog.String("path", abs))
		fn(g)
		return nil
	})
}
