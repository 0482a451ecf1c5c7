// Package codegen generates explicit schema descriptors for struct types
// declaring rules in `fixgen` tags, so that populating them needs no
// struct tag parsing or reflective field access at run time.
package codegen

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

// Config configures a generation.
type Config struct {
	// Dir is the directory patterns are resolved from. Empty means the
	// current directory.
	Dir string
	// BuildFlags are passed to the package loader.
	BuildFlags []string
	// Workers bounds the number of files rendered in parallel.
	// Zero means GOMAXPROCS.
	Workers int
	// DryRun renders files without writing them.
	DryRun bool
	Logger *slog.Logger
}

// File is a generated file.
type File struct {
	Path    string
	Content []byte
	Changed bool // the content differs from the file on disk.
}

// Generate loads the packages matching patterns and writes one schema
// file per tagged struct type next to its declaration. Files whose
// content is unchanged are not rewritten.
func Generate(ctx context.Context, cfg *Config, patterns ...string) ([]*File, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pkgs, err := Load(ctx, cfg, patterns...)
	if err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var (
		mu    sync.Mutex
		files []*File
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, pkg := range pkgs {
		for _, t := range pkg.Types {
			eg.Go(func() error {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				f, err := generateFile(pkg, t, cfg.DryRun)
				if err != nil {
					return err
				}
				logger.Debug("schema file generated", "type", pkg.Path+"."+t.Name, "path", f.Path, "changed", f.Changed)
				mu.Lock()
				files = append(files, f)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func generateFile(pkg *Package, t *Type, dryRun bool) (*File, error) {
	src, err := Render(pkg, t)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(pkg.Dir, FileName(t))
	formatted, err := imports.Process(path, src, nil)
	if err != nil {
		return nil, fmt.Errorf("codegen: formatting %s: %w", path, err)
	}
	f := &File{Path: path, Content: formatted, Changed: true}
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, formatted) {
		f.Changed = false
	}
	if !f.Changed || dryRun {
		return f, nil
	}
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return nil, fmt.Errorf("codegen: writing %s: %w", path, err)
	}
	return f, nil
}
