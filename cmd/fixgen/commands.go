package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syssam/fixgen/config"
	"github.com/syssam/fixgen/internal/codegen"
	"github.com/syssam/fixgen/internal/watch"
)

var (
	verbose    bool
	watchMode  bool
	dryRun     bool
	workers    int
	buildFlags []string

	logger = slog.Default()

	rootCmd = &cobra.Command{
		Use:          "fixgen",
		Short:        "Generate and check fixgen schemas and configuration",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}

	schemaCmd = &cobra.Command{
		Use:   "schema [packages...]",
		Short: "Generate schema files for struct types with fixgen tags",
		Long: `Generate a <type>_fixgen.go file next to every struct type declaring
fixgen rule tags. The generated schema is picked up by the engine instead
of the struct tags, so no tag parsing or reflective field access happens
at run time.`,
		Args: cobra.ArbitraryArgs,
		RunE: runSchema,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect fixgen configuration files",
	}

	configCheckCmd = &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a configuration file and print its effective content",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigCheck,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	schemaCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "regenerate when source files change")
	schemaCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the files that would change without writing them")
	schemaCmd.Flags().IntVar(&workers, "workers", 0, "number of files rendered in parallel (0 = GOMAXPROCS)")
	schemaCmd.Flags().StringSliceVar(&buildFlags, "build-flags", nil, "flags passed to the package loader")

	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(schemaCmd, configCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}
	cfg := &codegen.Config{
		BuildFlags: buildFlags,
		Workers:    workers,
		DryRun:     dryRun,
		Logger:     logger,
	}
	ctx := cmd.Context()
	files, err := codegen.Generate(ctx, cfg, args...)
	if err != nil {
		return err
	}
	report(cmd, files)
	if !watchMode {
		return nil
	}
	dirs := make(map[string]struct{})
	for _, f := range files {
		dirs[filepath.Dir(f.Path)] = struct{}{}
	}
	for _, a := range args {
		if d := strings.TrimSuffix(a, "/..."); d != "" {
			if abs, err := filepath.Abs(d); err == nil {
				dirs[abs] = struct{}{}
			}
		}
	}
	paths := make([]string, 0, len(dirs))
	for d := range dirs {
		paths = append(paths, d)
	}
	logger.Info("watching for changes", "dirs", len(paths))
	return watch.Run(ctx, watch.Options{
		Paths:  paths,
		Match:  isSource,
		Logger: logger,
	}, func(changed []string) error {
		logger.Debug("regenerating", "changed", changed)
		files, err := codegen.Generate(ctx, cfg, args...)
		if err != nil {
			return err
		}
		report(cmd, files)
		return nil
	})
}

// isSource reports whether path is a hand-written Go source file.
func isSource(path string) bool {
	return strings.HasSuffix(path, ".go") &&
		!strings.HasSuffix(path, "_test.go") &&
		!strings.HasSuffix(path, "_fixgen.go")
}

func report(cmd *cobra.Command, files []*codegen.File) {
	changed := 0
	for _, f := range files {
		if !f.Changed {
			continue
		}
		changed++
		if dryRun {
			fmt.Fprintln(cmd.OutOrStdout(), f.Path)
		}
	}
	logger.Info("schemas generated", "files", len(files), "changed", changed, "dry_run", dryRun)
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	g, err := config.Load(args[0])
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	logger.Debug("configuration valid", "path", args[0])
	return nil
}
