package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/groom/engine"
	"github.com/dhamidi/groom/settings"
)

type fmtOptions struct {
	write       bool
	force       bool
	backup      int
	destination string
	encoding    string
	history     string
	imports     string
	quiet       bool
}

func newFmtCmd() *cobra.Command {
	var opts fmtOptions

	cmd := &cobra.Command{
		Use:   "fmt [file|dir]...",
		Short: "Rewrite .java files according to the settings",
		Long: `Rewrite Java sources: normalize imports, sort members, insert
serialVersionUID fields and logging guards, as configured in groom.toml.

Without arguments, reads Java source from stdin and writes the result to
stdout. Directories are searched recursively for .java files.

Use -w to rewrite files in place, or -d to write them below a destination
directory laid out by package. Otherwise results go to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			if err := opts.apply(cfg); err != nil {
				return err
			}
			if len(args) == 0 {
				if opts.write {
					return fmt.Errorf("-w requires a file argument")
				}
				return runFmtStdin(cmd.Context(), cfg)
			}
			files, err := javaFiles(args)
			if err != nil {
				return err
			}
			return runFmt(cmd.Context(), cfg, files, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "rewrite files in place")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "format files the history considers up to date")
	cmd.Flags().IntVar(&opts.backup, "backup", -1, "number of backups to keep (default from settings)")
	cmd.Flags().StringVarP(&opts.destination, "destination", "d", "", "write results below this directory")
	cmd.Flags().StringVar(&opts.encoding, "encoding", "", "character set of the sources (default from settings)")
	cmd.Flags().StringVar(&opts.history, "history", "", "dirty check: none, timestamp, crc32, adler32 or comment")
	cmd.Flags().StringVar(&opts.imports, "imports", "", "on-demand imports: leave, expand or collapse")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "report only files with diagnostics")

	return cmd
}

// apply overlays the command line onto cfg.
func (o fmtOptions) apply(cfg *settings.Settings) error {
	if o.backup >= 0 {
		cfg.Backup.Level = o.backup
	}
	if o.destination != "" {
		cfg.Output.Destination = o.destination
	}
	if o.encoding != "" {
		cfg.Output.Encoding = o.encoding
	}
	if o.history != "" {
		if err := cfg.History.Policy.UnmarshalText([]byte(o.history)); err != nil {
			return err
		}
	}
	if o.imports != "" {
		if err := cfg.Imports.Policy.UnmarshalText([]byte(o.imports)); err != nil {
			return err
		}
	}
	return cfg.Validate()
}

func runFmtStdin(ctx context.Context, cfg *settings.Settings) error {
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	e, err := s.engine()
	if err != nil {
		return err
	}
	if err := e.SetInputReader("<stdin>", os.Stdin); err != nil {
		return err
	}
	if err := e.SetOutputWriter(os.Stdout); err != nil {
		return err
	}
	runErr := e.Format(ctx)
	for _, d := range e.Diagnostics() {
		fmt.Fprintln(os.Stderr, diagColor(d.Severity).Sprint(d))
	}
	return runErr
}

func runFmt(ctx context.Context, cfg *settings.Settings, files []string, opts fmtOptions) error {
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(); err != nil {
			log.Errorf("failed to save history: %s", err)
		}
	}()
	e, err := s.engine()
	if err != nil {
		return err
	}
	inPlace := opts.write || cfg.Output.Destination != ""
	// Printing to stdout always shows the whole result.
	e.SetForce(opts.force || !inPlace)
	out := os.Stdout
	if !inPlace {
		out = os.Stderr
	}

	failed := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.Reset()
		if err := e.SetInputFile(file); err != nil {
			return err
		}
		if inPlace {
			err = e.SetOutputFile(file)
		} else {
			err = e.SetOutputWriter(os.Stdout)
		}
		if err != nil {
			return err
		}
		if err := e.Format(ctx); err != nil {
			log.Debugf("%s: %s", file, err)
		}
		if e.State() == engine.StateError {
			failed++
		}
		if !opts.quiet || len(e.Diagnostics()) > 0 {
			report(out, file, e)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errFailed, failed, len(files))
	}
	return nil
}

// javaFiles expands directories among args into the .java files below
// them. Hidden directories are skipped. Plain files are taken as given.
func javaFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) == ".java" {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
