package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/groom/classfile"
	"github.com/dhamidi/groom/settings"
)

func newClasspathCmd() *cobra.Command {
	var libDir string
	var check bool

	cmd := &cobra.Command{
		Use:   "classpath",
		Short: "Print the classpath used for import rewriting and serialVersionUID lookup",
		Long: `Print the classpath as a list of locations joined by the platform's
path list separator.

The locations are those of [repository] classpath followed by [serial]
classpath in the settings. When neither is set, all .jar files in the
lib/ directory (or the one given with -l) are listed.

With --check, each location is printed on its own line with its status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			paths := configuredClasspath(cfg)
			if len(paths) == 0 {
				paths, err = libJars(libDir)
				if err != nil {
					return err
				}
			}
			if check {
				return checkClasspath(paths)
			}
			fmt.Println(strings.Join(paths, string(filepath.ListSeparator)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&libDir, "lib", "l", "lib", "directory containing JAR files")
	cmd.Flags().BoolVar(&check, "check", false, "report whether each location exists")

	return cmd
}

// configuredClasspath merges both classpaths of cfg, dropping duplicates.
func configuredClasspath(cfg *settings.Settings) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, list := range [][]string{cfg.Repository.Classpath, cfg.Serial.Classpath} {
		for _, p := range list {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	return paths
}

func libJars(libDir string) ([]string, error) {
	entries, err := os.ReadDir(libDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lib directory %s: %w", libDir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) == ".jar" {
			paths = append(paths, filepath.Join(libDir, entry.Name()))
		}
	}
	return paths, nil
}

func checkClasspath(paths []string) error {
	missing := 0
	for _, p := range paths {
		status := okColor.Sprint("dir")
		info, err := os.Stat(p)
		switch {
		case err != nil:
			missing++
			status = errorColor.Sprint("missing")
		case !info.IsDir() && classfile.IsArchive(p):
			status = okColor.Sprint("archive")
		case !info.IsDir():
			missing++
			status = warnColor.Sprint("not an archive")
		}
		fmt.Printf("%-8s %s\n", status, p)
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d locations unusable", missing, len(paths))
	}
	return nil
}
