package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"golang.org/x/term"
)

const version = "0.1.0"

var (
	verbose    int
	configPath string
	logPath    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "groom",
		Short:         "Rewrite Java sources: imports, member order, serialVersionUID and logging guards",
		Version:       version,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var path *string
			if logPath != "" {
				path = &logPath
			}
			commonlog.Configure(verbose, path)
			if !isTerminal(os.Stdout) {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "log more (repeat for more detail)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "settings file (default: nearest groom.toml)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "write the log to this file instead of stderr")

	rootCmd.AddCommand(newFmtCmd())
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newRepoCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newLSPCmd())
	rootCmd.AddCommand(newClasspathCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
