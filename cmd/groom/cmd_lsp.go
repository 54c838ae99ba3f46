package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/groom/lsp"
)

func newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server on stdio",
		Long: `Start a language server offering document formatting. Diagnostics
are published when a document is opened or saved.

Settings come from --config when given, otherwise from the groom.toml
nearest to the workspace root.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []lsp.Option
			if configPath != "" {
				cfg, err := loadSettings()
				if err != nil {
					return err
				}
				opts = append(opts, lsp.WithSettings(cfg))
				s, err := openSession(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				if s.repo != nil {
					opts = append(opts, lsp.WithRepository(s.repo))
				}
			}
			return lsp.NewServer(version, opts...).RunStdio()
		},
	}
}
