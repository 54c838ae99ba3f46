package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhamidi/groom/repository"
)

func newRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Inspect and fill the type repository used for import rewriting",
	}
	cmd.AddCommand(newRepoLoadCmd())
	cmd.AddCommand(newRepoListCmd())
	cmd.AddCommand(newRepoMembersCmd())
	cmd.AddCommand(newRepoContainsCmd())
	return cmd
}

// repoLoad opens the repository and loads locations, or the configured
// classpath when locations is empty.
func repoLoad(cmd *cobra.Command, locations []string) (*repository.Repository, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, err
	}
	repo, err := openRepository(cfg)
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		locations = cfg.Repository.Classpath
	}
	if len(locations) == 0 {
		return repo, nil
	}
	if err := repo.LoadAll(cmd.Context(), locations); err != nil {
		return nil, err
	}
	return repo, nil
}

func newRepoLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load [location]...",
		Short: "Scan directories and archives into the repository cache",
		Long: `Scan class directories and .jar/.zip archives and cache their type
names. Without arguments, the classpath of the [repository] settings is
loaded. Archives whose modification time is unchanged are not rescanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := repoLoad(cmd, args)
			if err != nil {
				return err
			}
			for _, e := range repo.Entries() {
				if !e.Loaded {
					continue
				}
				fmt.Printf("%s\t%d types\n", e.Location, len(e.Names))
			}
			return nil
		},
	}
}

func newRepoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the cached locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			repo, err := openRepository(cfg)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LOCATION\tKIND\tTYPES\tMODIFIED\tCACHE")
			for _, e := range repo.Entries() {
				kind := "dir"
				if e.Archive {
					kind = "archive"
				}
				modified := "-"
				if !e.ModTime.IsZero() {
					modified = e.ModTime.Format(time.DateTime)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", e.Location, kind, len(e.Names), modified, e.File)
			}
			return w.Flush()
		},
	}
}

func newRepoMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members <package>",
		Short: "List the types and subpackages directly inside a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := repoLoad(cmd, nil)
			if err != nil {
				return err
			}
			if !repo.HasPackage(args[0]) {
				return fmt.Errorf("unknown package %s", args[0])
			}
			for _, name := range repo.PackageMembers(args[0]) {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func newRepoContainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contains <type>...",
		Short: "Check whether fully qualified type names are known",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := repoLoad(cmd, nil)
			if err != nil {
				return err
			}
			missing := 0
			for _, name := range args {
				if repo.Contains(name) {
					fmt.Printf("%s\t%s\n", okColor.Sprint("found"), name)
				} else {
					missing++
					fmt.Printf("%s\t%s\n", errorColor.Sprint("missing"), name)
				}
			}
			if missing > 0 {
				return fmt.Errorf("%d of %d types not found", missing, len(args))
			}
			return nil
		},
	}
}
