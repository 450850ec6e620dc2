package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/policylens/internal/application"
	appclauses "github.com/bryanwahyu/policylens/internal/application/clauses"
	appsessions "github.com/bryanwahyu/policylens/internal/application/sessions"
	"github.com/bryanwahyu/policylens/internal/config"
	"github.com/bryanwahyu/policylens/internal/infra/db"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "policylensctl",
		Short:        "Admin tasks for a PolicyLens database",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.Path(), "path to config.yaml")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(clausesCmd())
	return rootCmd
}

// openStore loads config and opens the configured backend.
func openStore(ctx context.Context, migrate bool) (db.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if migrate {
		cfg.Database.AutoMigrate = true
	}
	return db.Open(ctx, cfg, application.SystemClock{})
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the relational schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage analysis sessions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := &appsessions.Service{Repo: store, Clock: application.SystemClock{}}
			n, err := svc.CleanExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired sessions\n", n)
			return nil
		},
	})
	return cmd
}

func clausesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clauses",
		Short: "Inspect the clause knowledge cache",
	}
	top := &cobra.Command{
		Use:   "top",
		Short: "List the most requested clauses",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			store, err := openStore(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := &appclauses.Service{Repo: store}
			list, err := svc.Top(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COUNT\tCATEGORY\tLAST USED\tCLAUSE")
			for _, c := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.FrequencyCount, c.Category, c.LastUsedAt.Format("2006-01-02 15:04"), truncate(c.ClauseText, 60))
			}
			return tw.Flush()
		},
	}
	top.Flags().IntP("limit", "n", 20, "maximum clauses")
	cmd.AddCommand(top)
	return cmd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
