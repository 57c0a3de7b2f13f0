package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/seed"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Schema ready: %s\n", a.cfg.DB.Path)
			return nil
		},
	}
}

func newAuditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Check stored items and usage periods for invariant violations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			svc := inventory.NewService(database, nil, nil, inventory.WithLogger(a.logger))
			findings, err := svc.Audit(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(findings) == 0 {
				fmt.Fprintln(out, "No problems found.")
				return nil
			}
			for _, f := range findings {
				fmt.Fprintf(out, "%s\t%s\tstatus=%s open_periods=%d\n", f.ItemID, f.Problem, f.Status, f.OpenPeriods)
			}
			return fmt.Errorf("%d invariant violation(s) found", len(findings))
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "seed <file>",
		Short: "Load items from a YAML fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			fixture, err := seed.Parse(f)
			if err != nil {
				return err
			}

			database, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			svc := inventory.NewService(database, nil, nil, inventory.WithLogger(a.logger))
			items, err := seed.Load(cmd.Context(), svc, fixture, actor)
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d item(s).\n", len(items))
			return err
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "seed", "actor recorded on seeded transitions")
	return cmd
}

func newTokenCmd(a *app) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			secret, err := a.jwtSecret(cmd.Context(), database)
			if err != nil {
				return err
			}

			token, err := auth.GenerateToken(secret, subject, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject, recorded as the actor of changes")
	cmd.Flags().StringVar(&role, "role", model.RoleMember, "role: admin, member or guest")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.TokenExpiry, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
