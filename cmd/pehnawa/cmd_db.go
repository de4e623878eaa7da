package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/database/migrations"
	"github.com/shashiranjanraj/pehnawa/database/seeders"
	"github.com/shashiranjanraj/pehnawa/internal/bootstrap"
	"github.com/shashiranjanraj/pehnawa/pkg/database"
	"github.com/shashiranjanraj/pehnawa/pkg/migration"
)

// withDB opens the pool for the duration of fn.
func withDB(ctx context.Context, fn func(db *gorm.DB) error) error {
	db, err := bootstrap.OpenDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close(db)
	return fn(db)
}

func runner(db *gorm.DB) (*migration.Runner, error) {
	all := migrations.All()
	if err := migration.Validate(all); err != nil {
		return nil, err
	}
	return migration.New(db, all), nil
}

func runMigrations(ctx context.Context, db *gorm.DB) error {
	r, err := runner(db)
	if err != nil {
		return err
	}
	_, err = r.Up(ctx)
	return err
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), func(db *gorm.DB) error {
				r, err := runner(db)
				if err != nil {
					return err
				}
				applied, err := r.Up(cmd.Context())
				for _, name := range applied {
					fmt.Fprintln(cmd.OutOrStdout(), "migrated:", name)
				}
				if err == nil && len(applied) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to migrate")
				}
				return err
			})
		},
	}
}

func migrateRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:rollback",
		Short: "Roll back the last batch of migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), func(db *gorm.DB) error {
				r, err := runner(db)
				if err != nil {
					return err
				}
				reverted, err := r.Rollback(cmd.Context())
				for _, name := range reverted {
					fmt.Fprintln(cmd.OutOrStdout(), "rolled back:", name)
				}
				return err
			})
		},
	}
}

func migrateResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:reset",
		Short: "Roll back every migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), func(db *gorm.DB) error {
				r, err := runner(db)
				if err != nil {
					return err
				}
				return r.Reset(cmd.Context())
			})
		},
	}
}

func migrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:status",
		Short: "Show which migrations have run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), func(db *gorm.DB) error {
				r, err := runner(db)
				if err != nil {
					return err
				}
				status, err := r.Status(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "RAN\tBATCH\tMIGRATION")
				for _, s := range status {
					ran, batch := "no", "-"
					if s.Ran {
						ran, batch = "yes", fmt.Sprint(s.Batch)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", ran, batch, s.Name)
				}
				return w.Flush()
			})
		},
	}
}

func seedCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the admin user, categories, collections and sample products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), func(db *gorm.DB) error {
				if migrate {
					if err := runMigrations(cmd.Context(), db); err != nil {
						return err
					}
				}
				return seeders.RunAll(cmd.Context(), db)
			})
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations first")
	return cmd
}
