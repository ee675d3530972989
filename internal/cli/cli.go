// Package cli exposes the storefront executables as cobra subcommands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/greencrop/storefront/internal/app"
	"github.com/greencrop/storefront/internal/config"
	"github.com/greencrop/storefront/internal/migration"
	"github.com/greencrop/storefront/internal/seeder"
)

const stopTimeout = 10 * time.Second

// NewRootCommand builds the storefront command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Green Crop storefront backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("verbose", false, "Log dependency injection events")

	root.AddCommand(
		newStartCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newWorkerCmd(),
	)
	return root
}

// Execute runs the CLI until it finishes or SIGINT/SIGTERM arrives.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the storefront HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []fx.Option{app.HTTP}
			if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
				opts = append(opts, fx.Decorate(forceAutoMigrate))
			}
			return serve(cmd, opts...)
		},
	}
	cmd.Flags().Bool("migrate", false, "Apply pending migrations before serving")
	return cmd
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage order notification workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Consume order events and dispatch notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, app.Worker)
		},
	})
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: withMigrator(func(cmd *cobra.Command, ctx context.Context, m *migration.Migrator) error {
			if err := m.Up(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		}),
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: withMigrator(func(cmd *cobra.Command, ctx context.Context, m *migration.Migrator) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			if err := m.Down(ctx, steps, all); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
			return nil
		}),
	}
	down.Flags().Int("steps", 1, "Number of migrations to roll back")
	down.Flags().Bool("all", false, "Roll back every applied migration")

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		RunE: withMigrator(func(cmd *cobra.Command, ctx context.Context, m *migration.Migrator) error {
			version, err := m.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		}),
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed *seeder.Seeder
			return runOnce(cmd, fx.Options(app.Core, seeder.Module, fx.Populate(&seed)), func(ctx context.Context) error {
				if err := seed.Users(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "demo account ready: %s\n", seeder.DemoEmail)
				return nil
			})
		},
	}
}

func withMigrator(fn func(*cobra.Command, context.Context, *migration.Migrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var m *migration.Migrator
		return runOnce(cmd, fx.Options(app.Core, migration.Module, fx.Populate(&m)), func(ctx context.Context) error {
			return fn(cmd, ctx, m)
		})
	}
}

// serve starts a long-running graph and blocks until the command context
// is cancelled.
func serve(cmd *cobra.Command, opts ...fx.Option) error {
	application := fx.New(append(opts, eventLogger(cmd))...)
	if err := application.Start(cmd.Context()); err != nil {
		return err
	}
	<-cmd.Context().Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return application.Stop(stopCtx)
}

// runOnce starts a graph, runs fn and stops the graph again.
func runOnce(cmd *cobra.Command, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, eventLogger(cmd))
	if err := application.Start(cmd.Context()); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(cmd.Context())
}

func forceAutoMigrate(cfg config.Config) config.Config {
	cfg.Database.AutoMigrate = true
	return cfg
}

func eventLogger(cmd *cobra.Command) fx.Option {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return app.Logging
	}
	return fx.NopLogger
}
