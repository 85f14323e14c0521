package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	rootpkg "github.com/getpup/seeder"
	"github.com/getpup/seeder/internal/logging"
	"github.com/getpup/seeder/metrics"
	"github.com/getpup/seeder/pkg/migrations"
	pkgseeder "github.com/getpup/seeder/pkg/seeder"
	"github.com/getpup/seeder/scaffold"
	"github.com/getpup/seeder/store/sqlstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const confirmationPrompt = "Environment %q is protected. Do you really wish to run this command? [y/N] "

// operation is one mutating seed command bound to a connected seeder.
type operation func(ctx context.Context, s *pkgseeder.Seeder, env string, opts rootpkg.Options) error

func (a *Application) installCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Create the seed ledger table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, closeDB, err := a.connect(cmd, false)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := s.Install(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seed ledger %q is ready.\n", a.configuration.Table)
			return nil
		},
	}
}

func (a *Application) makeCommand() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "make <name>",
		Short: "Create a new seed unit in the environment's directory",
		Long: `make writes <dir>/<env>/<timestamp>_<name>.sql (or .go with --kind go).
Use --env all for units that run in every environment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := a.configuration.Environment
			if env == "" {
				return environmentRequired()
			}
			k, err := scaffold.ParseKind(kind)
			if err != nil {
				return err
			}

			creator := scaffold.Creator{Fs: a.fs, Now: a.now}
			path, err := creator.Create(args[0], filepath.Join(a.configuration.Dir, env), k)
			if err != nil {
				return err
			}

			a.logger.Info("seed unit created", zap.String("path", path), zap.String("environment", env))
			fmt.Fprintf(cmd.OutOrStdout(), "Created seeder: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(scaffold.KindSQL), "Kind of unit to create (sql or go)")
	return cmd
}

func (a *Application) runCommand() *cobra.Command {
	var pretend, force bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply every pending seed as one new batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, pretend, force)
		},
	}
	addMutationFlags(cmd, &pretend, &force)
	return cmd
}

func (a *Application) run(cmd *cobra.Command, pretend, force bool) error {
	return a.mutate(cmd, "run", pretend, force, func(ctx context.Context, s *pkgseeder.Seeder, env string, opts rootpkg.Options) error {
		_, err := s.Run(ctx, env, opts)
		return err
	})
}

func (a *Application) rollbackCommand() *cobra.Command {
	var pretend, force bool
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Reverse the last batch of seeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.mutate(cmd, "rollback", pretend, force, func(ctx context.Context, s *pkgseeder.Seeder, env string, opts rootpkg.Options) error {
				_, err := s.Rollback(ctx, env, opts)
				return err
			})
		},
	}
	addMutationFlags(cmd, &pretend, &force)
	return cmd
}

func (a *Application) resetCommand() *cobra.Command {
	var pretend, force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reverse every applied seed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.mutate(cmd, "reset", pretend, force, func(ctx context.Context, s *pkgseeder.Seeder, env string, opts rootpkg.Options) error {
				_, err := s.Reset(ctx, env, opts)
				return err
			})
		},
	}
	addMutationFlags(cmd, &pretend, &force)
	return cmd
}

func (a *Application) refreshCommand() *cobra.Command {
	var pretend, force bool
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Reset and re-run all seeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.mutate(cmd, "refresh", pretend, force, func(ctx context.Context, s *pkgseeder.Seeder, env string, opts rootpkg.Options) error {
				_, _, err := s.Refresh(ctx, env, opts)
				return err
			})
		},
	}
	addMutationFlags(cmd, &pretend, &force)
	return cmd
}

func (a *Application) statusCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether each seed has been applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env := a.configuration.Environment
			if env == "" {
				return environmentRequired()
			}
			if err := validateStatusFormat(format); err != nil {
				return err
			}

			s, closeDB, err := a.connect(cmd, false)
			if err != nil {
				return err
			}
			defer closeDB()

			statuses, err := s.Status(cmd.Context(), env)
			if err != nil {
				return err
			}
			return writeStatus(cmd.OutOrStdout(), format, statuses)
		},
	}
	cmd.Flags().StringVar(&format, "format", formatText, "Output format (text, json or yaml)")
	return cmd
}

func (a *Application) ddlCommand() *cobra.Command {
	var driver, output, filename string
	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print or write the SQL that creates the seed ledger table",
		Long: `ddl prints the ledger table DDL for your own migration tool, or writes it
to --output/--filename. The dialect defaults to the configured connection's driver.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dialect, err := a.ddlDialect(driver)
			if err != nil {
				return err
			}

			if output == "" {
				script, err := migrations.GenerateSQL(dialect, a.configuration.Table)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), script)
				return nil
			}

			config := migrations.DefaultConfig()
			config.OutputFolder = output
			config.Table = a.configuration.Table
			config.Fs = a.fs
			if filename != "" {
				config.OutputFilename = filename
			}
			if err := migrations.Generate(dialect, &config); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s migration: %s\n", dialect, filepath.Join(config.OutputFolder, config.OutputFilename))
			return nil
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "", "Database driver: postgres, mysql or sqlite3")
	cmd.Flags().StringVar(&output, "output", "", "Write the migration into this folder instead of printing it")
	cmd.Flags().StringVar(&filename, "filename", "", "Output filename (default: timestamp-based)")
	return cmd
}

func (a *Application) ddlDialect(driver string) (sqlstore.Dialect, error) {
	if driver != "" {
		return sqlstore.ParseDialect(driver)
	}
	if _, connection, err := a.configuration.Connection(a.flags.database); err == nil {
		return sqlstore.ParseDialect(connection.Driver)
	}
	return sqlstore.Postgres, nil
}

// mutate guards a mutating command with the protected-environment prompt,
// connects, runs op and writes metrics when configured.
func (a *Application) mutate(cmd *cobra.Command, name string, pretend, force bool, op operation) error {
	env := a.configuration.Environment
	if env == "" {
		return environmentRequired()
	}

	if !pretend && !force && a.configuration.Protected(env) {
		confirmed, err := NewIOConfirmer(cmd.InOrStdin(), cmd.OutOrStdout()).Confirm(fmt.Sprintf(confirmationPrompt, env))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !confirmed {
			fmt.Fprintln(cmd.OutOrStdout(), "Command cancelled.")
			return nil
		}
	}

	s, closeDB, err := a.connect(cmd, pretend)
	if err != nil {
		return err
	}
	defer closeDB()

	a.logger.Debug("running seed command", zap.String("command", name), zap.String("environment", env), zap.Bool("pretend", pretend))
	err = op(cmd.Context(), s, env, rootpkg.Options{Pretend: pretend})

	if a.configuration.MetricsFile != "" {
		if metricsErr := metrics.WriteTextfile(a.configuration.MetricsFile); metricsErr != nil {
			err = errors.Join(err, metricsErr)
		}
	}
	return err
}

// connect opens the configured connection and builds a seeder on it.
// The returned function closes the database.
func (a *Application) connect(cmd *cobra.Command, pretend bool) (*pkgseeder.Seeder, func(), error) {
	name, connection, err := a.configuration.Connection(a.flags.database)
	if err != nil {
		return nil, nil, err
	}
	dialect, err := sqlstore.ParseDialect(connection.Driver)
	if err != nil {
		return nil, nil, err
	}

	db, err := a.openDatabase(dialect.DriverName(), connection.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database connection %q: %w", name, err)
	}
	if err := db.PingContext(cmd.Context()); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to connect to database %q: %w", name, err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			a.logger.Warn("failed to close database", zap.String("connection", name), zap.Error(err))
		}
	}

	printer := &eventPrinter{out: cmd.OutOrStdout(), pretend: pretend}
	s, err := pkgseeder.New(
		pkgseeder.WithDatabase(db, dialect),
		pkgseeder.WithDirectory(a.configuration.Dir),
		pkgseeder.WithTable(a.configuration.Table),
		pkgseeder.WithFs(a.fs),
		pkgseeder.WithRegistry(a.registry),
		pkgseeder.WithLockTimeout(a.configuration.LockTimeout),
		pkgseeder.WithLogger(logging.NewZapLogger(a.logger)),
		pkgseeder.WithListener(printer.handle),
		pkgseeder.WithMetricsEnabled(a.configuration.MetricsFile != ""),
	)
	if err != nil {
		closeDB()
		return nil, nil, err
	}

	a.logger.Debug("connected", zap.String("connection", name), zap.String("driver", string(dialect)))
	return s, closeDB, nil
}

func environmentRequired() error {
	return fmt.Errorf("%w: use --%s or SEEDER_ENVIRONMENT", rootpkg.ErrEnvironmentRequired, envFlagName)
}
