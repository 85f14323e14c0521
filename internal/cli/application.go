package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getpup/seeder/discovery"
	"github.com/getpup/seeder/internal/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const (
	applicationName             = "seeder"
	applicationShortDescription = "Run environment-scoped seed data migrations"
	applicationLongDescription  = `seeder applies seed units from <dir>/all and <dir>/<env> to a database,
recording each applied unit per environment in a ledger table so it can be
rolled back batch by batch. Running seeder without a subcommand runs pending seeds.`

	configFlagName      = "config"
	logLevelFlagName    = "log-level"
	logFormatFlagName   = "log-format"
	envFlagName         = "env"
	databaseFlagName    = "database"
	pathFlagName        = "path"
	metricsFileFlagName = "metrics-file"
	pretendFlagName     = "pretend"
	forceFlagName       = "force"
)

// Application wires the Cobra command tree, the configuration loader and the
// diagnostic logger.
type Application struct {
	rootCommand   *cobra.Command
	loggerFactory *logging.Factory
	logger        *zap.Logger
	configuration Configuration
	configFile    string

	registry     *discovery.Registry
	fs           afero.Fs
	now          func() time.Time
	openDatabase func(driver, dsn string) (*sql.DB, error)

	flags globalFlags
}

type globalFlags struct {
	configFile  string
	logLevel    string
	logFormat   string
	env         string
	database    string
	path        string
	metricsFile string
}

// NewApplication assembles the command tree. Go seed units are looked up in
// registry; a nil registry selects discovery.DefaultRegistry.
func NewApplication(registry *discovery.Registry) *Application {
	if registry == nil {
		registry = discovery.DefaultRegistry
	}

	app := &Application{
		loggerFactory: logging.NewFactory(),
		logger:        zap.NewNop(),
		registry:      registry,
		fs:            afero.NewOsFs(),
		now:           time.Now,
		openDatabase:  sql.Open,
	}

	var pretend, force bool
	root := &cobra.Command{
		Use:           applicationName,
		Short:         applicationShortDescription,
		Long:          applicationLongDescription,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.initializeConfiguration(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd, pretend, force)
		},
	}
	root.SetContext(context.Background())
	addMutationFlags(root, &pretend, &force)

	persistent := root.PersistentFlags()
	persistent.StringVar(&app.flags.configFile, configFlagName, "", "Path to a configuration file (default: ./seeder.yaml)")
	persistent.StringVar(&app.flags.logLevel, logLevelFlagName, "", "Override the configured log level (debug, info, warn, error)")
	persistent.StringVar(&app.flags.logFormat, logFormatFlagName, "", "Override the configured log format (structured or console)")
	persistent.StringVar(&app.flags.env, envFlagName, "", "Target environment")
	persistent.StringVar(&app.flags.database, databaseFlagName, "", "Name of the configured database connection to use")
	persistent.StringVar(&app.flags.path, pathFlagName, "", "Seed root directory containing one directory per environment")
	persistent.StringVar(&app.flags.metricsFile, metricsFileFlagName, "", "Write Prometheus metrics to this file after the command")

	root.AddCommand(
		app.installCommand(),
		app.makeCommand(),
		app.runCommand(),
		app.rollbackCommand(),
		app.resetCommand(),
		app.refreshCommand(),
		app.statusCommand(),
		app.ddlCommand(),
	)

	app.rootCommand = root
	return app
}

// Execute builds an application for registry and runs it with the process
// arguments until completion or an interrupt signal.
func Execute(registry *discovery.Registry) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewApplication(registry).ExecuteContext(ctx)
}

// ExecuteContext runs the command tree and flushes the logger.
func (a *Application) ExecuteContext(ctx context.Context) error {
	err := a.rootCommand.ExecuteContext(ctx)
	if syncErr := a.syncLogger(); syncErr != nil && err == nil {
		return fmt.Errorf("failed to flush logger: %w", syncErr)
	}
	return err
}

func (a *Application) initializeConfiguration(cmd *cobra.Command) error {
	var configuration Configuration
	used, err := NewConfigurationLoader(a.fs).Load(a.flags.configFile, DefaultConfigurationValues(), &configuration)
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}

	if flagChanged(cmd, envFlagName) {
		configuration.Environment = a.flags.env
	}
	if flagChanged(cmd, pathFlagName) {
		configuration.Dir = a.flags.path
	}
	if flagChanged(cmd, metricsFileFlagName) {
		configuration.MetricsFile = a.flags.metricsFile
	}
	if flagChanged(cmd, logLevelFlagName) {
		configuration.Log.Level = a.flags.logLevel
	}
	if flagChanged(cmd, logFormatFlagName) {
		configuration.Log.Format = a.flags.logFormat
	}

	logger, err := a.loggerFactory.CreateLogger(logging.Level(configuration.Log.Level), logging.Format(configuration.Log.Format))
	if err != nil {
		return fmt.Errorf("unable to create logger: %w", err)
	}

	a.configuration = configuration
	a.configFile = used
	a.logger = logger

	a.logger.Debug("configuration initialized",
		zap.String("command", cmd.Name()),
		zap.String("config_file", used),
		zap.String("environment", configuration.Environment),
		zap.String("dir", configuration.Dir),
		zap.String("table", configuration.Table),
	)
	return nil
}

func (a *Application) syncLogger() error {
	if a.logger == nil {
		return nil
	}

	err := a.logger.Sync()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, syscall.ENOTSUP), errors.Is(err, syscall.EINVAL), errors.Is(err, syscall.ENOTTY):
		return nil
	default:
		return err
	}
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}

	flagSets := []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags(), cmd.InheritedFlags()}
	if root := cmd.Root(); root != nil {
		flagSets = append(flagSets, root.PersistentFlags())
	}
	for _, flagSet := range flagSets {
		if flagSet != nil && flagSet.Changed(name) {
			return true
		}
	}
	return false
}

func addMutationFlags(cmd *cobra.Command, pretend, force *bool) {
	cmd.Flags().BoolVar(pretend, pretendFlagName, false, "Print the statements that would run without executing them")
	cmd.Flags().BoolVar(force, forceFlagName, false, "Skip the confirmation prompt for protected environments")
}
