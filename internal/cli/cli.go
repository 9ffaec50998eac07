// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/arbor/internal/config"
	"github.com/tyemirov/arbor/internal/services/clipboard"
	"github.com/tyemirov/arbor/internal/utils"
)

const (
	versionFlagName      = "version"
	logLevelFlagName     = "log-level"
	configFlagName       = "config"
	versionTemplate      = "arbor version: %s\n"
	rootUse              = "arbor"
	rootShortDescription = "arbor command line interface"
	rootLongDescription  = `arbor maps directory trees concurrently.
It renders the directories you expand, applies file operations and keeps the
tree current while the filesystem changes.
Use --format to select raw, json, or xml output and --version to print the application version.`
	versionFlagDescription  = "display application version"
	logLevelFlagDescription = "log level (debug, info, warn, error)"
	configFlagDescription   = "path to a configuration file"
	lineTerminator          = "\n"

	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	loadConfigurationFormat     = "load configuration: %w"
)

// application carries the state shared by every command of one invocation.
type application struct {
	stdout        io.Writer
	copier        clipboard.Copier
	logger        *zap.Logger
	configuration config.ApplicationConfiguration

	workingDirectory string
	configFilePath   string
	logLevel         string
	showVersion      bool
}

// Execute runs the arbor application. It returns when the command finishes
// or the process receives an interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &application{stdout: os.Stdout, copier: clipboard.NewService()}
	rootCommand := createRootCommand(app)
	rootCommand.SetArgs(normalizeToggleArguments(rootCommand, os.Args[1:]))
	defer app.syncLogger()
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command.
func createRootCommand(app *application) *cobra.Command {
	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if app.showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return nil
			}
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if app.showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
			return app.prepare(command)
		},
	}
	rootCommand.SetOut(app.stdout)
	rootCommand.PersistentFlags().BoolVar(&app.showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&app.logLevel, logLevelFlagName, "", logLevelFlagDescription)
	rootCommand.PersistentFlags().StringVar(&app.configFilePath, configFlagName, "", configFlagDescription)
	rootCommand.AddCommand(
		createTreeCommand(app),
		createWatchCommand(app),
		createNewCommand(app),
		createRenameCommand(app),
		createRemoveCommand(app),
		createCopyCommand(app),
		createCutCommand(app),
		createInitCommand(app),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// prepare loads configuration and builds the logger before a subcommand runs.
func (app *application) prepare(command *cobra.Command) error {
	if app.workingDirectory == "" {
		workingDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
		}
		app.workingDirectory = workingDirectory
	}
	configuration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: app.workingDirectory,
		ExplicitFilePath: app.configFilePath,
	})
	if configurationError != nil {
		return fmt.Errorf(loadConfigurationFormat, configurationError)
	}
	app.configuration = configuration

	level := configuration.LogLevel
	if command.Flags().Changed(logLevelFlagName) {
		level = app.logLevel
	}
	logger, loggerError := utils.NewApplicationLogger(level)
	if loggerError != nil {
		return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
	}
	app.logger = logger
	return nil
}

func (app *application) syncLogger() {
	if app.logger != nil {
		_ = app.logger.Sync()
	}
}

// emit writes rendered output and mirrors it to the clipboard when asked.
func (app *application) emit(rendered string, copyToClipboard bool) error {
	line := rendered
	if !strings.HasSuffix(line, lineTerminator) {
		line += lineTerminator
	}
	if _, writeError := io.WriteString(app.stdout, line); writeError != nil {
		return writeError
	}
	if !copyToClipboard {
		return nil
	}
	return app.copier.Copy(rendered)
}
