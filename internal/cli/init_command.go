package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tyemirov/arbor/internal/config"
)

const (
	initUse              = "init"
	initShortDescription = "write a configuration template"
	initLongDescription  = `Write the default configuration to ./config.yaml, or to ~/.arbor/config.yaml
with --global. An existing file is kept unless --force is given.`
	globalFlagName        = "global"
	globalFlagDescription = "write the global configuration"
	forceFlagName         = "force"
	forceFlagDescription  = "overwrite an existing configuration file"
	initWrittenFormat     = "configuration written to %s\n"
)

func createInitCommand(app *application) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			destination, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: app.workingDirectory,
			})
			if initError != nil {
				return initError
			}
			_, writeError := fmt.Fprintf(app.stdout, initWrittenFormat, destination)
			return writeError
		},
	}
	registerToggleFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerToggleFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
