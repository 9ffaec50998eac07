package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/arbor/internal/cartographer"
	"github.com/tyemirov/arbor/internal/fsops"
	"github.com/tyemirov/arbor/internal/utils"
)

const (
	rootFlagName        = "root"
	rootFlagDescription = "root of the rendered tree"

	newUse                 = "new <path>"
	newShortDescription    = "create a file, or a directory when the path ends with a separator"
	renameUse              = "rename <source> <destination>"
	renameShortDescription = "rename an entry, creating missing parent directories"
	removeUse              = "remove <path>..."
	removeShortDescription = "remove entries, recursively for directories"
	copyUse                = "copy <source> <destination>"
	copyShortDescription   = "copy an entry, recursively for directories"
	cutUse                 = "cut <source> <destination>"
	cutShortDescription    = "move an entry to a destination that does not exist"
	fileOperationLong      = `Apply a file operation, then render the tree rooted at --root.
Only the directories the operation touched are read again.`

	logMessageOperationApplied = "file operation applied"
	logFieldChangedDirectories = "changed"
)

// fileOperation performs one change on disk and reports the directories it
// altered. Paths are absolute.
type fileOperation func(paths []string) (fsops.Changes, error)

func createNewCommand(app *application) *cobra.Command {
	return app.fileOperationCommand(newUse, newShortDescription, cobra.ExactArgs(1), func(paths []string) (fsops.Changes, error) {
		return fsops.New(paths[0])
	})
}

func createRenameCommand(app *application) *cobra.Command {
	return app.fileOperationCommand(renameUse, renameShortDescription, cobra.ExactArgs(2), func(paths []string) (fsops.Changes, error) {
		return fsops.Rename(paths[0], paths[1])
	})
}

func createRemoveCommand(app *application) *cobra.Command {
	return app.fileOperationCommand(removeUse, removeShortDescription, cobra.MinimumNArgs(1), func(paths []string) (fsops.Changes, error) {
		var changes []string
		for _, path := range paths {
			removed, removeError := fsops.Remove(path)
			if removeError != nil {
				return nil, removeError
			}
			changes = append(changes, removed...)
		}
		return fsops.Unify(changes), nil
	})
}

func createCopyCommand(app *application) *cobra.Command {
	return app.fileOperationCommand(copyUse, copyShortDescription, cobra.ExactArgs(2), func(paths []string) (fsops.Changes, error) {
		return fsops.Copy(paths[0], paths[1])
	})
}

func createCutCommand(app *application) *cobra.Command {
	return app.fileOperationCommand(cutUse, cutShortDescription, cobra.ExactArgs(2), func(paths []string) (fsops.Changes, error) {
		return fsops.Cut(paths[0], paths[1])
	})
}

// fileOperationCommand builds a command that walks the tree, applies
// operation and renders the incrementally updated tree. The parents of the
// last path argument are expanded so the result is visible.
func (app *application) fileOperationCommand(use string, short string, arguments cobra.PositionalArgs, operation fileOperation) *cobra.Command {
	var options treeOptions
	var rootArgument string

	operationCommand := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  fileOperationLong,
		Args:  arguments,
		RunE: func(command *cobra.Command, positional []string) error {
			settings, settingsError := app.resolveTreeSettings(command, options, rootArgument)
			if settingsError != nil {
				return settingsError
			}
			paths := make([]string, 0, len(positional))
			for _, argument := range positional {
				paths = append(paths, resolveOperand(app.workingDirectory, argument))
			}
			settings.expand = append(settings.expand, visibleAncestors(settings.root, paths[len(paths)-1])...)

			treeCartographer := app.newCartographer(settings)
			snapshot, index, walkError := app.walkTree(command.Context(), treeCartographer, settings)
			if walkError != nil {
				return walkError
			}
			changes, operationError := operation(paths)
			if operationError != nil {
				return operationError
			}
			app.logger.Debug(logMessageOperationApplied, zap.Strings(logFieldChangedDirectories, changes))
			updated, updateError := treeCartographer.Update(command.Context(), snapshot, index, changes)
			if updateError != nil {
				return updateError
			}
			return app.render(settings, updated)
		},
	}
	registerTreeFlags(operationCommand.Flags(), &options)
	operationCommand.Flags().StringVar(&rootArgument, rootFlagName, defaultPath, rootFlagDescription)
	return operationCommand
}

// resolveOperand resolves argument against the working directory, keeping a
// trailing separator that asks New for a directory.
func resolveOperand(workingDirectory string, argument string) string {
	resolved := utils.ResolvePath(workingDirectory, argument)
	if len(argument) > 1 && argument[len(argument)-1] == filepath.Separator {
		return resolved + string(filepath.Separator)
	}
	return resolved
}

// visibleAncestors returns the ancestors of path that lie within root.
func visibleAncestors(root string, path string) []string {
	var visible []string
	for _, ancestor := range cartographer.Ancestors(path) {
		if utils.IsWithin(root, ancestor) {
			visible = append(visible, ancestor)
		}
	}
	return visible
}
