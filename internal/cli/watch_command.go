package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/arbor/internal/session"
	"github.com/tyemirov/arbor/internal/types"
	"github.com/tyemirov/arbor/internal/watch"
)

const (
	watchUse              = "watch [path]"
	watchAlias            = "w"
	watchShortDescription = "render the tree and re-render it on every change (" + watchAlias + ")"
	watchLongDescription  = `Render the tree, then watch every listed directory and render it again after
each batch of changes. Stop with Ctrl+C.`

	logMessageRenderFailed = "render failed"
)

func createWatchCommand(app *application) *cobra.Command {
	var options treeOptions

	watchCommand := &cobra.Command{
		Use:     watchUse,
		Aliases: []string{watchAlias},
		Short:   watchShortDescription,
		Long:    watchLongDescription,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			settings, settingsError := app.resolveTreeSettings(command, options, firstArgument(arguments))
			if settingsError != nil {
				return settingsError
			}
			return app.watchTree(command.Context(), settings)
		},
	}
	registerTreeFlags(watchCommand.Flags(), &options)
	return watchCommand
}

// watchTree renders once and then after every applied change batch until ctx
// is cancelled.
func (app *application) watchTree(ctx context.Context, settings treeSettings) error {
	treeCartographer := app.newCartographer(settings)
	_, index, walkError := app.walkTree(ctx, treeCartographer, settings)
	if walkError != nil {
		return walkError
	}
	expanded := make([]string, 0, len(index))
	for path := range index {
		expanded = append(expanded, path)
	}

	state := session.New(treeCartographer, app.logger)
	snapshot, openError := state.Open(ctx, settings.root, expanded...)
	if openError != nil {
		return openError
	}
	if renderError := app.render(settings, snapshot); renderError != nil {
		return renderError
	}

	notifier, notifierError := watch.NewNotifier(watch.Options{
		Debounce: settings.debounce,
		Ignore:   settings.rules.Predicate(),
		Logger:   app.logger,
	})
	if notifierError != nil {
		return notifierError
	}
	defer func() {
		_ = notifier.Close()
	}()

	runError := notifier.Run(ctx, state, func(updated *types.Node) {
		if renderError := app.render(settings, updated); renderError != nil {
			app.logger.Warn(logMessageRenderFailed, zap.Error(renderError))
		}
	})
	if errors.Is(runError, context.Canceled) {
		return nil
	}
	return runError
}
