package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tyemirov/arbor/internal/cartographer"
	"github.com/tyemirov/arbor/internal/config"
	"github.com/tyemirov/arbor/internal/ignore"
	"github.com/tyemirov/arbor/internal/output"
	"github.com/tyemirov/arbor/internal/types"
	"github.com/tyemirov/arbor/internal/utils"
	"github.com/tyemirov/arbor/internal/watch"
)

const (
	formatFlagName         = "format"
	workersFlagName        = "workers"
	batchSizeFlagName      = "batch-size"
	expandFlagName         = "expand"
	expandFlagShorthand    = "x"
	expandAllFlagName      = "expand-all"
	clipboardFlagName      = "clipboard"
	summaryFlagName        = "summary"
	includeGitFlagName     = "git"
	ignoreNameFlagName     = "ignore"
	ignoreNameGlobFlagName = "ignore-glob"
	ignorePathGlobFlagName = "ignore-path"
	gitDirectoryName       = ".git"
	defaultPath            = "."
	treeUse                = "tree [path]"
	treeAlias              = "t"
	treeShortDescription   = "display directory tree (" + treeAlias + ")"
	treeLongDescription    = `Walk a directory and render the tree.
Only the root and the directories passed with --expand are listed; --expand-all
lists every directory reachable without following symlinks.`
	treeUsageExample = `  # Render the working directory with two directories open
  arbor tree -x internal -x cmd

  # Render everything as JSON, hiding build output
  arbor tree --expand-all --format json --ignore bin .`

	formatFlagDescription         = "output format (raw, json, xml)"
	workersFlagDescription        = "number of concurrent filesystem workers (0 uses the CPU count)"
	batchSizeFlagDescription      = "entries handled by one worker task"
	expandFlagDescription         = "directory to list, relative to the root (repeatable)"
	expandAllFlagDescription      = "list every directory"
	clipboardFlagDescription      = "copy the rendered output to the system clipboard"
	summaryFlagDescription        = "append a summary line to raw output"
	includeGitFlagDescription     = "include the .git directory"
	ignoreNameFlagDescription     = "hide entries with this exact name (repeatable)"
	ignoreNameGlobFlagDescription = "hide entries whose name matches this glob (repeatable)"
	ignorePathGlobFlagDescription = "hide entries whose full path matches this glob (repeatable)"

	invalidFormatMessage    = "invalid format value '%s'"
	loadIgnoreFileFormat    = "load %s: %w"
	logMessageExpandAllPass = "expanding directories"
	logFieldCount           = "count"
)

// treeOptions stores the flag values shared by every tree-rendering command.
type treeOptions struct {
	format          string
	workers         int
	batchSize       int
	expand          []string
	expandAll       bool
	clipboard       bool
	summary         bool
	includeGit      bool
	ignoreNames     []string
	ignoreNameGlobs []string
	ignorePathGlobs []string
}

// treeSettings is the effective configuration after flags override files.
type treeSettings struct {
	root      string
	format    string
	workers   int
	batchSize int
	expand    []string
	expandAll bool
	clipboard bool
	summary   bool
	rules     ignore.Rules
	debounce  time.Duration
}

func registerTreeFlags(flagSet *pflag.FlagSet, options *treeOptions) {
	flagSet.StringVar(&options.format, formatFlagName, types.FormatRaw, formatFlagDescription)
	flagSet.IntVar(&options.workers, workersFlagName, 0, workersFlagDescription)
	flagSet.IntVar(&options.batchSize, batchSizeFlagName, cartographer.DefaultBatchSize, batchSizeFlagDescription)
	flagSet.StringArrayVarP(&options.expand, expandFlagName, expandFlagShorthand, nil, expandFlagDescription)
	registerToggleFlag(flagSet, &options.expandAll, expandAllFlagName, false, expandAllFlagDescription)
	registerToggleFlag(flagSet, &options.clipboard, clipboardFlagName, false, clipboardFlagDescription)
	registerToggleFlag(flagSet, &options.summary, summaryFlagName, true, summaryFlagDescription)
	registerToggleFlag(flagSet, &options.includeGit, includeGitFlagName, false, includeGitFlagDescription)
	flagSet.StringArrayVar(&options.ignoreNames, ignoreNameFlagName, nil, ignoreNameFlagDescription)
	flagSet.StringArrayVar(&options.ignoreNameGlobs, ignoreNameGlobFlagName, nil, ignoreNameGlobFlagDescription)
	flagSet.StringArrayVar(&options.ignorePathGlobs, ignorePathGlobFlagName, nil, ignorePathGlobFlagDescription)
}

// isSupportedFormat reports whether the provided format is recognized.
func isSupportedFormat(format string) bool {
	switch format {
	case types.FormatRaw, types.FormatJSON, types.FormatXML:
		return true
	default:
		return false
	}
}

// createTreeCommand returns the tree subcommand.
func createTreeCommand(app *application) *cobra.Command {
	var options treeOptions

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			settings, settingsError := app.resolveTreeSettings(command, options, firstArgument(arguments))
			if settingsError != nil {
				return settingsError
			}
			treeCartographer := app.newCartographer(settings)
			snapshot, _, walkError := app.walkTree(command.Context(), treeCartographer, settings)
			if walkError != nil {
				return walkError
			}
			return app.render(settings, snapshot)
		},
	}
	registerTreeFlags(treeCommand.Flags(), &options)
	return treeCommand
}

func firstArgument(arguments []string) string {
	if len(arguments) == 0 {
		return defaultPath
	}
	return arguments[0]
}

// resolveTreeSettings merges configuration files, the root's ignore file and
// flags. A flag wins only when it was set explicitly.
func (app *application) resolveTreeSettings(command *cobra.Command, options treeOptions, rootArgument string) (treeSettings, error) {
	flags := command.Flags()
	configured := app.configuration.Tree
	settings := treeSettings{
		root:      utils.ResolvePath(app.workingDirectory, rootArgument),
		format:    types.FormatRaw,
		batchSize: cartographer.DefaultBatchSize,
		summary:   options.summary,
		debounce:  watch.DefaultDebounce,
	}

	if configured.Format != "" {
		settings.format = configured.Format
	}
	if flags.Changed(formatFlagName) {
		settings.format = options.format
	}
	settings.format = strings.ToLower(settings.format)
	if !isSupportedFormat(settings.format) {
		return treeSettings{}, fmt.Errorf(invalidFormatMessage, settings.format)
	}

	settings.workers = pickInt(flags.Changed(workersFlagName), options.workers, configured.Workers, 0)
	settings.batchSize = pickInt(flags.Changed(batchSizeFlagName), options.batchSize, configured.BatchSize, settings.batchSize)
	settings.expandAll = pickBool(flags.Changed(expandAllFlagName), options.expandAll, configured.ExpandAll)
	settings.clipboard = pickBool(flags.Changed(clipboardFlagName), options.clipboard, configured.Clipboard)
	if configured.WatchDebounce > 0 {
		settings.debounce = configured.WatchDebounce
	}
	settings.expand = utils.ResolvePaths(settings.root, append(append([]string{}, configured.Expand...), options.expand...))

	fileRules, ignoreFileError := config.LoadIgnoreFile(filepath.Join(settings.root, utils.IgnoreFileName))
	if ignoreFileError != nil {
		return treeSettings{}, fmt.Errorf(loadIgnoreFileFormat, utils.IgnoreFileName, ignoreFileError)
	}
	var rules ignore.Rules
	if !options.includeGit {
		rules.Names = []string{gitDirectoryName}
	}
	settings.rules = rules.
		Merge(configured.Ignore).
		Merge(fileRules).
		Merge(ignore.Rules{
			Names:     options.ignoreNames,
			NameGlobs: options.ignoreNameGlobs,
			PathGlobs: options.ignorePathGlobs,
		})
	return settings, nil
}

func pickInt(flagChanged bool, flagValue int, configured *int, fallback int) int {
	switch {
	case flagChanged:
		return flagValue
	case configured != nil:
		return *configured
	default:
		return fallback
	}
}

func pickBool(flagChanged bool, flagValue bool, configured *bool) bool {
	if flagChanged || configured == nil {
		return flagValue
	}
	return *configured
}

func (app *application) newCartographer(settings treeSettings) *cartographer.Cartographer {
	return cartographer.New(cartographer.Options{
		Workers:   settings.workers,
		BatchSize: settings.batchSize,
		Ignore:    settings.rules.Predicate(),
		Logger:    app.logger,
	})
}

// expansionIndex returns the index for the configured root and directories.
func (settings treeSettings) expansionIndex() types.ExpansionIndex {
	index := types.NewExpansionIndex(settings.root)
	for _, path := range settings.expand {
		index[path] = struct{}{}
	}
	return index
}

// walkTree materialises the tree. With expand-all it keeps expanding newly
// discovered directories until the index stops growing.
func (app *application) walkTree(ctx context.Context, treeCartographer *cartographer.Cartographer, settings treeSettings) (*types.Node, types.ExpansionIndex, error) {
	index := settings.expansionIndex()
	snapshot, walkError := treeCartographer.Walk(ctx, settings.root, index)
	if walkError != nil {
		return nil, nil, walkError
	}
	if !settings.expandAll {
		return snapshot, index, nil
	}
	for {
		discovered := collapsedDirectories(snapshot, index)
		if len(discovered) == 0 {
			return snapshot, index, nil
		}
		app.logger.Debug(logMessageExpandAllPass, zap.Int(logFieldCount, len(discovered)))
		for _, path := range discovered {
			index[path] = struct{}{}
		}
		snapshot, walkError = treeCartographer.Update(ctx, snapshot, index, discovered)
		if walkError != nil {
			return nil, nil, walkError
		}
	}
}

// collapsedDirectories lists directories of node that are not yet in index.
// Symlinked directories are left collapsed so cycles cannot grow the tree.
func collapsedDirectories(node *types.Node, index types.ExpansionIndex) []string {
	var collapsed []string
	var visit func(*types.Node)
	visit = func(current *types.Node) {
		if current.IsDir() && !current.Mode.Has(types.ModeLink) && !index.Contains(current.Path) {
			collapsed = append(collapsed, current.Path)
		}
		for _, child := range current.Children {
			visit(child)
		}
	}
	visit(node)
	return collapsed
}

func (app *application) render(settings treeSettings, snapshot *types.Node) error {
	rendered, renderError := output.Render(settings.format, snapshot, settings.summary)
	if renderError != nil {
		return renderError
	}
	return app.emit(rendered, settings.clipboard)
}
