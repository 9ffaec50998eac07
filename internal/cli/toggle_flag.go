package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	toggleFlagTypeName       = "toggle"
	toggleAcceptedLiterals   = "true, false, yes, no, on, off, 1, 0"
	toggleInvalidValueFormat = "invalid value %q for --%s; accepted values: %s"
	flagArgumentTerminator   = "--"
	longFlagPrefix           = "--"
)

var toggleLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

func parseToggleLiteral(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return true, true
	}
	value, known := toggleLiterals[normalized]
	return value, known
}

// toggleFlag is a boolean flag that also accepts a separate literal argument,
// so both --clipboard and --clipboard off work.
type toggleFlag struct {
	target *bool
	name   string
}

func (flag *toggleFlag) Set(input string) error {
	value, known := parseToggleLiteral(input)
	if !known {
		return fmt.Errorf(toggleInvalidValueFormat, input, flag.name, toggleAcceptedLiterals)
	}
	*flag.target = value
	return nil
}

func (flag *toggleFlag) String() string {
	if flag.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*flag.target)
}

func (flag *toggleFlag) Type() string {
	return toggleFlagTypeName
}

func registerToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	*target = defaultValue
	flagSet.Var(&toggleFlag{target: target, name: name}, name, usage)
	registered := flagSet.Lookup(name)
	registered.DefValue = strconv.FormatBool(defaultValue)
	registered.NoOptDefVal = strconv.FormatBool(true)
}

// normalizeToggleArguments joins "--flag literal" pairs into "--flag=literal"
// for every toggle flag known to command or its subcommands.
func normalizeToggleArguments(command *cobra.Command, arguments []string) []string {
	toggles := map[string]struct{}{}
	collectToggleNames(command, toggles)
	if len(toggles) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		current := arguments[index]
		if current == flagArgumentTerminator {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		name := strings.TrimPrefix(current, longFlagPrefix)
		_, isToggle := toggles[name]
		if isToggle && strings.HasPrefix(current, longFlagPrefix) && index+1 < len(arguments) {
			next := arguments[index+1]
			if _, known := toggleLiterals[strings.ToLower(strings.TrimSpace(next))]; known {
				normalized = append(normalized, current+"="+next)
				index++
				continue
			}
		}
		normalized = append(normalized, current)
	}
	return normalized
}

func collectToggleNames(command *cobra.Command, target map[string]struct{}) {
	collect := func(flag *pflag.Flag) {
		if flag.Value.Type() == toggleFlagTypeName {
			target[flag.Name] = struct{}{}
		}
	}
	command.PersistentFlags().VisitAll(collect)
	command.Flags().VisitAll(collect)
	for _, child := range command.Commands() {
		collectToggleNames(child, target)
	}
}
