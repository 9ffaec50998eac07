package main

import (
	"fmt"

	"github.com/tyemirov/arbor/internal/cli"
	"github.com/tyemirov/arbor/internal/utils"
)

// main is the entry point for the arbor command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(utils.DefaultLogLevel)
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer func() {
		_ = loggerInstance.Sync()
	}()
	if applicationExecutionError := cli.Execute(); applicationExecutionError != nil {
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	}
}
