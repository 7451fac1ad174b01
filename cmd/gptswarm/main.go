// Command gptswarm dispatches batches of chat completions against a
// rate-limited provider API.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "gptswarm",
		Short:         "Rate-limited concurrent dispatch of chat completions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSwarmCmd())

	if err := root.Execute(); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
