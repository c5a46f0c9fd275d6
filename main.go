package main

import (
	"os"

	"github.com/impalago/infersema/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "infersema [subcommand]",
	Short:        "infersema infers and checks the types of Impala programs",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.CheckCmd)
}
