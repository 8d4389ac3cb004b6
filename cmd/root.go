package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rclobus/libxmlb/internal/silo"
)

var (
	verbose bool
	force   bool
)

var rootCmd = &cobra.Command{
	Use:           "xb-tool",
	Short:         "Binary XML utility",
	Long:          "Compile XML to the binary silo format, and dump, query or re-export compiled silos.",
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Argument validation runs before this hook, so usage help is
		// printed for bad invocations but not for runtime failures.
		cmd.Root().SilenceUsage = true
		silo.Verbose = verbose
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print verbose debug statements")
	rootCmd.PersistentFlags().BoolVarP(&force, "force", "f", false, "Force parsing of invalid files")
}

// loadFlags translates the --force flag into silo load flags.
func loadFlags() silo.LoadFlag {
	if force {
		return silo.LoadFlagNoMagic
	}
	return silo.LoadFlagNone
}

// Execute runs the CLI, printing the failure and exiting 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln(err)
		os.Exit(1)
	}
}
