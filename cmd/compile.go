package cmd

import (
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/rclobus/libxmlb/internal/builder"
)

var compileCmd = &cobra.Command{
	Use:   "compile FILENAME-OUT FILENAME-IN...",
	Short: "Compile XML to a binary silo",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := osfs.New(string(filepath.Separator))
		b := builder.New()
		for _, in := range args[1:] {
			abs, err := filepath.Abs(in)
			if err != nil {
				return err
			}
			if err := b.ImportFile(fs, abs); err != nil {
				return err
			}
		}
		out, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		return b.WriteFile(fs, out)
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
}
