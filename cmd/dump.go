package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rclobus/libxmlb/internal/silo"
)

var dumpCmd = &cobra.Command{
	Use:   "dump FILENAME...",
	Short: "Dump a compiled silo as text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			s, err := silo.Load(path, loadFlags())
			if err != nil {
				return err
			}
			cmd.Print(s.String())
			if err := s.Close(); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
