package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rclobus/libxmlb/internal/silo"
)

var exportCmd = &cobra.Command{
	Use:   "export FILENAME...",
	Short: "Re-emit a compiled silo as XML",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			s, err := silo.Load(path, loadFlags())
			if err != nil {
				return err
			}
			xml, err := s.Export(silo.ExportFlagAddHeader |
				silo.ExportFlagFormatMultiline |
				silo.ExportFlagFormatIndent |
				silo.ExportFlagIncludeSiblings)
			if err != nil {
				_ = s.Close()
				return err
			}
			cmd.Print(xml)
			if err := s.Close(); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
