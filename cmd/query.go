package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rclobus/libxmlb/internal/silo"
)

var queryCmd = &cobra.Command{
	Use:   "query FILENAME XPATH",
	Short: "Query a compiled silo",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := silo.Load(args[0], loadFlags())
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		n, err := s.QueryFirst(args[1])
		if err != nil {
			return err
		}
		cmd.Printf("RESULT: %s\n", n.Text())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
