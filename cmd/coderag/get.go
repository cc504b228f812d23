package main

import (
	"github.com/spf13/cobra"
)

func getCmd(flags *appFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <repository> <file_path>",
		Short: "Print the indexed content of a specific file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := buildService(flags)
			if err != nil {
				return err
			}
			defer logger.Sync()

			meta, err := svc.GetEntry(args[0], args[1])
			if err != nil {
				return err
			}
			printEntry(meta)
			return nil
		},
	}
}
