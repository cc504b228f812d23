package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func cloneCmd(flags *appFlags) *cobra.Command {
	var branch string

	cmd := &cobra.Command{
		Use:   "clone <repository_url>",
		Short: "Clone a GitHub repository for indexing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := buildService(flags)
			if err != nil {
				return err
			}
			defer logger.Sync()

			path, err := svc.Clone(cmd.Context(), args[0], branch)
			if err != nil {
				return err
			}
			fmt.Printf("Successfully cloned repository to %s\n", path)
			fmt.Printf("To index it, run: coderag index %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&branch, "branch", "b", "", "specific branch to clone")
	return cmd
}
