package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"coderag/internal/domain"
)

func indexCmd(flags *appFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "index <repo_path>",
		Short: "Index a repository for searching",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := buildService(flags)
			if err != nil {
				return err
			}
			defer logger.Sync()

			repo, count, err := svc.UpdateIndex(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, domain.ErrEmptyInput) {
					return fmt.Errorf("no files to index in %s", args[0])
				}
				return err
			}
			fmt.Printf("Successfully indexed %d files from %s\n", count, repo)
			return nil
		},
	}
}
