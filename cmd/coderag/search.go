package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"coderag/internal/domain"
	"coderag/internal/tui"
)

func searchCmd(flags *appFlags) *cobra.Command {
	var (
		numResults  int
		repository  string
		fileMode    bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search through indexed code repositories",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if numResults < 1 {
				return fmt.Errorf("number of results must be positive")
			}

			svc, logger, err := buildService(flags)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if interactive {
				m := tui.New(svc, repository, numResults)
				_, err := tea.NewProgram(m).Run()
				return err
			}

			if len(args) == 0 {
				return fmt.Errorf("query argument required (or use --interactive)")
			}
			query := args[0]

			if fileMode {
				matches, err := svc.FindFiles(query, numResults, repository)
				if err != nil {
					return err
				}
				if len(matches) == 0 {
					fmt.Println("No matching files found.")
					return nil
				}
				fmt.Println("Search Results:")
				fmt.Println()
				for _, meta := range matches {
					printEntry(meta)
				}
				return nil
			}

			results, err := svc.Search(cmd.Context(), query, numResults, repository)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("No matches found.")
				return nil
			}
			fmt.Println("Search Results:")
			fmt.Println()
			for _, r := range results {
				fmt.Printf("File: %s\n", r.Meta.File)
				fmt.Printf("Repository: %s\n", r.Meta.Repo)
				fmt.Printf("Score: %.2f\n", r.Score)
				fmt.Printf("Code:\n```%s\n%s\n```\n\n", r.Meta.Language, r.Meta.Code)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&numResults, "num-results", "n", 5, "number of results to return")
	cmd.Flags().StringVar(&repository, "repository", "", "specific repository to search in")
	cmd.Flags().BoolVar(&fileMode, "file-mode", false, "search for files by path instead of semantically")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "open an interactive search session")

	return cmd
}

func printEntry(meta domain.Metadata) {
	fmt.Printf("File: %s\n", meta.File)
	fmt.Printf("Repository: %s\n", meta.Repo)
	fmt.Printf("Code:\n```%s\n%s\n```\n\n", meta.Language, meta.Code)
}
