package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List Paperless tags",
	Long:  `Lists all tag names, sorted alphabetically. Use these names with --tag.`,
	Args:  cobra.NoArgs,
	RunE:  runTags,
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNotConfigured("document service")
	}

	names, err := documentService.ListTags(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}
	if len(names) == 0 {
		cmd.Println("No tags found.")
		return nil
	}
	for _, name := range names {
		cmd.Println(name)
	}
	return nil
}
