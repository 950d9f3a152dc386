package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Browse documents in Paperless",
	Long:  `List documents, view their metadata, or print their full text.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents, newest first",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

// Flags for the list command.
var (
	listTag      string
	listPage     int
	listPageSize int
)

func init() {
	documentListCmd.Flags().StringVarP(&listTag, "tag", "t", "", "only documents with this tag")
	documentListCmd.Flags().IntVarP(&listPage, "page", "p", 1, "page number")
	documentListCmd.Flags().IntVarP(&listPageSize, "page-size", "n", 25, "documents per page (max 100)")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNotConfigured("document service")
	}

	page, err := documentService.List(cmd.Context(), driving.ListRequest{
		Tag:      listTag,
		Page:     listPage,
		PageSize: listPageSize,
	})
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(page.Documents) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	cmd.Printf("Found %d documents (showing %d):\n\n", page.Count, len(page.Documents))
	for _, doc := range page.Documents {
		cmd.Printf("  [%d] %s (%s)\n", doc.ID, doc.Title, doc.Created.Format(time.DateOnly))
		if doc.Filename != "" {
			cmd.Printf("      File: %s\n", doc.Filename)
		}
	}
	if page.HasNext {
		cmd.Printf("\nMore documents available: use --page %d\n", listPage+1)
	}
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	details, err := getDocument(cmd, args[0])
	if err != nil {
		return err
	}

	doc := details.Document
	cmd.Printf("ID:      %d\n", doc.ID)
	cmd.Printf("Title:   %s\n", doc.Title)
	cmd.Printf("Created: %s\n", doc.Created.Format(time.DateOnly))
	cmd.Printf("File:    %s\n", doc.Filename)
	if len(details.TagNames) > 0 {
		cmd.Printf("Tags:    %s\n", strings.Join(details.TagNames, ", "))
	}
	if doc.CorrespondentID != nil {
		cmd.Printf("Correspondent: %d\n", *doc.CorrespondentID)
	}
	if doc.DocumentTypeID != nil {
		cmd.Printf("Document type: %d\n", *doc.DocumentTypeID)
	}
	cmd.Printf("Length:  %d characters\n", len([]rune(doc.Content)))
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	details, err := getDocument(cmd, args[0])
	if err != nil {
		return err
	}
	if details.Document.Content == "" {
		cmd.Println("(no text content)")
		return nil
	}
	cmd.Println(details.Document.Content)
	return nil
}

func getDocument(cmd *cobra.Command, arg string) (*driving.DocumentDetails, error) {
	if documentService == nil {
		return nil, errNotConfigured("document service")
	}
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid document id %q", arg)
	}
	details, err := documentService.Get(cmd.Context(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return details, nil
}
