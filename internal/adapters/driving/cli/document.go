package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage indexed documents",
	Long: `Register documents and their chunks, and move documents through their
processing lifecycle. Only completed documents are searchable.`,
}

var documentAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Register a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentAdd,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentStatusCmd = &cobra.Command{
	Use:   "status [doc-id] [pending|processing|completed|failed]",
	Short: "Set document processing status",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocumentStatus,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document with its chunks and embeddings",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Manage document chunks",
}

var chunkAddCmd = &cobra.Command{
	Use:   "add [doc-id]",
	Short: "Add or update a chunk",
	Long: `Stores a chunk of a document. Updating a chunk invalidates the embeddings
of every field whose text changed; run 'sercha-rag index' to recompute them.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunkAdd,
}

var chunkGetCmd = &cobra.Command{
	Use:   "get [chunk-id]",
	Short: "Show a chunk",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunkGet,
}

var (
	documentID  string
	documentURI string

	chunkID          string
	chunkPosition    int
	chunkContent     string
	chunkContentFile string
	chunkHeader      string
	chunkNotes       string
	chunkDetails     string
)

func init() {
	documentAddCmd.Flags().StringVar(&documentID, "id", "", "document ID (default: generated)")
	documentAddCmd.Flags().StringVar(&documentURI, "uri", "", "original location of the document")

	chunkAddCmd.Flags().StringVar(&chunkID, "id", "", "chunk ID (default: generated)")
	chunkAddCmd.Flags().IntVar(&chunkPosition, "position", 0, "ordinal position within the document")
	chunkAddCmd.Flags().StringVarP(&chunkContent, "content", "c", "", "chunk text")
	chunkAddCmd.Flags().StringVarP(&chunkContentFile, "file", "f", "", "read chunk text from a file")
	chunkAddCmd.Flags().StringVar(&chunkHeader, "header", "", "heading path, e.g. \"Install > Linux\"")
	chunkAddCmd.Flags().StringVar(&chunkNotes, "notes", "", "notes attached to the chunk")
	chunkAddCmd.Flags().StringVar(&chunkDetails, "details", "", "supplementary details")
	chunkAddCmd.MarkFlagsMutuallyExclusive("content", "file")

	chunkCmd.AddCommand(chunkAddCmd)
	chunkCmd.AddCommand(chunkGetCmd)

	documentCmd.AddCommand(documentAddCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentStatusCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(chunkCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentAdd(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc := &domain.Document{ID: documentID, Title: args[0], URI: documentURI}
	if err := documentService.Save(cmd.Context(), doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	cmd.Printf("Document %s saved (%s).\n", doc.ID, doc.Status)
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:    %s\n", doc.Title)
	cmd.Printf("  URI:      %s\n", doc.URI)
	cmd.Printf("  Status:   %s\n", doc.Status)
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	if len(doc.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		keys := make([]string, 0, len(doc.Metadata))
		for k := range doc.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Printf("    %s: %v\n", k, doc.Metadata[k])
		}
	}

	return nil
}

func runDocumentStatus(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	status := domain.DocumentStatus(args[1])
	if !status.IsValid() {
		return fmt.Errorf("invalid status %q: use pending, processing, completed or failed", args[1])
	}

	if err := documentService.SetStatus(cmd.Context(), args[0], status); err != nil {
		return fmt.Errorf("failed to set document status: %w", err)
	}

	cmd.Printf("Document %s is now %s.\n", args[0], status)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

func runChunkAdd(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	content := chunkContent
	if chunkContentFile != "" {
		data, err := os.ReadFile(chunkContentFile)
		if err != nil {
			return fmt.Errorf("failed to read chunk file: %w", err)
		}
		content = string(data)
	}

	chunk := &domain.Chunk{
		ID:            chunkID,
		DocumentID:    args[0],
		Position:      chunkPosition,
		Content:       content,
		HeaderContext: chunkHeader,
		Notes:         chunkNotes,
		Details:       chunkDetails,
	}
	if err := documentService.AddChunk(cmd.Context(), chunk); err != nil {
		return fmt.Errorf("failed to save chunk: %w", err)
	}

	cmd.Printf("Chunk %s saved.\n", chunk.ID)
	return nil
}

func runChunkGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	chunk, err := documentService.GetChunk(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get chunk: %w", err)
	}

	cmd.Printf("Chunk: %s\n\n", chunk.ID)
	cmd.Printf("  Document: %s\n", chunk.DocumentID)
	cmd.Printf("  Position: %d\n", chunk.Position)
	for _, f := range domain.AllChunkFields() {
		if text := chunk.FieldText(f); text != "" {
			cmd.Printf("\n  [%s]\n  %s\n", f, text)
		}
	}
	return nil
}
