package client

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// InitUploadRequest represents the upload init API request.
type InitUploadRequest struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
}

// InitUploadResponse represents the upload init API response.
type InitUploadResponse struct {
	DocumentID string `json:"document_id"`
	StorageKey string `json:"storage_key"`
	UploadURL  string `json:"upload_url"`
}

// CompleteUploadRequest represents the upload complete API request.
type CompleteUploadRequest struct {
	DocumentID string `json:"document_id"`
	StorageKey string `json:"storage_key"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type"`
	SHA256     string `json:"sha256,omitempty"`
}

// Document represents a document as returned by the API.
type Document struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type"`
	SHA256     string `json:"sha256,omitempty"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// AddCmd creates the add command.
func AddCmd() *cobra.Command {
	var mimeType string
	var name string

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Upload a document",
		Long: `Uploads a file and queues it for chunking and embedding.

Examples:
  # Upload a text file
  corpora add notes.txt

  # Override the stored filename and MIME type
  corpora add report.bin --name report.txt --mime text/plain`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAdd(cmd, args[0], name, mimeType, outputJSON)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Filename to store (defaults to the file's base name)")
	cmd.Flags().StringVar(&mimeType, "mime", "", "MIME type (detected from extension if not set)")

	return cmd
}

func runAdd(cmd *cobra.Command, filePath, name, mimeType string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if name == "" {
		name = filepath.Base(filePath)
	}
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(name))
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return fmt.Errorf("failed to hash file: %w", err)
	}
	digest := hex.EncodeToString(hasher.Sum(nil))
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind file: %w", err)
	}

	resp, err := api.Post("/documents/upload/init", InitUploadRequest{
		Filename: name,
		MimeType: mimeType,
	})
	if err != nil {
		return fmt.Errorf("failed to init upload: %w", err)
	}

	var initResp InitUploadResponse
	if err := json.Unmarshal(resp.Data, &initResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if err := api.UploadReader(initResp.UploadURL, file, stat.Size(), mimeType); err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	resp, err = api.Post("/documents/upload/complete", CompleteUploadRequest{
		DocumentID: initResp.DocumentID,
		StorageKey: initResp.StorageKey,
		Filename:   name,
		MimeType:   mimeType,
		SHA256:     digest,
	})
	if err != nil {
		return fmt.Errorf("failed to complete upload: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Uploaded %s (%d bytes)\n", doc.Filename, stat.Size())
		fmt.Printf("ID: %s\n", doc.ID)
		fmt.Printf("Status: %s\n", doc.Status)
	}

	return nil
}
