package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// DownloadURLResponse represents the download URL API response.
type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
}

// GetCmd creates the get command.
func GetCmd() *cobra.Command {
	var download bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a document's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGet(cmd, args[0], download, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&download, "download-url", false, "Print a presigned download URL instead of metadata")

	return cmd
}

func runGet(cmd *cobra.Command, documentID string, download, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	if download {
		resp, err := api.Get(fmt.Sprintf("/documents/%s/download", documentID))
		if err != nil {
			return fmt.Errorf("failed to get download URL: %w", err)
		}

		var urlResp DownloadURLResponse
		if err := json.Unmarshal(resp.Data, &urlResp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		fmt.Println(urlResp.DownloadURL)
		return nil
	}

	resp, err := api.Get(fmt.Sprintf("/documents/%s", documentID))
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Filename: %s\n", doc.Filename)
	fmt.Printf("Status: %s\n", doc.Status)
	fmt.Printf("MIME: %s\n", doc.MimeType)
	fmt.Printf("Chunks: %d\n", doc.ChunkCount)
	if doc.SHA256 != "" {
		fmt.Printf("SHA256: %s\n", doc.SHA256)
	}
	fmt.Printf("Created: %s\n", doc.CreatedAt)
	fmt.Printf("ID: %s\n", doc.ID)

	return nil
}
