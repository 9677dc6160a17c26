package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AskRequest represents the ask API request.
type AskRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id,omitempty"`
	Profile    string `json:"profile,omitempty"`
}

// AskSource represents a source attribution in the ask response.
type AskSource struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

// AskAPIResponse represents the ask API response.
type AskAPIResponse struct {
	Message     string      `json:"message"`
	SearchType  string      `json:"search_type"`
	Sources     []AskSource `json:"sources"`
	SourceCount int         `json:"source_count"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var documentID string
	var profile string

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Ask a question against your documents",
		Long: `Routes the query through classification and retrieval and prints the answer.

Examples:
  # Ask across all documents
  corpora ask "what does the refund policy say about digital goods?"

  # Scope to a single document
  corpora ask "summarize the main findings" --document <document_id>`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAsk(cmd, strings.Join(args, " "), documentID, profile, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&documentID, "document", "d", "", "Restrict retrieval to a single document")
	cmd.Flags().StringVar(&profile, "profile", "", "Answer profile (concise, detailed)")

	return cmd
}

func runAsk(cmd *cobra.Command, query, documentID, profile string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/ask", AskRequest{
		Query:      query,
		DocumentID: documentID,
		Profile:    profile,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	var askResp AskAPIResponse
	if err := json.Unmarshal(resp.Data, &askResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(askResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(askResp.Message)
	if len(askResp.Sources) > 0 {
		fmt.Printf("\nSources (%s):\n", askResp.SearchType)
		for i, src := range askResp.Sources {
			fmt.Printf("  %d. %s [%s]\n", i+1, src.Title, src.Type)
		}
	}

	return nil
}
