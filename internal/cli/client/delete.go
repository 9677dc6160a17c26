package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// DeleteCmd creates the delete command.
func DeleteCmd() *cobra.Command {
	var idempotencyKey string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document and its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runDelete(cmd, args[0], idempotencyKey, outputJSON)
		},
	}

	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key for safe retries")

	return cmd
}

func runDelete(cmd *cobra.Command, documentID, idempotencyKey string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	opts := RequestOptions{IdempotencyKey: idempotencyKey}
	if _, err := api.DeleteWithOptions(fmt.Sprintf("/documents/%s", documentID), opts); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(map[string]interface{}{
			"id":      documentID,
			"deleted": true,
		}, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Deleted document: %s\n", documentID)
	}

	return nil
}
