package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchMatch represents one retrieved chunk.
type SearchMatch struct {
	Key      string  `json:"key"`
	Category string  `json:"category,omitempty"`
	Topic    string  `json:"topic,omitempty"`
	Distance float32 `json:"distance"`
	Content  string  `json:"content"`
}

// SearchResponse represents the search API response.
type SearchResponse struct {
	Outcome string        `json:"outcome"`
	Answer  string        `json:"answer"`
	Matches []SearchMatch `json:"matches"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the knowledge base",
		Long:  "Runs a semantic search against the knowledge base and prints the matches with their distances. Useful for calibrating the confidence threshold.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("json")
			return runClientSearch(cmd, args[0], topK, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "n", 0, "Number of neighbors to retrieve (0 uses the server default)")
	cmd.Flags().Bool("json", false, "Print the raw JSON response")

	return cmd
}

func runClientSearch(cmd *cobra.Command, query string, topK int, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/v1/search", SearchRequest{Query: query, TopK: topK})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(searchResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Outcome: %s\n\n", searchResp.Outcome)
	if len(searchResp.Matches) == 0 {
		fmt.Println(searchResp.Answer)
		return nil
	}

	for i, match := range searchResp.Matches {
		fmt.Printf("%d. %s (distance: %.4f)\n", i+1, match.Key, match.Distance)
		if match.Category != "" {
			fmt.Printf("   Category: %s\n", match.Category)
		}
		content := match.Content
		if len(content) > 200 {
			content = content[:197] + "..."
		}
		fmt.Printf("   %s\n", content)
		if i < len(searchResp.Matches)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}
