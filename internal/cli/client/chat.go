package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// ChatRequest represents the chat API request.
type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse represents the chat API response.
type ChatResponse struct {
	SessionID       string `json:"session_id"`
	Response        string `json:"response"`
	QueryType       string `json:"query_type"`
	Urgency         string `json:"urgency,omitempty"`
	Source          string `json:"source"`
	RetrievalStatus string `json:"retrieval_status"`
	Reviewed        bool   `json:"reviewed"`
}

// ChatCmd creates the chat command.
func ChatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat [query]",
		Short: "Ask the veterinary assistant",
		Long:  "Sends a query to the assistant. With no argument, starts an interactive session that keeps conversation context between questions.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("json")
			if len(args) == 1 {
				return runChatOnce(cmd, args[0], sessionID, outputJSON)
			}
			return runChatInteractive(cmd, sessionID)
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID to continue an existing conversation")
	cmd.Flags().Bool("json", false, "Print the raw JSON response")

	return cmd
}

func runChatOnce(cmd *cobra.Command, query, sessionID string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	chatResp, err := sendChat(api, query, sessionID)
	if err != nil {
		return err
	}

	if outputJSON {
		output, _ := json.MarshalIndent(chatResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(chatResp.Response)
	fmt.Printf("\n[session: %s | type: %s | source: %s]\n",
		chatResp.SessionID, chatResp.QueryType, chatResp.Source)
	return nil
}

func runChatInteractive(cmd *cobra.Command, sessionID string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	fmt.Println("Asistente veterinario. Escribe tu consulta ('salir' para terminar).")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "salir" || query == "exit" {
			break
		}

		chatResp, err := sendChat(api, query, sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		// Reuse the server-assigned session for the rest of the conversation
		sessionID = chatResp.SessionID

		fmt.Printf("\n%s\n\n", chatResp.Response)
	}

	return scanner.Err()
}

func sendChat(api *APIClient, query, sessionID string) (*ChatResponse, error) {
	resp, err := api.Post("/v1/chat", ChatRequest{Query: query, SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(resp.Data, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse chat response: %w", err)
	}
	return &chatResp, nil
}
