package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agenthub-x/agenthub/types"
)

type chatOptions struct {
	server         string
	conversationID string
	agent          string
	noCollab       bool
	asJSON         bool
	timeout        time.Duration
}

func newChatCmd() *cobra.Command {
	var opts chatOptions
	cmd := &cobra.Command{
		Use:   "chat [flags] <message>",
		Short: "Send one message to a running server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&opts.server, "server", defaultServer, "server base URL")
	cmd.Flags().StringVarP(&opts.conversationID, "conversation", "c", "", "conversation id")
	cmd.Flags().StringVarP(&opts.agent, "agent", "a", "", "address a specific agent by name")
	cmd.Flags().BoolVar(&opts.noCollab, "no-collab", false, "disable marketplace collaboration")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the raw response")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "request timeout")
	_ = cmd.MarkFlagRequired("conversation")
	return cmd
}

func runChat(cmd *cobra.Command, opts chatOptions, message string) error {
	req := types.ChatRequest{ConversationID: opts.conversationID, Message: message, AgentName: opts.agent}
	if opts.noCollab {
		off := false
		req.EnableCollaboration = &off
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, strings.TrimRight(opts.server, "/")+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: opts.timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		var apiErr types.APIError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		_, err = out.Write(data)
		return err
	}

	var chat types.ChatResponse
	if err := json.Unmarshal(data, &chat); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	printChat(out, chat)
	return nil
}

func printChat(w io.Writer, r types.ChatResponse) {
	name := color.New(color.FgGreen, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	content := ""
	if r.AgentMessage != nil {
		content = r.AgentMessage.Content
	}
	fmt.Fprintf(w, "%s: %s\n", name(r.SelectedAgent), content)

	if c := r.Collaboration; c != nil && c.Collaborated {
		fmt.Fprintf(w, "\n%s hired %d agent(s), $%.2f via %s\n", color.CyanString("collaboration"), c.AgentsHired, c.TotalCostUSD, c.PaymentMethod)
		for _, a := range c.Agents {
			fmt.Fprintf(w, "  - %s [%s] %s\n", a.Name, a.Status, dim(a.JobID))
		}
	}
	if len(r.BlockchainActivities) > 0 {
		fmt.Fprintln(w)
		for _, a := range r.BlockchainActivities {
			fmt.Fprintf(w, "  %s %s %s\n", color.YellowString(a.Type), a.Title, dim("("+a.Status+")"))
		}
	}
	if r.IsSimulationMode {
		fmt.Fprintln(w, dim("\nsimulation mode"))
	}
}
