package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agenthub-x/agenthub/logger"
	"github.com/agenthub-x/agenthub/types"
	"github.com/agenthub-x/agenthub/websocket"
)

func newWatchCmd() *cobra.Command {
	var (
		server         string
		conversationID string
		maxAttempts    int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream collaboration events from a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.GetLogger()
			log.SetJSONFormat(false)
			log.SetOutput(cmd.ErrOrStderr())

			rc, err := websocket.NewReconnectingClient(wsURL(server), log)
			if err != nil {
				return err
			}
			rc.SetMaxAttempts(maxAttempts)
			sub, err := json.Marshal(map[string]string{"type": "subscribe_collaboration", "conversation_id": conversationID})
			if err != nil {
				return err
			}
			rc.SetOnConnect(func() { _ = rc.Send(sub) })

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- rc.Run(ctx) }()

			out := cmd.OutOrStdout()
			for raw := range rc.Messages() {
				printEvent(out, raw)
			}
			return <-errc
		},
	}
	cmd.Flags().StringVar(&server, "server", defaultServer, "server base URL")
	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "conversation to subscribe to")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "give up after this many failed connects (0 = never)")
	return cmd
}

func printEvent(w io.Writer, raw []byte) {
	var msg types.WebSocketMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		fmt.Fprintf(w, "%s\n", raw)
		return
	}
	if msg.Type == types.WSTypeHeartbeat {
		return
	}
	stamp := color.New(color.Faint).Sprint(clock(msg.Timestamp))
	if msg.Type != types.WSTypeCollaboration {
		fmt.Fprintf(w, "%s %s\n", stamp, color.BlueString(msg.Type))
		return
	}

	payload, _ := json.Marshal(msg.Payload)
	var ev types.CollaborationEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		fmt.Fprintf(w, "%s %s %s\n", stamp, msg.Type, payload)
		return
	}
	fmt.Fprintf(w, "%s %s %s\n", stamp, eventColor(ev.Type)(ev.Type), formatData(ev.Data))
}

func eventColor(t string) func(format string, a ...interface{}) string {
	switch t {
	case types.EventCollaborationStart, types.EventCollaborationComplete:
		return color.CyanString
	case types.EventAgentHiring:
		return color.YellowString
	case types.EventAgentCompleted:
		return color.GreenString
	}
	return color.WhiteString
}

func formatData(data map[string]interface{}) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
	}
	return strings.Join(parts, " ")
}

func clock(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("15:04:05")
}
