// Package cli implements the agenthub command.
package cli

import (
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/agenthub-x/agenthub/internal/cli.version=1.2.3"
	version = "0.4.0"
	logo    = "\n" +
		"    _                    _   _  _       _\n" +
		"   /_\\  __ _ ___ _ _  __| |_| || |_  _| |__\n" +
		"  / _ \\/ _` / -_) ' \\|_   _| __ | || | '_ \\\n" +
		" /_/ \\_\\__, \\___|_||_| |_| |_||_|\\_,_|_.__/\n" +
		"       |___/\n"
)

const defaultServer = "http://localhost:5001"

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agenthub",
		Short:         "AgentHub - marketplace of collaborating AI agents",
		Long:          color.CyanString(logo) + "\nRoutes chat to specialist agents that hire marketplace agents and settle over simulated Cardano rails.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServeCmd(), newChatCmd(), newWatchCmd())
	return root
}

func wsURL(server string) string {
	server = strings.TrimRight(server, "/")
	switch {
	case strings.HasPrefix(server, "https://"):
		return "wss://" + strings.TrimPrefix(server, "https://") + "/ws"
	case strings.HasPrefix(server, "http://"):
		return "ws://" + strings.TrimPrefix(server, "http://") + "/ws"
	}
	return server + "/ws"
}
