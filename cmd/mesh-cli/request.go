package main

import (
	"github.com/spf13/cobra"

	"github.com/heurist-network/mesh-client-go/pkg/logger"
)

// requestCmd creates the request subcommand
func requestCmd() *cobra.Command {
	var (
		agentID  string
		query    string
		tool     string
		toolArgs string
		raw      bool
	)

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Run a synchronous request against an agent",
		Long:  "Send a query or tool invocation to an agent and block until it answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := parseInput(query, tool, toolArgs, raw)
			if err != nil {
				return err
			}

			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			log := logger.Named("request")
			log.Debug("sending synchronous request", "agent_id", agentID, "tool", tool)

			resp, err := client.SyncRequest(cmd.Context(), agentID, input)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}

	cmd.Flags().StringVar(&agentID, "agent", "", "Agent identifier")
	cmd.Flags().StringVar(&query, "query", "", "Natural language query")
	cmd.Flags().StringVar(&tool, "tool", "", "Tool name to invoke")
	cmd.Flags().StringVar(&toolArgs, "args", "", "Tool arguments as a JSON object")
	cmd.Flags().BoolVar(&raw, "raw", false, "Request raw data instead of a natural language answer")
	_ = cmd.MarkFlagRequired("agent")

	return cmd
}
