package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/heurist-network/mesh-client-go/internal/meshtest"
	"github.com/heurist-network/mesh-client-go/mesh"
)

// demoCmd creates the demo subcommand. It runs the full client surface
// against an in-process fake sequencer, so it works without an API key or
// network access.
func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Exercise the client against a local fake sequencer",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := meshtest.NewServer()
			defer srv.Close()

			client, err := mesh.NewClient(
				mesh.WithAPIKey("demo-key"),
				mesh.WithBaseURL(srv.URL),
			)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx := cmd.Context()
			const agentID = "CoinGeckoTokenInfoAgent"

			fmt.Println("creating task...")
			task, err := client.CreateTask(ctx, agentID, mesh.TaskInput{
				Query: "What is the current price of Bitcoin?",
			})
			if err != nil {
				return err
			}
			fmt.Printf("task created: %s\n", task.TaskID)

			res, err := client.WaitForTask(ctx, agentID, task.TaskID,
				mesh.WithPollInterval(100*time.Millisecond),
				mesh.WithStepFunc(func(step mesh.ReasoningStep) {
					fmt.Printf("step: %s\n", step.Content)
				}),
			)
			if err != nil {
				return err
			}
			fmt.Println("task completed:")
			if err := printJSON(res.Result); err != nil {
				return err
			}

			fmt.Println("running synchronous tool request...")
			resp, err := client.SyncRequest(ctx, agentID, mesh.TaskInput{
				Tool:          "get_token_info",
				ToolArguments: map[string]any{"coingecko_id": "ethereum"},
				RawDataOnly:   true,
			})
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
}
