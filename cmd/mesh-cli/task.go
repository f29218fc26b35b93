package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heurist-network/mesh-client-go/mesh"
	"github.com/heurist-network/mesh-client-go/pkg/logger"
)

// taskCmd groups the asynchronous task subcommands
func taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create and poll asynchronous agent tasks",
	}
	cmd.AddCommand(taskCreateCmd())
	cmd.AddCommand(taskWatchCmd())
	return cmd
}

// taskCreateCmd creates the task create subcommand
func taskCreateCmd() *cobra.Command {
	var (
		agentID   string
		query     string
		tool      string
		toolArgs  string
		raw       bool
		agentType string
		watch     bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an asynchronous task",
		Long:  "Submit a query or tool invocation as a task and print the task id, optionally polling until it finishes",
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

			var opts []mesh.TaskOption
			if agentType != "" {
				opts = append(opts, mesh.WithAgentType(agentType))
			}

			task, err := client.CreateTask(cmd.Context(), agentID, input, opts...)
			if err != nil {
				return err
			}
			logger.Named("task").Info("task created", "task_id", task.TaskID, "agent_id", agentID)
			fmt.Printf("task created: %s\n", task.TaskID)

			if !watch {
				return nil
			}
			return watchTask(cmd.Context(), client, agentID, task.TaskID)
		},
	}

	cmd.Flags().StringVar(&agentID, "agent", "", "Agent identifier")
	cmd.Flags().StringVar(&query, "query", "", "Natural language query")
	cmd.Flags().StringVar(&tool, "tool", "", "Tool name to invoke")
	cmd.Flags().StringVar(&toolArgs, "args", "", "Tool arguments as a JSON object")
	cmd.Flags().BoolVar(&raw, "raw", false, "Request raw data instead of a natural language answer")
	cmd.Flags().StringVar(&agentType, "agent-type", "", "Agent type sent with the task (default AGENT)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Poll the task until it finishes")
	_ = cmd.MarkFlagRequired("agent")

	return cmd
}

// taskWatchCmd creates the task watch subcommand
func taskWatchCmd() *cobra.Command {
	var agentID string

	cmd := &cobra.Command{
		Use:   "watch <task-id>",
		Short: "Poll an existing task until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			return watchTask(cmd.Context(), client, agentID, args[0])
		},
	}

	cmd.Flags().StringVar(&agentID, "agent", "", "Agent identifier")
	_ = cmd.MarkFlagRequired("agent")

	return cmd
}

func watchTask(ctx context.Context, client *mesh.Client, agentID, taskID string) error {
	res, err := client.WaitForTask(ctx, agentID, taskID,
		mesh.WithPollInterval(cfg.PollInterval()),
		mesh.WithStepFunc(func(step mesh.ReasoningStep) {
			fmt.Printf("step: %s\n", step.Content)
		}),
	)
	if err != nil {
		return err
	}

	fmt.Println("task completed:")
	if res.Result != nil {
		return printJSON(res.Result)
	}
	return printJSON(res)
}
