package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/heurist-network/mesh-client-go/internal/config"
	"github.com/heurist-network/mesh-client-go/mesh"
	"github.com/heurist-network/mesh-client-go/pkg/logger"
)

var (
	configPath string
	baseURL    string
	apiKey     string
	timeout    time.Duration
	logLevel   string
	logFormat  string

	cfg *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mesh-cli",
		Short: "Command line interface for Heurist Mesh agents",
		Long: `mesh-cli talks to the Heurist Mesh sequencer: run synchronous agent
requests, create asynchronous tasks and poll them until they finish.

The API key is read from --api-key, the config file, or the ` + mesh.APIKeyEnvVar + `
environment variable (a .env file in the working directory is honoured).`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Sequencer base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Heurist API key")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text, json)")

	rootCmd.AddCommand(requestCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(demoCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup resolves configuration before any subcommand runs. Precedence:
// flags, then config file, then environment, then defaults.
func setup(cmd *cobra.Command, args []string) error {
	// keeps parity with the Python tooling around the same API
	_ = godotenv.Load()

	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}

	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if timeout > 0 {
		cfg.TimeoutSeconds = int(timeout / time.Second)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	return logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
}

func newClient() (*mesh.Client, error) {
	opts := []mesh.Option{
		mesh.WithBaseURL(cfg.BaseURL),
		mesh.WithTimeout(cfg.Timeout()),
	}
	if cfg.APIKey != "" {
		opts = append(opts, mesh.WithAPIKey(cfg.APIKey))
	}
	return mesh.NewClient(opts...)
}

// parseInput assembles a TaskInput from the shared request flags.
func parseInput(query, tool, argsJSON string, raw bool) (mesh.TaskInput, error) {
	in := mesh.TaskInput{Query: query, Tool: tool, RawDataOnly: raw}
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &in.ToolArguments); err != nil {
			return mesh.TaskInput{}, fmt.Errorf("parse tool arguments: %w", err)
		}
	}
	return in, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
