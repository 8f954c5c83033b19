package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/twinoai/twino/pkg/cli"
)

var (
	// Global flags
	verbose      bool
	configPath   string
	contextName  string
	formatOutput string
	jqQuery      string
)

var rootCmd = &cobra.Command{
	Use:   "twino",
	Short: "Create Digital Twins through a voice interview",
	Long: `twino interviews a person over an OpenAI Realtime voice session and
turns the conversation into a Digital Twin profile that another model can
impersonate.

Configuration is stored in ~/.twino/config.yaml (override with --config or
TWINO_CONFIG). API keys fall back to OPENAI_API_KEY and GEMINI_API_KEY.

Examples:
  # Configure a context
  twino config add-context default
  twino config set openai.api_key sk-...

  # Run an interview from a recorded answer file
  twino interview --slug anna-rossi --name Anna --input answers.ogg

  # Serve the HTTP API
  twino serve --listen :8080

  # Inspect twins
  twino twin list -o json --jq '.[].slug'`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(verbose)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.twino/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context to use (default current)")
	rootCmd.PersistentFlags().StringVarP(&formatOutput, "output", "o", "yaml", "output format: yaml, json, raw")
	rootCmd.PersistentFlags().StringVar(&jqQuery, "jq", "", "jq expression applied to the output")
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// GetConfig loads the configuration from --config, TWINO_CONFIG or the
// default path.
func GetConfig() (*cli.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("TWINO_CONFIG")
	}
	cfg, err := cli.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("config not available: %w", err)
	}
	return cfg, nil
}

// GetContext resolves the --context flag, or the current context, with
// API keys filled from the environment.
func GetContext() (*cli.Context, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	ctx, err := cfg.ResolveContext(contextName)
	if err != nil {
		return nil, err
	}
	return ctx.WithEnv(), nil
}

func printResult(v any) error {
	return cli.Output(v, cli.OutputOptions{
		Format: cli.OutputFormat(formatOutput),
		Query:  jqQuery,
	})
}
