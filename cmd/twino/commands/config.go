package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/twinoai/twino/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage contexts. A context bundles API keys, the realtime model and
voice, the twin store directory and the archive backend.

Examples:
  twino config list-contexts
  twino config add-context dev
  twino config use-context dev
  twino config current-context
  twino config set openai.api_key sk-xxx
  twino config set archive.backend s3
  twino config show`,
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"ls"},
	Short:   "List all contexts",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		names := cfg.ListContexts()
		if len(names) == 0 {
			fmt.Println("No contexts configured.")
			fmt.Println("Create one with: twino config add-context <name>")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tMODEL\tARCHIVE")
		for _, name := range names {
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			ctx := cfg.Contexts[name]
			backend := cli.ArchiveLocal
			if ctx.Archive != nil && ctx.Archive.Backend != "" {
				backend = ctx.Archive.Backend
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", current, name, ctx.Model, backend)
		}
		return w.Flush()
	},
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Create a new context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		name := args[0]
		if _, ok := cfg.Contexts[name]; ok {
			return fmt.Errorf("context %q already exists", name)
		}
		if err := cfg.AddContext(name, &cli.Context{}); err != nil {
			return err
		}
		fmt.Printf("Context %q created.\n", name)
		fmt.Println("Configure it with: twino config set <key> <value>")
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		fmt.Printf("Context %q deleted.\n", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		fmt.Printf("Switched to context %q.\n", args[0])
		return nil
	},
}

var configCurrentContextCmd = &cobra.Command{
	Use:   "current-context",
	Short: "Print the current context",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if cfg.CurrentContext == "" {
			return fmt.Errorf("no current context")
		}
		fmt.Println(cfg.CurrentContext)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a key on the selected context",
	Long: `Set a key on the context selected with --context, or the current one.

Keys: openai.api_key, openai.base_url, openai.organization, openai.project,
gemini.api_key, model, voice, extractor, extract_model, data_dir, questions,
listen, rate_limit, archive.backend, archive.dir, archive.bucket,
archive.prefix, archive.region, archive.endpoint.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		name := contextName
		if name == "" {
			name = cfg.CurrentContext
		}
		ctx, ok := cfg.Contexts[name]
		if !ok {
			if name == "" {
				return fmt.Errorf("no context selected: run twino config add-context <name>")
			}
			return fmt.Errorf("context %q not found", name)
		}
		if err := ctx.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Printf("Set %s on context %q.\n", args[0], name)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the selected context with masked keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		ctx, err := cfg.ResolveContext(contextName)
		if err != nil {
			return err
		}
		return printResult(ctx.Masked())
	},
}

func init() {
	configCmd.AddCommand(
		configListContextsCmd,
		configAddContextCmd,
		configDeleteContextCmd,
		configUseContextCmd,
		configCurrentContextCmd,
		configSetCmd,
		configShowCmd,
	)
	rootCmd.AddCommand(configCmd)
}
