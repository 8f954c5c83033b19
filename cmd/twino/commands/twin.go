package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twinoai/twino/pkg/cli"
	"github.com/twinoai/twino/pkg/prompts"
	"github.com/twinoai/twino/pkg/twin"
)

var twinCmd = &cobra.Command{
	Use:   "twin",
	Short: "Inspect and manage saved twins",
	Long: `Inspect and manage the twins in the local store.

Examples:
  twino twin list
  twino twin get anna-rossi -o json
  twino twin prompt anna-rossi -o raw
  twino twin create -f anna.yaml
  twino twin delete anna-rossi`,
}

// twinSummary is one row of twin list.
type twinSummary struct {
	Slug        string `json:"slug" yaml:"slug"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
}

var twinListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List twins",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store twin.Store) error {
			list := []twinSummary{}
			for t, err := range store.List(cmd.Context()) {
				if err != nil {
					return err
				}
				list = append(list, twinSummary{
					Slug:        t.Slug,
					DisplayName: t.DisplayName,
					CreatedAt:   t.CreatedAt.Format("2006-01-02 15:04"),
				})
			}
			return printResult(list)
		})
	},
}

var twinGetCmd = &cobra.Command{
	Use:   "get <slug>",
	Short: "Show a twin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store twin.Store) error {
			t, err := getTwin(cmd, store, args[0])
			if err != nil {
				return err
			}
			return printResult(t)
		})
	},
}

var twinPromptCmd = &cobra.Command{
	Use:   "prompt <slug>",
	Short: "Render the impersonation prompt of a twin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store twin.Store) error {
			t, err := getTwin(cmd, store, args[0])
			if err != nil {
				return err
			}
			text, err := prompts.Twin(t, "")
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("output") && jqQuery == "" {
				fmt.Print(text)
				return nil
			}
			return printResult(map[string]string{"slug": t.Slug, "instructions": text})
		})
	},
}

var twinCreateFile string

// twinFile is the file format of twin create.
type twinFile struct {
	Slug        string             `json:"slug" yaml:"slug"`
	DisplayName string             `json:"display_name" yaml:"display_name"`
	Email       string             `json:"email" yaml:"email"`
	Voice       string             `json:"voice" yaml:"voice"`
	Profile     twin.Profile       `json:"twin_profile" yaml:"twin_profile"`
	Transcript  string             `json:"transcript" yaml:"transcript"`
	Documents   []prompts.Document `json:"documents" yaml:"documents"`
}

var twinCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a twin from a YAML or JSON file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if twinCreateFile == "" {
			return errors.New("-f is required")
		}
		var f twinFile
		if err := cli.LoadFile(twinCreateFile, &f); err != nil {
			return err
		}
		t, err := twin.New(f.Slug, f.DisplayName, f.Profile, f.Transcript)
		if err != nil {
			return fmt.Errorf("slug %q: %w", f.Slug, err)
		}
		t.Email = f.Email
		t.Voice = f.Voice
		t.Documents = prompts.JoinDocuments(f.Documents)
		return withStore(func(store twin.Store) error {
			if err := store.Create(cmd.Context(), t); err != nil {
				return err
			}
			cli.PrintSuccess("twin %q created", t.Slug)
			return nil
		})
	},
}

var twinDeleteCmd = &cobra.Command{
	Use:     "delete <slug>",
	Aliases: []string{"rm"},
	Short:   "Delete a twin",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store twin.Store) error {
			if _, err := getTwin(cmd, store, args[0]); err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			cli.PrintSuccess("twin %q deleted", args[0])
			return nil
		})
	},
}

func init() {
	twinCreateCmd.Flags().StringVarP(&twinCreateFile, "file", "f", "", "twin file (YAML or JSON, - for stdin)")
	twinCmd.AddCommand(twinListCmd, twinGetCmd, twinPromptCmd, twinCreateCmd, twinDeleteCmd)
	rootCmd.AddCommand(twinCmd)
}

func withStore(fn func(store twin.Store) error) error {
	cctx, err := GetContext()
	if err != nil {
		return err
	}
	store, err := openStore(cctx)
	if err != nil {
		return err
	}
	err = fn(store)
	return errors.Join(err, store.Close())
}

func getTwin(cmd *cobra.Command, store twin.Store, slug string) (*twin.Twin, error) {
	t, err := store.Get(cmd.Context(), slug)
	if errors.Is(err, twin.ErrNotFound) {
		return nil, fmt.Errorf("twin %q not found", slug)
	}
	return t, err
}
