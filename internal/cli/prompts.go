package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/codeward/internal/prompts"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage prompt catalogs",
}

var promptsSampleCmd = &cobra.Command{
	Use:   "sample [file]",
	Short: "Write the built-in prompt catalog as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := prompts.Builtin()
		if len(args) == 1 {
			if err := catalog.Save(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Prompt catalog written to %s\n", args[0])
			return nil
		}
		data, err := yaml.Marshal(catalog)
		if err != nil {
			return fmt.Errorf("marshaling catalog: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var promptsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the templates selected by the current config",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		catalog := prompts.Builtin()
		if cfg.PromptFile != "" {
			if catalog, err = prompts.Load(cfg.PromptFile); err != nil {
				return err
			}
		}
		d, err := prompts.ParseDetail(cfg.Detail)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(catalog.Select(cfg.Language, d))
		if err != nil {
			return fmt.Errorf("marshaling templates: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# languages: %v\n", catalog.Tags())
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	promptsCmd.AddCommand(promptsSampleCmd)
	promptsCmd.AddCommand(promptsShowCmd)
}
