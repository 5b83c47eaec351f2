package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/codeward/internal/config"
	"github.com/dshills/codeward/internal/extract"
	"github.com/dshills/codeward/internal/prompts"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the global settings every job inherits",
	Long: "The global config is JSON. Job files and flags override it per job, and CODEWARD_* " +
		"environment variables override the file.",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default settings to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(os.Stderr, "Config file already exists at %s\n", path)
			return nil
		}
		if err := config.Save(config.Default()); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Config file created at %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting in the config file",
	Long:  "Keys: " + strings.Join(config.Keys, ", ") + ".\nList values are comma separated.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := checkSetting(key, value); err != nil {
			return err
		}
		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}
		if err := config.SetField(&cfg, key, value); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(os.Stdout, "%s = %s\n", key, value)
		return nil
	},
}

// checkSetting rejects values that SetField would store but a job could not
// resolve.
func checkSetting(key, value string) error {
	switch key {
	case "granularity":
		_, err := extract.ParseGranularity(value)
		return err
	case "detail":
		_, err := prompts.ParseDetail(value)
		return err
	case "codeServer.protocol":
		if value != "form" && value != "openai" {
			return fmt.Errorf("codeServer.protocol must be form or openai, got %q", value)
		}
	case "models":
		if len(splitComma(value)) == 0 {
			return fmt.Errorf("models needs at least one model name")
		}
	}
	return nil
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged settings (file, then environment)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
