package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/codeward/internal/job"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Manage job files",
}

var jobInitCmd = &cobra.Command{
	Use:   "init <file>",
	Short: "Write a commented job file template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := job.WriteTemplate(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Job file created at %s\n", args[0])
		return nil
	},
}

var jobCheckCmd = &cobra.Command{
	Use:   "check <job.toml>...",
	Short: "Validate job files against the current config",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		for _, path := range args {
			jobs, err := job.LoadFile(path)
			if err != nil {
				return err
			}
			for _, j := range jobs {
				s, err := j.Resolve(cfg)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %s, models %v, bypass %t\n",
					s.Name, s.Target, s.Granularity, s.Models, s.Bypass)
			}
		}
		return nil
	},
}

func init() {
	jobCmd.AddCommand(jobInitCmd)
	jobCmd.AddCommand(jobCheckCmd)
}
