package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/codeward/internal/job"
	"github.com/dshills/codeward/internal/logging"
)

const version = "0.3.0"

// Exit codes.
const (
	ExitSuccess      = 0
	ExitJobsFailed   = 1
	ExitUsageError   = 2
	ExitRuntimeError = 3
	ExitLockHeld     = 4
	ExitInterrupted  = job.ExitInterrupted
)

var (
	flagVerbose bool
	flagQuiet   bool

	// logger is built before every command runs.
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "codeward",
	Short: "Send source code units to analysis backends",
	Long: "Codeward splits source trees into classes, functions or changed methods, attaches " +
		"filtered compiler diagnostics and asks language-model backends to review each unit.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(logging.Options{Verbose: flagVerbose, Quiet: flagQuiet})
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(promptsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print codeward version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "codeward version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug records")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Log errors only")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}
