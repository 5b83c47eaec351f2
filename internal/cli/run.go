package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dshills/codeward/internal/config"
	"github.com/dshills/codeward/internal/job"
	"github.com/dshills/codeward/internal/lock"
	"github.com/dshills/codeward/internal/output"
)

var (
	flagSummary string

	flagGranularity string
	flagLang        string
	flagModels      string
	flagModes       string
	flagLanguage    string
	flagDetail      string
	flagFocus       string
	flagBackend     string
	flagName        string
	flagLogDir      string
	flagIgnoreFile  string
	flagPromptFile  string
	flagBypass      bool
	flagNoRedact    bool
)

var (
	startColor   = color.New(color.FgCyan)
	doneColor    = color.New(color.FgGreen, color.Bold)
	skipColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed, color.Bold)
	neutralColor = color.New(color.Faint)
)

// exitFunc is replaced in tests.
var exitFunc = os.Exit

var runCmd = &cobra.Command{
	Use:   "run <job.toml>...",
	Short: "Run the jobs of one or more job files in order",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		var jobs []job.Job
		for _, path := range args {
			loaded, err := job.LoadFile(path)
			if err != nil {
				return err
			}
			jobs = append(jobs, loaded...)
		}
		runJobs(cmd.OutOrStdout(), cfg, jobs)
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <target|->",
	Short: "Analyze a folder, project or file without a job file",
	Long: "Analyze builds a single job from flags and the global config. A target of - reads " +
		"source from stdin and requires --lang.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		j, err := buildAdHocJob(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		if flagNoRedact {
			cfg.Privacy.RedactSecrets = false
			fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
		}
		runJobs(cmd.OutOrStdout(), cfg, []job.Job{j})
		return nil
	},
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagGranularity != "" {
		m["granularity"] = flagGranularity
	}
	if flagModels != "" {
		m["models"] = flagModels
	}
	if flagModes != "" {
		m["modes"] = flagModes
	}
	if flagLanguage != "" {
		m["language"] = flagLanguage
	}
	if flagDetail != "" {
		m["detail"] = flagDetail
	}
	if flagLogDir != "" {
		m["logDir"] = flagLogDir
	}
	if flagIgnoreFile != "" {
		m["ignoreFile"] = flagIgnoreFile
	}
	if flagPromptFile != "" {
		m["promptFile"] = flagPromptFile
	}
	return m
}

// buildAdHocJob turns the analyze flags into a job. Vendor keys are taken
// from the environment only for the vendor named by --backend.
func buildAdHocJob(target string, stdin io.Reader) (job.Job, error) {
	j := job.Job{
		Name:    flagName,
		Target:  target,
		Focus:   splitComma(flagFocus),
		Backend: flagBackend,
		Bypass:  flagBypass,
	}
	switch flagBackend {
	case "openai":
		j.Credentials.OpenAI = os.Getenv("OPENAI_API_KEY")
	case "gemini", "google":
		j.Credentials.Gemini = os.Getenv("GEMINI_API_KEY")
	case "anthropic", "claude":
		j.Credentials.Anthropic = os.Getenv("ANTHROPIC_API_KEY")
	}

	if target == "-" {
		if flagLang == "" {
			return job.Job{}, fmt.Errorf("reading from stdin requires --lang")
		}
		src, err := io.ReadAll(stdin)
		if err != nil {
			return job.Job{}, fmt.Errorf("reading stdin: %w", err)
		}
		j.Target = ""
		j.Source = src
		j.Lang = flagLang
		if flagGranularity == "" {
			j.Granularity = "whole"
		}
	}
	return j, nil
}

// runJobs runs jobs with interrupt handling and sets exitCode.
func runJobs(w io.Writer, cfg config.Config, jobs []job.Job) {
	lockPath := cfg.LockFile
	if lockPath == "" {
		lockPath = lock.DefaultPath()
	}
	l := lock.New(lockPath)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	stop := job.WatchInterrupts(l, sigs, exitFunc, logger)
	defer stop()

	summary := &output.Summary{RunID: uuid.NewString(), Started: time.Now()}
	o := &job.Orchestrator{
		Lock:         l,
		Global:       cfg,
		Logger:       logger,
		OnTransition: func(t job.Transition) { printTransition(w, t) },
	}
	results := o.Run(context.Background(), jobs)
	summary.Finished = time.Now()
	for _, r := range results {
		summary.Jobs = append(summary.Jobs, r.Summary())
	}

	if flagSummary != "" {
		out := flagSummary
		if out == "-" {
			out = ""
		}
		if err := output.WriteSummary(summary, output.FormatFor(flagSummary), out); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing summary: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
	}
	exitCode = exitCodeFor(results)
}

func printTransition(w io.Writer, t job.Transition) {
	switch t.To {
	case job.Running:
		startColor.Fprintf(w, "==> %s: running\n", t.Job)
	case job.Completed:
		doneColor.Fprintf(w, "==> %s: completed\n", t.Job)
	case job.Skipped:
		skipColor.Fprintf(w, "==> %s: skipped (%s)\n", t.Job, t.Reason)
	case job.Failed:
		failColor.Fprintf(w, "==> %s: failed: %s\n", t.Job, firstLine(t.Reason))
	default:
		neutralColor.Fprintf(w, "==> %s: %s\n", t.Job, t.To)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// exitCodeFor maps job outcomes: any failure wins, then a run where every
// job was skipped for the lock.
func exitCodeFor(results []job.Result) int {
	skipped := 0
	for _, r := range results {
		if r.State == job.Failed {
			return ExitJobsFailed
		}
		if r.State == job.Skipped {
			skipped++
		}
	}
	if len(results) > 0 && skipped == len(results) {
		return ExitLockHeld
	}
	return ExitSuccess
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func addJobFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagModels, "model", "", "Backend model names (comma-separated)")
	cmd.Flags().StringVar(&flagModes, "modes", "", "Analyses to run: code-with-issues, code-only (comma-separated)")
	cmd.Flags().StringVar(&flagLanguage, "language", "", "Prompt language, e.g. en or de")
	cmd.Flags().StringVar(&flagDetail, "detail", "", "Prompt detail (concise, detailed)")
	cmd.Flags().StringVar(&flagLogDir, "log-dir", "", "Directory for job logs")
	cmd.Flags().StringVar(&flagIgnoreFile, "ignore-file", "", "Diagnostic ignore list")
	cmd.Flags().StringVar(&flagPromptFile, "prompt-file", "", "Prompt catalog (YAML)")
	cmd.Flags().StringVar(&flagSummary, "summary", "", "Write a run summary to this file (.json for JSON, - for stdout)")
}

func init() {
	addJobFlags(runCmd)
	addJobFlags(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&flagGranularity, "granularity", "g", "", "Unit size (whole, class, function, git-diff)")
	analyzeCmd.Flags().StringVar(&flagLang, "lang", "", "Language of stdin source (go, python, javascript)")
	analyzeCmd.Flags().StringVar(&flagFocus, "focus", "", "Focus areas added to every prompt (comma-separated)")
	analyzeCmd.Flags().StringVar(&flagBackend, "backend", "", "Backend (codeserver, openai, gemini, anthropic); vendor keys come from *_API_KEY")
	analyzeCmd.Flags().StringVar(&flagName, "name", "", "Job name, used for the log file")
	analyzeCmd.Flags().BoolVar(&flagBypass, "bypass-lock", false, "Do not take the shared lock")
	analyzeCmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
}
