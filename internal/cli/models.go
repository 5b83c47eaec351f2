package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/codeward/internal/providers"
)

var flagDoctorBackend string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Backend and model management",
}

type modelInfo struct {
	Backend string
	Models  []string
}

var knownModels = []modelInfo{
	{
		Backend: "codeserver",
		Models: []string{
			"qwen2.5-coder:32b",
			"qwen2.5-coder:7b",
			"deepseek-coder-v2",
			"codellama",
		},
	},
	{
		Backend: "openai",
		Models: []string{
			"gpt-4.1",
			"gpt-4.1-mini",
			"gpt-4o",
			"o3-mini",
		},
	},
	{
		Backend: "gemini",
		Models: []string{
			"gemini-2.5-flash",
			"gemini-2.5-pro",
		},
	},
	{
		Backend: "anthropic",
		Models: []string{
			"claude-sonnet-4-20250514",
			"claude-3-5-haiku-latest",
		},
	},
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known backends and models",
	Run: func(cmd *cobra.Command, args []string) {
		for _, info := range knownModels {
			fmt.Fprintf(os.Stdout, "%s:\n", info.Backend)
			for _, m := range info.Models {
				fmt.Fprintf(os.Stdout, "  - %s\n", m)
			}
			fmt.Fprintln(os.Stdout)
		}
	},
}

// envCredentials reads vendor keys from the usual environment variables.
func envCredentials() providers.Credentials {
	return providers.Credentials{
		OpenAI:    os.Getenv("OPENAI_API_KEY"),
		Gemini:    os.Getenv("GEMINI_API_KEY"),
		Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
	}
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that a backend is reachable and accepts its credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		opts := providers.Options{
			CodeServerURL:      cfg.CodeServer.URL,
			CodeServerProtocol: cfg.CodeServer.Protocol,
			Insecure:           cfg.CodeServer.Insecure,
			Timeout:            30 * time.Second,
		}
		b, err := providers.New(ctx, flagDoctorBackend, envCredentials(), opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		if len(cfg.Models) == 0 {
			return fmt.Errorf("no models configured")
		}
		model := cfg.Models[0]
		fmt.Fprintf(os.Stdout, "Checking %s with %s...\n", b.Name(), model)

		_, err = b.Analyze(ctx, providers.AnalysisRequest{
			SystemPrompt: "Respond with exactly: ok",
			UserPrompt:   "ping",
			Model:        model,
			MaxTokens:    10,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			if providers.IsAuthError(err) {
				exitCode = ExitUsageError
			} else {
				exitCode = ExitRuntimeError
			}
			return nil
		}

		fmt.Fprintf(os.Stdout, "OK: %s is configured and responding\n", b.Name())
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsDoctorCmd.Flags().StringVar(&flagDoctorBackend, "backend", "", "Backend to check (codeserver, openai, gemini, anthropic)")
}
