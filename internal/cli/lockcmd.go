package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/codeward/internal/config"
	"github.com/dshills/codeward/internal/lock"
)

var flagWaitTimeout time.Duration

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Inspect the shared backend lock",
}

func loadConfig() (config.Config, error) {
	return config.Load(nil)
}

func sharedLock() (*lock.Lock, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.LockFile != "" {
		return lock.New(cfg.LockFile), nil
	}
	return lock.New(lock.DefaultPath()), nil
}

var lockStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who holds the lock",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := sharedLock()
		if err != nil {
			return err
		}
		owner, held, err := l.Status()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if !held {
			fmt.Fprintf(cmd.OutOrStdout(), "free (%s)\n", l.Path())
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (pid %d, run %s)\n", owner, owner.PID, owner.RunID)
		exitCode = ExitLockHeld
		return nil
	},
}

var lockClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove a stale lock marker",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := sharedLock()
		if err != nil {
			return err
		}
		if err := l.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Lock cleared (%s)\n", l.Path())
		return nil
	},
}

var lockWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until the lock is free",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := sharedLock()
		if err != nil {
			return err
		}
		ctx := context.Background()
		if flagWaitTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, flagWaitTimeout)
			defer cancel()
		}
		if err := l.Wait(ctx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				fmt.Fprintln(os.Stderr, "Timed out waiting for the lock")
				exitCode = ExitLockHeld
				return nil
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Lock is free")
		return nil
	},
}

func init() {
	lockCmd.AddCommand(lockStatusCmd)
	lockCmd.AddCommand(lockClearCmd)
	lockCmd.AddCommand(lockWaitCmd)
	lockWaitCmd.Flags().DurationVar(&flagWaitTimeout, "timeout", 0, "Give up after this long (0 waits forever)")
}
