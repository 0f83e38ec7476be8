package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	fim "github.com/Blu3Stone/Aggie-File-Integrity-Monitoring"
	"github.com/spf13/cobra"
)

// errChangesFound check 发现变更时返回，使进程以非零状态退出
var errChangesFound = errors.New("changes detected")

func newBaselineCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "baseline",
		Short: "Create or overwrite the baseline",
		Long: `Scan the monitored directory, hash every file and overwrite the baseline.

Make sure the directory is in a known good state first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return createBaseline(cmd, opts)
		},
	}
}

func newMonitorCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Monitor the directory until interrupted",
		Long: `Load the baseline and rescan the directory every polling interval,
reporting new, modified and deleted files. Stop with Ctrl+C.

Changes seen during the session are kept in memory only; the baseline file
is never rewritten by this command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMonitoring(cmd, opts)
		},
	}
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Compare the directory with the baseline once",
		Long: `Run a single scan against the stored baseline, print every change and
exit with status 1 if anything changed. The baseline is not updated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkOnce(cmd, opts)
		},
	}
}

func createBaseline(cmd *cobra.Command, opts *options) error {
	a, err := opts.build(cmd)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	fmt.Fprintf(a.out, "Creating new baseline for directory: %s\n", absRoot(a.cfg.Root))
	b, err := a.monitor.CreateBaseline(commandContext(cmd))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Baseline created in '%s'. Wrote %d files. Ready to monitor!\n", a.store.Path(), len(b))
	return nil
}

func startMonitoring(cmd *cobra.Command, opts *options) error {
	out := cmd.OutOrStdout()
	a, err := opts.build(cmd, fim.WithOnStart(func(files int) {
		fmt.Fprintf(out, "Monitoring started at %s\n", time.Now().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "   Baseline has %d files\n", files)
		fmt.Fprintln(out, "   (Press Ctrl+C to stop)")
	}))
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = a.monitor.Run(ctx)
	if errors.Is(err, fim.ErrBaselineNotFound) {
		fmt.Fprintln(a.out, "Error: Baseline not found!")
		fmt.Fprintln(a.out, "   Create a baseline first (menu option 1 or 'aggie-fim baseline').")
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "\nMonitoring stopped by user.")
	return nil
}

func checkOnce(cmd *cobra.Command, opts *options) error {
	a, err := opts.build(cmd)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	baseline, err := a.store.Load()
	if errors.Is(err, fim.ErrBaselineNotFound) {
		fmt.Fprintln(a.out, "Error: Baseline not found!")
		return err
	}
	if err != nil {
		return err
	}

	events, err := a.monitor.Cycle(commandContext(cmd), baseline)
	if err != nil {
		return err
	}
	if len(events) > 0 {
		return fmt.Errorf("%w: %d", errChangesFound, len(events))
	}
	fmt.Fprintln(a.out, "No changes.")
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
