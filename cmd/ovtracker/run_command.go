package main

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ovtracker/internal/logging"
	"ovtracker/internal/pipeline"
	"ovtracker/internal/runlock"
	"ovtracker/internal/services"
)

type runSummary struct {
	RunID      string   `json:"run_id"`
	Outcome    string   `json:"outcome"`
	WeekStart  string   `json:"week_start"`
	Sessions   int      `json:"sessions"`
	OVSessions int      `json:"ov_sessions"`
	Items      int      `json:"items"`
	Hash       string   `json:"content_hash,omitempty"`
	Forced     bool     `json:"forced"`
	Missing    []string `json:"missing"`
	Message    string   `json:"message,omitempty"`
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dryRun, send, force, dumpMissing bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build this week's OV digest and publish it",
		Long: `Fetch the cinema schedule, build the OV digest for the current cinema week
(Thursday to Wednesday) and either print it (--dry-run) or publish it (--send).

--send publishes at most once per week and only when the schedule already
covers the whole week. --force republishes a week that was already sent; it
never bypasses the completeness or empty-digest checks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if force && !send {
				return services.Wrap(services.ErrConfiguration, "cli", "run", "--force requires --send", nil)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}

			lock, err := runlock.Acquire(cfg.LockPath())
			if err != nil {
				return err
			}
			defer func() {
				if err := lock.Release(); err != nil {
					logger.Warn("run lock not released", logging.Error(err))
				}
			}()

			runID := uuid.NewString()
			runCtx := services.WithRunID(cmd.Context(), runID)

			asm, err := pipeline.Assemble(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer asm.Close()

			report, runErr := asm.Runner.Run(runCtx, pipeline.Options{DryRun: dryRun, Force: force})
			if runErr != nil {
				return runErr
			}

			if ctx.JSONMode() {
				missing := report.Missing
				if missing == nil {
					missing = []string{}
				}
				return writeJSON(cmd, runSummary{
					RunID:      runID,
					Outcome:    string(report.Outcome),
					WeekStart:  report.Window.Key(),
					Sessions:   report.Sessions,
					OVSessions: report.OVSessions,
					Items:      len(report.Items),
					Hash:       report.Hash,
					Forced:     report.Decision.Forced,
					Missing:    missing,
					Message:    report.Message,
				})
			}

			out := cmd.OutOrStdout()
			printRunOutcome(out, report)
			if dumpMissing {
				printMissing(out, report)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the digest without sending or gating")
	cmd.Flags().BoolVar(&send, "send", false, "Publish the digest to Telegram")
	cmd.Flags().BoolVar(&force, "force", false, "Republish a week that was already sent (requires --send)")
	cmd.Flags().BoolVar(&dumpMissing, "dump-missing", false, "Print unresolved titles as an overrides skeleton")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "send")
	cmd.MarkFlagsOneRequired("dry-run", "send")
	return cmd
}

func printRunOutcome(out io.Writer, report pipeline.Report) {
	week := report.Window.Key()
	switch report.Outcome {
	case pipeline.OutcomeDryRun:
		fmt.Fprintln(out, report.Message)
	case pipeline.OutcomeSent:
		label := "Digest sent"
		if report.Decision.Forced {
			label = "Digest re-sent (forced)"
		}
		fmt.Fprintf(out, "%s for week %s: %d films\n", label, week, len(report.Items))
	case pipeline.OutcomeAlreadySent:
		fmt.Fprintf(out, "Week %s already published; nothing sent (use --force to republish)\n", week)
		if report.Decision.ContentChanged(report.Hash) {
			fmt.Fprintln(out, "Note: the schedule changed since the digest was published")
		}
	case pipeline.OutcomeIncomplete:
		fmt.Fprintf(out, "Schedule for week %s is not complete yet; nothing sent\n", week)
	case pipeline.OutcomeEmpty:
		fmt.Fprintf(out, "No OV sessions for week %s; nothing sent\n", week)
	default:
		fmt.Fprintf(out, "Run finished: %s\n", report.Outcome)
	}
}

// printMissing writes a YAML overrides skeleton for unresolved titles. Runs
// that stopped before the digest was built have nothing to report.
func printMissing(out io.Writer, report pipeline.Report) {
	if report.Items == nil {
		fmt.Fprintf(out, "# titles not resolved (run stopped: %s)\n", report.Outcome)
		return
	}
	missing := report.Missing
	if len(missing) == 0 {
		fmt.Fprintln(out, "# all titles resolved")
		return
	}
	fmt.Fprintln(out, "# Missing TMDB IDs (add to overrides file):")
	for _, title := range missing {
		fmt.Fprintf(out, "%q: # TODO_ID\n", title)
	}
}
