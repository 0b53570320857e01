package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ovtracker/internal/history"
)

type historyEntryView struct {
	ID          int64  `json:"id"`
	WeekStart   string `json:"week_start"`
	ContentHash string `json:"content_hash"`
	ItemCount   int    `json:"item_count"`
	Forced      bool   `json:"forced"`
	RunID       string `json:"run_id,omitempty"`
	SentAt      string `json:"sent_at"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List delivered digests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("publish history is disabled (set history.enabled = true)")
			}
			store, err := history.Open(cmd.Context(), cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			loc := cfg.Location()

			if ctx.JSONMode() {
				views := make([]historyEntryView, 0, len(entries))
				for _, e := range entries {
					views = append(views, historyEntryView{
						ID:          e.ID,
						WeekStart:   e.WeekStart,
						ContentHash: e.ContentHash,
						ItemCount:   e.ItemCount,
						Forced:      e.Forced,
						RunID:       e.RunID,
						SentAt:      e.SentAt.In(loc).Format(time.RFC3339),
					})
				}
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No digests sent yet")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					e.WeekStart,
					strconv.Itoa(e.ItemCount),
					yesNo(e.Forced),
					shortHash(e.ContentHash),
					e.SentAt.In(loc).Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(tableSpec{
				Headers: []string{"#", "Week", "Films", "Forced", "Hash", "Sent"},
				Aligns:  []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				Rows:    rows,
			}))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries (0 for all)")
	return cmd
}
