package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ovtracker/internal/config"
	"ovtracker/internal/history"
	"ovtracker/internal/identification/overrides"
	"ovtracker/internal/publish"
	"ovtracker/internal/schedule"
	"ovtracker/internal/state"
	"ovtracker/internal/week"
)

type statusView struct {
	WeekStart     string `json:"week_start"`
	WeekEnd       string `json:"week_end"`
	Horizon       string `json:"horizon"`
	Status        string `json:"status"`
	LastSentWeek  string `json:"last_sent_week,omitempty"`
	LastHash      string `json:"last_hash,omitempty"`
	CacheEntries  int    `json:"cache_entries"`
	Overrides     int    `json:"overrides"`
	TMDBReady     bool   `json:"tmdb_ready"`
	TelegramReady bool   `json:"telegram_ready"`
	LastSentAt    string `json:"last_sent_at,omitempty"`
	Sessions      *int   `json:"sessions,omitempty"`
	Complete      *bool  `json:"complete,omitempty"`
	ScheduleError string `json:"schedule_error,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var fetch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current cinema week and its publish state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			view := buildStatus(cmd.Context(), cfg, time.Now(), fetch)
			if ctx.JSONMode() {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, strings.Join(renderStatus(view, shouldColorize(out)), "\n"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&fetch, "fetch", false, "Fetch the schedule and report whether the week is complete")
	return cmd
}

func buildStatus(ctx context.Context, cfg *config.Config, now time.Time, fetch bool) statusView {
	loc := cfg.Location()
	w := week.Compute(now, loc)
	st := state.Load(cfg.StatePath(), nil)
	decision := publish.Decide(st, w.Key(), false)

	view := statusView{
		WeekStart:     w.Key(),
		WeekEnd:       w.Last().Format(week.DateLayout),
		Horizon:       w.Horizon().Format("2006-01-02 15:04"),
		Status:        string(decision.Status),
		CacheEntries:  len(st.TMDBCache),
		TMDBReady:     cfg.TMDB.APIKey != "",
		TelegramReady: cfg.ValidateTransport() == nil,
	}
	view.LastSentWeek, _ = st.LastSentWeek()
	view.LastHash, _ = st.LastContentHash()

	if entries, err := overrides.NewCatalog(cfg.TMDB.OverridesPath, nil).Entries(); err == nil {
		view.Overrides = len(entries)
	}

	if cfg.History.Enabled {
		if store, err := history.Open(ctx, cfg.History.Path); err == nil {
			if latest, err := store.List(ctx, 1); err == nil && len(latest) == 1 {
				view.LastSentAt = latest[0].SentAt.In(loc).Format("2006-01-02 15:04")
			}
			_ = store.Close()
		}
	}

	if fetch {
		sessions, complete, err := checkSchedule(ctx, cfg, now, w)
		if err != nil {
			view.ScheduleError = err.Error()
		} else {
			view.Sessions = &sessions
			view.Complete = &complete
		}
	}
	return view
}

func checkSchedule(ctx context.Context, cfg *config.Config, now time.Time, w week.Window) (int, bool, error) {
	fetcher, err := schedule.NewFetcher(cfg.Schedule.URL,
		schedule.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
		schedule.WithDiscovery(cfg.Schedule.DiscoveryURL, cfg.Schedule.CinemaName),
		schedule.WithRetries(0, 0),
		schedule.WithUserAgent(cfg.Schedule.UserAgent),
	)
	if err != nil {
		return 0, false, err
	}
	markup, err := fetcher.Fetch(ctx)
	if err != nil {
		return 0, false, err
	}
	all, err := schedule.Parse(markup, cfg.Location(), now, nil)
	if err != nil {
		return 0, false, err
	}
	return len(all), week.Complete(all, w), nil
}

func renderStatus(view statusView, colorize bool) []string {
	var lines []string

	lines = append(lines, renderSectionHeader("Week", colorize)...)
	lines = append(lines, renderStatusLine("Window", statusInfo, view.WeekStart+" to "+view.WeekEnd, colorize))
	lines = append(lines, renderStatusLine("Complete when", statusInfo, "schedule reaches "+view.Horizon, colorize))
	switch {
	case view.ScheduleError != "":
		lines = append(lines, renderStatusLine("Schedule", statusError, view.ScheduleError, colorize))
	case view.Complete != nil && *view.Complete:
		lines = append(lines, renderStatusLine("Schedule", statusOK, fmt.Sprintf("complete (%d sessions)", *view.Sessions), colorize))
	case view.Complete != nil:
		lines = append(lines, renderStatusLine("Schedule", statusWarn, fmt.Sprintf("incomplete (%d sessions)", *view.Sessions), colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Publish", colorize)...)
	if view.Status == string(publish.StatusSent) {
		lines = append(lines, renderStatusLine("This week", statusOK, "sent ("+shortHash(view.LastHash)+")", colorize))
	} else {
		lines = append(lines, renderStatusLine("This week", statusWarn, "not sent", colorize))
	}
	last := view.LastSentWeek
	if last == "" {
		last = "never"
	}
	lines = append(lines, renderStatusLine("Last sent week", statusInfo, last, colorize))
	if view.LastSentAt != "" {
		lines = append(lines, renderStatusLine("Last delivery", statusInfo, view.LastSentAt, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Setup", colorize)...)
	if view.TMDBReady {
		lines = append(lines, renderStatusLine("TMDB", statusOK, "api key set", colorize))
	} else {
		lines = append(lines, renderStatusLine("TMDB", statusWarn, "no api key; only overrides and cache resolve", colorize))
	}
	if view.TelegramReady {
		lines = append(lines, renderStatusLine("Telegram", statusOK, "credentials set", colorize))
	} else {
		lines = append(lines, renderStatusLine("Telegram", statusError, "bot token or chat id missing", colorize))
	}
	lines = append(lines, renderStatusLine("Film cache", statusInfo, fmt.Sprintf("%d entries, %d overrides", view.CacheEntries, view.Overrides), colorize))
	return lines
}
