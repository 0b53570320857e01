package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ovtracker/internal/digest"
	"ovtracker/internal/notifications"
	"ovtracker/internal/render"
	"ovtracker/internal/schedule"
	"ovtracker/internal/services"
	"ovtracker/internal/week"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Send a sample digest to the configured chat",
		Long: `Render a fixed three-film sample digest for the current week and send it.
The sample covers a fully linked film, a film without a TMDB match and a film
without a ticket page. State and history are not touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			loc := cfg.Location()
			w := week.Compute(time.Now(), loc)
			message := render.Message(cfg.Schedule.CinemaName, w, sampleDigest(w))

			out := cmd.OutOrStdout()
			if printOnly {
				fmt.Fprintln(out, message)
				return nil
			}
			if err := cfg.ValidateTransport(); err != nil {
				return services.Wrap(services.ErrConfiguration, "cli", "test-notify", "", err)
			}
			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}
			runCtx := services.WithRunID(cmd.Context(), uuid.NewString())
			if err := notifications.NewService(cfg, logger).SendDigest(runCtx, message); err != nil {
				return err
			}
			fmt.Fprintln(out, "Test digest sent")
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the sample digest instead of sending it")
	return cmd
}

// sampleDigest returns three films on the window's first three days.
func sampleDigest(w week.Window) []digest.Item {
	day := func(offset, hour, minute int) time.Time {
		d := w.Start.AddDate(0, 0, offset)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, d.Location())
	}
	ironMan := int64(1726)
	fightClub := int64(550)
	return []digest.Item{
		{
			Title:     "Iron Man",
			Session:   schedule.Session{RawTitle: "Iron Man (OV)", Start: day(0, 20, 0), RawTags: "OV"},
			FilmID:    &ironMan,
			TicketURL: "https://www.cinestar.de/kino-konstanz/film/iron-man",
		},
		{
			Title:     "Unknown Movie",
			Session:   schedule.Session{RawTitle: "Unknown Movie (OV)", Start: day(1, 18, 30), RawTags: "OV"},
			TicketURL: "https://www.cinestar.de/kino-konstanz/film/unknown-movie",
		},
		{
			Title:   "Fallback Movie",
			Session: schedule.Session{RawTitle: "Fallback Movie (OV)", Start: day(2, 21, 15), RawTags: "OV"},
			FilmID:  &fightClub,
		},
	}
}
