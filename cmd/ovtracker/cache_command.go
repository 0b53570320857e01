package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ovtracker/internal/config"
	"ovtracker/internal/identification/overrides"
	"ovtracker/internal/pipeline"
	"ovtracker/internal/runlock"
	"ovtracker/internal/services"
	"ovtracker/internal/state"
	"ovtracker/internal/titles"
)

type cacheEntryView struct {
	Title  string `json:"title"`
	TMDBID int64  `json:"tmdb_id"`
	Source string `json:"source"`
}

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the film resolution cache",
		Long: `Inspect and manage the film resolution cache.

The cache stores normalized titles that were matched to TMDB IDs so later
runs skip the search. Entries in the overrides file always win over the cache.

Commands:
  list     - List cached mappings (and overrides with --overrides)
  set      - Pin a title to a TMDB ID in the cache
  remove   - Remove a cached title
  clear    - Remove all cached entries`,
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheSetCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var withOverrides bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached title mappings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st := state.Load(cfg.StatePath(), nil)

			entries := make([]cacheEntryView, 0, len(st.TMDBCache))
			for _, film := range st.Films() {
				entries = append(entries, cacheEntryView{Title: film.Title, TMDBID: film.TMDBID, Source: "cache"})
			}
			if withOverrides {
				pinned, err := overrides.NewCatalog(cfg.TMDB.OverridesPath, nil).Entries()
				if err != nil {
					return fmt.Errorf("read overrides: %w", err)
				}
				for _, o := range pinned {
					entries = append(entries, cacheEntryView{Title: o.Title, TMDBID: o.TMDBID, Source: "override"})
				}
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Film cache: empty")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for i, e := range entries {
				rows = append(rows, []string{strconv.Itoa(i + 1), e.Title, strconv.FormatInt(e.TMDBID, 10), e.Source})
			}
			fmt.Fprintln(out, renderTable(tableSpec{
				Title:   fmt.Sprintf("Film cache: %d entries", len(entries)),
				Headers: []string{"#", "Title", "TMDB ID", "Source"},
				Aligns:  []columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
				Rows:    rows,
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&withOverrides, "overrides", false, "Include entries from the overrides file")
	return cmd
}

func newCacheSetCommand(ctx *commandContext) *cobra.Command {
	var skipVerify bool

	cmd := &cobra.Command{
		Use:   "set <title> <tmdb-id>",
		Short: "Pin a title to a TMDB ID",
		Long:  "Store a title mapping in the cache. The ID is checked against TMDB when an API key is configured.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			title := titles.Normalize(args[0])
			if title == "" {
				return fmt.Errorf("title %q is empty after normalization", args[0])
			}
			id, err := strconv.ParseInt(strings.TrimSpace(args[1]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid TMDB ID %q", args[1])
			}

			out := cmd.OutOrStdout()
			if !skipVerify {
				name, verified, err := verifyFilm(cmd.Context(), cfg, id)
				if err != nil {
					return err
				}
				if verified {
					fmt.Fprintf(out, "TMDB %d: %s\n", id, name)
				}
			}

			return withLockedState(cfg, func(st *state.State) error {
				st.CacheFilm(title, id)
				fmt.Fprintf(out, "Cached %q -> %d\n", title, id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&skipVerify, "no-verify", false, "Skip the TMDB lookup")
	return cmd
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <title>",
		Short: "Remove a cached title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			title := titles.Normalize(args[0])
			return withLockedState(cfg, func(st *state.State) error {
				if !st.ForgetFilm(title) {
					return fmt.Errorf("title %q is not cached (see 'ovtracker cache list')", title)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %q from the film cache\n", title)
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return withLockedState(cfg, func(st *state.State) error {
				n := st.ClearFilms()
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached entries\n", n)
				return nil
			})
		},
	}
}

// withLockedState loads the state under the run lock and saves it when fn
// changed it.
func withLockedState(cfg *config.Config, fn func(*state.State) error) error {
	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		return err
	}
	defer lock.Release()

	st := state.Load(cfg.StatePath(), nil)
	if err := fn(st); err != nil {
		return err
	}
	if !st.Dirty() {
		return nil
	}
	return st.Save(cfg.StatePath())
}

// verifyFilm looks id up on TMDB. It reports false without error when no API
// key is configured.
func verifyFilm(ctx context.Context, cfg *config.Config, id int64) (string, bool, error) {
	searcher, err := pipeline.NewSearcher(cfg)
	if err != nil {
		return "", false, err
	}
	if searcher == nil {
		return "", false, nil
	}
	film, err := searcher.GetMovieDetails(ctx, id)
	if err != nil {
		return "", false, services.Wrap(services.ErrNotFound, "cache", "verify film", fmt.Sprintf("TMDB ID %d", id), err)
	}
	if film == nil {
		return "", false, errors.New("empty TMDB response")
	}
	name := film.Title
	if year := film.ReleaseYear(); year > 0 {
		name = fmt.Sprintf("%s (%d)", name, year)
	}
	return name, true, nil
}
