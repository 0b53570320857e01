// Package digest groups a week's OV sessions into one item per film.
package digest

import (
	"context"
	"sort"

	"ovtracker/internal/identification"
	"ovtracker/internal/schedule"
	"ovtracker/internal/state"
	"ovtracker/internal/titles"
)

// FilmResolver maps a normalized title to a film identifier.
type FilmResolver interface {
	Resolve(ctx context.Context, title string, year int) identification.Resolution
}

// TicketLinker returns the ticket page for a film, or fallback.
type TicketLinker interface {
	Link(ctx context.Context, title, fallback string) string
}

// Item is one film in the digest, represented by its earliest session.
type Item struct {
	Title     string
	Session   schedule.Session
	FilmID    *int64
	TicketURL string
}

// Result is the built digest.
type Result struct {
	Items []Item
	// Missing lists titles without a resolved film identifier, sorted.
	Missing []string
}

// Build groups sessions by normalized title, picks the earliest session of
// each group, resolves film and ticket links, and orders items by start time.
// Ties keep input order. A nil linker uses the schedule film page.
func Build(ctx context.Context, sessions []schedule.Session, resolver FilmResolver, linker TicketLinker) Result {
	var order []string
	groups := make(map[string][]schedule.Session)
	for _, s := range sessions {
		title := titles.Normalize(s.RawTitle)
		if title == "" {
			continue
		}
		if _, seen := groups[title]; !seen {
			order = append(order, title)
		}
		groups[title] = append(groups[title], s)
	}

	result := Result{Items: make([]Item, 0, len(order))}
	for _, title := range order {
		if ctx.Err() != nil {
			break
		}
		group := groups[title]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Start.Before(group[j].Start)
		})
		rep := group[0]

		item := Item{Title: title, Session: rep, TicketURL: rep.FilmURL}
		if resolver != nil {
			if res := resolver.Resolve(ctx, title, 0); res.Found {
				id := res.FilmID
				item.FilmID = &id
			}
		}
		if item.FilmID == nil {
			result.Missing = append(result.Missing, title)
		}
		if linker != nil {
			item.TicketURL = linker.Link(ctx, title, rep.FilmURL)
		}
		result.Items = append(result.Items, item)
	}

	sort.SliceStable(result.Items, func(i, j int) bool {
		return result.Items[i].Session.Start.Before(result.Items[j].Session.Start)
	})
	sort.Strings(result.Missing)
	return result
}

// Entries returns the fingerprint view of the items.
func (r Result) Entries() []state.Entry {
	entries := make([]state.Entry, 0, len(r.Items))
	for _, item := range r.Items {
		entries = append(entries, state.Entry{
			Title:     item.Title,
			Start:     item.Session.Start,
			FilmID:    item.FilmID,
			TicketURL: item.TicketURL,
		})
	}
	return entries
}

// Fingerprint returns the content fingerprint of the digest.
func (r Result) Fingerprint() string {
	return state.Fingerprint(r.Entries())
}
