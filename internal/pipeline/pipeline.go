package pipeline

import (
	"context"
	"log/slog"
	"time"

	"ovtracker/internal/config"
	"ovtracker/internal/digest"
	"ovtracker/internal/history"
	"ovtracker/internal/logging"
	"ovtracker/internal/notifications"
	"ovtracker/internal/publish"
	"ovtracker/internal/render"
	"ovtracker/internal/schedule"
	"ovtracker/internal/services"
	"ovtracker/internal/state"
	"ovtracker/internal/week"
)

// Outcome summarizes how a run ended.
type Outcome string

const (
	OutcomeSent        Outcome = "sent"
	OutcomeDryRun      Outcome = "dry_run"
	OutcomeIncomplete  Outcome = "incomplete"
	OutcomeEmpty       Outcome = "empty"
	OutcomeAlreadySent Outcome = "already_sent"
)

// PageFetcher returns the raw schedule markup.
type PageFetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Journal records delivered digests.
type Journal interface {
	Record(ctx context.Context, entry history.Entry) (history.Entry, error)
}

// Options selects the run mode.
type Options struct {
	DryRun bool
	Force  bool
}

// Dependencies are the collaborators of a Runner. Journal and Linker may be nil.
type Dependencies struct {
	Fetcher   PageFetcher
	Resolver  digest.FilmResolver
	Linker    digest.TicketLinker
	Notifier  notifications.Service
	Journal   Journal
	State     *state.State
	StatePath string
	Clock     func() time.Time
}

// Report describes a finished run.
type Report struct {
	Outcome     Outcome
	Window      week.Window
	Sessions    int
	OVSessions  int
	Items       []digest.Item
	Missing     []string
	Message     string
	Hash        string
	Decision    publish.Decision
	CacheSaved  bool
	HistoryID   int64
	HistoryNote string
}

// Runner executes tracker passes.
type Runner struct {
	cfg    *config.Config
	deps   Dependencies
	logger *slog.Logger
}

// New builds a Runner.
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger) *Runner {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.State == nil {
		deps.State = state.New()
	}
	return &Runner{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
}

// State returns the state the runner mutates.
func (r *Runner) State() *state.State {
	return r.deps.State
}

// Run executes one pass.
func (r *Runner) Run(ctx context.Context, opts Options) (Report, error) {
	loc := r.cfg.Location()
	now := r.deps.Clock().In(loc)
	report := Report{Window: week.Compute(now, loc)}
	logger := logging.WithContext(ctx, r.logger).With(
		logging.String("week_start", report.Window.Key()),
		logging.Bool("dry_run", opts.DryRun),
	)

	fetchCtx := services.WithStage(ctx, "fetch")
	markup, err := r.deps.Fetcher.Fetch(fetchCtx)
	if err != nil {
		logging.ErrorWithContext(logger, "schedule fetch failed", "fetch_exhausted",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check schedule.url and network access"),
		)
		return report, err
	}

	all, err := schedule.Parse(markup, loc, now, logging.WithContext(services.WithStage(ctx, "parse"), r.logger))
	if err != nil {
		return report, services.Wrap(services.ErrTransient, "parse", "read schedule", "", err)
	}
	report.Sessions = len(all)
	logger.Info("schedule parsed", logging.Int("sessions", len(all)))

	if !opts.DryRun && !week.Complete(all, report.Window) {
		latest, _ := schedule.Latest(all)
		logger.Info("week schedule incomplete",
			logging.Args(append(logging.DecisionAttrs("completeness", "skip", "schedule does not reach horizon"),
				logging.String("horizon", report.Window.Horizon().Format(time.RFC3339)),
				logging.String("latest_session", formatTime(latest)),
			)...)...,
		)
		report.Outcome = OutcomeIncomplete
		return report, nil
	}

	ov := schedule.FilterOV(report.Window.Select(all), r.cfg.Schedule.OVMarkers)
	report.OVSessions = len(ov)
	if !opts.DryRun && len(ov) == 0 {
		logger.Info("no OV sessions this week",
			logging.Args(logging.DecisionAttrs("digest", "skip", "empty digest")...)...,
		)
		report.Outcome = OutcomeEmpty
		return report, nil
	}

	built := digest.Build(services.WithStage(ctx, "resolve"), ov, r.deps.Resolver, r.deps.Linker)
	report.Items = built.Items
	report.Missing = built.Missing
	report.Message = render.Message(r.cfg.Schedule.CinemaName, report.Window, built.Items)
	report.Hash = built.Fingerprint()
	logger.Info("digest built",
		logging.Int("items", len(built.Items)),
		logging.Int("unresolved", len(built.Missing)),
		logging.String("content_hash", report.Hash),
	)

	if !opts.DryRun && len(built.Items) == 0 {
		logger.Info("no titled OV films this week",
			logging.Args(append(logging.DecisionAttrs("digest", "skip", "empty digest"),
				logging.Int("ov_sessions", len(ov)),
			)...)...,
		)
		report.Outcome = OutcomeEmpty
		return report, nil
	}

	if opts.DryRun {
		report.Outcome = OutcomeDryRun
		report.CacheSaved = r.saveCache(logger)
		return report, nil
	}

	weekKey := report.Window.Key()
	report.Decision = publish.Decide(r.deps.State, weekKey, opts.Force)
	if !report.Decision.Send {
		if report.Decision.ContentChanged(report.Hash) {
			logging.WarnWithContext(logger, "digest changed after publish", "content_changed_after_publish",
				logging.String("previous_hash", report.Decision.PreviousHash),
				logging.String("content_hash", report.Hash),
				logging.String(logging.FieldImpact, "subscribers have the earlier digest"),
				logging.String(logging.FieldErrorHint, "rerun with --send --force to republish"),
			)
		}
		logger.Info("week already published",
			logging.Args(logging.DecisionAttrs("publish", "skip", string(report.Decision.Status))...)...,
		)
		report.Outcome = OutcomeAlreadySent
		report.CacheSaved = r.saveCache(logger)
		return report, nil
	}

	if err := r.cfg.ValidateTransport(); err != nil {
		return report, services.Wrap(services.ErrConfiguration, "publish", "validate transport", "", err)
	}

	sendCtx := services.WithStage(ctx, "publish")
	if err := r.deps.Notifier.SendDigest(sendCtx, report.Message); err != nil {
		logging.ErrorWithContext(logger, "digest delivery failed", "digest_send_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check telegram.bot_token and telegram.chat_id"),
		)
		return report, err
	}

	publish.MarkSent(r.deps.State, weekKey, report.Hash)
	if err := r.deps.State.Save(r.deps.StatePath); err != nil {
		return report, services.Wrap(services.ErrTransient, "publish", "save state", "digest was delivered", err)
	}
	report.CacheSaved = true
	report.Outcome = OutcomeSent
	logger.Info("digest published",
		logging.Args(append(logging.DecisionAttrs("publish", "sent", string(report.Decision.Status)),
			logging.Bool("forced", report.Decision.Forced),
			logging.String("content_hash", report.Hash),
		)...)...,
	)
	r.recordHistory(sendCtx, logger, &report)
	return report, nil
}

// saveCache persists new cache entries. Failures are logged; the run outcome stands.
func (r *Runner) saveCache(logger *slog.Logger) bool {
	if !r.deps.State.Dirty() {
		return false
	}
	if err := r.deps.State.Save(r.deps.StatePath); err != nil {
		logging.WarnWithContext(logger, "state cache not saved", "state_save_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "titles will be looked up again next run"),
			logging.String(logging.FieldErrorHint, "check state_dir permissions"),
		)
		return false
	}
	return true
}

func (r *Runner) recordHistory(ctx context.Context, logger *slog.Logger, report *Report) {
	if r.deps.Journal == nil {
		return
	}
	runID, _ := services.RunIDFromContext(ctx)
	entry, err := r.deps.Journal.Record(ctx, history.Entry{
		WeekStart:   report.Window.Key(),
		ContentHash: report.Hash,
		ItemCount:   len(report.Items),
		Forced:      report.Decision.Forced,
		RunID:       runID,
		SentAt:      r.deps.Clock(),
	})
	if err != nil {
		logging.WarnWithContext(logger, "publish history not recorded", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history listing will miss this send"),
		)
		report.HistoryNote = err.Error()
		return
	}
	report.HistoryID = entry.ID
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "none"
	}
	return t.Format(time.RFC3339)
}
