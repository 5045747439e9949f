// Package reconcile merges the snapshot and live feed into one set of
// contribution statistics. It never fails: every source problem degrades
// to a narrower result.
package reconcile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vukan322/devactivity/internal/cache"
	"github.com/vukan322/devactivity/internal/core"
	"github.com/vukan322/devactivity/internal/providers"
)

type SnapshotStatus int

const (
	// SnapshotAbsent: the snapshot could not be loaded or failed validation.
	SnapshotAbsent SnapshotStatus = iota
	// SnapshotEmpty: the snapshot loaded but its map has no entries.
	SnapshotEmpty
	// SnapshotUsed: the snapshot supplied the day-level statistics.
	SnapshotUsed
)

func (s SnapshotStatus) String() string {
	switch s {
	case SnapshotEmpty:
		return "empty"
	case SnapshotUsed:
		return "used"
	default:
		return "absent"
	}
}

type LiveStatus int

const (
	LiveUnavailable LiveStatus = iota
	LivePartial
	LiveComplete
)

func (s LiveStatus) String() string {
	switch s {
	case LivePartial:
		return "partial"
	case LiveComplete:
		return "complete"
	default:
		return "unavailable"
	}
}

type Result struct {
	RunID       string
	GeneratedAt time.Time
	Today       core.Date
	Stats       core.AggregateStats
	// Calendar is the snapshot map over the trailing window, or nil when no
	// snapshot was used.
	Calendar core.ContributionMap
	Snapshot SnapshotStatus
	Live     LiveStatus
	Failures []error
}

// FallbackCalendar returns Calendar, or the live activity folded onto an
// empty window when no snapshot won.
func (r Result) FallbackCalendar() core.ContributionMap {
	if r.Calendar != nil {
		return r.Calendar
	}
	return core.FoldWindow(r.Stats.RecentActivity, r.Today, core.CalendarDays)
}

type Orchestrator struct {
	feed          providers.EventFeed
	snapshots     providers.SnapshotSource
	cache         cache.Store
	now           func() time.Time
	logger        *zap.Logger
	sourceTimeout time.Duration
}

type Option func(*Orchestrator)

func WithCache(s cache.Store) Option {
	return func(o *Orchestrator) { o.cache = s }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithSourceTimeout bounds each source independently. A source that runs
// out of time is treated as unavailable.
func WithSourceTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.sourceTimeout = d }
}

// New builds an orchestrator. snapshots may be nil, in which case every
// reconciliation is live-only.
func New(feed providers.EventFeed, snapshots providers.SnapshotSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		feed:      feed,
		snapshots: snapshots,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

type liveOutcome struct {
	records []core.ActivityRecord
	err     error
}

type snapshotOutcome struct {
	snapshot core.Snapshot
	err      error
}

// Reconcile fetches both sources concurrently and merges them. Cancelling
// ctx abandons both fetches and yields whatever degraded result remains.
func (o *Orchestrator) Reconcile(ctx context.Context, handle string) Result {
	now := o.now()
	today := core.DateOf(now)
	runID := uuid.NewString()
	logger := o.logger.With(zap.String("run", runID), zap.String("handle", handle))

	var (
		live liveOutcome
		snap snapshotOutcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		live = o.fetchLive(gctx, logger, handle)
		return nil
	})
	if o.snapshots != nil {
		g.Go(func() error {
			snap = o.loadSnapshot(gctx, logger)
			return nil
		})
	}
	_ = g.Wait()

	result := Result{
		RunID:       runID,
		GeneratedAt: now,
		Today:       today,
		Stats:       core.LiveStats(live.records, today),
		Live:        liveStatus(live),
	}
	if live.err != nil {
		result.Failures = append(result.Failures, live.err)
	}

	switch {
	case o.snapshots == nil:
		result.Snapshot = SnapshotAbsent
	case snap.err != nil:
		result.Snapshot = SnapshotAbsent
		result.Failures = append(result.Failures, snap.err)
	case len(snap.snapshot.Map) == 0:
		result.Snapshot = SnapshotEmpty
	default:
		result.Snapshot = SnapshotUsed
		result.Stats = core.MergeStats(result.Stats, snap.snapshot.Map, today)
		result.Calendar = core.Project(snap.snapshot.Map, today, core.CalendarDays)
	}

	logger.Info("reconciled",
		zap.Stringer("snapshot", result.Snapshot),
		zap.Stringer("live", result.Live),
		zap.Int("records", len(live.records)),
		zap.Int("total_contributions", result.Stats.TotalContributions),
		zap.Int("current_streak", result.Stats.CurrentStreak),
		zap.Int("longest_streak", result.Stats.LongestStreak))

	return result
}

func liveStatus(l liveOutcome) LiveStatus {
	switch {
	case l.err == nil:
		return LiveComplete
	case len(l.records) > 0:
		return LivePartial
	default:
		return LiveUnavailable
	}
}

func (o *Orchestrator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.sourceTimeout > 0 {
		return context.WithTimeout(ctx, o.sourceTimeout)
	}
	return context.WithCancel(ctx)
}

func (o *Orchestrator) fetchLive(ctx context.Context, logger *zap.Logger, handle string) liveOutcome {
	key := "events:" + o.feed.Name() + ":" + handle

	var cached []core.ActivityRecord
	if o.cacheGet(ctx, logger, key, &cached) {
		logger.Debug("live feed served from cache", zap.Int("records", len(cached)))
		return liveOutcome{records: cached}
	}

	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	records, err := o.feed.FetchEvents(ctx, handle)
	if err != nil {
		err = normalize(o.feed.Name(), err)
		logger.Warn("live feed degraded",
			zap.String("source", o.feed.Name()),
			zap.Int("records", len(records)),
			zap.Error(err))
		return liveOutcome{records: records, err: err}
	}

	o.cachePut(ctx, logger, key, records)
	return liveOutcome{records: records}
}

func (o *Orchestrator) loadSnapshot(ctx context.Context, logger *zap.Logger) snapshotOutcome {
	key := "snapshot:" + o.snapshots.Name()

	var cached core.Snapshot
	if o.cacheGet(ctx, logger, key, &cached) {
		logger.Debug("snapshot served from cache", zap.Int("days", len(cached.Map)))
		return snapshotOutcome{snapshot: cached}
	}

	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	snap, err := o.snapshots.Load(ctx)
	if err != nil {
		err = normalize(o.snapshots.Name(), err)
		logger.Warn("snapshot unavailable, falling back to live feed", zap.Error(err))
		return snapshotOutcome{err: err}
	}

	o.cachePut(ctx, logger, key, snap)
	return snapshotOutcome{snapshot: snap}
}

func (o *Orchestrator) cacheGet(ctx context.Context, logger *zap.Logger, key string, out any) bool {
	if o.cache == nil {
		return false
	}
	data, ok, err := o.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Warn("cache entry unreadable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (o *Orchestrator) cachePut(ctx context.Context, logger *zap.Logger, key string, v any) {
	if o.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn("cache entry not encodable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := o.cache.Put(ctx, key, data); err != nil {
		logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// normalize makes sure every source error is a *providers.FetchFailure.
func normalize(source string, err error) error {
	if _, ok := providers.KindOf(err); ok {
		return err
	}
	return providers.Transport(source, err)
}
