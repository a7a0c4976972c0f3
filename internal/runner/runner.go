// Package runner ties stores, the scan engine and the progress relay into
// cancellable background jobs.
package runner

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	conf "github.com/ruolez/GlobalUPC/internal/config"
	"github.com/ruolez/GlobalUPC/internal/db"
	"github.com/ruolez/GlobalUPC/internal/integrations/mssql"
	"github.com/ruolez/GlobalUPC/internal/progress"
)

type Runner struct {
	log zerolog.Logger
	cfg *conf.Config
	reg *db.Handle
}

func New(log zerolog.Logger, cfg *conf.Config, reg *db.Handle) *Runner {
	return &Runner{
		log: log.With().Str("component", "runner").Logger(),
		cfg: cfg,
		reg: reg,
	}
}

func (r *Runner) engine() *mssql.Engine {
	return mssql.EngineFromConfig(r.log, r.cfg.Engine)
}

// Job is one background run. The worker goroutine pushes progress into
// Relay and closes it when finished; results are valid after Wait returns.
type Job struct {
	ID    string
	Relay *progress.Relay

	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func newJob(parent context.Context) (*Job, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	j := &Job{
		ID:     uuid.NewString(),
		Relay:  progress.NewRelay(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	return j, ctx
}

func (j *Job) finish(err error) {
	j.mu.Lock()
	j.err = err
	j.mu.Unlock()
	j.Relay.Close()
	close(j.done)
}

// Cancel requests cooperative shutdown; the worker stops at its next chunk
// boundary.
func (j *Job) Cancel() { j.cancel() }

// Wait blocks until the worker finishes and returns its error.
func (j *Job) Wait() error {
	<-j.done
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Stream forwards the job's progress into sink until the job completes or
// ctx is cancelled.
func (j *Job) Stream(ctx context.Context, cfg conf.StreamConfig, sink progress.Sink) error {
	return j.Relay.Forward(ctx, cfg.PollInterval(), cfg.HeartbeatInterval(), sink)
}

// AuditJob carries the orphan scan result.
type AuditJob struct {
	*Job
	mu      sync.Mutex
	orphans []mssql.OrphanRecord
}

func (a *AuditJob) Orphans() []mssql.OrphanRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.orphans
}

// StartAudit launches an orphan scan of source against target's catalog.
// Excluded UPCs from the registry are filtered out of the result.
func (r *Runner) StartAudit(ctx context.Context, source, target *gorm.DB, opts mssql.AuditOptions) *AuditJob {
	job, jctx := newJob(ctx)
	a := &AuditJob{Job: job}
	eng := r.engine()

	go func() {
		orphans, err := eng.AuditOrphans(jctx, source, target, opts, a.Relay.Push)
		if err == nil {
			orphans, err = r.dropExcluded(orphans)
		}
		a.mu.Lock()
		a.orphans = orphans
		a.mu.Unlock()
		r.log.Info().Str("job", a.ID).Int("orphans", len(orphans)).Err(err).Msg("audit finished")
		a.finish(err)
	}()
	return a
}

// dropExcluded removes orphans whose UPC is on the registry exclusion list.
func (r *Runner) dropExcluded(orphans []mssql.OrphanRecord) ([]mssql.OrphanRecord, error) {
	if len(orphans) == 0 {
		return orphans, nil
	}
	excluded, err := r.reg.ExcludedUPCs()
	if err != nil {
		return orphans, err
	}
	if len(excluded) == 0 {
		return orphans, nil
	}
	kept := orphans[:0]
	for _, o := range orphans {
		if _, skip := excluded[o.UPC]; !skip {
			kept = append(kept, o)
		}
	}
	return kept, nil
}

// MatchJob carries reconciliation results.
type MatchJob struct {
	*Job
	mu      sync.Mutex
	matches []mssql.Match
}

func (m *MatchJob) Matches() []mssql.Match {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matches
}

// MatchField selects the reconciliation strategy.
type MatchField string

const (
	MatchByProductID   MatchField = "product_id"
	MatchByDescription MatchField = "description"
)

// StartMatch reconciles orphans against catalog's Items_tbl using the
// chosen field.
func (r *Runner) StartMatch(ctx context.Context, catalog *gorm.DB, orphans []mssql.OrphanRecord, field MatchField) *MatchJob {
	job, jctx := newJob(ctx)
	m := &MatchJob{Job: job}
	eng := r.engine()

	go func() {
		var matches []mssql.Match
		var err error
		switch field {
		case MatchByDescription:
			matches, err = eng.MatchByDescription(jctx, catalog, orphans, m.Relay.Push)
		default:
			matches, err = eng.MatchByProductID(jctx, catalog, orphans, m.Relay.Push)
		}
		m.mu.Lock()
		m.matches = matches
		m.mu.Unlock()
		m.finish(err)
	}()
	return m
}

// UpdateJob carries per-row update results.
type UpdateJob struct {
	*Job
	mu      sync.Mutex
	results []mssql.UpdateResult
}

func (u *UpdateJob) Results() []mssql.UpdateResult {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.results
}

func (r *Runner) StartUpdate(ctx context.Context, target *gorm.DB, reqs []mssql.UpdateRequest) *UpdateJob {
	job, jctx := newJob(ctx)
	u := &UpdateJob{Job: job}
	eng := r.engine()

	go func() {
		results, err := eng.ApplyUpdates(jctx, target, reqs, u.Relay.Push)
		u.mu.Lock()
		u.results = results
		u.mu.Unlock()
		u.finish(err)
	}()
	return u
}

// DiffJob carries missing-product results.
type DiffJob struct {
	*Job
	mu      sync.Mutex
	missing []mssql.MissingProduct
}

func (d *DiffJob) Missing() []mssql.MissingProduct {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.missing
}

func (r *Runner) StartDiff(ctx context.Context, source, target *gorm.DB, filters mssql.DiffFilters) *DiffJob {
	job, jctx := newJob(ctx)
	d := &DiffJob{Job: job}
	eng := r.engine()

	go func() {
		missing, err := eng.DiffCatalogs(jctx, source, target, filters, d.Relay.Push)
		d.mu.Lock()
		d.missing = missing
		d.mu.Unlock()
		d.finish(err)
	}()
	return d
}
