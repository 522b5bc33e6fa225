package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"voltbay/internal/auctionerrors"
	"voltbay/internal/clock"
	"voltbay/internal/lock"
	"voltbay/internal/settlement"
	"voltbay/utils"
)

const (
	DefaultInterval  = time.Minute
	DefaultBatchSize = 100
	DefaultLeaseKey  = "voltbay:scheduler:settle"
)

// ErrLeaseHeld is returned by RunOnce when another replica owns the current tick
var ErrLeaseHeld = auctionerrors.New(auctionerrors.ErrConflict, "another scheduler is settling auctions")

// Scanner lists auctions due for settlement
type Scanner interface {
	ListExpiredAuctionIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// Settler settles one auction
type Settler interface {
	SettleExpired(ctx context.Context, auctionID string) (settlement.Result, error)
}

type Config struct {
	Interval  time.Duration
	BatchSize int
	LeaseKey  string
	// LeaseTTL bounds how long a crashed replica can block the others; defaults to Interval.
	LeaseTTL time.Duration
}

// Summary counts what one pass did
type Summary struct {
	Checked int `json:"checked"`
	Settled int `json:"settled"`
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Status is a point-in-time view of the scheduler
type Status struct {
	Running     bool          `json:"running"`
	Interval    time.Duration `json:"interval"`
	LastRunAt   *time.Time    `json:"last_run_at"`
	NextCheckAt *time.Time    `json:"next_check_at"`
	LastSummary *Summary      `json:"last_summary"`
}

// Scheduler periodically settles expired auctions. Start and Stop are idempotent.
type Scheduler struct {
	scanner Scanner
	settler Settler
	locker  lock.Locker
	clock   clock.Clock
	cfg     Config

	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	done        chan struct{}
	lastRunAt   time.Time
	lastSummary *Summary
}

func New(scanner Scanner, settler Settler, locker lock.Locker, clk clock.Clock, cfg Config) *Scheduler {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if locker == nil {
		locker = lock.NewLocalLocker(clk)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.LeaseKey == "" {
		cfg.LeaseKey = DefaultLeaseKey
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = cfg.Interval
	}
	return &Scheduler{
		scanner: scanner,
		settler: settler,
		locker:  locker,
		clock:   clk,
		cfg:     cfg,
	}
}

// Start launches the loop; the first pass runs immediately
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)

	utils.Info("auction scheduler started", map[string]any{"interval": s.cfg.Interval.String()})
}

// Stop cancels the loop and waits for the current pass to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	utils.Info("auction scheduler stopped", nil)
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrLeaseHeld) && ctx.Err() == nil {
			utils.Error("scheduler pass failed", map[string]any{"error": err.Error()})
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs one settlement pass. Failures on single auctions are
// counted and logged; only lease and scan failures are returned.
func (s *Scheduler) RunOnce(ctx context.Context) (Summary, error) {
	token, ok, err := s.locker.TryLock(ctx, s.cfg.LeaseKey, s.cfg.LeaseTTL)
	if err != nil {
		return Summary{}, fmt.Errorf("scheduler: acquire lease: %w", err)
	}
	if !ok {
		utils.Debug("scheduler lease held elsewhere, skipping pass", nil)
		return Summary{}, ErrLeaseHeld
	}
	defer func() {
		if err := s.locker.Unlock(context.Background(), s.cfg.LeaseKey, token); err != nil {
			utils.Warn("failed to release scheduler lease", map[string]any{"error": err.Error()})
		}
	}()

	started := s.clock.Now()
	ids, err := s.scanner.ListExpiredAuctionIDs(ctx, started, s.cfg.BatchSize)
	if err != nil {
		return Summary{}, fmt.Errorf("scheduler: scan expired auctions: %w", err)
	}

	summary := Summary{Checked: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		res, err := s.settler.SettleExpired(ctx, id)
		switch {
		case errors.Is(err, auctionerrors.ErrSettlementInFlight):
			summary.Skipped++
		case err != nil:
			summary.Failed++
			utils.Error("failed to settle auction", map[string]any{"auction_id": id, "error": err.Error()})
		case !res.Applied:
			summary.Skipped++
		case res.Outcome == settlement.OutcomeWon:
			summary.Settled++
		default:
			summary.Expired++
		}
	}

	s.mu.Lock()
	s.lastRunAt = started
	recorded := summary
	s.lastSummary = &recorded
	s.mu.Unlock()

	if summary.Checked > 0 {
		utils.Info("scheduler pass complete", map[string]any{
			"checked": summary.Checked,
			"settled": summary.Settled,
			"expired": summary.Expired,
			"skipped": summary.Skipped,
			"failed":  summary.Failed,
		})
	}
	return summary, nil
}

// Status reports whether the loop runs and what the last pass did
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Running: s.running, Interval: s.cfg.Interval}
	if !s.lastRunAt.IsZero() {
		last := s.lastRunAt
		st.LastRunAt = &last
		if s.running {
			next := last.Add(s.cfg.Interval)
			st.NextCheckAt = &next
		}
	}
	if s.lastSummary != nil {
		summary := *s.lastSummary
		st.LastSummary = &summary
	}
	return st
}
