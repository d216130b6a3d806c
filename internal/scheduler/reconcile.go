package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tradelog-backend/internal/ledger"
)

// Reconciler sweeps every wallet against its transaction log and reports
// balances that no longer match.
type Reconciler interface {
	Reconcile(ctx context.Context) ([]ledger.Drift, error)
}

// Notifier pushes a human-readable alert (chat webhook, console).
type Notifier interface {
	Send(msg string)
}

type ReconcileConfig struct {
	Interval time.Duration // e.g. 1*time.Hour
	OnDrift  func(drifts []ledger.Drift)
}

type ReconcileScheduler struct {
	led    Reconciler
	notify Notifier
	cfg    ReconcileConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

func NewReconcileScheduler(led Reconciler, notify Notifier, cfg ReconcileConfig) *ReconcileScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 1 * time.Hour
	}
	return &ReconcileScheduler{
		led:    led,
		notify: notify,
		cfg:    cfg,
	}
}

func (s *ReconcileScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		fmt.Println("[RECONCILE] Already running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	// Initial sweep on startup (fire-and-forget)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()
		if err := s.sweep(ctx); err != nil {
			fmt.Printf("[RECONCILE] Initial sweep failed: %v\n", err)
		}
	}()

	// Recurring ticker
	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
				if err := s.sweep(ctx); err != nil {
					fmt.Printf("[RECONCILE] Sweep failed: %v\n", err)
				}
				cancel()
			}
		}
	}()

	fmt.Printf("[RECONCILE] Started (every %s)\n", s.cfg.Interval)
}

func (s *ReconcileScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
	fmt.Println("[RECONCILE] Stopped")
}

func (s *ReconcileScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow manually triggers a sweep outside the normal schedule.
func (s *ReconcileScheduler) RunNow(ctx context.Context) error {
	fmt.Println("[RECONCILE] Manual sweep triggered")
	return s.sweep(ctx)
}

func (s *ReconcileScheduler) sweep(ctx context.Context) error {
	drifts, err := s.led.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	if len(drifts) == 0 {
		fmt.Println("[RECONCILE] All wallets match their transaction logs")
		return nil
	}

	for _, d := range drifts {
		msg := fmt.Sprintf("Ledger drift for user %d: wallet balance ₹%.2f vs transaction sum ₹%.2f (delta ₹%.2f)",
			d.UserID, d.Balance, d.LedgerSum, d.Delta)
		fmt.Printf("[RECONCILE] %s\n", msg)
		if s.notify != nil {
			s.notify.Send(msg)
		}
	}

	if s.cfg.OnDrift != nil {
		s.cfg.OnDrift(drifts)
	}
	return nil
}
