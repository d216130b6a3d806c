package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tradelog-backend/internal/ledger"
	"tradelog-backend/internal/scheduler"
)

type stubReconciler struct {
	mu     sync.Mutex
	drifts []ledger.Drift
	err    error
	calls  int
}

func (s *stubReconciler) Reconcile(ctx context.Context) ([]ledger.Drift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.drifts, s.err
}

func (s *stubReconciler) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *stubNotifier) Send(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *stubNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

func TestReconcileScheduler_RunNow_Clean(t *testing.T) {
	rec := &stubReconciler{}
	notify := &stubNotifier{}

	sched := scheduler.NewReconcileScheduler(rec, notify, scheduler.ReconcileConfig{
		Interval: 1 * time.Hour,
	})

	if err := sched.RunNow(context.Background()); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if rec.callCount() != 1 {
		t.Fatalf("expected 1 reconcile call, got %d", rec.callCount())
	}
	if len(notify.messages()) != 0 {
		t.Fatalf("clean sweep should not notify, got %v", notify.messages())
	}
	t.Log("Clean sweep: no alerts")
}

func TestReconcileScheduler_RunNow_Drift(t *testing.T) {
	rec := &stubReconciler{
		drifts: []ledger.Drift{
			{UserID: 7, Balance: 1000.00, LedgerSum: 950.00, Delta: 50.00},
			{UserID: 9, Balance: -20.00, LedgerSum: 0, Delta: -20.00},
		},
	}
	notify := &stubNotifier{}

	var callbackDrifts []ledger.Drift
	sched := scheduler.NewReconcileScheduler(rec, notify, scheduler.ReconcileConfig{
		Interval: 1 * time.Hour,
		OnDrift: func(drifts []ledger.Drift) {
			callbackDrifts = drifts
		},
	})

	if err := sched.RunNow(context.Background()); err != nil {
		t.Fatalf("RunNow: %v", err)
	}

	msgs := notify.messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 alerts, got %d: %v", len(msgs), msgs)
	}
	if len(callbackDrifts) != 2 {
		t.Fatalf("OnDrift expected 2 drifts, got %d", len(callbackDrifts))
	}
	t.Logf("Drift alerts: %v", msgs)
}

func TestReconcileScheduler_RunNow_Error(t *testing.T) {
	rec := &stubReconciler{err: errors.New("db gone")}

	sched := scheduler.NewReconcileScheduler(rec, nil, scheduler.ReconcileConfig{})

	if err := sched.RunNow(context.Background()); err == nil {
		t.Fatal("expected error from failing reconciler")
	}
	t.Log("Reconcile error propagated")
}

func TestReconcileScheduler_StartStop(t *testing.T) {
	rec := &stubReconciler{}

	sched := scheduler.NewReconcileScheduler(rec, nil, scheduler.ReconcileConfig{
		Interval: 1 * time.Hour,
	})

	sched.Start()
	if !sched.Running() {
		t.Fatal("expected running after Start")
	}

	// Give the initial sweep goroutine a moment
	time.Sleep(100 * time.Millisecond)
	if rec.callCount() < 1 {
		t.Fatal("expected initial sweep on Start")
	}

	sched.Stop()
	if sched.Running() {
		t.Fatal("expected not running after Stop")
	}

	// Second Stop is a no-op
	sched.Stop()

	t.Log("Start/Stop lifecycle: OK")
}
