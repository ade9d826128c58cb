package metrics

import (
	"testing"

	"github.com/hawkly/errwatch/internal/core/domain"
)

func report(category domain.Category, component string, attempt int) *domain.Report {
	return &domain.Report{
		Message: "op failed",
		Additional: map[string]any{
			domain.KeyCategory:  string(category),
			domain.KeyComponent: component,
			domain.KeyAttempt:   attempt,
		},
	}
}

func TestAggregator_Counters(t *testing.T) {
	a := NewAggregator()

	a.Update(report(domain.CategoryNetwork, "escrow", 0))
	a.Update(report(domain.CategoryNetwork, "escrow", 1))
	a.Update(report(domain.CategoryServer, "chat", 2))

	snap := a.Snapshot()
	if snap.TotalErrors != 3 {
		t.Errorf("TotalErrors = %d, want 3", snap.TotalErrors)
	}
	if snap.ErrorsByCategory[domain.CategoryNetwork] != 2 {
		t.Errorf("network count = %d, want 2", snap.ErrorsByCategory[domain.CategoryNetwork])
	}
	if snap.ErrorsByCategory[domain.CategoryServer] != 1 {
		t.Errorf("server count = %d, want 1", snap.ErrorsByCategory[domain.CategoryServer])
	}
	if snap.ErrorsByComponent["escrow"] != 2 || snap.ErrorsByComponent["chat"] != 1 {
		t.Errorf("component counts = %v", snap.ErrorsByComponent)
	}
	if snap.RetryAttempts != 2 {
		t.Errorf("RetryAttempts = %d, want 2", snap.RetryAttempts)
	}
}

func TestAggregator_RecoveryRate(t *testing.T) {
	a := NewAggregator()

	if got := a.Snapshot().RecoveryRate; got != 0 {
		t.Errorf("RecoveryRate with no retries = %f, want 0", got)
	}

	a.Update(report(domain.CategoryNetwork, "", 0))
	if got := a.Snapshot().RecoveryRate; got != 0 {
		t.Errorf("RecoveryRate with zero retryAttempts = %f, want 0", got)
	}

	a.Update(report(domain.CategoryNetwork, "", 1))
	a.Update(report(domain.CategoryNetwork, "", 2))

	snap := a.Snapshot()
	// (retryAttempts - totalErrors) / retryAttempts = (2 - 3) / 2
	want := float64(snap.RetryAttempts-snap.TotalErrors) / float64(snap.RetryAttempts)
	if snap.RecoveryRate != want {
		t.Errorf("RecoveryRate = %f, want %f", snap.RecoveryRate, want)
	}
}

func TestAggregator_DefaultsToUnknown(t *testing.T) {
	a := NewAggregator()
	a.Update(&domain.Report{Message: "untagged"})

	snap := a.Snapshot()
	if snap.ErrorsByCategory[domain.CategoryUnknown] != 1 {
		t.Errorf("expected unknown category bucket, got %v", snap.ErrorsByCategory)
	}
	if snap.ErrorsByComponent["unknown"] != 1 {
		t.Errorf("expected unknown component bucket, got %v", snap.ErrorsByComponent)
	}
}

func TestAggregator_UniqueErrors(t *testing.T) {
	a := NewAggregator()
	a.Update(&domain.Report{Message: "dup", Stack: "s1"})
	a.Update(&domain.Report{Message: "dup", Stack: "s1"})
	a.Update(&domain.Report{Message: "dup", Stack: "s2"})

	snap := a.Snapshot()
	if snap.UniqueErrors != 2 {
		t.Errorf("UniqueErrors = %d, want 2", snap.UniqueErrors)
	}
	if snap.TotalErrors != 3 {
		t.Errorf("TotalErrors = %d, want 3", snap.TotalErrors)
	}
}

func TestAggregator_SnapshotIsCopy(t *testing.T) {
	a := NewAggregator()
	a.Update(report(domain.CategoryNetwork, "escrow", 0))

	snap := a.Snapshot()
	snap.ErrorsByCategory[domain.CategoryNetwork] = 99

	if a.Snapshot().ErrorsByCategory[domain.CategoryNetwork] != 1 {
		t.Error("mutating a snapshot must not affect the aggregator")
	}
}
