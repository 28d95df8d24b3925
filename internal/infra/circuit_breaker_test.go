package infra

import (
	"testing"
	"time"
)

func TestCircuitBreaker_AllowInClosed(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"))

	if !cb.Allow() {
		t.Error("Expected Allow() to return true in CLOSED state")
	}
	if cb.GetState() != BreakerClosed {
		t.Errorf("Expected state CLOSED, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cfg := CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          100 * time.Millisecond,
	}
	cb := NewCircuitBreaker(cfg)

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.GetState() != BreakerClosed {
		t.Errorf("Expected CLOSED before threshold, got %s", cb.GetState())
	}

	cb.RecordFailure()
	if cb.GetState() != BreakerOpen {
		t.Errorf("Expected OPEN after threshold, got %s", cb.GetState())
	}
	if cb.Allow() {
		t.Error("Expected Allow() to return false in OPEN state")
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cfg := CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Timeout:          20 * time.Millisecond,
	}
	cb := NewCircuitBreaker(cfg)

	cb.RecordFailure()
	if cb.GetState() != BreakerOpen {
		t.Fatalf("Expected OPEN, got %s", cb.GetState())
	}

	// After timeout the next Allow() probes half-open.
	time.Sleep(30 * time.Millisecond)
	if !cb.Allow() {
		t.Error("Expected Allow() to probe after timeout")
	}
	if cb.GetState() != BreakerHalfOpen {
		t.Fatalf("Expected HALF_OPEN, got %s", cb.GetState())
	}

	cb.RecordSuccess()
	cb.RecordSuccess()
	if cb.GetState() != BreakerClosed {
		t.Errorf("Expected CLOSED after recovery, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cfg := CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Timeout:          20 * time.Millisecond,
	}
	cb := NewCircuitBreaker(cfg)

	cb.RecordFailure()
	time.Sleep(30 * time.Millisecond)
	cb.Allow() // transitions to half-open

	cb.RecordFailure()
	if cb.GetState() != BreakerOpen {
		t.Errorf("Expected OPEN after half-open failure, got %s", cb.GetState())
	}
}
