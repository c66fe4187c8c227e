package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBusy = errors.New("database is locked (5) SQLITE_BUSY")
var errOther = errors.New("no such table: cards")

func TestIsBusy(t *testing.T) {
	if !IsBusy(errBusy) {
		t.Error("expected busy error to be classified as busy")
	}
	if IsBusy(errOther) {
		t.Error("expected non-busy error not to be classified as busy")
	}
	if IsBusy(nil) {
		t.Error("nil should not be classified as busy")
	}
}

func TestDo_SucceedsOnFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Options{}, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_NonBusyErrorPropagatesImmediately(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Options{}, func() error {
		calls++
		return errOther
	})
	if !errors.Is(err, errOther) {
		t.Fatalf("expected errOther, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call for a non-retryable error, got %d", calls)
	}
}

func TestDo_RetriesBusyThenSucceeds(t *testing.T) {
	calls := 0
	opts := Options{BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, MaxRetries: 3}
	err := Do(context.Background(), opts, func() error {
		calls++
		if calls < 3 {
			return errBusy
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsRetriesAndReturnsLastError(t *testing.T) {
	calls := 0
	opts := Options{BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, MaxRetries: 2}
	err := Do(context.Background(), opts, func() error {
		calls++
		return errBusy
	})
	if !errors.Is(err, errBusy) {
		t.Fatalf("expected errBusy after exhausting retries, got %v", err)
	}
	if calls != 3 { // initial attempt + MaxRetries retries
		t.Errorf("expected 3 calls (1 + MaxRetries), got %d", calls)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	opts := Options{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, MaxRetries: 5}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, opts, func() error {
		calls++
		return errBusy
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
