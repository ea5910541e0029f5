package taskretry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/blueprintapi/blueprint/internal/taskretry"
)

type recordingLogger struct {
	calls int
	err   error
	meta  map[string]any
}

func (l *recordingLogger) LogError(ctx context.Context, err error, metadata map[string]any) {
	l.calls++
	l.err = err
	l.meta = metadata
}

func TestRunSucceedsWithoutLoggingOnEventualSuccess(t *testing.T) {
	logger := &recordingLogger{}
	r := taskretry.NewRunner("sync-widgets", 3, logger)

	attempts := 0
	err := r.Run(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logger.calls != 0 {
		t.Fatalf("expected no logging on eventual success, got %d calls", logger.calls)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRunLogsOnlyFinalExhaustedAttempt(t *testing.T) {
	logger := &recordingLogger{}
	r := taskretry.NewRunner("sync-widgets", 3, logger)

	attempts := 0
	boom := errors.New("boom")
	err := r.Run(context.Background(), func(ctx context.Context) error {
		attempts++
		return boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if logger.calls != 1 {
		t.Fatalf("expected exactly 1 log call on exhaustion, got %d", logger.calls)
	}
	if logger.meta["RetryCount"] != 3 {
		t.Fatalf("expected RetryCount=3 in metadata, got %+v", logger.meta)
	}
}

func TestRunWithoutLoggerStillReturnsExhaustedError(t *testing.T) {
	r := taskretry.NewRunner("sync-widgets", 2, nil)

	boom := errors.New("boom")
	err := r.Run(context.Background(), func(ctx context.Context) error {
		return boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
