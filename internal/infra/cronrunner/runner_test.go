package cronrunner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunner_RunsJobs(t *testing.T) {
	t.Parallel()

	r := New(t.Context())

	var ok, failed atomic.Int32

	err := r.Add("ok", "* * * * * *", func(context.Context) error {
		ok.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	err = r.Add("failing", "* * * * * *", func(context.Context) error {
		failed.Add(1)
		return errors.New("boom")
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	r.Start()

	deadline := time.After(5 * time.Second)
	for ok.Load() == 0 || failed.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("jobs did not run: ok=%d failed=%d", ok.Load(), failed.Load())
		case <-time.After(50 * time.Millisecond):
		}
	}

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	if err := r.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestRunner_RejectsBadSpec(t *testing.T) {
	t.Parallel()

	r := New(t.Context())

	err := r.Add("bad", "every now and then", func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for invalid spec")
	}
}
