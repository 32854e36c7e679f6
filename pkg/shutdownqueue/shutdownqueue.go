// Package shutdownqueue is a process-wide LIFO queue of named cleanup tasks.
//
// Components register their own teardown next to where they start, and main
// drains the queue once on exit:
//
//	shutdownqueue.Add("http server", srv.Shutdown)
//	...
//	err := shutdownqueue.Shutdown(ctx)
//
// Tasks run once, newest first. Panics are recovered and reported as errors;
// task errors are joined with errors.Join and carry the task name.
package shutdownqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task should honour ctx and return an error if it cannot finish in time.
type Task func(ctx context.Context) error

type entry struct {
	name string
	run  Task
}

type queue struct {
	mu      sync.Mutex
	entries []entry
	closed  bool
}

var q = &queue{entries: make([]entry, 0, 8)}

// Add registers t under name. It is a no-op for a nil task or once Shutdown
// has started.
func Add(name string, t Task) {
	if t == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.entries = append(q.entries, entry{name: name, run: t})
}

// Shutdown drains the queue newest first. Later calls are no-ops. If ctx ends
// mid-drain, the remaining tasks are skipped and the context error is joined
// to the task errors so far.
func Shutdown(ctx context.Context) error {
	q.mu.Lock()

	if q.closed && len(q.entries) == 0 {
		q.mu.Unlock()
		return nil
	}

	q.closed = true
	entries := q.entries
	q.entries = nil

	q.mu.Unlock()

	var errs []error

	for i := len(entries) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			skipped := make([]string, 0, i+1)
			for j := i; j >= 0; j-- {
				skipped = append(skipped, entries[j].name)
			}

			slog.Error("shutdown deadline reached", "skipped", skipped)
			errs = append(errs, fmt.Errorf("shutdown canceled: %w", ctx.Err()))

			return errors.Join(errs...)
		}

		err := runTask(ctx, entries[i])
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func runTask(ctx context.Context, e entry) (err error) {
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in shutdown task %s: %v", e.name, r)
		}

		if err != nil {
			slog.Error("shutdown task failed", "task", e.name, "error", err)
			return
		}

		slog.Info("shutdown task done", "task", e.name, "took", time.Since(started))
	}()

	err = e.run(ctx)
	if err != nil {
		return fmt.Errorf("shutdown %s: %w", e.name, err)
	}

	return nil
}
