// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// AsyncHandler receives the outcome of one dispatched pipeline step.
type AsyncHandler func(*Result, error)

// AsyncDispatcher is C9: off-thread execution of a prepared pipeline step,
// bounded to maxConnections concurrent tasks (spec.md §4.9), grounded on
// pkg/serve/odb/oss.go's uploadGroup/BatchObjects worker pool but expressed
// with errgroup's SetLimit instead of a hand-rolled channel+WaitGroup, since
// that's the exact primitive the teacher already reaches for in that file's
// WriteDirect two-goroutine pipe-and-hash case.
type AsyncDispatcher struct {
	g      *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewAsyncDispatcher builds a dispatcher bounded to maxConnections
// concurrent tasks.
func NewAsyncDispatcher(ctx context.Context, maxConnections int) *AsyncDispatcher {
	if maxConnections <= 0 {
		maxConnections = 16
	}
	gctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(gctx)
	g.SetLimit(maxConnections)
	return &AsyncDispatcher{g: g, ctx: gctx, cancel: cancel}
}

// errDispatcherShutdown is returned by Submit once Shutdown has been
// called; spec.md §4.9 "submitting after shutdown returns a non-zero
// failure indicator".
var errDispatcherShutdown = &Error{Code: "DispatcherShutdown", Message: "oss: dispatcher is shut down"}

// Submit queues task to run on a worker; handler is invoked with the
// outcome once it completes. Cancellation is cooperative: task observes
// ctx (threaded through to BodyPipeline chunk boundaries), and a task that
// sees the dispatcher's context already cancelled reports
// Failure(code="Cancelled") without running.
func (d *AsyncDispatcher) Submit(task func(ctx context.Context) (*Result, error), handler AsyncHandler) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return errDispatcherShutdown
	}
	d.mu.Unlock()

	d.g.Go(func() error {
		select {
		case <-d.ctx.Done():
			if handler != nil {
				handler(nil, &Error{Code: "Cancelled", Message: "oss: dispatcher cancelled"})
			}
			return nil
		default:
		}
		result, err := task(d.ctx)
		if handler != nil {
			handler(result, err)
		}
		// Task failures are reported to the caller via handler, not the
		// errgroup; one task's failure must never cancel its siblings.
		return nil
	})
	return nil
}

// Shutdown refuses further submissions, then waits for pending tasks to
// drain.
func (d *AsyncDispatcher) Shutdown() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()
	_ = d.g.Wait()
	d.cancel()
}
