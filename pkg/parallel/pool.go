// Package parallel runs independent operations concurrently and reports every
// failure once all of them have finished.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/grovetools/ras/errors"
)

// Task is a named unit of work. The name identifies the task in aggregated errors.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool bounds how many tasks of one fan-out run at the same time.
type Pool struct {
	size int
}

// NewPool creates a pool running at most size tasks at once.
// A size below one selects runtime.NumCPU().
func NewPool(size int) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	return &Pool{size: size}
}

// Size returns the worker limit of the pool.
func (p *Pool) Size() int {
	return p.size
}

// Run executes every task, waits for all of them, and returns an aggregated
// error naming each task that failed. A failing task never cancels its siblings.
// Each call owns its own worker limit, so tasks may call Run again.
func (p *Pool) Run(ctx context.Context, op string, tasks ...Task) error {
	var (
		g        errgroup.Group
		mu       sync.Mutex
		failures []error
	)
	g.SetLimit(p.size)

	for _, task := range tasks {
		g.Go(func() error {
			if err := runTask(ctx, task); err != nil {
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", task.Name, err))
				mu.Unlock()
			}
			// Failures are collected instead of returned so the group never short-circuits.
			return nil
		})
	}
	_ = g.Wait()

	return errors.Aggregate(op, failures)
}

func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeInternal, fmt.Sprintf("panic: %v", r))
		}
	}()
	return task.Run(ctx)
}
