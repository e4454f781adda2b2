package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dimitrije/bolt-api/internal/config"
)

var ErrTurnInFlight = errors.New("a turn is already running for this workspace")

type runFunc[T any] func(ctx context.Context, inputs []string) (T, error)

// batch collects the inputs of callers that arrived while a turn was running
// under the coalesce policy. One follow-up turn answers all of them.
type batch[T any] struct {
	inputs []string
	run    runFunc[T]
	done   chan struct{}
	result T
	err    error
}

// lane serializes the turns of one kind for one workspace according to an
// overlap policy.
type lane[T any] struct {
	policy config.OverlapPolicy

	mu      sync.Mutex
	running bool
	pending *batch[T]

	slot chan struct{}
}

func newLane[T any](policy config.OverlapPolicy) *lane[T] {
	return &lane[T]{policy: policy, slot: make(chan struct{}, 1)}
}

// do runs fn for input. An empty input contributes nothing to the batch.
func (l *lane[T]) do(ctx context.Context, input string, fn runFunc[T]) (T, error) {
	switch l.policy {
	case config.OverlapQueue:
		return l.queued(ctx, input, fn)
	case config.OverlapCoalesce:
		return l.coalesced(ctx, input, fn)
	default:
		return l.rejecting(ctx, input, fn)
	}
}

func (l *lane[T]) rejecting(ctx context.Context, input string, fn runFunc[T]) (T, error) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		var zero T
		return zero, ErrTurnInFlight
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()
	return fn(ctx, inputsOf(input))
}

func (l *lane[T]) queued(ctx context.Context, input string, fn runFunc[T]) (T, error) {
	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
	l.setRunning(true)
	defer func() {
		l.setRunning(false)
		<-l.slot
	}()
	return fn(ctx, inputsOf(input))
}

func (l *lane[T]) coalesced(ctx context.Context, input string, fn runFunc[T]) (T, error) {
	l.mu.Lock()
	if !l.running {
		l.running = true
		l.mu.Unlock()

		// Deferred so a panicking turn still hands the lane on.
		defer func() { go l.drain(context.WithoutCancel(ctx)) }()
		return fn(ctx, inputsOf(input))
	}

	if l.pending == nil {
		l.pending = &batch[T]{done: make(chan struct{})}
	}
	b := l.pending
	if input != "" {
		b.inputs = append(b.inputs, input)
	}
	// The newest caller's settings drive the follow-up turn.
	b.run = fn
	l.mu.Unlock()

	select {
	case <-b.done:
		return b.result, b.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// drain runs follow-up turns until no caller is waiting, then frees the lane.
func (l *lane[T]) drain(ctx context.Context) {
	for {
		l.mu.Lock()
		b := l.pending
		l.pending = nil
		if b == nil {
			l.running = false
			l.mu.Unlock()
			return
		}
		l.mu.Unlock()

		b.finish(ctx)
	}
}

// finish runs the follow-up turn of b and wakes its waiters. It runs on the
// drain goroutine, where a panic would take the process down, so one is
// turned into the batch's error.
func (b *batch[T]) finish(ctx context.Context) {
	defer close(b.done)
	defer func() {
		if r := recover(); r != nil {
			var zero T
			b.result, b.err = zero, fmt.Errorf("follow-up turn panicked: %v", r)
		}
	}()
	b.result, b.err = b.run(ctx, b.inputs)
}

func (l *lane[T]) setRunning(v bool) {
	l.mu.Lock()
	l.running = v
	l.mu.Unlock()
}

func (l *lane[T]) busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func inputsOf(input string) []string {
	if input == "" {
		return nil
	}
	return []string{input}
}
