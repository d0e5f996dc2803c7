package view

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrAnimatorRunning is returned when Start is called on a running animator
var ErrAnimatorRunning = errors.New("animator already running")

// StepFunc performs one animation step. Returning an error ends the loop.
type StepFunc func(ctx context.Context) error

// Animator runs a step, waits, and repeats until stopped. Steps never overlap.
type Animator struct {
	interval time.Duration
	step     StepFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
	steps  int
}

// NewAnimator creates a stopped animator
func NewAnimator(interval time.Duration, step StepFunc) *Animator {
	return &Animator{interval: interval, step: step}
}

// Start launches the loop. The loop ends when ctx is done, Stop is called or a
// step fails.
func (a *Animator) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done != nil {
		select {
		case <-a.done:
		default:
			return ErrAnimatorRunning
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done
	a.err = nil

	go a.run(ctx, done)
	return nil
}

func (a *Animator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil {
			return
		}
		if err := a.step(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				a.mu.Lock()
				a.err = err
				a.mu.Unlock()
			}
			return
		}
		a.mu.Lock()
		a.steps++
		a.mu.Unlock()

		timer := time.NewTimer(a.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Stop cancels the loop and waits for the current step to return
func (a *Animator) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active
func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done == nil {
		return false
	}
	select {
	case <-a.done:
		return false
	default:
		return true
	}
}

// Steps returns the number of completed steps
func (a *Animator) Steps() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.steps
}

// Err returns the error that ended the loop, if any
func (a *Animator) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}
