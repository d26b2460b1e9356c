package reveal

import (
	"sync"
	"time"
)

// Target receives the fragments of a reveal.
type Target interface {
	SetContent(content string)
	AppendContent(fragment string)
}

// Clock schedules the delay between two fragments.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Animator starts reveal runs. The zero value is not usable, use NewAnimator.
type Animator struct {
	clock Clock
}

type AnimatorOption func(*Animator)

func WithClock(c Clock) AnimatorOption {
	return func(a *Animator) {
		if c != nil {
			a.clock = c
		}
	}
}

func NewAnimator(opts ...AnimatorOption) *Animator {
	a := &Animator{clock: realClock{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type runState int

const (
	stateRunning runState = iota
	stateCompleted
	stateStopped
)

// Run is a single reveal of a text into a target.
type Run struct {
	target Target
	seq    *Sequence

	mu    sync.Mutex
	state runState

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Start clears the target, writes the first fragment right away and schedules
// the remaining fragments one per delay.
func (a *Animator) Start(target Target, text string, delay time.Duration) *Run {
	r := &Run{
		target: target,
		seq:    NewSequence(text),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	target.SetContent("")
	if frag, ok := r.seq.Next(); ok {
		target.AppendContent(frag)
	}
	if r.seq.Remaining() == 0 {
		r.state = stateCompleted
		close(r.done)
		return r
	}

	go r.drive(a.clock, delay)
	return r
}

func (r *Run) drive(clock Clock, delay time.Duration) {
	defer close(r.done)

	for {
		select {
		case <-r.stop:
			return
		case <-clock.After(delay):
		}

		r.mu.Lock()
		if r.state != stateRunning {
			r.mu.Unlock()
			return
		}
		if frag, ok := r.seq.Next(); ok {
			r.target.AppendContent(frag)
		}
		finished := r.seq.Remaining() == 0
		if finished {
			r.state = stateCompleted
		}
		r.mu.Unlock()

		if finished {
			return
		}
	}
}

// Stop halts the reveal, leaving the target with whatever was written so far.
func (r *Run) Stop() {
	r.mu.Lock()
	if r.state == stateRunning {
		r.state = stateStopped
	}
	r.mu.Unlock()
	r.signal()
}

// Finish writes everything that is left in one go and ends the run.
// It is used when a newer reveal supersedes this one.
func (r *Run) Finish() {
	r.mu.Lock()
	if r.state == stateRunning {
		if rest := r.seq.Drain(); rest != "" {
			r.target.AppendContent(rest)
		}
		r.state = stateCompleted
	}
	r.mu.Unlock()
	r.signal()
}

func (r *Run) signal() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Done is closed once the run no longer writes to its target.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

func (r *Run) Wait() {
	<-r.done
}

// Completed reports whether the full text reached the target.
func (r *Run) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateCompleted
}

func (r *Run) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateStopped
}

// Final is the markup the target holds once the run completes.
func (r *Run) Final() string {
	return r.seq.Final()
}
