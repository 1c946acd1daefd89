package reward

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"
)

// DefaultDelay is how long a spin shows as spinning before it resolves.
const DefaultDelay = 2 * time.Second

// ErrSpinInFlight is returned when a spin is requested while another one is pending.
var ErrSpinInFlight = errors.New("a reward spin is already in progress")

// Result is the outcome of one spin.
type Result struct {
	Token  uint64 `json:"token"`
	Index  int    `json:"index"`
	Reward string `json:"reward"`
}

// State is what the caller needs to render the spinner.
type State struct {
	Spinning bool    `json:"spinning"`
	Last     *Result `json:"last,omitempty"`
}

// Spinner picks one of three candidates after a fixed delay. At most one spin is in flight.
type Spinner struct {
	delay time.Duration
	pick  func(n int) int
	after func(d time.Duration) <-chan time.Time

	mu       sync.Mutex
	spinning bool
	token    uint64
	last     *Result
}

// Option configures a Spinner.
type Option func(*Spinner)

// WithDelay overrides DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(s *Spinner) { s.delay = d }
}

// WithPicker replaces the uniform random index source. pick(n) must return a value in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(s *Spinner) { s.pick = pick }
}

// WithTimer replaces time.After, mainly for tests.
func WithTimer(after func(d time.Duration) <-chan time.Time) Option {
	return func(s *Spinner) { s.after = after }
}

// NewSpinner returns an idle spinner.
func NewSpinner(opts ...Option) *Spinner {
	s := &Spinner{delay: DefaultDelay, pick: rand.IntN, after: time.After}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spin blocks for the delay and resolves to one of candidates chosen uniformly. The candidates
// are captured when the spin starts; later edits do not affect it. If ctx ends first the spin is
// abandoned and the slot released.
func (s *Spinner) Spin(ctx context.Context, candidates [3]string) (Result, error) {
	s.mu.Lock()
	if s.spinning {
		s.mu.Unlock()
		return Result{}, ErrSpinInFlight
	}
	s.spinning = true
	s.token++
	token := s.token
	s.last = nil
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		s.finish(token, nil)
		return Result{}, ctx.Err()
	case <-s.after(s.delay):
	}

	idx := s.pick(len(candidates))
	res := Result{Token: token, Index: idx, Reward: candidates[idx]}
	s.finish(token, &res)
	return res, nil
}

// finish records res unless a newer spin has started since token was issued.
func (s *Spinner) finish(token uint64, res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		return
	}
	s.spinning = false
	s.last = res
}

// State reports whether a spin is pending and the last resolved result.
func (s *Spinner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{Spinning: s.spinning}
	if s.last != nil {
		last := *s.last
		st.Last = &last
	}
	return st
}

// Registry hands out one Spinner per session key.
type Registry struct {
	opts []Option

	mu       sync.Mutex
	spinners map[string]*Spinner
}

// NewRegistry returns a registry whose spinners share opts.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{opts: opts, spinners: make(map[string]*Spinner)}
}

// For returns the spinner for key, creating it on first use.
func (r *Registry) For(key string) *Spinner {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.spinners[key]
	if !ok {
		s = NewSpinner(r.opts...)
		r.spinners[key] = s
	}
	return s
}
