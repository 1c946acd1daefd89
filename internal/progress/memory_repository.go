package progress

import (
	"context"
	"sync"
	"time"
)

type memorySubscriber struct {
	onChange func(Snapshot)
}

type memoryRepository struct {
	mu      sync.Mutex
	store   map[string]WeekDocument // weekID -> document
	version uint64
	subs    map[int]*memorySubscriber
	nextSub int

	// deliverMu serialises fan-out so subscribers see snapshots in commit order.
	deliverMu sync.Mutex
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
// Subscribers are called synchronously from Subscribe and Save.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		store: make(map[string]WeekDocument),
		subs:  make(map[int]*memorySubscriber),
	}
}

func (r *memoryRepository) Subscribe(ctx context.Context, onChange func(Snapshot)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	sub := &memorySubscriber{onChange: onChange}
	r.subs[id] = sub
	snap := r.snapshotLocked()
	r.mu.Unlock()

	sub.onChange(snap)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			unsubscribe()
		}()
	}

	return unsubscribe, nil
}

func (r *memoryRepository) Save(ctx context.Context, weekID string, patch Patch) error {
	if patch.IsEmpty() {
		return ErrEmptyPatch
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.mu.Lock()
	doc := r.store[weekID]
	r.store[weekID] = patch.Apply(doc)
	r.version++
	snap := r.snapshotLocked()
	subs := make([]*memorySubscriber, 0, len(r.subs))
	for _, s := range r.subs {
		subs = append(subs, s)
	}
	r.mu.Unlock()

	for _, s := range subs {
		s.onChange(snap)
	}
	return nil
}

func (r *memoryRepository) snapshotLocked() Snapshot {
	weeks := make(map[string]WeekDocument, len(r.store))
	for id, doc := range r.store {
		weeks[id] = cloneDocument(doc)
	}
	return Snapshot{Version: r.version, ReadTime: time.Now().UTC(), Weeks: weeks}
}
