package progress

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type snapshotRecorder struct {
	snaps []Snapshot
}

func (r *snapshotRecorder) record(s Snapshot) { r.snaps = append(r.snaps, s) }

func (r *snapshotRecorder) last(t *testing.T) Snapshot {
	t.Helper()
	if len(r.snaps) == 0 {
		t.Fatalf("no snapshot delivered")
	}
	return r.snaps[len(r.snaps)-1]
}

func TestMemoryRepository_InitialSnapshot(t *testing.T) {
	repo := NewMemoryRepository()
	rec := &snapshotRecorder{}

	unsubscribe, err := repo.Subscribe(context.Background(), rec.record)
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	defer unsubscribe()

	if len(rec.snaps) != 1 || len(rec.snaps[0].Weeks) != 0 {
		t.Fatalf("expected one empty initial snapshot, got %+v", rec.snaps)
	}
}

func TestMemoryRepository_SavePreservesOtherFields(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	rec := &snapshotRecorder{}
	unsubscribe, _ := repo.Subscribe(ctx, rec.record)
	defer unsubscribe()

	rewards := Rewards{"a", "b", "c"}
	if err := repo.Save(ctx, "W1", Patch{}.WithRewards(rewards)); err != nil {
		t.Fatalf("save rewards: %v", err)
	}
	if err := repo.Save(ctx, "W1", Patch{}.WithProgress(map[string]int{"m1": 2})); err != nil {
		t.Fatalf("save progress: %v", err)
	}

	snap := rec.last(t)
	doc, ok := snap.Week("W1")
	if !ok {
		t.Fatalf("W1 missing from snapshot")
	}
	if !reflect.DeepEqual(doc.Rewards, []string{"a", "b", "c"}) {
		t.Fatalf("rewards were not preserved: %v", doc.Rewards)
	}
	if doc.Progress["m1"] != 2 || doc.Structure != nil {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestMemoryRepository_ProgressReplacedWhole(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	rec := &snapshotRecorder{}
	unsubscribe, _ := repo.Subscribe(ctx, rec.record)
	defer unsubscribe()

	_ = repo.Save(ctx, "W2", Patch{}.WithProgress(map[string]int{"a": 1, "b": 2}))
	_ = repo.Save(ctx, "W2", Patch{}.WithProgress(map[string]int{"a": 3}))

	snap := rec.last(t)
	doc, _ := snap.Week("W2")
	if !reflect.DeepEqual(doc.Progress, map[string]int{"a": 3}) {
		t.Fatalf("progress must be replaced as a whole field, got %v", doc.Progress)
	}
}

func TestMemoryRepository_SnapshotsAreOrderedAndIsolated(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	rec := &snapshotRecorder{}
	unsubscribe, _ := repo.Subscribe(ctx, rec.record)
	defer unsubscribe()

	progress := map[string]int{"a": 1}
	_ = repo.Save(ctx, "W1", Patch{}.WithProgress(progress))
	progress["a"] = 99
	_ = repo.Save(ctx, "W3", Patch{}.WithProgress(map[string]int{"x": 1}))

	if len(rec.snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(rec.snaps))
	}
	for i := 1; i < len(rec.snaps); i++ {
		if rec.snaps[i].Version <= rec.snaps[i-1].Version {
			t.Fatalf("versions not increasing: %d then %d", rec.snaps[i-1].Version, rec.snaps[i].Version)
		}
	}
	if doc, _ := rec.snaps[1].Week("W1"); doc.Progress["a"] != 1 {
		t.Fatalf("caller mutation leaked into stored state: %v", doc.Progress)
	}
	if _, ok := rec.snaps[1].Week("W3"); ok {
		t.Fatalf("older snapshot must not see later writes")
	}
}

func TestMemoryRepository_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	rec := &snapshotRecorder{}
	unsubscribe, _ := repo.Subscribe(ctx, rec.record)

	unsubscribe()
	unsubscribe()
	_ = repo.Save(ctx, "W1", Patch{}.WithProgress(map[string]int{"a": 1}))

	if len(rec.snaps) != 1 {
		t.Fatalf("expected no delivery after unsubscribe, got %d snapshots", len(rec.snaps))
	}
}

func TestMemoryRepository_EmptyPatch(t *testing.T) {
	if err := NewMemoryRepository().Save(context.Background(), "W1", Patch{}); !errors.Is(err, ErrEmptyPatch) {
		t.Fatalf("expected ErrEmptyPatch, got %v", err)
	}
}

func TestPatchFields(t *testing.T) {
	p := Patch{}.WithStructure(nil).WithRewards(Rewards{})
	if !reflect.DeepEqual(p.Fields(), []string{FieldStructure, FieldRewards}) {
		t.Fatalf("unexpected fields: %v", p.Fields())
	}
	if doc := p.Apply(WeekDocument{}); doc.Structure == nil || len(doc.Structure) != 0 {
		t.Fatalf("an empty structure patch must store an empty, present structure")
	}
}
