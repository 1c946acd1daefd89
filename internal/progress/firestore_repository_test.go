package progress

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/focusnest/study-tracker/internal/platform/logging"
)

// newEmulatorRepository connects to the Firestore emulator under a fresh app id so runs do not
// see each other's documents. Without FIRESTORE_EMULATOR_HOST the test is skipped.
func newEmulatorRepository(t *testing.T) (*firestore.Client, *firestoreRepository) {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := firestore.NewClient(ctx, "study-tracker-test")
	if err != nil {
		t.Fatalf("firestore client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	repo := NewFirestoreRepository(client, "test-"+uuid.NewString(), logging.Discard()).(*firestoreRepository)
	return client, repo
}

func TestFirestoreRepository_SaveMergesFields(t *testing.T) {
	_, repo := newEmulatorRepository(t)
	ctx := context.Background()

	if err := repo.Save(ctx, "W1", Patch{}.WithRewards(Rewards{"a", "b", "c"})); err != nil {
		t.Fatalf("save rewards: %v", err)
	}
	if err := repo.Save(ctx, "W1", Patch{}.WithProgress(map[string]int{"m1": 2, "m2": 1})); err != nil {
		t.Fatalf("save progress: %v", err)
	}
	if err := repo.Save(ctx, "W1", Patch{}.WithProgress(map[string]int{"m1": 3})); err != nil {
		t.Fatalf("save progress again: %v", err)
	}

	snap, err := repo.collection().Doc("W1").Get(ctx)
	if err != nil {
		t.Fatalf("get W1: %v", err)
	}
	data := snap.Data()
	if _, ok := data[FieldStructure]; ok {
		t.Fatalf("structure must stay absent: %v", data)
	}
	if _, ok := data["updated_at"]; !ok {
		t.Fatalf("expected updated_at to be written")
	}

	doc := decodeWeekDocument(data)
	if !reflect.DeepEqual(doc.Rewards, []string{"a", "b", "c"}) {
		t.Fatalf("rewards not preserved by the progress write: %v", doc.Rewards)
	}
	if !reflect.DeepEqual(doc.Progress, map[string]int{"m1": 3}) {
		t.Fatalf("progress must be replaced as a whole field, got %v", doc.Progress)
	}

	if err := repo.Save(ctx, "W1", Patch{}); !errors.Is(err, ErrEmptyPatch) {
		t.Fatalf("expected ErrEmptyPatch, got %v", err)
	}
}

func TestFirestoreRepository_SubscribeDecodesSnapshots(t *testing.T) {
	_, repo := newEmulatorRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := repo.Save(ctx, "W1", Patch{}.WithProgress(map[string]int{"m1": 4})); err != nil {
		t.Fatalf("save W1: %v", err)
	}
	// A structure of the wrong shape falls back to the template; the rest of the document is kept.
	if _, err := repo.collection().Doc("W2").Set(ctx, map[string]any{
		FieldStructure: "not a list",
		FieldProgress:  map[string]any{"e1": 2},
	}); err != nil {
		t.Fatalf("seed W2: %v", err)
	}

	snaps := make(chan Snapshot, 16)
	unsubscribe, err := repo.Subscribe(ctx, func(s Snapshot) {
		select {
		case snaps <- s:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsubscribe()

	deadline := time.After(10 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("no snapshot with both weeks before deadline")
		case snap := <-snaps:
			w1, ok1 := snap.Week("W1")
			w2, ok2 := snap.Week("W2")
			if !ok1 || !ok2 {
				continue
			}
			if snap.Version == 0 || snap.ReadTime.IsZero() {
				t.Fatalf("snapshot missing version or read time: %+v", snap)
			}
			if w1.Progress["m1"] != 4 {
				t.Fatalf("W1 progress = %v", w1.Progress)
			}
			if w2.Structure != nil || w2.Progress["e1"] != 2 {
				t.Fatalf("W2 decoded as %+v", w2)
			}
			return
		}
	}
}
