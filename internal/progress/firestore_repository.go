package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const weeksCollection = "weeklyProgress"

type firestoreRepository struct {
	client *firestore.Client
	appID  string
	logger *slog.Logger
}

// NewFirestoreRepository creates a repository over artifacts/{appID}/public/data/weeklyProgress.
func NewFirestoreRepository(client *firestore.Client, appID string, logger *slog.Logger) Repository {
	return &firestoreRepository{client: client, appID: appID, logger: logger}
}

func (r *firestoreRepository) collection() *firestore.CollectionRef {
	return r.client.Collection("artifacts").Doc(r.appID).
		Collection("public").Doc("data").
		Collection(weeksCollection)
}

// Subscribe runs a live query over the collection on its own goroutine. A stream that ends
// with an error is logged and not restarted; subscribers keep the last snapshot they saw.
func (r *firestoreRepository) Subscribe(ctx context.Context, onChange func(Snapshot)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	it := r.collection().Snapshots(ctx)

	go func() {
		defer it.Stop()
		var version uint64
		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled || errors.Is(err, iterator.Done) {
					return
				}
				r.logger.Error("week subscription ended", "error", err)
				return
			}

			weeks, err := readWeeks(qs.Documents)
			if err != nil {
				r.logger.Warn("skipping unreadable snapshot", "error", err)
				continue
			}
			version++
			onChange(Snapshot{Version: version, ReadTime: qs.ReadTime, Weeks: weeks})
		}
	}()

	return cancel, nil
}

func readWeeks(docs *firestore.DocumentIterator) (map[string]WeekDocument, error) {
	defer docs.Stop()
	weeks := make(map[string]WeekDocument)
	for {
		doc, err := docs.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		weeks[doc.Ref.ID] = decodeWeekDocument(doc.Data())
	}
	return weeks, nil
}

// Save writes only the patched top-level fields. Listing them as merge paths replaces each
// field whole and leaves the other fields of the document as stored.
func (r *firestoreRepository) Save(ctx context.Context, weekID string, patch Patch) error {
	if patch.IsEmpty() {
		return ErrEmptyPatch
	}

	data := make(map[string]any, 3)
	paths := make([]firestore.FieldPath, 0, 3)
	if patch.hasProgress {
		data[FieldProgress] = patch.progress
		paths = append(paths, firestore.FieldPath{FieldProgress})
	}
	if patch.hasStructure {
		data[FieldStructure] = patch.structure
		paths = append(paths, firestore.FieldPath{FieldStructure})
	}
	if patch.hasRewards {
		data[FieldRewards] = patch.rewards
		paths = append(paths, firestore.FieldPath{FieldRewards})
	}
	data["updated_at"] = time.Now().UTC()
	paths = append(paths, firestore.FieldPath{"updated_at"})

	_, err := r.collection().Doc(weekID).Set(ctx, data, firestore.Merge(paths...))
	if err != nil {
		return fmt.Errorf("save week %s: %w", weekID, err)
	}
	return nil
}
