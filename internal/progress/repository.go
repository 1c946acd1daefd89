package progress

import "context"

// Field names of a stored week document.
const (
	FieldProgress  = "progress"
	FieldStructure = "structure"
	FieldRewards   = "rewards"
)

// Patch lists whole top-level fields to replace in a week document. Fields not set are left
// as stored. There is no way to patch inside a field: callers read the current value, change
// a copy and write the full field back.
type Patch struct {
	progress  map[string]int
	structure []Category
	rewards   []string

	hasProgress, hasStructure, hasRewards bool
}

// WithProgress replaces the whole progress map.
func (p Patch) WithProgress(progress map[string]int) Patch {
	p.progress = cloneProgress(progress)
	p.hasProgress = true
	return p
}

// WithStructure replaces the whole structure.
func (p Patch) WithStructure(structure []Category) Patch {
	p.structure = cloneStructure(structure)
	if p.structure == nil {
		p.structure = []Category{}
	}
	p.hasStructure = true
	return p
}

// WithRewards replaces all reward candidates.
func (p Patch) WithRewards(rewards Rewards) Patch {
	p.rewards = append([]string(nil), rewards[:]...)
	p.hasRewards = true
	return p
}

// Fields returns the names of the fields the patch writes, in a stable order.
func (p Patch) Fields() []string {
	var fields []string
	if p.hasProgress {
		fields = append(fields, FieldProgress)
	}
	if p.hasStructure {
		fields = append(fields, FieldStructure)
	}
	if p.hasRewards {
		fields = append(fields, FieldRewards)
	}
	return fields
}

// IsEmpty reports whether the patch writes nothing.
func (p Patch) IsEmpty() bool {
	return !p.hasProgress && !p.hasStructure && !p.hasRewards
}

// Apply returns doc with the patched fields replaced.
func (p Patch) Apply(doc WeekDocument) WeekDocument {
	out := cloneDocument(doc)
	if p.hasProgress {
		out.Progress = cloneProgress(p.progress)
	}
	if p.hasStructure {
		out.Structure = cloneStructure(p.structure)
	}
	if p.hasRewards {
		out.Rewards = append([]string(nil), p.rewards...)
	}
	return out
}

// Repository persists week documents and streams the collection to subscribers.
type Repository interface {
	// Subscribe delivers the full collection on initial load and after every stored change,
	// in store order, until unsubscribe is called or ctx ends.
	Subscribe(ctx context.Context, onChange func(Snapshot)) (unsubscribe func(), err error)
	// Save merges the patch fields into the document for weekID, creating it if absent.
	Save(ctx context.Context, weekID string, patch Patch) error
}
