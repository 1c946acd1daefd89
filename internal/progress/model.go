package progress

import "time"

// BlockMinutes is the study time represented by one block.
const BlockMinutes = 10

// RewardSlots is the fixed number of reward candidates per week.
const RewardSlots = 3

// Item is a learning task that needs Total blocks for full completion.
type Item struct {
	ID    string `json:"id" firestore:"id" yaml:"id" validate:"required"`
	Name  string `json:"name" firestore:"name" yaml:"name"`
	Total int    `json:"total" firestore:"total" yaml:"total" validate:"gte=0"`
}

// Category groups items under a subject with display metadata.
type Category struct {
	ID    string `json:"id" firestore:"id" yaml:"id" validate:"required"`
	Label string `json:"label" firestore:"label" yaml:"label"`
	Color string `json:"color" firestore:"color" yaml:"color"`
	Icon  string `json:"icon" firestore:"icon" yaml:"icon"`
	Items []Item `json:"items" firestore:"items" yaml:"items" validate:"unique=ID,dive"`
}

// Rewards holds the user-editable reward candidates of a week.
type Rewards [RewardSlots]string

// WeekDocument is the persisted state of one week. A nil Structure or Rewards means the
// field is absent and the defaults apply.
type WeekDocument struct {
	Progress  map[string]int
	Structure []Category
	Rewards   []string
}

// Filled returns the completed block count recorded for itemID, or 0.
func (d WeekDocument) Filled(itemID string) int {
	return d.Progress[itemID]
}

// WeekMeta identifies one week of the tracking window. It is derived, never persisted.
type WeekMeta struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Stat is a derived completion figure.
type Stat struct {
	Percent int `json:"percent"`
	Minutes int `json:"minutes"`
}

// CategoryStat is the Stat of a single category along with its display metadata.
type CategoryStat struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
	Stat
}

// Completion describes how far an item has progressed.
type Completion struct {
	Filled    int  `json:"filled"`
	Completed bool `json:"completed"`
}

// Snapshot is the full map of week documents delivered by the live subscription at one point in time.
// Snapshots are treated as immutable once delivered.
type Snapshot struct {
	Version  uint64
	ReadTime time.Time
	Weeks    map[string]WeekDocument
}

// Week returns the stored document for weekID and whether it exists.
func (s *Snapshot) Week(weekID string) (WeekDocument, bool) {
	if s == nil {
		return WeekDocument{}, false
	}
	doc, ok := s.Weeks[weekID]
	return doc, ok
}

func cloneProgress(progress map[string]int) map[string]int {
	out := make(map[string]int, len(progress))
	for k, v := range progress {
		out[k] = v
	}
	return out
}

func cloneStructure(structure []Category) []Category {
	if structure == nil {
		return nil
	}
	out := make([]Category, len(structure))
	for i, cat := range structure {
		out[i] = cat
		out[i].Items = append([]Item(nil), cat.Items...)
	}
	return out
}

func cloneDocument(doc WeekDocument) WeekDocument {
	return WeekDocument{
		Progress:  cloneProgress(doc.Progress),
		Structure: cloneStructure(doc.Structure),
		Rewards:   append([]string(nil), doc.Rewards...),
	}
}
