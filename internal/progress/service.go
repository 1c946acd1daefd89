package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/focusnest/study-tracker/internal/platform/logging"
	"github.com/focusnest/study-tracker/internal/platform/metrics"
)

// Session reports when the store identity is established. The channel is closed once ready
// and never closed if bootstrap failed.
type Session interface {
	Ready() <-chan struct{}
}

// Deps groups the collaborators of Service.
type Deps struct {
	Repository Repository
	Calendar   *Calendar
	Curriculum Curriculum
	Session    Session
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Service keeps the latest snapshot of the week collection and derives views and writes from it.
type Service struct {
	repo       Repository
	calendar   *Calendar
	curriculum Curriculum
	session    Session
	logger     *slog.Logger
	metrics    *metrics.Metrics

	current atomic.Pointer[Snapshot]
	writeMu sync.Mutex
}

// NewService validates deps and returns a Service serving defaults until the first snapshot.
func NewService(deps Deps) (*Service, error) {
	if deps.Repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if deps.Calendar == nil {
		return nil, fmt.Errorf("calendar is required")
	}
	if deps.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if len(deps.Curriculum.Categories) == 0 {
		deps.Curriculum = DefaultCurriculum()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}

	s := &Service{
		repo:       deps.Repository,
		calendar:   deps.Calendar,
		curriculum: deps.Curriculum,
		session:    deps.Session,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
	s.current.Store(&Snapshot{Weeks: map[string]WeekDocument{}})
	return s, nil
}

// Start subscribes to the collection once the session is ready. Until then, or if the
// subscription cannot be established, every week is served from the defaults.
// The returned stop function ends the subscription.
func (s *Service) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-s.session.Ready():
		}

		unsubscribe, err := s.repo.Subscribe(ctx, s.onSnapshot)
		if err != nil {
			s.logger.Warn("week subscription unavailable, serving defaults", "error", err)
			return
		}
		s.logger.Info("week subscription started")
		<-ctx.Done()
		unsubscribe()
	}()
	return cancel
}

func (s *Service) onSnapshot(snap Snapshot) {
	if snap.Weeks == nil {
		snap.Weeks = map[string]WeekDocument{}
	}
	s.current.Store(&snap)
	if s.metrics != nil {
		s.metrics.SnapshotsDelivered.Inc()
	}
}

// Snapshot returns the snapshot all current reads derive from.
func (s *Service) Snapshot() *Snapshot {
	return s.current.Load()
}

// Calendar returns the week window.
func (s *Service) Calendar() *Calendar {
	return s.calendar
}

func (s *Service) writable() bool {
	select {
	case <-s.session.Ready():
		return true
	default:
		return false
	}
}

// WeekSummary annotates a week with its live completion.
type WeekSummary struct {
	WeekMeta
	Stat Stat `json:"stat"`
}

// Weeks lists every week of the window with its stats, all derived from one snapshot.
func (s *Service) Weeks() []WeekSummary {
	snap := s.current.Load()
	weeks := s.calendar.Weeks()
	out := make([]WeekSummary, 0, len(weeks))
	for _, w := range weeks {
		doc, _ := snap.Week(w.ID)
		out = append(out, WeekSummary{
			WeekMeta: w,
			Stat:     WeekStats(doc, s.curriculum.ActiveStructure(doc)),
		})
	}
	return out
}

// ItemView is an item with its completion in the viewed week.
type ItemView struct {
	Item
	Completion
}

// CategoryView is a category of the active structure with item completions.
type CategoryView struct {
	ID    string     `json:"id"`
	Label string     `json:"label"`
	Color string     `json:"color"`
	Icon  string     `json:"icon"`
	Items []ItemView `json:"items"`
}

// WeekView is everything the presentation layer needs for one week.
type WeekView struct {
	Week        WeekMeta       `json:"week"`
	Version     uint64         `json:"version"`
	Stored      bool           `json:"stored"`
	Structure   []CategoryView `json:"structure"`
	Rewards     Rewards        `json:"rewards"`
	Progress    map[string]int `json:"progress"`
	Stats       Stat           `json:"stats"`
	Categories  []CategoryStat `json:"categories"`
	Completed   []CategoryStat `json:"completed_categories"`
	AllComplete bool           `json:"all_complete"`
	Charts      Charts         `json:"charts"`
}

// Week derives the view of weekID from the latest snapshot.
func (s *Service) Week(weekID string) (WeekView, error) {
	meta, ok := s.calendar.Lookup(weekID)
	if !ok {
		return WeekView{}, fmt.Errorf("%w: %s", ErrUnknownWeek, weekID)
	}

	snap := s.current.Load()
	doc, exists := snap.Week(weekID)
	structure := s.curriculum.ActiveStructure(doc)
	categories := CategoryStats(doc, structure)

	view := WeekView{
		Week:        meta,
		Version:     snap.Version,
		Stored:      exists,
		Structure:   make([]CategoryView, 0, len(structure)),
		Rewards:     s.curriculum.ActiveRewards(doc, exists),
		Progress:    cloneProgress(doc.Progress),
		Stats:       WeekStats(doc, structure),
		Categories:  categories,
		Completed:   CompletedCategories(categories),
		AllComplete: IsAllCategoriesComplete(categories),
		Charts:      BuildCharts(categories),
	}
	for _, cat := range structure {
		cv := CategoryView{ID: cat.ID, Label: cat.Label, Color: cat.Color, Icon: cat.Icon, Items: make([]ItemView, 0, len(cat.Items))}
		for _, item := range cat.Items {
			cv.Items = append(cv.Items, ItemView{Item: item, Completion: ItemCompletion(doc, item)})
		}
		view.Structure = append(view.Structure, cv)
	}
	return view, nil
}

// ToggleBlock applies a click on block blockIndex of itemID and stores the new progress map.
func (s *Service) ToggleBlock(ctx context.Context, weekID, itemID string, blockIndex int) (Completion, error) {
	var result Completion
	err := s.write(ctx, weekID, func(doc WeekDocument, _ bool) (Patch, error) {
		item, ok := findItem(s.curriculum.ActiveStructure(doc), itemID)
		if !ok {
			return Patch{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
		}
		next, err := ToggleBlock(doc, item, blockIndex)
		if err != nil {
			return Patch{}, err
		}

		progress := cloneProgress(doc.Progress)
		progress[itemID] = next
		result = ItemCompletion(WeekDocument{Progress: progress}, item)
		return Patch{}.WithProgress(progress), nil
	})
	return result, err
}

// UpdateReward replaces reward slot index and stores all three rewards.
func (s *Service) UpdateReward(ctx context.Context, weekID string, index int, value string) (Rewards, error) {
	var result Rewards
	err := s.write(ctx, weekID, func(doc WeekDocument, exists bool) (Patch, error) {
		if index < 0 || index >= RewardSlots {
			return Patch{}, fmt.Errorf("%w: %d", ErrRewardIndex, index)
		}
		result = s.curriculum.ActiveRewards(doc, exists)
		result[index] = value
		return Patch{}.WithRewards(result), nil
	})
	return result, err
}

// SaveStructure stores an edited structure for weekID only. Negative totals become 0.
// Stored progress is kept as is, even for items that no longer exist.
func (s *Service) SaveStructure(ctx context.Context, weekID string, structure []Category) ([]Category, error) {
	sanitized, err := SanitizeStructure(structure)
	if err != nil {
		return nil, err
	}
	err = s.write(ctx, weekID, func(WeekDocument, bool) (Patch, error) {
		return Patch{}.WithStructure(sanitized), nil
	})
	if err != nil {
		return nil, err
	}
	return sanitized, nil
}

// write runs a read-modify-write of one week against the latest snapshot. The first write to a
// week without a document also stores the initial rewards, so creating the document does not
// switch the week to the placeholder rewards.
func (s *Service) write(ctx context.Context, weekID string, build func(doc WeekDocument, exists bool) (Patch, error)) error {
	if _, ok := s.calendar.Lookup(weekID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWeek, weekID)
	}
	if !s.writable() {
		return ErrReadOnly
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	base := s.current.Load()
	doc, exists := base.Week(weekID)
	patch, err := build(doc, exists)
	if err != nil {
		return err
	}
	if !exists && !patch.hasRewards {
		patch = patch.WithRewards(s.curriculum.InitialRewards)
	}

	logger := logging.WithWeek(s.logger, weekID)
	if err := s.repo.Save(ctx, weekID, patch); err != nil {
		s.recordSave(patch, "error")
		logger.Error("week save failed", "fields", patch.Fields(), "error", err)
		return fmt.Errorf("save week: %w", err)
	}
	s.recordSave(patch, "ok")
	logger.Debug("week saved", "fields", patch.Fields())

	if !s.applyLocal(base, weekID, patch) {
		logger.Debug("snapshot delivered during save, local apply skipped", "version", s.current.Load().Version)
	}
	return nil
}

// applyLocal shows a stored patch before its snapshot arrives. It only applies while base is
// still the current snapshot; a snapshot delivered in the meantime already carries the store's
// state and wins.
func (s *Service) applyLocal(base *Snapshot, weekID string, patch Patch) bool {
	doc, _ := base.Week(weekID)
	weeks := make(map[string]WeekDocument, len(base.Weeks)+1)
	for id, d := range base.Weeks {
		weeks[id] = d
	}
	weeks[weekID] = patch.Apply(doc)
	next := &Snapshot{Version: base.Version, ReadTime: base.ReadTime, Weeks: weeks}
	return s.current.CompareAndSwap(base, next)
}

func (s *Service) recordSave(patch Patch, result string) {
	if s.metrics == nil {
		return
	}
	for _, field := range patch.Fields() {
		s.metrics.WeekSaves.WithLabelValues(field, result).Inc()
	}
}

func findItem(structure []Category, itemID string) (Item, bool) {
	for _, cat := range structure {
		for _, item := range cat.Items {
			if item.ID == itemID {
				return item, true
			}
		}
	}
	return Item{}, false
}
