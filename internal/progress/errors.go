package progress

import "errors"

var (
	// ErrUnknownWeek indicates a week id outside the tracking window.
	ErrUnknownWeek = errors.New("unknown week")
	// ErrUnknownItem indicates an item id missing from the week's structure.
	ErrUnknownItem = errors.New("unknown item")
	// ErrBlockOutOfRange indicates a block index outside [0, total-1].
	ErrBlockOutOfRange = errors.New("block index out of range")
	// ErrRewardIndex indicates a reward slot outside [0, RewardSlots-1].
	ErrRewardIndex = errors.New("reward index out of range")
	// ErrInvalidStructure indicates a structure that cannot be stored.
	ErrInvalidStructure = errors.New("invalid structure")
	// ErrEmptyPatch indicates a save without any field to write.
	ErrEmptyPatch = errors.New("patch has no fields")
	// ErrReadOnly indicates the session is not ready so writes are disabled.
	ErrReadOnly = errors.New("session not ready, tracker is read-only")
)
