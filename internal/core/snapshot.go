package core

// Snapshot is the persisted form of an in-progress session, written after
// every state mutation while a puzzle is active.
type Snapshot struct {
	CurrentPuzzle *Puzzle     `json:"currentPuzzle"`
	History       []*Question `json:"history"`
	Players       []*Player   `json:"players"`
	Limits        Limits      `json:"limits"`
	StartTime     int64       `json:"startTime"`
	SavedAt       int64       `json:"savedAt"`
}

// SnapshotStore persists the recovery snapshot. Implementations are
// best-effort: they log failures themselves and never surface them into
// gameplay.
type SnapshotStore interface {
	Save(snap *Snapshot)
	Clear()
}
