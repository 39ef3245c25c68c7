package core

import "context"

// PuzzleLibrary is the riddle collection the host selects from. The room
// treats library failures as non-fatal; a host without a library simply sees
// an empty list.
type PuzzleLibrary interface {
	List(ctx context.Context) ([]*Puzzle, error)
	Get(ctx context.Context, id int64) (*Puzzle, error)
	Add(ctx context.Context, p *Puzzle) error
	Update(ctx context.Context, p *Puzzle) error
}
