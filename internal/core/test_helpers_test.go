package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func noEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v received", kind)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// memLibrary is an in-memory PuzzleLibrary for room tests.
type memLibrary struct {
	mu      sync.Mutex
	puzzles []*Puzzle
}

func (m *memLibrary) List(context.Context) ([]*Puzzle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Puzzle(nil), m.puzzles...), nil
}

func (m *memLibrary) Get(_ context.Context, id int64) (*Puzzle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.puzzles {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memLibrary) Add(_ context.Context, p *Puzzle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puzzles = append(m.puzzles, p)
	return nil
}

func (m *memLibrary) Update(_ context.Context, p *Puzzle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.puzzles {
		if existing.ID == p.ID {
			m.puzzles[i] = p
		}
	}
	return nil
}

// memSnapshots records Save/Clear calls for assertions.
type memSnapshots struct {
	mu     sync.Mutex
	saved  *Snapshot
	saves  int
	clears int
}

func (m *memSnapshots) Save(s *Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = s
	m.saves++
}

func (m *memSnapshots) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = nil
	m.clears++
}

func (m *memSnapshots) last() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}

func (m *memSnapshots) clearCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}

func startTestRoom(t *testing.T, restored *Snapshot) (*Room, *memLibrary, *memSnapshots) {
	t.Helper()

	lib := &memLibrary{}
	snaps := &memSnapshots{}
	logger := zerolog.Nop()

	room := NewRoom(lib, snaps, restored, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go room.Run(ctx)

	return room, lib, snaps
}

// joinRoom connects a client and completes the join handshake.
func joinRoom(t *testing.T, room *Room, connID string, req *JoinRequest) (*Client, *InitState) {
	t.Helper()

	c := NewClient(connID)
	room.Connect(c)
	room.Dispatch(c, &Command{Kind: CommandJoin, Join: req})
	ev := mustEvent(t, c.Events, EventInitState)
	return c, ev.Init
}

func intPtr(v int) *int { return &v }
