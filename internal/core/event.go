package core

// EventKind is a notification the room emits to clients.
type EventKind int

const (
	// EventInitState delivers the full room state to a joining connection.
	EventInitState EventKind = iota
	// EventPlayerUpdate broadcasts the roster.
	EventPlayerUpdate
	// EventNewPuzzle broadcasts an answer-redacted puzzle at session start.
	EventNewPuzzle
	// EventPuzzleReveal delivers the full puzzle privately to the host.
	EventPuzzleReveal
	// EventPuzzleUpdated broadcasts an in-place puzzle edit.
	EventPuzzleUpdated
	// EventNewQuestion broadcasts an accepted question.
	EventNewQuestion
	// EventQuestionAnswered broadcasts an answered question.
	EventQuestionAnswered
	// EventGameOver broadcasts the revealed answer text.
	EventGameOver
	// EventHostData delivers the puzzle library privately to the host.
	EventHostData
	// EventHostTransferRequest is directed to the host when a player asks
	// for the role.
	EventHostTransferRequest
	// EventHostTransferRejected is directed back to a declined requester.
	EventHostTransferRejected
	// EventRecoveryDecisionMade broadcasts the binding recovery decision.
	EventRecoveryDecisionMade
	// EventReturnToLobby broadcasts the end of a session.
	EventReturnToLobby
	// EventError delivers a policy violation privately to the offender.
	EventError
)

// InitState is the private snapshot sent to a connection right after join.
type InitState struct {
	MyID             string
	UserID           string
	ServerSessionID  string
	Players          []*Player
	Puzzle           *PuzzleView
	FullPuzzle       *Puzzle // host only
	History          []*Question
	Limits           Limits
	StartTime        int64
	RecoveryMode     bool
	AwaitingRecovery bool
	FirstReconnector bool
	Library          []*Puzzle // host only
}

// TransferRequest identifies the player asking for the host role.
type TransferRequest struct {
	RequesterConn string
	RequesterName string
}

// PuzzleUpdate pairs a redacted puzzle with the limits in force.
type PuzzleUpdate struct {
	Puzzle *PuzzleView
	Limits Limits
}

// SessionStart is the broadcast payload when a puzzle goes live.
type SessionStart struct {
	Puzzle    *PuzzleView
	Limits    Limits
	StartTime int64
}

// Event is sent to clients to describe what happened in the room. Only the
// fields relevant to Kind are populated.
type Event struct {
	Kind     EventKind
	Init     *InitState
	Players  []*Player
	Start    *SessionStart
	Puzzle   *Puzzle
	Update   *PuzzleUpdate
	Question *Question
	Answer   string
	Library  []*Puzzle
	Transfer *TransferRequest
	Recover  bool
	Error    *CoreError
}
