package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin registers or rebinds a player identity.
	CommandJoin CommandKind = iota
	// CommandClaimHost grants host role when no host exists.
	CommandClaimHost
	// CommandRecoveryDecision accepts or discards a recovered session.
	CommandRecoveryDecision
	// CommandResignHost gives up the host role while in the lobby.
	CommandResignHost
	// CommandKickPlayer removes an offline player (host only).
	CommandKickPlayer
	// CommandRequestHost asks the current host for a role transfer.
	CommandRequestHost
	// CommandApproveHostTransfer hands the host role to a requester.
	CommandApproveHostTransfer
	// CommandRejectHostTransfer declines a transfer request.
	CommandRejectHostTransfer
	// CommandCreateCustomPuzzle authors a puzzle and starts it.
	CommandCreateCustomPuzzle
	// CommandSelectPuzzle starts a puzzle from the library.
	CommandSelectPuzzle
	// CommandAskQuestion submits a yes/no question.
	CommandAskQuestion
	// CommandAnswerQuestion answers a pending question (host only).
	CommandAnswerQuestion
	// CommandRevealAnswer discloses the puzzle answer to everyone.
	CommandRevealAnswer
	// CommandUpdatePuzzle edits the active puzzle in place (host only).
	CommandUpdatePuzzle
	// CommandReturnToLobby ends the session and purges offline players.
	CommandReturnToLobby
)

// JoinRequest carries the optional identity hints supplied on join.
type JoinRequest struct {
	Nickname     string
	UserID       string
	SessionToken string
	RoleHint     string
}

// PuzzleDraft is the host-supplied puzzle content for create and update.
type PuzzleDraft struct {
	Title         string
	Content       string
	Answer        string
	ContentImages []string
	AnswerImages  []string
	Limits        Limits
}

// AnswerRequest references a pending question and how to answer it.
type AnswerRequest struct {
	QuestionID int64
	Kind       AnswerKind
	CustomText string
}

// Command represents an action requested by a client. Only the fields
// relevant to Kind are populated.
type Command struct {
	Kind       CommandKind
	Join       *JoinRequest
	Recover    bool
	TargetConn string
	Draft      *PuzzleDraft
	PuzzleID   int64
	Limits     *Limits
	Text       string
	Answer     *AnswerRequest
}
