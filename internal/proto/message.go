// Package proto defines the JSON wire format spoken over the WebSocket.
package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound message types.
const (
	InboundTypeJoin                = "join"
	InboundTypeClaimHost           = "claim_host"
	InboundTypeRecoveryDecision    = "recovery_decision"
	InboundTypeRecoverGame         = "recover_game"    // alias: recovery_decision{recover:true}
	InboundTypeStartNewGame        = "start_new_game"  // alias: recovery_decision{recover:false}
	InboundTypeResignHost          = "resign_host"
	InboundTypeKickPlayer          = "kick_player"
	InboundTypeRequestHost         = "request_host"
	InboundTypeApproveHostTransfer = "approve_host_transfer"
	InboundTypeRejectHostTransfer  = "reject_host_transfer"
	InboundTypeCreateCustomPuzzle  = "create_custom_puzzle"
	InboundTypeSelectPuzzle        = "select_puzzle"
	InboundTypeAskQuestion         = "ask_question"
	InboundTypeAnswerQuestion      = "answer_question"
	InboundTypeRevealAnswer        = "reveal_answer"
	InboundTypeUpdatePuzzle        = "update_puzzle"
	InboundTypeReturnToLobby       = "return_to_lobby"
)

// Outbound message types.
const (
	OutboundTypeInitState            = "init_state"
	OutboundTypePlayerUpdate         = "player_update"
	OutboundTypeNewPuzzle            = "new_puzzle"
	OutboundTypePuzzleReveal         = "puzzle_reveal"
	OutboundTypePuzzleUpdated        = "puzzle_updated"
	OutboundTypeNewQuestion          = "new_question"
	OutboundTypeQuestionAnswered     = "question_answered"
	OutboundTypeGameOver             = "game_over"
	OutboundTypeHostData             = "host_data"
	OutboundTypeHostTransferRequest  = "host_transfer_request"
	OutboundTypeHostTransferRejected = "host_transfer_rejected"
	OutboundTypeRecoveryDecisionMade = "recovery_decision_made"
	OutboundTypeReturnToLobby        = "return_to_lobby"
	OutboundTypeErrorMessage         = "error_message"
)

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// JoinData carries the optional identity the client presents on join.
type JoinData struct {
	Nickname  string `json:"nickname"`
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
	RoleHint  string `json:"roleHint"`
}

// RecoveryDecisionData is the room-wide keep-or-discard choice.
type RecoveryDecisionData struct {
	Recover bool `json:"recover"`
}

// KickData references the connection handle of the player to remove.
type KickData struct {
	PlayerID string `json:"playerId"`
}

// TransferData references a host-transfer requester by connection handle.
type TransferData struct {
	RequesterID string `json:"requesterId"`
}

// PuzzleData is the host-authored puzzle payload for create and update.
type PuzzleData struct {
	Title                 string   `json:"title"`
	Content               string   `json:"content"`
	Answer                string   `json:"answer"`
	ContentImages         []string `json:"contentImages"`
	AnswerImages          []string `json:"answerImages"`
	MaxQuestionsPerPlayer *int     `json:"maxQuestionsPerPlayer"`
	MaxTotalQuestions     *int     `json:"maxTotalQuestions"`
}

// SelectPuzzleData picks a library puzzle. The wire layer also accepts a
// bare numeric id for older clients.
type SelectPuzzleData struct {
	ID                    int64 `json:"id"`
	MaxQuestionsPerPlayer *int  `json:"maxQuestionsPerPlayer"`
	MaxTotalQuestions     *int  `json:"maxTotalQuestions"`
}

// AskData is a question from a player. Older clients send a bare string.
type AskData struct {
	Text string `json:"text"`
}

// AnswerData is the host's answer to a pending question.
type AnswerData struct {
	QuestionID int64  `json:"questionId"`
	AnswerType string `json:"answerType"`
	CustomText string `json:"customText"`
}

// PlayerInfo is the roster entry broadcast to everyone.
type PlayerInfo struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
	IsHost   bool   `json:"isHost"`
	IsOnline bool   `json:"isOnline"`
}

// PuzzleInfo is the answer-redacted puzzle sent to players.
type PuzzleInfo struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	ContentImages []string `json:"contentImages"`
}

// FullPuzzle includes the answer; host only.
type FullPuzzle struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Answer        string   `json:"answer"`
	ContentImages []string `json:"contentImages"`
	AnswerImages  []string `json:"answerImages"`
}

// LimitsInfo mirrors the configured question quota.
type LimitsInfo struct {
	MaxQuestionsPerPlayer *int `json:"maxQuestionsPerPlayer"`
	MaxTotalQuestions     *int `json:"maxTotalQuestions"`
}

// QuestionInfo is a history entry on the wire.
type QuestionInfo struct {
	ID         int64   `json:"id"`
	PlayerID   string  `json:"playerId"`
	UserID     string  `json:"userId"`
	Nickname   string  `json:"nickname"`
	Question   string  `json:"question"`
	Answer     *string `json:"answer"`
	AnswerType string  `json:"answerType,omitempty"`
	Status     string  `json:"status"`
}

// InitStateData is the private room snapshot sent right after join.
type InitStateData struct {
	MyID                       string         `json:"myId"`
	UserID                     string         `json:"userId"`
	ServerSessionID            string         `json:"serverSessionId"`
	Players                    []PlayerInfo   `json:"players"`
	CurrentPuzzle              *PuzzleInfo    `json:"currentPuzzle"`
	FullPuzzle                 *FullPuzzle    `json:"fullPuzzle,omitempty"`
	History                    []QuestionInfo `json:"history"`
	Limits                     LimitsInfo     `json:"limits"`
	StartTime                  int64          `json:"startTime"`
	RecoveryMode               bool           `json:"recoveryMode"`
	WaitingForRecoveryDecision bool           `json:"waitingForRecoveryDecision"`
	IsFirstReconnector         bool           `json:"isFirstReconnector"`
	Puzzles                    []FullPuzzle   `json:"puzzles"`
}

// NewPuzzleData is the session-start broadcast.
type NewPuzzleData struct {
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	ContentImages []string   `json:"contentImages"`
	Limits        LimitsInfo `json:"limits"`
	StartTime     int64      `json:"startTime"`
}

// PuzzleUpdatedData is the in-place edit broadcast.
type PuzzleUpdatedData struct {
	Puzzle PuzzleInfo `json:"puzzle"`
	Limits LimitsInfo `json:"limits"`
}

// GameOverData carries the revealed answer text.
type GameOverData struct {
	Answer string `json:"answer"`
}

// HostTransferRequestData is directed to the current host.
type HostTransferRequestData struct {
	RequesterID   string `json:"requesterId"`
	RequesterName string `json:"requesterName"`
}

// RecoveryDecisionMadeData broadcasts the binding decision.
type RecoveryDecisionMadeData struct {
	Recover bool `json:"recover"`
}

// ErrorMessageData is a private policy-violation notice.
type ErrorMessageData struct {
	Message string `json:"message"`
}
