package core

// Error codes for user-facing policy violations.
const (
	ErrCodeAnswerPending     = "answer_pending"
	ErrCodePersonalExhausted = "personal_exhausted"
	ErrCodeWaitForOthers     = "wait_for_others"
	ErrCodePoolExhausted     = "pool_exhausted"
	ErrCodeTotalExhausted    = "total_exhausted"
	ErrCodeNotEnoughPlayers  = "not_enough_players"
	ErrCodeTargetOnline      = "target_online"
)

// CoreError wraps a code and a player-facing message. The message is what
// gets delivered to the offending connection as an error_message event.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
