package core

// AnswerKind classifies a host answer.
type AnswerKind string

const (
	AnswerYes        AnswerKind = "yes"
	AnswerNo         AnswerKind = "no"
	AnswerIrrelevant AnswerKind = "irrelevant"
	AnswerCustom     AnswerKind = "custom"
)

// Text renders the kind as the player-facing answer string.
func (k AnswerKind) Text(customText string) string {
	switch k {
	case AnswerYes:
		return "是"
	case AnswerNo:
		return "不是"
	case AnswerIrrelevant:
		return "与此无关"
	case AnswerCustom:
		return customText
	default:
		return ""
	}
}

// QuestionStatus is the lifecycle state of a question.
type QuestionStatus string

const (
	StatusPending  QuestionStatus = "pending"
	StatusAnswered QuestionStatus = "answered"
)

// Question is a single entry in the session history. PlayerID is the asker's
// connection handle at ask time; UserID is the stable identity the quota
// engine counts against.
type Question struct {
	ID         int64          `json:"id"`
	PlayerID   string         `json:"playerId"`
	UserID     string         `json:"userId"`
	Nickname   string         `json:"nickname"`
	Question   string         `json:"question"`
	Answer     *string        `json:"answer"`
	AnswerKind AnswerKind     `json:"answerType,omitempty"`
	Status     QuestionStatus `json:"status"`
}
