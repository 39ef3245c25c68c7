package core

// Puzzle is a riddle from the library or authored by the host. Answer and
// AnswerImages are only ever sent to the host until the host reveals them.
type Puzzle struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Answer        string   `json:"answer"`
	ContentImages []string `json:"contentImages"`
	AnswerImages  []string `json:"answerImages"`
}

// PuzzleView is the answer-redacted form broadcast to players.
type PuzzleView struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	ContentImages []string `json:"contentImages"`
}

// View strips the answer and answer images.
func (p *Puzzle) View() *PuzzleView {
	if p == nil {
		return nil
	}
	images := p.ContentImages
	if images == nil {
		images = []string{}
	}
	return &PuzzleView{
		Title:         p.Title,
		Content:       p.Content,
		ContentImages: images,
	}
}

// Limits configures the question quota for a session. A nil or non-positive
// field means the corresponding limit is not set.
type Limits struct {
	MaxQuestionsPerPlayer *int `json:"maxQuestionsPerPlayer"`
	MaxTotalQuestions     *int `json:"maxTotalQuestions"`
}

func (l Limits) perPlayer() (int, bool) {
	if l.MaxQuestionsPerPlayer == nil || *l.MaxQuestionsPerPlayer <= 0 {
		return 0, false
	}
	return *l.MaxQuestionsPerPlayer, true
}

func (l Limits) total() (int, bool) {
	if l.MaxTotalQuestions == nil || *l.MaxTotalQuestions <= 0 {
		return 0, false
	}
	return *l.MaxTotalQuestions, true
}
