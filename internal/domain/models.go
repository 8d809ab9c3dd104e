package domain

import "time"

// SessionState enumerates the phases of a single quiz run.
type SessionState string

const (
	StateSetup      SessionState = "setup"
	StateLoading    SessionState = "loading"
	StateInProgress SessionState = "in_progress"
	StateAnswered   SessionState = "answered"
	StateFinished   SessionState = "finished"
	StateError      SessionState = "error"
)

// Question is a normalized multiple-choice question. PresentedOrder is the
// shuffled union of the correct answer and all distractors, computed once
// when the question set is built and never reshuffled.
type Question struct {
	Prompt         string   `json:"prompt"`
	CorrectAnswer  string   `json:"correctAnswer"`
	Distractors    []string `json:"distractors"`
	PresentedOrder []string `json:"presentedOrder"`
}

// QuestionSet is an immutable ordered batch of questions for one session.
type QuestionSet []Question

// QuizConfig is the setup-screen input for a session.
type QuizConfig struct {
	Amount     int    `json:"amount"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

// LeaderboardEntry records one completed session.
type LeaderboardEntry struct {
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage int       `json:"percentage"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Leaderboard is the ranked top-10 score history, non-increasing by
// percentage with stable tie order.
type Leaderboard []LeaderboardEntry

// Tier is the qualitative feedback bucket for a final percentage.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierAverage   Tier = "average"
	TierPoor      Tier = "poor"
)

// TierFor maps a final percentage onto its feedback tier.
func TierFor(percentage int) Tier {
	switch {
	case percentage >= 90:
		return TierExcellent
	case percentage >= 70:
		return TierGood
	case percentage >= 50:
		return TierAverage
	default:
		return TierPoor
	}
}

// FeedbackFor returns the result-screen message for a tier.
func FeedbackFor(tier Tier) string {
	switch tier {
	case TierExcellent:
		return "Outstanding! You're a quiz master!"
	case TierGood:
		return "Great job! You know your stuff!"
	case TierAverage:
		return "Not bad! Review and try again to improve."
	default:
		return "Keep practicing! You'll improve with more quizzes."
	}
}

// Percentage computes the rounded score percentage, where total must be
// positive for a meaningful result.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return (100*score + total/2) / total
}

// Category is one entry from the provider's category catalog.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
