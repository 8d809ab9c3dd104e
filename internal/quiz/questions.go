package quiz

import (
	"fmt"
	"html"
	"math/rand"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/opentdb"
)

// Build normalizes a raw provider batch into an immutable question set.
// Every prompt and answer is fully unescaped (named and numeric HTML
// character references), and each question's presented order is shuffled
// exactly once using the supplied source.
//
// The batch must contain at least requested records; each record must carry
// a prompt, a correct answer, and at least one incorrect answer.
func Build(raw []opentdb.RawQuestion, requested int, rnd *rand.Rand) (domain.QuestionSet, error) {
	if len(raw) < requested {
		return nil, fmt.Errorf("%w: got %d questions, requested %d", domain.ErrInvalidResponse, len(raw), requested)
	}

	set := make(domain.QuestionSet, 0, len(raw))
	for i, item := range raw {
		question, err := buildQuestion(item, rnd)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		set = append(set, question)
	}
	return set, nil
}

func buildQuestion(raw opentdb.RawQuestion, rnd *rand.Rand) (domain.Question, error) {
	if raw.Question == "" || raw.CorrectAnswer == "" {
		return domain.Question{}, fmt.Errorf("%w: missing prompt or correct answer", domain.ErrMalformedRecord)
	}
	if len(raw.IncorrectAnswers) == 0 {
		return domain.Question{}, fmt.Errorf("%w: no incorrect answers", domain.ErrMalformedRecord)
	}

	correct := html.UnescapeString(raw.CorrectAnswer)
	distractors := make([]string, 0, len(raw.IncorrectAnswers))
	for _, incorrect := range raw.IncorrectAnswers {
		distractors = append(distractors, html.UnescapeString(incorrect))
	}

	presented := make([]string, 0, len(distractors)+1)
	presented = append(presented, correct)
	presented = append(presented, distractors...)
	rnd.Shuffle(len(presented), func(i, j int) {
		presented[i], presented[j] = presented[j], presented[i]
	})

	return domain.Question{
		Prompt:         html.UnescapeString(raw.Question),
		CorrectAnswer:  correct,
		Distractors:    distractors,
		PresentedOrder: presented,
	}, nil
}
