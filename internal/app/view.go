package app

import "trivia-quiz-service/internal/domain"

// View is the render surface the session drives. Implementations adapt it
// to a transport (WebSocket, CLI, test double); the session never knows how
// anything is displayed.
type View interface {
	RenderSetup()
	RenderLoading()
	RenderError(message string)
	RenderQuestion(question domain.Question, number, total int)
	RenderSelection(answer string)
	RenderReveal(correctAnswer, selectedAnswer string)
	RenderTimer(display TimerDisplay)
	RenderResults(score, total int, tier domain.Tier, feedback string)
	RenderLeaderboard(entries domain.Leaderboard)
}

// NopView discards every render call.
type NopView struct{}

func (NopView) RenderSetup()                                {}
func (NopView) RenderLoading()                              {}
func (NopView) RenderError(string)                          {}
func (NopView) RenderQuestion(domain.Question, int, int)    {}
func (NopView) RenderSelection(string)                      {}
func (NopView) RenderReveal(string, string)                 {}
func (NopView) RenderTimer(TimerDisplay)                    {}
func (NopView) RenderResults(int, int, domain.Tier, string) {}
func (NopView) RenderLeaderboard(domain.Leaderboard)        {}
