package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/leaderboard"
	"trivia-quiz-service/internal/opentdb"
)

// WSHandler runs one quiz session per WebSocket connection. Inbound
// messages are the user intents (start, select, confirm, restart); outbound
// messages mirror the session's render calls.
type WSHandler struct {
	provider    app.QuestionProvider
	board       *leaderboard.Store
	catalog     *opentdb.Catalog
	sessionOpts []app.SessionOption
	upgrader    websocket.Upgrader
}

func NewWSHandler(provider app.QuestionProvider, board *leaderboard.Store, catalog *opentdb.Catalog, opts ...app.SessionOption) *WSHandler {
	return &WSHandler{
		provider:    provider,
		board:       board,
		catalog:     catalog,
		sessionOpts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type setupPayload struct {
	Categories []domain.Category `json:"categories"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type questionPayload struct {
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	Number   int      `json:"number"`
	Total    int      `json:"total"`
	Progress float64  `json:"progress"`
}

type selectionPayload struct {
	Answer string `json:"answer"`
}

type revealPayload struct {
	CorrectAnswer  string `json:"correctAnswer"`
	SelectedAnswer string `json:"selectedAnswer"`
}

type resultsPayload struct {
	Score    int         `json:"score"`
	Total    int         `json:"total"`
	Tier     domain.Tier `json:"tier"`
	Feedback string      `json:"feedback"`
}

// ServeWS upgrades the request and drives a session until the peer goes
// away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage, 32)
	done := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	view := &wsView{send: send, done: done, catalog: h.catalog}
	session := app.NewSession(h.provider, h.board, view, h.sessionOpts...)

	view.RenderSetup()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var cfg domain.QuizConfig
			if err := json.Unmarshal(inbound.Payload, &cfg); err != nil {
				view.sendMessage("error", errorPayload{Message: "invalid start payload"})
				continue
			}
			if err := session.Start(r.Context(), cfg); err != nil {
				switch {
				case errors.Is(err, domain.ErrInvalidConfig):
					view.sendMessage("validation", errorPayload{Message: err.Error()})
				case errors.Is(err, domain.ErrNotRunnable):
					view.sendMessage("error", errorPayload{Message: err.Error()})
				}
				// Provider failures were already rendered by the session.
			}
		case "select":
			var payload selectionPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				view.sendMessage("error", errorPayload{Message: "invalid select payload"})
				continue
			}
			session.Select(payload.Answer)
		case "confirm":
			session.Confirm()
		case "restart":
			if err := session.Restart(); err != nil {
				view.sendMessage("error", errorPayload{Message: err.Error()})
			}
		default:
			view.sendMessage("error", errorPayload{Message: "unsupported message type"})
		}
	}

	close(done)
	session.Close()
	view.close()
	<-writerDone
}

// wsView adapts the session's render contract onto the outbound channel.
// Session renders run outside the session mutex, so one can still be in
// flight when the connection tears down; the closed flag makes those late
// renders a no-op instead of a send on a closed channel.
type wsView struct {
	send    chan outboundMessage
	done    chan struct{}
	catalog *opentdb.Catalog

	mu     sync.Mutex
	closed bool
}

func (v *wsView) sendMessage(msgType string, payload any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	select {
	case v.send <- outboundMessage{Type: msgType, Payload: payload}:
	case <-v.done:
	}
}

// close stops the writer goroutine. Must only run after done is closed, so
// a sendMessage blocked on a full buffer cannot hold the mutex forever.
func (v *wsView) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	close(v.send)
}

func (v *wsView) RenderSetup() {
	payload := setupPayload{}
	if v.catalog != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		categories, err := v.catalog.ListCategories(ctx)
		if err != nil {
			log.Printf("ws: category list unavailable: %v", err)
		} else {
			payload.Categories = categories
		}
	}
	v.sendMessage("setup", payload)
}

func (v *wsView) RenderLoading() {
	v.sendMessage("loading", nil)
}

func (v *wsView) RenderError(message string) {
	v.sendMessage("error", errorPayload{Message: message})
}

func (v *wsView) RenderQuestion(question domain.Question, number, total int) {
	v.sendMessage("question", questionPayload{
		Prompt:   question.Prompt,
		Options:  question.PresentedOrder,
		Number:   number,
		Total:    total,
		Progress: float64(number) / float64(total),
	})
}

func (v *wsView) RenderSelection(answer string) {
	v.sendMessage("selection", selectionPayload{Answer: answer})
}

func (v *wsView) RenderReveal(correctAnswer, selectedAnswer string) {
	v.sendMessage("reveal", revealPayload{CorrectAnswer: correctAnswer, SelectedAnswer: selectedAnswer})
}

func (v *wsView) RenderTimer(display app.TimerDisplay) {
	v.sendMessage("timer", display)
}

func (v *wsView) RenderResults(score, total int, tier domain.Tier, feedback string) {
	v.sendMessage("results", resultsPayload{Score: score, Total: total, Tier: tier, Feedback: feedback})
}

func (v *wsView) RenderLeaderboard(entries domain.Leaderboard) {
	v.sendMessage("leaderboard", entries)
}
