package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/leaderboard"
	"trivia-quiz-service/internal/opentdb"
)

func TestWebSocketQuizFlow(t *testing.T) {
	conn := dialQuiz(t, &stubProvider{raw: []opentdb.RawQuestion{
		{
			Question:         "What is 2 + 2?",
			CorrectAnswer:    "4",
			IncorrectAnswers: []string{"3", "5", "22"},
		},
	}})

	readNext(t, conn, "setup")

	writeIntent(t, conn, "start", map[string]any{"amount": 1})
	readNext(t, conn, "loading")
	question := readNext(t, conn, "question")
	options, ok := question["options"].([]any)
	if !ok || len(options) != 4 {
		t.Fatalf("expected 4 options, got %v", question["options"])
	}
	readNext(t, conn, "timer")

	writeIntent(t, conn, "select", map[string]any{"answer": "4"})
	selection := readNext(t, conn, "selection")
	if selection["answer"] != "4" {
		t.Fatalf("expected selection echoed, got %v", selection)
	}

	writeIntent(t, conn, "confirm", nil)
	reveal := readNext(t, conn, "reveal")
	if reveal["correctAnswer"] != "4" || reveal["selectedAnswer"] != "4" {
		t.Fatalf("unexpected reveal payload: %v", reveal)
	}

	// Reveal delay is zero in tests, so results follow immediately.
	resultsSeen := false
	leaderboardSeen := false
	for i := 0; i < 6 && !(resultsSeen && leaderboardSeen); i++ {
		msgType, payload := readAny(t, conn)
		switch msgType {
		case "results":
			resultsSeen = true
			if payload["score"] != float64(1) || payload["tier"] != "excellent" {
				t.Fatalf("unexpected results: %v", payload)
			}
		case "leaderboard":
			leaderboardSeen = true
		}
	}
	if !resultsSeen || !leaderboardSeen {
		t.Fatalf("expected results and leaderboard, got results=%v leaderboard=%v", resultsSeen, leaderboardSeen)
	}

	// Restart returns to setup for another run.
	writeIntent(t, conn, "restart", nil)
	readNext(t, conn, "setup")
}

func TestWebSocketRejectsInvalidAmount(t *testing.T) {
	conn := dialQuiz(t, &stubProvider{})

	readNext(t, conn, "setup")
	writeIntent(t, conn, "start", map[string]any{"amount": 0})

	payload := readNext(t, conn, "validation")
	if msg, _ := payload["message"].(string); msg == "" {
		t.Fatalf("expected validation message")
	}
}

func TestWebSocketSurfacesProviderFailure(t *testing.T) {
	conn := dialQuiz(t, &stubProvider{responseCode: 1})

	readNext(t, conn, "setup")
	writeIntent(t, conn, "start", map[string]any{"amount": 3})

	readNext(t, conn, "loading")
	readNext(t, conn, "error")

	// The error state requires a restart before a new run.
	writeIntent(t, conn, "restart", nil)
	readNext(t, conn, "setup")
}

func TestWebSocketStartRequiresRestart(t *testing.T) {
	conn := dialQuiz(t, &stubProvider{responseCode: 1})

	readNext(t, conn, "setup")
	writeIntent(t, conn, "start", map[string]any{"amount": 3})
	readNext(t, conn, "loading")
	readNext(t, conn, "error")

	// Starting again from the error state gets an explicit reply rather
	// than silence.
	writeIntent(t, conn, "start", map[string]any{"amount": 3})
	payload := readNext(t, conn, "error")
	if msg, _ := payload["message"].(string); msg == "" {
		t.Fatalf("expected error message")
	}
}

func TestWSViewDropsLateRenders(t *testing.T) {
	view := &wsView{send: make(chan outboundMessage, 1), done: make(chan struct{})}
	close(view.done)
	view.close()

	// A render that raced the connection teardown is dropped, not sent on
	// the closed channel.
	view.RenderTimer(app.TimerDisplay{Secs: 5, Warning: true})
	view.RenderResults(1, 1, domain.TierExcellent, domain.FeedbackFor(domain.TierExcellent))
}

func TestWebSocketDisconnectMidRun(t *testing.T) {
	provider := &stubProvider{raw: []opentdb.RawQuestion{
		{
			Question:         "What is 2 + 2?",
			CorrectAnswer:    "4",
			IncorrectAnswers: []string{"3", "5", "22"},
		},
	}}
	board := leaderboard.NewStore(memory.NewSlot())
	handler := NewWSHandler(provider, board, nil,
		app.WithRevealDelay(0),
		app.WithCountdown(app.NewCountdownWithInterval(time.Millisecond)))

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	u := "ws" + server.URL[len("http"):] + "/ws"

	// Drop connections while the fast countdown is still rendering; a tick
	// or finish in flight during teardown must not take the server down.
	for i := 0; i < 5; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(u, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		readNext(t, conn, "setup")
		writeIntent(t, conn, "start", map[string]any{"amount": 1})
		readNext(t, conn, "loading")
		readNext(t, conn, "question")
		conn.Close()
	}
	time.Sleep(20 * time.Millisecond)

	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial after disconnects: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	readNext(t, conn, "setup")
}

func dialQuiz(t *testing.T, provider app.QuestionProvider) *websocket.Conn {
	t.Helper()

	board := leaderboard.NewStore(memory.NewSlot())
	handler := NewWSHandler(provider, board, nil, app.WithRevealDelay(0))

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeIntent(t *testing.T, conn *websocket.Conn, intentType string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": intentType}
	if payload != nil {
		msg["payload"] = payload
	} else {
		msg["payload"] = map[string]any{}
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", intentType, err)
	}
}

func readAny(t *testing.T, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	// Array payloads (leaderboard) are never inspected by field; leave them
	// as a nil map rather than failing the decode.
	var payload map[string]any
	if len(msg.Payload) > 0 {
		_ = json.Unmarshal(msg.Payload, &payload)
	}
	return msg.Type, payload
}

func readNext(t *testing.T, conn *websocket.Conn, expect string) map[string]any {
	t.Helper()
	for {
		msgType, payload := readAny(t, conn)
		if msgType == expect {
			return payload
		}
		// Timer ticks may interleave with any message.
		if msgType == "timer" {
			continue
		}
		t.Fatalf("expected type %s, got %s (%v)", expect, msgType, payload)
	}
}

type stubProvider struct {
	raw          []opentdb.RawQuestion
	responseCode int
}

func (p *stubProvider) FetchQuestions(_ context.Context, req opentdb.Request) ([]opentdb.RawQuestion, error) {
	if p.responseCode != 0 {
		return nil, &providerError{code: p.responseCode}
	}
	if req.Amount <= len(p.raw) {
		return p.raw[:req.Amount], nil
	}
	return p.raw, nil
}

type providerError struct {
	code int
}

func (e *providerError) Error() string {
	return "invalid provider response"
}
