package opentdb

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"trivia-quiz-service/internal/domain"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestClient(rt http.RoundTripper) *Client {
	return NewClient(WithHTTPClient(&http.Client{Transport: rt}))
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func TestFetchQuestionsBuildsRequest(t *testing.T) {
	var seen *http.Request

	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return jsonResponse(http.StatusOK, `{"response_code":0,"results":[]}`), nil
	}))

	_, err := client.FetchQuestions(context.Background(), Request{Amount: 7, Category: "9", Difficulty: "easy"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	query := seen.URL.Query()
	if query.Get("amount") != "7" {
		t.Fatalf("amount = %q", query.Get("amount"))
	}
	if query.Get("type") != "multiple" {
		t.Fatalf("type = %q", query.Get("type"))
	}
	if query.Get("category") != "9" || query.Get("difficulty") != "easy" {
		t.Fatalf("filters not forwarded: %v", query)
	}
	if seen.Header.Get("Accept") != "application/json" {
		t.Fatalf("missing Accept header, got %q", seen.Header.Get("Accept"))
	}
}

func TestFetchQuestionsOmitsEmptyFilters(t *testing.T) {
	var seen *http.Request

	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return jsonResponse(http.StatusOK, `{"response_code":0,"results":[]}`), nil
	}))

	if _, err := client.FetchQuestions(context.Background(), Request{Amount: 5}); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	query := seen.URL.Query()
	if query.Has("category") || query.Has("difficulty") {
		t.Fatalf("expected empty filters omitted, got %v", query)
	}
}

func TestFetchQuestionsNonOKStatus(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, ""), nil
	}))

	_, err := client.FetchQuestions(context.Background(), Request{Amount: 5})
	if !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse for non-200, got %v", err)
	}
}

func TestFetchQuestionsNonZeroResponseCode(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"response_code":1,"results":[]}`), nil
	}))

	_, err := client.FetchQuestions(context.Background(), Request{Amount: 5})
	if !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse for response_code=1, got %v", err)
	}
}

func TestFetchQuestionsDecodeError(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, "not-json"), nil
	}))

	_, err := client.FetchQuestions(context.Background(), Request{Amount: 5})
	if !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse for bad body, got %v", err)
	}
}

func TestFetchQuestionsReturnsResults(t *testing.T) {
	body := `{"response_code":0,"results":[{"question":"Q1","correct_answer":"A","incorrect_answers":["B","C","D"]}]}`
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, body), nil
	}))

	results, err := client.FetchQuestions(context.Background(), Request{Amount: 1})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(results) != 1 || results[0].CorrectAnswer != "A" || len(results[0].IncorrectAnswers) != 3 {
		t.Fatalf("unexpected results: %+v", results)
	}
}
