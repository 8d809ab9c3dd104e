package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trivia-quiz-service/internal/domain"
)

const (
	defaultBaseURL = "https://opentdb.com/api.php"
	defaultTimeout = 15 * time.Second
)

// RawQuestion mirrors the OpenTriviaDB question payload. Text fields may
// contain HTML character references; decoding happens during question set
// construction, not here.
type RawQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []RawQuestion `json:"results"`
}

// Request selects the question batch to fetch.
type Request struct {
	Amount     int
	Category   string
	Difficulty string
}

// Client talks to the trivia question provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the provider endpoint (used by tests and config).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithTimeout bounds each fetch so a hung provider cannot stall the session
// in its loading state.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client (test seam).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchQuestions retrieves one batch of multiple-choice questions. A
// provider-reported failure (response_code != 0) or a transport-level
// failure wraps domain.ErrInvalidResponse.
func (c *Client) FetchQuestions(ctx context.Context, req Request) ([]RawQuestion, error) {
	query := url.Values{}
	query.Set("amount", strconv.Itoa(req.Amount))
	query.Set("type", "multiple")
	if req.Category != "" {
		query.Set("category", req.Category)
	}
	if req.Difficulty != "" {
		query.Set("difficulty", req.Difficulty)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned status %d", domain.ErrInvalidResponse, resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", domain.ErrInvalidResponse, err)
	}

	if payload.ResponseCode != 0 {
		return nil, fmt.Errorf("%w: response_code=%d", domain.ErrInvalidResponse, payload.ResponseCode)
	}

	return payload.Results, nil
}
