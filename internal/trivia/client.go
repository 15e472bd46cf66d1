// Package trivia fetches question sets from an Open-Trivia-DB-compatible
// HTTP API. Prompt and answer fields are requested base64 encoded and decoded
// here; the combined answer list is shuffled once per question.
package trivia

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trivia-session-service/internal/domain"
)

// DefaultBaseURL points at the public trivia question API.
const DefaultBaseURL = "https://opentdb.com/api.php"

// Request describes one question fetch.
type Request struct {
	Amount     int
	Category   string
	Difficulty string
}

// Key returns a stable cache key for the request.
func (r Request) Key() string {
	return strconv.Itoa(r.Amount) + "|" + r.Category + "|" + r.Difficulty
}

// API response codes. Zero is success; everything else is a failure reason.
const (
	codeSuccess          = 0
	codeNoResults        = 1
	codeInvalidParameter = 2
	codeTokenNotFound    = 3
	codeTokenExhausted   = 4
)

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []apiQuestion `json:"results"`
}

type apiQuestion struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// Client calls the trivia API over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves and decodes a question set. Non-zero response codes map to
// the domain's sentinel errors.
func (c *Client) Fetch(ctx context.Context, req Request) ([]domain.Question, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(req), nil)
	if err != nil {
		return nil, fmt.Errorf("build trivia request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trivia api: unexpected status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode trivia response: %w", err)
	}

	switch payload.ResponseCode {
	case codeSuccess:
	case codeNoResults:
		return nil, domain.ErrNoQuestions
	case codeInvalidParameter:
		return nil, domain.ErrInvalidParameter
	case codeTokenNotFound:
		return nil, domain.ErrTokenNotFound
	case codeTokenExhausted:
		return nil, domain.ErrTokenExhausted
	default:
		return nil, fmt.Errorf("trivia api: response code %d", payload.ResponseCode)
	}

	questions := make([]domain.Question, 0, len(payload.Results))
	for _, raw := range payload.Results {
		question, err := decodeQuestion(raw)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, nil
}

func (c *Client) requestURL(req Request) string {
	values := url.Values{}
	values.Set("amount", strconv.Itoa(req.Amount))
	values.Set("encode", "base64")
	if req.Category != "" {
		values.Set("category", req.Category)
	}
	if req.Difficulty != "" {
		values.Set("difficulty", req.Difficulty)
	}
	return c.baseURL + "?" + values.Encode()
}

func decodeQuestion(raw apiQuestion) (domain.Question, error) {
	prompt, err := decodeField(raw.Question)
	if err != nil {
		return domain.Question{}, err
	}
	correct, err := decodeField(raw.CorrectAnswer)
	if err != nil {
		return domain.Question{}, err
	}
	category, err := decodeField(raw.Category)
	if err != nil {
		return domain.Question{}, err
	}
	difficulty, err := decodeField(raw.Difficulty)
	if err != nil {
		return domain.Question{}, err
	}

	incorrect := make([]string, 0, len(raw.IncorrectAnswers))
	for _, enc := range raw.IncorrectAnswers {
		text, err := decodeField(enc)
		if err != nil {
			return domain.Question{}, err
		}
		incorrect = append(incorrect, text)
	}

	answers := make([]string, 0, len(incorrect)+1)
	answers = append(answers, incorrect...)
	answers = append(answers, correct)
	rand.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})

	return domain.Question{
		Prompt:           prompt,
		CorrectAnswer:    correct,
		IncorrectAnswers: incorrect,
		Answers:          answers,
		Category:         category,
		Difficulty:       difficulty,
		Points:           domain.PointsFor(difficulty),
	}, nil
}

func decodeField(encoded string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Some deployments emit unpadded base64.
		decoded, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return "", fmt.Errorf("decode base64 field: %w", err)
		}
	}
	return string(decoded), nil
}
