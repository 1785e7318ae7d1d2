// Package aiclient talks to the AI sidecar that classifies ambiguous comfort
// scores and authors trivia questions.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fanfirst-engagement-service/internal/domain"
)

const (
	comfortService   = "comfort-ai"
	generatorService = "question-ai"
)

// Client is an HTTP client for the AI sidecar.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. The per-request deadline comes from the caller's context;
// timeout is only a backstop.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type classifyResponse struct {
	Level                     *string  `json:"level"`
	Confidence                *float64 `json:"confidence"`
	ShouldShowWallet          *bool    `json:"shouldShowWallet"`
	ShouldOfferEmbeddedWallet *bool    `json:"shouldOfferEmbeddedWallet"`
	Recommendation            string   `json:"recommendation"`
	Reasoning                 string   `json:"reasoning"`
}

// ClassifyComfort asks the sidecar for a second opinion on an ambiguous comfort score.
func (c *Client) ClassifyComfort(ctx context.Context, req domain.ComfortEscalation) (domain.ComfortResult, error) {
	var out classifyResponse
	if err := c.post(ctx, comfortService, "/classify-comfort", req, &out); err != nil {
		return domain.ComfortResult{}, err
	}
	switch {
	case out.Level == nil:
		return domain.ComfortResult{}, domain.Malformed(comfortService, "missing level")
	case out.Confidence == nil:
		return domain.ComfortResult{}, domain.Malformed(comfortService, "missing confidence")
	case out.ShouldShowWallet == nil || out.ShouldOfferEmbeddedWallet == nil:
		return domain.ComfortResult{}, domain.Malformed(comfortService, "missing wallet flags")
	}
	return domain.ComfortResult{
		Level:                     domain.ComfortLevel(*out.Level),
		Confidence:                *out.Confidence,
		ShouldShowWallet:          *out.ShouldShowWallet,
		ShouldOfferEmbeddedWallet: *out.ShouldOfferEmbeddedWallet,
		Recommendation:            out.Recommendation,
		Reasoning:                 out.Reasoning,
	}, nil
}

type generateRequest struct {
	ArtistName string `json:"artistName"`
	Count      int    `json:"count"`
}

type generatedQuestion struct {
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Difficulty    string   `json:"difficulty"`
}

type generateResponse struct {
	Questions []generatedQuestion `json:"questions"`
}

// GenerateQuestions asks the sidecar to author count questions about an artist.
// The output is returned as-is; callers sanitize it.
func (c *Client) GenerateQuestions(ctx context.Context, artistName string, count int) ([]domain.Question, error) {
	var out generateResponse
	if err := c.post(ctx, generatorService, "/generate-questions", generateRequest{ArtistName: artistName, Count: count}, &out); err != nil {
		return nil, err
	}
	questions := make([]domain.Question, 0, len(out.Questions))
	for _, q := range out.Questions {
		questions = append(questions, domain.Question{
			Prompt:        q.Question,
			Type:          domain.QuestionType(q.Type),
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Difficulty:    q.Difficulty,
		})
	}
	return questions, nil
}

func (c *Client) post(ctx context.Context, service, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return domain.TimedOut(service, err)
		}
		return domain.Unavailable(service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Unavailable(service, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.Malformed(service, fmt.Sprintf("failed to decode response: %v", err))
	}
	return nil
}
