// Package narrator is the HTTP client for the external text-generation
// collaborator that writes encounter descriptions.
package narrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var ErrEmptyResponse = errors.New("narrator returned empty text")

// Client posts prompts to the generation endpoint. The wire contract is
// {"prompt": string} in and {"text": string} out, where the prompt string is
// itself a JSON document describing the encounter. One request, no retries;
// the timeout is the only guard against a hung backend.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Describe serializes payload into the prompt, posts it and returns the
// generated text. Non-2xx statuses, malformed bodies and blank text all come
// back as errors so callers can fall back instead of hanging the game.
func (c *Client) Describe(ctx context.Context, payload any) (string, error) {
	prompt, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal prompt payload: %w", err)
	}
	body, err := json.Marshal(map[string]string{"prompt": string(prompt)})
	if err != nil {
		return "", fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build narrator request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("narrator request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("narrator returned status %d", resp.StatusCode)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode narrator response: %w", err)
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
