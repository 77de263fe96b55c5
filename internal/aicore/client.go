// Package aicore is the HTTP client for the external AI core service. The
// core owns retrieval and answer generation; this backend only ships it the
// running conversation and the new message, and reads back the answer with
// its confidence verdict.
package aicore

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
)

// ErrUnavailable marks transport failures and non-2xx replies from the core.
var ErrUnavailable = errors.New("ai core unavailable")

// ErrBadResponse marks a 2xx reply whose body does not carry the expected
// envelope.
var ErrBadResponse = errors.New("ai core returned a malformed response")

// Turn is one prior exchange entry sent to the core as context.
type Turn struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// Reply is the core's answer to a chat request.
type Reply struct {
	Response         string  `json:"response"`
	Confidence       float64 `json:"confidence_score"`
	Escalated        bool    `json:"escalated"`
	EscalationReason string  `json:"escalation_reason"`
}

type chatRequest struct {
	ChatHistory []Turn `json:"chat_history"`
	Message     string `json:"message"`
}

type chatEnvelope struct {
	Data *Reply `json:"data"`
}

// Client calls the AI core over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client rooted at baseURL. Trailing slashes are tolerated,
// and timeout bounds every call end to end.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Chat sends the conversation so far plus the new message and returns the
// core's reply. history may be nil for a fresh conversation.
func (c *Client) Chat(ctx context.Context, history []Turn, message string) (*Reply, error) {
	if history == nil {
		history = []Turn{}
	}
	body, err := json.Marshal(chatRequest{ChatHistory: history, Message: message})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body so the failure is diagnosable in logs.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var env chatEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%w: missing data field", ErrBadResponse)
	}
	return env.Data, nil
}
