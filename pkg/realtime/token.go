package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SessionRequest describes the ephemeral session to create.
type SessionRequest struct {
	// Model defaults to ModelGPT4oRealtimePreview20241217.
	Model string `json:"model"`
	// Voice defaults to VoiceAlloy.
	Voice string `json:"voice"`
	// Instructions optionally pins the system prompt at creation time.
	Instructions string `json:"instructions,omitzero"`
}

// EphemeralSession is a short-lived credential for one Realtime connection.
type EphemeralSession struct {
	ID           string    `json:"id"`
	Model        string    `json:"model"`
	Voice        string    `json:"voice"`
	ClientSecret string    `json:"client_secret"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type ephemeralTokenResponse struct {
	ID           string `json:"id"`
	Object       string `json:"object"`
	Model        string `json:"model"`
	Voice        string `json:"voice"`
	ExpiresAt    int64  `json:"expires_at"`
	ClientSecret struct {
		Value     string `json:"value"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"client_secret"`
}

// CreateSession mints an ephemeral client secret.
func (c *Client) CreateSession(ctx context.Context, req *SessionRequest) (*EphemeralSession, error) {
	body := SessionRequest{
		Model: ModelGPT4oRealtimePreview20241217,
		Voice: VoiceAlloy,
	}
	if req != nil {
		if req.Model != "" {
			body.Model = req.Model
		}
		if req.Voice != "" {
			body.Voice = req.Voice
		}
		body.Instructions = req.Instructions
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.httpURL+"/sessions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", c.config.organization)
	}
	if c.config.project != "" {
		httpReq.Header.Set("OpenAI-Project", c.config.project)
	}

	resp, err := c.config.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, &Error{
			Code:       "session_creation_failed",
			Message:    fmt.Sprintf("failed to create session: %s", string(b)),
			HTTPStatus: resp.StatusCode,
		}
	}

	var tokenResp ephemeralTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if tokenResp.ClientSecret.Value == "" {
		return nil, &Error{Code: "session_creation_failed", Message: "missing client secret", HTTPStatus: resp.StatusCode}
	}

	out := &EphemeralSession{
		ID:           tokenResp.ID,
		Model:        tokenResp.Model,
		Voice:        tokenResp.Voice,
		ClientSecret: tokenResp.ClientSecret.Value,
	}
	if out.Model == "" {
		out.Model = body.Model
	}
	if out.Voice == "" {
		out.Voice = body.Voice
	}
	if exp := tokenResp.ClientSecret.ExpiresAt; exp > 0 {
		out.ExpiresAt = time.Unix(exp, 0).UTC()
	}
	return out, nil
}
