package elevenlabs

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

	"audiobook-worker/config"
	"audiobook-worker/entities"
)

// ErrNotConfigured marks calls attempted without an API key present. It aborts
// a whole generation batch instead of failing segment by segment.
var ErrNotConfigured = errors.New("elevenlabs: api key is not configured")

// StatusError carries the upstream HTTP status and error text.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("elevenlabs: api error: %d - %s", e.Code, e.Body)
}

type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.ElevenLabs) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: 240 * time.Second},
	}
}

func (c *Client) Configured() error {
	if strings.TrimSpace(c.apiKey) == "" {
		return ErrNotConfigured
	}
	return nil
}

type synthesizeRequest struct {
	Text          string                 `json:"text"`
	ModelID       string                 `json:"model_id"`
	VoiceSettings entities.VoiceSettings `json:"voice_settings"`
}

// Synthesize renders text with the given voice and performance settings and
// returns the audio bytes.
func (c *Client) Synthesize(ctx context.Context, voiceID, text string, settings entities.VoiceSettings) ([]byte, error) {
	if err := c.Configured(); err != nil {
		return nil, err
	}
	if voiceID == "" {
		return nil, errors.New("elevenlabs: voice id is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("elevenlabs: text is required")
	}

	reqBody := synthesizeRequest{
		Text:          text,
		ModelID:       c.model,
		VoiceSettings: settings,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, voiceID)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	request.Header.Set("xi-api-key", c.apiKey)
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(errBody))}
	}

	return io.ReadAll(resp.Body)
}

// ListVoices is a read-only passthrough of the provider's voice catalog.
func (c *Client) ListVoices(ctx context.Context) (json.RawMessage, error) {
	if err := c.Configured(); err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/voices", nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(errBody))}
	}

	return io.ReadAll(resp.Body)
}
