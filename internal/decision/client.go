// Package decision provides the HTTP client for the remote memory decision
// service. The service classifies a free-text utterance as store, retrieve or
// clarify and executes the chosen action; the client only ships text back and
// forth and reports what happened.
package decision

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

	"go.uber.org/zap"
)

// ErrEmptyUtterance is returned when a caller tries to send blank input.
// The check happens before any network activity.
var ErrEmptyUtterance = errors.New("utterance is empty")

// Envelope is the uniform result of an Auto call. Status 0 means no HTTP
// response was obtained (transport failure). Body is kept loosely typed
// because the service's payload shape varies per action.
type Envelope struct {
	OK     bool
	Status int
	Body   map[string]any
}

// AutoOptions tunes a single Auto call.
type AutoOptions struct {
	// ForceAction skips the service's own classification ("store" or "retrieve").
	ForceAction string
	// PreferredLanguage is sent in the payload and as an Accept-Language hint.
	PreferredLanguage string
}

// Config holds Client construction parameters.
type Config struct {
	BaseURL string
	// APIKey is optional; when set it is sent as X-API-Key on every request.
	APIKey  string
	Timeout time.Duration
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to one decision service instance. It performs exactly one
// network call per invocation and never retries; retry policy belongs to the
// caller.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a Client. BaseURL is required.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("decision service base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		log:        log,
	}, nil
}

type autoRequest struct {
	Text              string `json:"text"`
	ForceAction       string `json:"force_action,omitempty"`
	PreferredLanguage string `json:"preferredLanguage,omitempty"`
}

// Auto sends one utterance to POST /api/v1/auto and returns a uniform
// envelope. Transport failures never surface as errors: they come back as
// {OK:false, Status:0, Body:{"error":"network"}}. The only error condition is
// empty or whitespace-only input, rejected before any network call.
func (c *Client) Auto(ctx context.Context, text string, opts AutoOptions) (Envelope, error) {
	if strings.TrimSpace(text) == "" {
		return Envelope{}, ErrEmptyUtterance
	}

	payload, err := json.Marshal(autoRequest{
		Text:              text,
		ForceAction:       opts.ForceAction,
		PreferredLanguage: opts.PreferredLanguage,
	})
	if err != nil {
		// Marshal of a plain struct cannot realistically fail; treat it like
		// any other failure to reach the service.
		return networkFailure(), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auto", bytes.NewReader(payload))
	if err != nil {
		return networkFailure(), nil
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.PreferredLanguage != "" {
		req.Header.Set("Accept-Language", opts.PreferredLanguage)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("auto request failed", zap.Error(err))
		return networkFailure(), nil
	}
	defer resp.Body.Close()

	body := map[string]any{}
	data, err := io.ReadAll(resp.Body)
	if err == nil && len(data) > 0 {
		err = json.Unmarshal(data, &body)
	}
	if err != nil {
		c.log.Warn("auto response unreadable",
			zap.Int("status", resp.StatusCode), zap.Error(err))
		return Envelope{OK: false, Status: resp.StatusCode, Body: map[string]any{"error": "decode"}}, nil
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	c.log.Debug("auto response",
		zap.Int("status", resp.StatusCode), zap.Bool("ok", ok))
	return Envelope{OK: ok, Status: resp.StatusCode, Body: body}, nil
}

func networkFailure() Envelope {
	return Envelope{OK: false, Status: 0, Body: map[string]any{"error": "network"}}
}
