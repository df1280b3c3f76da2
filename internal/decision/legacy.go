package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// This file covers the service's first-generation endpoints. The chat flow
// only uses /api/v1/auto; these typed calls exist for the CLI subcommands and
// return ordinary errors instead of the Auto envelope contract.

// MemoryCandidate is one ranked result from the memory index.
type MemoryCandidate struct {
	MemoryID        string  `json:"memory_id"`
	Text            string  `json:"text"`
	SimilarityScore float64 `json:"similarity_score"`
}

// StoreResult reports a direct store, including duplicate detection.
type StoreResult struct {
	DuplicateDetected     bool    `json:"duplicate_detected"`
	MemoryID              string  `json:"memory_id"`
	ExistingMemoryPreview string  `json:"existing_memory_preview,omitempty"`
	SimilarityScore       float64 `json:"similarity_score,omitempty"`
}

// QueryResult holds ranked candidates for a direct query.
type QueryResult struct {
	Candidates []MemoryCandidate `json:"candidates"`
}

// UpdateResult reports an in-place memory rewrite.
type UpdateResult struct {
	Success bool   `json:"success"`
	Before  string `json:"before,omitempty"`
	After   string `json:"after,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DeleteResult reports a memory removal.
type DeleteResult struct {
	Success     bool   `json:"success"`
	DeletedText string `json:"deleted_text,omitempty"`
	Error       string `json:"error,omitempty"`
}

// HealthStatus is the service liveness report.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// StoreMemory saves one memory directly, bypassing classification.
func (c *Client) StoreMemory(ctx context.Context, text, language string) (StoreResult, error) {
	var out StoreResult
	req := map[string]any{"text": text}
	if language != "" {
		req["language"] = language
	}
	err := c.postJSON(ctx, "/api/v1/store", req, &out)
	return out, err
}

// Query searches stored memories and returns up to topK ranked candidates.
func (c *Client) Query(ctx context.Context, query string, topK int) (QueryResult, error) {
	var out QueryResult
	req := map[string]any{"query": query}
	if topK > 0 {
		req["top_k"] = topK
	}
	err := c.postJSON(ctx, "/api/v1/query", req, &out)
	return out, err
}

// Update rewrites the text of an existing memory.
func (c *Client) Update(ctx context.Context, memoryID, newText string) (UpdateResult, error) {
	var out UpdateResult
	err := c.postJSON(ctx, "/api/v1/update", map[string]any{
		"memory_id": memoryID,
		"new_text":  newText,
	}, &out)
	return out, err
}

// Delete removes a memory by id.
func (c *Client) Delete(ctx context.Context, memoryID string) (DeleteResult, error) {
	var out DeleteResult
	err := c.postJSON(ctx, "/api/v1/delete", map[string]any{"memory_id": memoryID}, &out)
	return out, err
}

// Health probes the service. Failures are ordinary errors; callers decide
// whether an unreachable service is fatal.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return out, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return out, json.NewDecoder(resp.Body).Decode(&out)
}

func (c *Client) postJSON(ctx context.Context, path string, in any, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
