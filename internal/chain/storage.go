// Package chain provides HTTP-backed implementations of the publish
// pipeline's external collaborators: content storage, the ledger, the
// campaign provider, and a delegated operation signer.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// StorageClient uploads content-addressed JSON objects.
type StorageClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewStorageClient creates a content storage client for the given base URL.
func NewStorageClient(baseURL string) *StorageClient {
	return &StorageClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
	}
}

type uploadResponse struct {
	URI string `json:"uri"`
}

// UploadJSON submits the payload and returns its content-addressed URI.
func (c *StorageClient) UploadJSON(ctx context.Context, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("storage status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed uploadResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if parsed.URI == "" {
		return "", fmt.Errorf("storage returned empty uri")
	}
	return parsed.URI, nil
}
