package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fountain-ink/fountain-backend/internal/publish"
)

// CampaignClient starts email campaigns against the mailing provider.
type CampaignClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewCampaignClient creates a campaign client for the given provider URL.
func NewCampaignClient(baseURL, apiKey string) *CampaignClient {
	return &CampaignClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type campaignRequest struct {
	ListID   string `json:"list_id"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	CoverURL string `json:"cover_url,omitempty"`
	SendAt   string `json:"send_at"`
}

type campaignResponse struct {
	Started bool `json:"started"`
}

// CreateAndStart builds a campaign from the post metadata and starts it.
func (c *CampaignClient) CreateAndStart(ctx context.Context, listID string, meta publish.PostMetadata) (bool, error) {
	payload := campaignRequest{
		ListID:   listID,
		Subject:  publish.CampaignSubject(meta),
		Body:     meta.ContentMarkdown,
		CoverURL: meta.CoverURL,
		SendAt:   time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshal campaign: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/campaigns", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return false, fmt.Errorf("campaign status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed campaignResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return false, fmt.Errorf("unmarshal response: %w", err)
	}
	return parsed.Started, nil
}
