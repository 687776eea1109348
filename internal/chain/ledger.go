package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fountain-ink/fountain-backend/internal/publish"
)

const (
	txStatusMined    = "mined"
	txStatusFailed   = "failed"
	defaultPollEvery = 2 * time.Second
)

// LedgerClient talks to the chain node and its indexer. Inclusion waits have
// no client-side deadline beyond the caller's context; consensus latency is
// unbounded.
type LedgerClient struct {
	baseURL    string
	httpClient *http.Client
	pollEvery  time.Duration
}

// LedgerClientConfig configures a LedgerClient.
type LedgerClientConfig struct {
	BaseURL      string
	PollInterval time.Duration
}

// NewLedgerClient creates a ledger client for the given node URL.
func NewLedgerClient(cfg LedgerClientConfig) *LedgerClient {
	pollEvery := cfg.PollInterval
	if pollEvery <= 0 {
		pollEvery = defaultPollEvery
	}
	return &LedgerClient{
		baseURL: cfg.BaseURL,
		// No Timeout here: WaitForTransaction legitimately outlives any
		// fixed request deadline. The context bounds each attempt instead.
		httpClient: &http.Client{},
		pollEvery:  pollEvery,
	}
}

type submitRequest struct {
	Operation publish.Operation `json:"operation"`
	Signer    string            `json:"signer"`
	Signature []byte            `json:"signature"`
}

type submitResponse struct {
	TxHash string `json:"tx_hash"`
}

// Submit signs the operation with the provided signer and dispatches it.
func (c *LedgerClient) Submit(ctx context.Context, op publish.Operation, signer publish.Signer) (string, error) {
	signature, err := signer.Sign(ctx, op)
	if err != nil {
		return "", fmt.Errorf("sign operation: %w", err)
	}

	payload := submitRequest{
		Operation: op,
		Signer:    signer.Address(),
		Signature: signature,
	}
	var parsed submitResponse
	if err := c.postJSON(ctx, "/transactions", payload, &parsed); err != nil {
		return "", err
	}
	if parsed.TxHash == "" {
		return "", fmt.Errorf("ledger returned empty tx hash")
	}
	return parsed.TxHash, nil
}

type txStatusResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// WaitForTransaction polls until the transaction is durably indexed.
func (c *LedgerClient) WaitForTransaction(ctx context.Context, txHash string) error {
	ticker := time.NewTicker(c.pollEvery)
	defer ticker.Stop()

	for {
		var status txStatusResponse
		err := c.getJSON(ctx, "/transactions/"+txHash, &status)
		if err == nil {
			switch status.Status {
			case txStatusMined:
				return nil
			case txStatusFailed:
				return fmt.Errorf("transaction %s failed: %s", txHash, status.Reason)
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// FetchPostByTxHash resolves the post created by a mined transaction. A nil
// post with nil error means the indexer does not know the object yet.
func (c *LedgerClient) FetchPostByTxHash(ctx context.Context, txHash string) (*publish.Post, error) {
	var post publish.Post
	err := c.getJSON(ctx, "/posts/by-tx/"+txHash, &post)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

type feedResponse struct {
	FeedID string `json:"feed_id"`
}

// ResolveFeed returns the feed identifier of a blog address.
func (c *LedgerClient) ResolveFeed(ctx context.Context, blogAddress string) (string, error) {
	if !common.IsHexAddress(blogAddress) {
		return "", fmt.Errorf("invalid blog address %q", blogAddress)
	}
	normalized := common.HexToAddress(blogAddress).Hex()
	var parsed feedResponse
	if err := c.getJSON(ctx, "/feeds/"+normalized, &parsed); err != nil {
		return "", err
	}
	if parsed.FeedID == "" {
		return "", fmt.Errorf("no feed for blog %s", normalized)
	}
	return parsed.FeedID, nil
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ledger status %d: %s", e.status, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusNotFound
}

func (c *LedgerClient) postJSON(ctx context.Context, path string, payload, result any) error {
	return postJSON(ctx, c.httpClient, c.baseURL+path, payload, result)
}

func (c *LedgerClient) getJSON(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return doJSON(c.httpClient, req, result)
}

func postJSON(ctx context.Context, client *http.Client, url string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return doJSON(client, req, result)
}

func doJSON(client *http.Client, req *http.Request, result any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &statusError{status: resp.StatusCode, body: string(raw)}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
