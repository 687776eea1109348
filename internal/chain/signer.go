package chain

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fountain-ink/fountain-backend/internal/publish"
)

// RemoteSigner asks the wallet-delegation service to sign an operation on
// behalf of an author. The backend never sees key material.
type RemoteSigner struct {
	baseURL    string
	address    string
	httpClient *http.Client
}

// NewRemoteSigner creates a signer bound to one author address.
func NewRemoteSigner(baseURL, address string) (*RemoteSigner, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid signer address %q", address)
	}
	return &RemoteSigner{
		baseURL: baseURL,
		address: common.HexToAddress(address).Hex(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Address returns the checksummed author address this signer acts for.
func (s *RemoteSigner) Address() string {
	return s.address
}

type signRequest struct {
	Address   string            `json:"address"`
	Operation publish.Operation `json:"operation"`
}

type signResponse struct {
	SignatureB64 string `json:"signature_b64"`
}

// Sign submits the unsigned operation for delegated signing.
func (s *RemoteSigner) Sign(ctx context.Context, op publish.Operation) ([]byte, error) {
	var parsed signResponse
	if err := postJSON(ctx, s.httpClient, s.baseURL+"/sign", signRequest{Address: s.address, Operation: op}, &parsed); err != nil {
		return nil, err
	}
	signature, err := base64.StdEncoding.DecodeString(parsed.SignatureB64)
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}
	if len(signature) == 0 {
		return nil, fmt.Errorf("signer returned empty signature")
	}
	return signature, nil
}
