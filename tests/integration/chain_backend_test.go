package integration_test

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
)

// fakeChainBackend plays the storage node, ledger node, and signing service
// on one httptest server.
type fakeChainBackend struct {
	mu       sync.Mutex
	metadata map[string]any
}

func newFakeChainBackend() *fakeChainBackend {
	return &fakeChainBackend{}
}

func (b *fakeChainBackend) uploadedTitle() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	title, _ := b.metadata["title"].(string)
	return title
}

func (b *fakeChainBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/upload":
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		b.metadata = payload
		b.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"uri": "lens://integration-uri"})

	case r.Method == http.MethodPost && r.URL.Path == "/sign":
		json.NewEncoder(w).Encode(map[string]string{
			"signature_b64": base64.StdEncoding.EncodeToString([]byte("signature")),
		})

	case r.Method == http.MethodPost && r.URL.Path == "/transactions":
		json.NewEncoder(w).Encode(map[string]string{"tx_hash": "0xintegrationtx"})

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/posts/by-tx/"):
		b.mu.Lock()
		title, _ := b.metadata["title"].(string)
		b.mu.Unlock()
		slug := strings.ToLower(strings.ReplaceAll(title, " ", "-"))
		json.NewEncoder(w).Encode(map[string]string{
			"id":             "post-1",
			"slug":           slug,
			"authorUsername": "alice",
		})

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/transactions/"):
		json.NewEncoder(w).Encode(map[string]string{"status": "mined"})

	default:
		http.NotFound(w, r)
	}
}
