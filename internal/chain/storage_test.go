package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fountain-ink/fountain-backend/internal/publish"
)

func TestUploadJSONReturnsURI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode upload body: %v", err)
		}
		if body["title"] != "My Post" {
			t.Errorf("unexpected payload: %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(uploadResponse{URI: "lens://content-uri"})
	}))
	defer server.Close()

	client := NewStorageClient(server.URL)
	uri, err := client.UploadJSON(context.Background(), publish.PostMetadata{Title: "My Post", ContentMarkdown: "Body"})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if uri != "lens://content-uri" {
		t.Fatalf("unexpected uri %q", uri)
	}
}

func TestUploadJSONRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewStorageClient(server.URL)
	if _, err := client.UploadJSON(context.Background(), publish.PostMetadata{}); err == nil {
		t.Fatalf("expected error for storage rejection")
	}
}

func TestUploadJSONRejectsEmptyURI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(uploadResponse{})
	}))
	defer server.Close()

	client := NewStorageClient(server.URL)
	if _, err := client.UploadJSON(context.Background(), publish.PostMetadata{}); err == nil {
		t.Fatalf("expected error for empty uri")
	}
}

func TestRemoteSignerRequiresValidAddress(t *testing.T) {
	if _, err := NewRemoteSigner("http://127.0.0.1:0", "nope"); err == nil {
		t.Fatalf("expected invalid address error")
	}
}

func TestRemoteSignerDecodesSignature(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sign" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body signRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode sign request: %v", err)
		}
		if body.Address != "0x1111111111111111111111111111111111111111" {
			t.Errorf("unexpected address %q", body.Address)
		}
		json.NewEncoder(w).Encode(signResponse{
			SignatureB64: base64.StdEncoding.EncodeToString([]byte("signature")),
		})
	}))
	defer server.Close()

	signer, err := NewRemoteSigner(server.URL, testSignerAddress)
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}
	signature, err := signer.Sign(context.Background(), publish.Operation{Kind: "post"})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if string(signature) != "signature" {
		t.Fatalf("unexpected signature %q", signature)
	}
}

func TestCampaignCreateAndStart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/campaigns" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer api-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var body campaignRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode campaign request: %v", err)
		}
		if body.ListID != "list-1" || body.Subject != "My Post" {
			t.Errorf("unexpected campaign payload: %+v", body)
		}
		json.NewEncoder(w).Encode(campaignResponse{Started: true})
	}))
	defer server.Close()

	client := NewCampaignClient(server.URL, "api-key")
	started, err := client.CreateAndStart(context.Background(), "list-1", publish.PostMetadata{
		Title:           "My Post",
		ContentMarkdown: "Body",
	})
	if err != nil {
		t.Fatalf("campaign failed: %v", err)
	}
	if !started {
		t.Fatalf("expected campaign started")
	}
}
