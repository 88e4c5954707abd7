package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/docurail/metrodocs-backend/pkg/config"
	pkgerrors "github.com/docurail/metrodocs-backend/pkg/errors"
)

func TestProcessDocument(t *testing.T) {
	var capturedFileName string
	var capturedContent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/process" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("read form file: %v", err)
		}
		defer file.Close()
		capturedFileName = header.Filename
		raw, err := io.ReadAll(file)
		if err != nil {
			t.Fatalf("read file content: %v", err)
		}
		capturedContent = string(raw)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"summary":           "Track maintenance schedule for Line 2.",
			"classification":    "Safety Notice",
			"metadata":          map[string]any{"pages": 3},
			"translated_text":   "",
			"detected_language": "en",
		})
	}))
	defer server.Close()

	client, err := NewClient(config.AIConfig{BaseURL: server.URL, RequestTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	enrichment, err := client.ProcessDocument(context.Background(), "schedule.pdf", "application/pdf", strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("process document: %v", err)
	}

	if capturedFileName != "schedule.pdf" {
		t.Fatalf("unexpected file name %q", capturedFileName)
	}
	if capturedContent != "pdf-bytes" {
		t.Fatalf("unexpected file content %q", capturedContent)
	}
	if enrichment.Summary != "Track maintenance schedule for Line 2." {
		t.Fatalf("unexpected summary %q", enrichment.Summary)
	}
	if enrichment.Classification != "Safety Notice" {
		t.Fatalf("unexpected classification %q", enrichment.Classification)
	}
	if enrichment.DetectedLanguage != "en" {
		t.Fatalf("unexpected language %q", enrichment.DetectedLanguage)
	}
	var meta map[string]any
	if err := json.Unmarshal(enrichment.Metadata, &meta); err != nil {
		t.Fatalf("metadata should be raw JSON: %v", err)
	}
}

func TestProcessDocumentUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(config.AIConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.ProcessDocument(context.Background(), "schedule.pdf", "application/pdf", strings.NewReader("pdf-bytes"))
	if err == nil {
		t.Fatal("expected error for upstream failure")
	}
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency code, got %s", pkgerrors.CodeOf(err))
	}
}

func TestProcessDocumentValidation(t *testing.T) {
	client, err := NewClient(config.AIConfig{BaseURL: "http://ai.test"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.ProcessDocument(context.Background(), "  ", "application/pdf", strings.NewReader("x")); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
	if _, err := client.ProcessDocument(context.Background(), "a.pdf", "application/pdf", nil); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for nil reader, got %v", err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(config.AIConfig{}); err == nil {
		t.Fatal("expected error for missing base url")
	}
}
