package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/docurail/metrodocs-backend/pkg/config"
	pkgerrors "github.com/docurail/metrodocs-backend/pkg/errors"
)

const (
	processPath                 = "/process"
	responseBodyReadLimit int64 = 1024
)

// Client talks to the document intelligence service that enriches uploads
// with summaries, classification, and translation.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the enrichment client from configuration.
func NewClient(cfg config.AIConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ai service base url is required")
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Enrichment is the normalized analysis returned for an uploaded document.
type Enrichment struct {
	Summary          string          `json:"summary"`
	Classification   string          `json:"classification"`
	Metadata         json.RawMessage `json:"metadata"`
	TranslatedText   string          `json:"translated_text"`
	DetectedLanguage string          `json:"detected_language"`
}

// ProcessDocument streams the file to the enrichment service and returns its analysis.
// The caller owns the reader; it is consumed but not closed.
func (c *Client) ProcessDocument(ctx context.Context, fileName, contentType string, file io.Reader) (*Enrichment, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ai client not configured")
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
	}
	if file == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file content is required")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(fileName)))
	if strings.TrimSpace(contentType) != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build multipart request")
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "copy file into request")
	}
	if err := writer.Close(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize multipart request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+processPath, &body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build process request")
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute process request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "process request failed")
	}

	var enrichment Enrichment
	if err := json.NewDecoder(resp.Body).Decode(&enrichment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode process response")
	}

	return &enrichment, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
