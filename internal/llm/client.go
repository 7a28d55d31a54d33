// Package llm is a thin client for the hosted LLM and file-upload
// integrations. Both are opaque HTTP collaborators; this package owns the
// wire shapes and nothing else.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// InvokeRequest is the payload for one LLM invocation.
type InvokeRequest struct {
	Prompt                 string         `json:"prompt"`
	AddContextFromInternet bool           `json:"add_context_from_internet"`
	FileURLs               []string       `json:"file_urls,omitempty"`
	ResponseJSONSchema     map[string]any `json:"response_json_schema,omitempty"`
}

// Client calls the LLM and file-upload endpoints.
type Client struct {
	endpoint       string
	uploadEndpoint string
	apiKey         string
	httpClient     *http.Client
}

// New creates a Client. Generation calls can take a while, so the HTTP client
// carries a generous timeout; callers still bound individual requests with ctx.
func New(endpoint, uploadEndpoint, apiKey string) *Client {
	return &Client{
		endpoint:       endpoint,
		uploadEndpoint: uploadEndpoint,
		apiKey:         apiKey,
		httpClient:     &http.Client{Timeout: 120 * time.Second},
	}
}

// Invoke sends a prompt with an optional JSON response-shape hint and returns
// the structured result undecoded.
func (c *Client) Invoke(ctx context.Context, req InvokeRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding LLM request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building LLM request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling LLM integration: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading LLM response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("LLM integration returned status %d", resp.StatusCode)
	}

	return json.RawMessage(raw), nil
}

// UploadFile sends a file to the upload integration and returns its
// retrievable URL.
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copying upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finalizing upload form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadEndpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling upload integration: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload integration returned status %d", resp.StatusCode)
	}

	var result struct {
		FileURL string `json:"file_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding upload response: %w", err)
	}
	if result.FileURL == "" {
		return "", fmt.Errorf("upload integration returned no file_url")
	}

	return result.FileURL, nil
}
