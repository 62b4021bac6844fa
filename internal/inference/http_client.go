package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"VoiceStudio/internal/models"
)

// HTTPClient talks to the inference gateway over plain HTTP. Each service is
// mounted under its own path: POST {base}/{service}/generate.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Voice     string `json:"voice,omitempty"`
	Text      string `json:"text,omitempty"`
	SourceKey string `json:"source_key,omitempty"`
}

func (c *HTTPClient) Generate(ctx context.Context, req Request) (Result, error) {
	if !req.Service.Valid() {
		return Result{}, fmt.Errorf("unknown inference service %q", req.Service)
	}

	body, err := json.Marshal(generateRequest{
		Voice:     req.VoiceID,
		Text:      req.Text,
		SourceKey: req.SourceKey,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/generate", c.baseURL, req.Service)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("inference service returned %d: %s", resp.StatusCode, msg)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read audio body: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/wav"
	}
	return Result{Audio: audio, ContentType: contentType}, nil
}

var _ Service = (*HTTPClient)(nil)

// Health pings a backend's health endpoint.
func (c *HTTPClient) Health(ctx context.Context, service models.Service) error {
	url := fmt.Sprintf("%s/%s/health", c.baseURL, service)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service %s unhealthy: %d", service, resp.StatusCode)
	}
	return nil
}
