package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"VoiceStudio/internal/models"
)

// Client is the HTTP implementation of API against the server-action
// endpoints, plus the upload and history calls the UI layer needs.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

func submitPath(service models.Service) (string, error) {
	switch service {
	case models.ServiceStyleTTS2:
		return "/api/generate/speech", nil
	case models.ServiceSeedVC:
		return "/api/generate/voice-conversion", nil
	case models.ServiceMakeAnAudio:
		return "/api/generate/sound-effect", nil
	}
	return "", fmt.Errorf("unknown service %q", service)
}

func (c *Client) Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error) {
	path, err := submitPath(req.Service)
	if err != nil {
		return SubmitResponse{}, err
	}

	body := map[string]string{}
	switch req.Service {
	case models.ServiceSeedVC:
		body["objectKey"] = req.SourceKey
		body["voiceId"] = req.VoiceID
	case models.ServiceStyleTTS2:
		body["text"] = req.Text
		body["voiceId"] = req.VoiceID
	default:
		body["text"] = req.Text
	}

	var resp SubmitResponse
	if err := c.post(ctx, path, body, &resp); err != nil {
		return SubmitResponse{}, err
	}
	return resp, nil
}

func (c *Client) Status(ctx context.Context, jobID string) (StatusResponse, error) {
	var resp StatusResponse
	if err := c.get(ctx, "/api/generate/"+jobID+"/status", &resp); err != nil {
		return StatusResponse{}, err
	}
	return resp, nil
}

// UploadTarget asks the server for a presigned PUT location for source audio.
func (c *Client) UploadTarget(ctx context.Context, fileType string) (uploadURL, objectKey string, err error) {
	var resp struct {
		UploadURL string `json:"uploadUrl"`
		ObjectKey string `json:"objectKey"`
	}
	if err := c.post(ctx, "/api/uploads", map[string]string{"fileType": fileType}, &resp); err != nil {
		return "", "", err
	}
	return resp.UploadURL, resp.ObjectKey, nil
}

// Upload PUTs the audio bytes straight to the presigned location. The
// Content-Type must match the one declared to UploadTarget.
func (c *Client) Upload(ctx context.Context, uploadURL, contentType string, r io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upload failed: status %d", resp.StatusCode)
	}
	return nil
}

// History fetches the persisted clips, newest first.
func (c *Client) History(ctx context.Context) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	if err := c.get(ctx, "/api/history", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteClip removes a clip and reports whether the server confirmed it.
func (c *Client) DeleteClip(ctx context.Context, id string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/history/"+id, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var out struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Success, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
