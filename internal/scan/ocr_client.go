package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

// OCRClient talks to an external OCR service over HTTP: multipart image in,
// recognized text out.
type OCRClient struct {
	url    string
	apiKey string
	httpc  *http.Client
	logger *slog.Logger
}

func NewOCRClient(url, apiKey string, logger *slog.Logger) *OCRClient {
	return &OCRClient{
		url:    url,
		apiKey: apiKey,
		httpc:  &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

type ocrResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

func (c *OCRClient) Recognize(ctx context.Context, image io.Reader, filename string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", err
	}
	if err := mw.WriteField("language", "eng"); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr service returned %s", resp.Status)
	}

	var parsed ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode ocr response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ocr service error: %s", parsed.Error)
	}
	return parsed.Text, nil
}
