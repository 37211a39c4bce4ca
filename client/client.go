package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"imgcsv/dto"
)

var (
	ErrMissingRequestID = errors.New("upload response missing request_id")
	ErrEmptyRequestID   = errors.New("request id is required")
)

// APIError is a non-2xx response from the processing service. Message holds
// the body's error field when the server sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Client talks to the CSV image-processing service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// Upload posts the file under form field "file" and returns the job the
// service assigned. webhookURL, when non-empty, is forwarded as the
// webhook_url form field so the service can notify on completion.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader, webhookURL string) (*dto.UploadResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if webhookURL != "" {
		if err := writer.WriteField("webhook_url", webhookURL); err != nil {
			return nil, fmt.Errorf("write webhook field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	traceID := uuid.New().String()
	req.Header.Set("X-Trace-ID", traceID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return nil, apiError(resp.StatusCode, raw)
	}

	var out dto.UploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if out.RequestID == "" {
		return nil, ErrMissingRequestID
	}

	c.logger.Info("File uploaded",
		zap.String("trace_id", traceID),
		zap.String("request_id", out.RequestID),
		zap.String("filename", filename),
		zap.Duration("duration", time.Since(start)),
	)

	return &out, nil
}

// Status fetches the current state of a job. A 404 maps to dto.ErrJobNotFound.
func (c *Client) Status(ctx context.Context, requestID string) (*dto.StatusResponse, error) {
	if requestID == "" {
		return nil, ErrEmptyRequestID
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status/"+url.PathEscape(requestID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Trace-ID", uuid.New().String())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, dto.ErrJobNotFound
	}
	if resp.StatusCode/100 != 2 {
		return nil, apiError(resp.StatusCode, raw)
	}

	var out dto.StatusResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}

	c.logger.Debug("Status received",
		zap.String("request_id", requestID),
		zap.String("status", out.Status),
		zap.Int("products", len(out.Products)),
	)

	return &out, nil
}

// Download streams the completed job's output CSV into dst and returns the
// number of bytes written. A 404 maps to dto.ErrResultNotFound.
func (c *Client) Download(ctx context.Context, requestID string, dst io.Writer) (int64, error) {
	if requestID == "" {
		return 0, ErrEmptyRequestID
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/download/"+url.PathEscape(requestID), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-Trace-ID", uuid.New().String())

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, dto.ErrResultNotFound
	}
	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(resp.Body)
		return 0, apiError(resp.StatusCode, raw)
	}

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return n, fmt.Errorf("write output csv: %w", err)
	}

	c.logger.Info("Output CSV downloaded",
		zap.String("request_id", requestID),
		zap.Int64("bytes", n),
	)

	return n, nil
}

func apiError(status int, raw []byte) error {
	var er dto.ErrorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error != "" {
		return &APIError{StatusCode: status, Message: er.Error}
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(raw))}
}
