package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"imgcsv/dto"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, zaptest.NewLogger(t)), srv
}

func TestClient_Upload_Success(t *testing.T) {
	var gotPath, gotFilename, gotContent, gotWebhook, gotTraceID string

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotTraceID = r.Header.Get("X-Trace-ID")

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("Failed to parse multipart form: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("Failed to get file field: %v", err)
		}
		defer file.Close()
		gotFilename = header.Filename
		content, _ := io.ReadAll(file)
		gotContent = string(content)
		gotWebhook = r.FormValue("webhook_url")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(dto.UploadResponse{RequestID: "abc123", Status: "processing"})
	}))

	resp, err := c.Upload(context.Background(), "products.csv", strings.NewReader("S. No.,Product Name\n"), "http://hooks.example/done")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if resp.RequestID != "abc123" {
		t.Errorf("Expected request id abc123, got %q", resp.RequestID)
	}
	if gotPath != "POST /upload" {
		t.Errorf("Expected POST /upload, got %q", gotPath)
	}
	if gotFilename != "products.csv" {
		t.Errorf("Expected filename products.csv, got %q", gotFilename)
	}
	if gotContent != "S. No.,Product Name\n" {
		t.Errorf("Unexpected file content: %q", gotContent)
	}
	if gotWebhook != "http://hooks.example/done" {
		t.Errorf("Expected webhook_url field, got %q", gotWebhook)
	}
	if gotTraceID == "" {
		t.Error("Expected X-Trace-ID header to be set")
	}
}

func TestClient_Upload_NoWebhookField(t *testing.T) {
	var hadWebhook bool

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(32 << 20)
		_, hadWebhook = r.MultipartForm.Value["webhook_url"]
		json.NewEncoder(w).Encode(dto.UploadResponse{RequestID: "abc123"})
	}))

	if _, err := c.Upload(context.Background(), "products.csv", strings.NewReader("x"), ""); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if hadWebhook {
		t.Error("webhook_url field must be omitted when no webhook is configured")
	}
}

func TestClient_Upload_ServerError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "bad file"})
	}))

	_, err := c.Upload(context.Background(), "products.csv", strings.NewReader("x"), "")
	if err == nil {
		t.Fatal("Expected an error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "bad file" {
		t.Errorf("Expected message from the error field, got %q", apiErr.Message)
	}
	if err.Error() != "bad file" {
		t.Errorf("Error() must surface the server message verbatim, got %q", err.Error())
	}
}

func TestClient_Upload_MissingRequestID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))

	_, err := c.Upload(context.Background(), "products.csv", strings.NewReader("x"), "")
	if !errors.Is(err, ErrMissingRequestID) {
		t.Errorf("Expected ErrMissingRequestID, got %v", err)
	}
}

func TestClient_Status_Success(t *testing.T) {
	var gotPath string

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(dto.StatusResponse{
			RequestID: "abc123",
			Status:    "completed",
			Products: []dto.ProductRecord{{
				SerialNumber: 1,
				ProductName:  "P1",
				InputURLs:    []string{"http://a"},
				OutputURLs:   []string{"http://b"},
			}},
			OutputCSVURL: "/download/abc123",
		})
	}))

	resp, err := c.Status(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}

	if gotPath != "/status/abc123" {
		t.Errorf("Expected /status/abc123, got %q", gotPath)
	}
	if resp.Status != "completed" {
		t.Errorf("Expected status completed, got %q", resp.Status)
	}
	if len(resp.Products) != 1 {
		t.Fatalf("Expected 1 product, got %d", len(resp.Products))
	}
	p := resp.Products[0]
	if p.SerialNumber != 1 || p.ProductName != "P1" {
		t.Errorf("Unexpected product: %+v", p)
	}
	if len(p.InputURLs) != 1 || p.InputURLs[0] != "http://a" {
		t.Errorf("Unexpected input urls: %v", p.InputURLs)
	}
	if len(p.OutputURLs) != 1 || p.OutputURLs[0] != "http://b" {
		t.Errorf("Unexpected output urls: %v", p.OutputURLs)
	}
	if resp.OutputCSVURL != "/download/abc123" {
		t.Errorf("Unexpected output csv url: %q", resp.OutputCSVURL)
	}
}

func TestClient_Status_ProductsAbsentStaysNil(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"request_id":"abc123","status":"processing"}`))
	}))

	resp, err := c.Status(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if resp.Products != nil {
		t.Errorf("Products must stay nil when the field is absent, got %v", resp.Products)
	}
}

func TestClient_Status_NotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "Request ID not found"})
	}))

	_, err := c.Status(context.Background(), "missing")
	if !errors.Is(err, dto.ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}

func TestClient_Status_EmptyRequestID(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	_, err := c.Status(context.Background(), "")
	if !errors.Is(err, ErrEmptyRequestID) {
		t.Errorf("Expected ErrEmptyRequestID, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no network call, got %d", calls)
	}
}

func TestClient_Download(t *testing.T) {
	const csvBody = "S. No.,Product Name,Input Image URLs,Output Image URLs\n1,P1,http://a,http://b\n"

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/download/abc123" {
			t.Errorf("Expected /download/abc123, got %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(csvBody))
	}))

	var buf bytes.Buffer
	n, err := c.Download(context.Background(), "abc123", &buf)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if n != int64(len(csvBody)) {
		t.Errorf("Expected %d bytes, got %d", len(csvBody), n)
	}
	if buf.String() != csvBody {
		t.Errorf("Unexpected body: %q", buf.String())
	}
}

func TestClient_Download_NotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "Output CSV not found"})
	}))

	var buf bytes.Buffer
	_, err := c.Download(context.Background(), "abc123", &buf)
	if !errors.Is(err, dto.ErrResultNotFound) {
		t.Errorf("Expected ErrResultNotFound, got %v", err)
	}
}
