package dto

import "errors"

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrResultNotFound = errors.New("output csv not found")
)

// UploadResponse is the body of a successful POST /upload.
type UploadResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status,omitempty"`
}

// ProductRecord is one result row for a completed job. URLs keep the order
// the server returned them in.
type ProductRecord struct {
	SerialNumber int      `json:"serial_number"`
	ProductName  string   `json:"product_name"`
	InputURLs    []string `json:"input_urls"`
	OutputURLs   []string `json:"output_urls"`
}

// StatusResponse is the body of GET /status/{request_id}. Products stays nil
// when the field is absent from the response, which is distinct from an
// empty list.
type StatusResponse struct {
	RequestID    string          `json:"request_id"`
	Status       string          `json:"status"`
	Products     []ProductRecord `json:"products,omitempty"`
	OutputCSVURL string          `json:"output_csv_url,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
