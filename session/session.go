package session

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"imgcsv/dto"
	"imgcsv/models"
	"imgcsv/validation"
)

var (
	ErrNoFileSelected = errors.New("no file selected")
	ErrBusy           = errors.New("an upload is already in progress")
	ErrNoActiveJob    = errors.New("no active job")
)

// State tracks where the workflow is between user actions.
type State int

const (
	StateNoFile State = iota
	StateFileSelected
	StateUploading
	StateJobActive
)

// Notifier receives the transient user-facing messages the workflow emits.
type Notifier interface {
	Success(msg string)
	Failure(msg string)
}

// Uploader is the slice of the service client Submit needs.
type Uploader interface {
	Upload(ctx context.Context, filename string, content io.Reader, webhookURL string) (*dto.UploadResponse, error)
}

// JobPoller drives status checks for a submitted job until it terminates.
type JobPoller interface {
	Poll(ctx context.Context, requestID string, onUpdate func(*dto.StatusResponse)) (models.JobStatus, error)
}

// Session is the upload-and-poll workflow for one user: select a CSV, submit
// it, follow the job until it terminates. The server owns job state; the
// session only mirrors the most recently polled response.
type Session struct {
	uploader   Uploader
	poller     JobPoller
	notifier   Notifier
	webhookURL string
	logger     *zap.Logger

	mu           sync.Mutex
	state        State
	filePath     string
	fileName     string
	busy         bool
	requestID    string
	status       models.JobStatus
	products     []dto.ProductRecord
	outputCSVURL string
	cancelPoll   context.CancelFunc
}

func New(uploader Uploader, poller JobPoller, notifier Notifier, webhookURL string, logger *zap.Logger) *Session {
	return &Session{
		uploader:   uploader,
		poller:     poller,
		notifier:   notifier,
		webhookURL: webhookURL,
		logger:     logger,
	}
}

// SelectFile runs the selection gate: the file is stored only when its
// declared media type is exactly text/csv. A valid selection silently
// replaces any previous one. Content is not opened until Submit.
func (s *Session) SelectFile(path string) error {
	declared := validation.DeclaredMediaType(path)
	if err := validation.CheckCSV(declared); err != nil {
		s.notifier.Failure("Please select a valid CSV file")
		return err
	}

	name := filepath.Base(path)

	s.mu.Lock()
	s.filePath = path
	s.fileName = name
	if s.state == StateNoFile {
		s.state = StateFileSelected
	}
	s.mu.Unlock()

	s.logger.Info("File selected",
		zap.String("filename", name),
		zap.String("media_type", declared),
	)
	s.notifier.Success("Selected " + name)
	return nil
}

// Submit uploads the selected file and stores the request id the server
// assigned. It fails fast without a network call when nothing is selected,
// and refuses to run while another submission is in flight. Any poller still
// bound to a previous job is cancelled before the new job replaces it.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.filePath == "" {
		s.mu.Unlock()
		s.notifier.Failure("Please select a file first")
		return ErrNoFileSelected
	}
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.state = StateUploading
	path, name := s.filePath, s.fileName
	cancel := s.cancelPoll
	s.cancelPoll = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	// The busy flag is cleared no matter how the submission ends.
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	file, err := os.Open(path)
	if err != nil {
		s.uploadFailed(err)
		return err
	}
	defer file.Close()

	resp, err := s.uploader.Upload(ctx, name, file, s.webhookURL)
	if err != nil {
		s.uploadFailed(err)
		return err
	}

	s.mu.Lock()
	s.requestID = resp.RequestID
	s.status = models.StatusProcessing
	s.products = nil
	s.outputCSVURL = ""
	s.state = StateJobActive
	// A successful upload consumes the selection.
	s.filePath = ""
	s.mu.Unlock()

	s.notifier.Success("File uploaded successfully")
	return nil
}

func (s *Session) uploadFailed(err error) {
	s.mu.Lock()
	s.state = StateFileSelected
	s.mu.Unlock()
	s.notifier.Failure("Upload failed: " + err.Error())
}

// Resume binds the session to an already-submitted job so it can be tracked
// without re-uploading.
func (s *Session) Resume(requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestID = requestID
	s.status = models.StatusProcessing
	s.products = nil
	s.outputCSVURL = ""
	s.state = StateJobActive
}

// Track polls the active job until it reaches a terminal status and returns
// that status. A cancelled track (superseded by a newer submission) returns
// the context error without a user notification; a failed status check is
// surfaced and polling stops.
func (s *Session) Track(ctx context.Context) (models.JobStatus, error) {
	s.mu.Lock()
	id := s.requestID
	if id == "" {
		s.mu.Unlock()
		return "", ErrNoActiveJob
	}
	pollCtx, cancel := context.WithCancel(ctx)
	s.cancelPoll = cancel
	s.mu.Unlock()
	defer cancel()

	final, err := s.poller.Poll(pollCtx, id, func(resp *dto.StatusResponse) {
		s.apply(id, resp)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		s.notifier.Failure("Status check failed: " + err.Error())
		return "", err
	}

	switch final {
	case models.StatusCompleted:
		s.notifier.Success("Processing completed!")
	case models.StatusFailed:
		s.notifier.Failure("Processing failed")
	}
	return final, nil
}

// apply mirrors one polled response into the session. Updates for a job the
// session no longer tracks are dropped, so a stale poller cannot overwrite
// newer state. The product list is replaced only when the response carried
// one; responses without a products field leave the last list in place.
func (s *Session) apply(requestID string, resp *dto.StatusResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.requestID != requestID {
		return
	}

	s.status = models.JobStatus(resp.Status)
	if resp.Products != nil {
		s.products = resp.Products
	}
	if resp.OutputCSVURL != "" {
		s.outputCSVURL = resp.OutputCSVURL
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) FileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileName
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *Session) RequestID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestID
}

func (s *Session) Status() models.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) OutputCSVURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outputCSVURL
}

// Products returns a copy of the last product list a polled response carried.
func (s *Session) Products() []dto.ProductRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dto.ProductRecord, len(s.products))
	copy(out, s.products)
	return out
}
