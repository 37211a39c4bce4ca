package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"imgcsv/models"
)

var ErrNotFound = errors.New("job not found in history")

// Store keeps the jobs submitted from this machine so later invocations can
// check, watch, or download them.
type Store interface {
	Save(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, requestID string) (*models.Job, error)
	List(ctx context.Context) ([]*models.Job, error)
	Close() error
}

// FileStore persists history as a single JSON file. Good enough for one
// machine; use the redis store when invocations share state across hosts.
type FileStore struct {
	mu   sync.Mutex
	path string
	jobs map[string]*models.Job
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		jobs: make(map[string]*models.Job),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	var jobs []*models.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, err
	}
	for _, j := range jobs {
		s.jobs[j.RequestID] = j
	}
	return s, nil
}

func (s *FileStore) Save(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *job
	s.jobs[job.RequestID] = &cp
	return s.persist()
}

func (s *FileStore) Get(ctx context.Context, requestID string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *j
	return &cp, nil
}

// List returns jobs newest first.
func (s *FileStore) List(ctx context.Context) ([]*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].SubmittedAt.After(out[k].SubmittedAt)
	})
	return out, nil
}

func (s *FileStore) Close() error {
	return nil
}

// persist writes through a temp file and renames, so a crash mid-write
// cannot truncate the history. Caller holds the lock.
func (s *FileStore) persist() error {
	jobs := make([]*models.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].SubmittedAt.After(jobs[k].SubmittedAt)
	})

	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
