package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"imgcsv/models"
)

func testJob(id string, submitted time.Time) *models.Job {
	return &models.Job{
		RequestID:   id,
		FileName:    "products.csv",
		Status:      models.StatusProcessing,
		SubmittedAt: submitted,
	}
}

func TestFileStore_SaveAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	job := testJob("abc123", time.Now().UTC())
	if err := s.Save(context.Background(), job); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Get(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.RequestID != "abc123" || got.FileName != "products.csv" {
		t.Errorf("Unexpected job: %+v", got)
	}
}

func TestFileStore_GetNotFound(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFileStore_ListNewestFirst(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	base := time.Now().UTC()
	for i, id := range []string{"first", "second", "third"} {
		if err := s.Save(context.Background(), testJob(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	jobs, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("Expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0].RequestID != "third" || jobs[2].RequestID != "first" {
		t.Errorf("Expected newest first, got %s, %s, %s",
			jobs[0].RequestID, jobs[1].RequestID, jobs[2].RequestID)
	}
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	job := testJob("abc123", time.Now().UTC())
	job.Status = models.StatusCompleted
	if err := s.Save(context.Background(), job); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	got, err := reopened.Get(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("Expected persisted status completed, got %q", got.Status)
	}
}

func TestFileStore_SaveReplacesExisting(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	job := testJob("abc123", time.Now().UTC())
	if err := s.Save(context.Background(), job); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	job.Status = models.StatusFailed
	if err := s.Save(context.Background(), job); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	jobs, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("Expected 1 job after update, got %d", len(jobs))
	}
	if jobs[0].Status != models.StatusFailed {
		t.Errorf("Expected updated status failed, got %q", jobs[0].Status)
	}
}
