package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/aDarkMaker/JoinUs/internal/models"
)

// SubmissionStore keeps submissions in arrival order.
type SubmissionStore interface {
	List(ctx context.Context) ([]models.Submission, error)
	Append(ctx context.Context, sub models.Submission) error
	// Replace removes the record at position index (in List order) and
	// appends sub at the end.
	Replace(ctx context.Context, index int, sub models.Submission) error
	Close() error
}

// SubmissionRepo stores all submissions as one JSON array in a file.
// Callers serialize access; the repo itself does no locking.
type SubmissionRepo struct {
	path string
}

func NewSubmissionRepo(path string) *SubmissionRepo {
	return &SubmissionRepo{path: path}
}

func (r *SubmissionRepo) List(ctx context.Context) ([]models.Submission, error) {
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Submission{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read submissions: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []models.Submission{}, nil
	}
	var subs []models.Submission
	if err := json.Unmarshal(raw, &subs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return subs, nil
}

func (r *SubmissionRepo) Append(ctx context.Context, sub models.Submission) error {
	subs, err := r.List(ctx)
	if err != nil {
		return err
	}
	return r.save(append(subs, sub))
}

func (r *SubmissionRepo) Replace(ctx context.Context, index int, sub models.Submission) error {
	subs, err := r.List(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(subs) {
		return fmt.Errorf("replace submission: index %d out of range", index)
	}
	subs = append(subs[:index], subs[index+1:]...)
	return r.save(append(subs, sub))
}

func (r *SubmissionRepo) Close() error { return nil }

func (r *SubmissionRepo) save(subs []models.Submission) error {
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode submissions: %w", err)
	}
	if err := writeFileAtomic(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write submissions: %w", err)
	}
	return nil
}
