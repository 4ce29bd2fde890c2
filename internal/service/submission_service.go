package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aDarkMaker/JoinUs/internal/models"
	"github.com/aDarkMaker/JoinUs/internal/repository"
	"github.com/google/uuid"
)

// ErrDuplicate is returned when the submitter already has a record and the
// request did not ask to overwrite it.
var ErrDuplicate = errors.New("duplicate submission")

// FileInput is one uploaded file of a submission.
type FileInput struct {
	Name string
	Open func() (io.ReadCloser, error)
}

type SubmitInput struct {
	Values    map[string]string
	Files     map[string][]FileInput
	Overwrite bool
}

type SubmissionService struct {
	store   repository.SubmissionStore
	uploads *repository.UploadRepo
	forms   *FormService
	logger  *slog.Logger
	now     func() time.Time

	// mu serializes the read-check-write cycle of Submit.
	mu sync.Mutex
}

func NewSubmissionService(store repository.SubmissionStore, uploads *repository.UploadRepo, forms *FormService, logger *slog.Logger) *SubmissionService {
	return &SubmissionService{
		store:   store,
		uploads: uploads,
		forms:   forms,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *SubmissionService) Submit(ctx context.Context, in SubmitInput) (*models.Submission, error) {
	form := s.forms.Lookup()

	values := make(map[string]string, len(in.Values)+len(in.Files))
	for k, v := range in.Values {
		values[k] = v
	}
	counts := make(map[string]int, len(in.Files))
	for k, fs := range in.Files {
		if len(fs) > 0 {
			counts[k] = len(fs)
		}
	}
	if _, err := s.forms.Apply(form, values, counts); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(in.Files))
	for k := range in.Files {
		if counts[k] > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var uploads []repository.Upload
	for _, k := range keys {
		names := make([]string, 0, len(in.Files[k]))
		for i, f := range in.Files[k] {
			names = append(names, f.Name)
			uploads = append(uploads, repository.Upload{Key: k, Index: i + 1, Name: f.Name, Open: f.Open})
		}
		joined := strings.Join(names, "; ")
		if existing := values[k]; existing != "" {
			joined = existing + "; " + joined
		}
		values[k] = joined
	}

	nameID, contactID := DedupeFields(form)
	name := NormalizeName(values[nameID])
	contact := NormalizeContact(values[contactID])

	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}
	dup := -1
	for i, prev := range subs {
		if NormalizeName(prev.Get(nameID)) == name && NormalizeContact(prev.Get(contactID)) == contact {
			dup = i
			break
		}
	}
	if dup >= 0 && !in.Overwrite {
		return nil, ErrDuplicate
	}

	now := s.now().UTC()
	rec := models.Submission{
		ID:          newSubmissionID(now),
		SubmittedAt: now.Format(models.TimeLayout),
		Values:      values,
	}

	if dup >= 0 {
		old := subs[dup]
		if old.ID != "" {
			rec.ID = old.ID
			if err := s.uploads.Remove(old.ID); err != nil {
				s.logger.Warn("remove previous attachments", "id", old.ID, "error", err)
			}
		}
		if err := s.uploads.Save(rec.ID, uploads); err != nil {
			return nil, fmt.Errorf("save attachments: %w", err)
		}
		if err := s.store.Replace(ctx, dup, rec); err != nil {
			return nil, fmt.Errorf("replace submission: %w", err)
		}
		s.logger.Info("submission overwritten", "id", rec.ID, "files", len(uploads))
		return &rec, nil
	}

	if err := s.uploads.Save(rec.ID, uploads); err != nil {
		return nil, fmt.Errorf("save attachments: %w", err)
	}
	if err := s.store.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append submission: %w", err)
	}
	s.logger.Info("submission stored", "id", rec.ID, "files", len(uploads))
	return &rec, nil
}

func (s *SubmissionService) List(ctx context.Context) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.List(ctx)
}

func newSubmissionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
	return fmt.Sprintf("s_%d_%s", now.UnixMilli(), suffix)
}
