package service

import (
	"context"
	"strings"

	"github.com/aDarkMaker/JoinUs/internal/models"
	"github.com/aDarkMaker/JoinUs/internal/repository"
)

type SearchService struct {
	subs    *SubmissionService
	uploads *repository.UploadRepo
	forms   *FormService
}

func NewSearchService(subs *SubmissionService, uploads *repository.UploadRepo, forms *FormService) *SearchService {
	return &SearchService{subs: subs, uploads: uploads, forms: forms}
}

type SearchResult struct {
	Submissions []models.Submission `json:"submissions"`
	Total       int                 `json:"total"`
}

// Search returns submissions whose values contain query, case-insensitive.
// An empty query matches everything.
func (s *SearchService) Search(ctx context.Context, query string) (*SearchResult, error) {
	subs, err := s.subs.List(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	matched := make([]models.Submission, 0, len(subs))
	for _, sub := range subs {
		if query == "" || matches(sub, query) {
			matched = append(matched, sub)
		}
	}
	return &SearchResult{Submissions: matched, Total: len(matched)}, nil
}

func matches(sub models.Submission, query string) bool {
	for _, v := range sub.Values {
		if strings.Contains(strings.ToLower(v), query) {
			return true
		}
	}
	return false
}

type QuestionStat struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Filled int    `json:"filled"`
}

type Dashboard struct {
	SubmissionCount int            `json:"submissionCount"`
	AttachmentCount int            `json:"attachmentCount"`
	LastSubmittedAt string         `json:"lastSubmittedAt,omitempty"`
	Questions       []QuestionStat `json:"questions"`
}

// Dashboard summarizes stored submissions against the current form.
func (s *SearchService) Dashboard(ctx context.Context) (*Dashboard, error) {
	subs, err := s.subs.List(ctx)
	if err != nil {
		return nil, err
	}
	attachments, err := s.uploads.Count()
	if err != nil {
		return nil, err
	}

	d := &Dashboard{SubmissionCount: len(subs), AttachmentCount: attachments, Questions: []QuestionStat{}}
	if n := len(subs); n > 0 {
		d.LastSubmittedAt = subs[n-1].SubmittedAt
	}
	ids, headers := Columns(s.forms.Lookup(), subs)
	for i, id := range ids {
		stat := QuestionStat{ID: id, Label: headers[i]}
		for _, sub := range subs {
			if strings.TrimSpace(sub.Get(id)) != "" {
				stat.Filled++
			}
		}
		d.Questions = append(d.Questions, stat)
	}
	return d, nil
}
