package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aDarkMaker/JoinUs/internal/models"
	"github.com/aDarkMaker/JoinUs/internal/repository"
)

var ErrFormNotFound = errors.New("form not found")

// ValidationError lists the questions a submission failed on.
type ValidationError struct {
	Fields []string
	Msgs   []string
}

func (e *ValidationError) Error() string {
	return "invalid submission: " + strings.Join(e.Msgs, "; ")
}

func (e *ValidationError) add(id, msg string) {
	e.Fields = append(e.Fields, id)
	e.Msgs = append(e.Msgs, msg)
}

type FormService struct {
	forms  *repository.FormRepo
	logger *slog.Logger
}

func NewFormService(forms *repository.FormRepo, logger *slog.Logger) *FormService {
	return &FormService{forms: forms, logger: logger}
}

// Get returns the current form or ErrFormNotFound.
func (s *FormService) Get() (*models.FormConfig, error) {
	form, err := s.forms.Load()
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, ErrFormNotFound
	}
	return form, nil
}

// Lookup returns the current form, or nil when it is missing or broken.
// Submission and export keep working without a form.
func (s *FormService) Lookup() *models.FormConfig {
	form, err := s.forms.Load()
	if err != nil {
		s.logger.Warn("form config unusable, continuing without it", "error", err)
		return nil
	}
	return form
}

// Visibility evaluates showWhen rules in question order against values and
// returns the hidden question ids. Each hidden question's value is cleared
// in values before later rules are evaluated. File questions never carry a
// value a rule can match.
func Visibility(form *models.FormConfig, values map[string]string) map[string]bool {
	hidden := map[string]bool{}
	if form == nil {
		return hidden
	}
	for _, q := range form.Questions {
		if q.ShowWhen == nil {
			continue
		}
		ref := values[q.ShowWhen.QuestionID]
		if rq, ok := form.Question(q.ShowWhen.QuestionID); ok && rq.Type == models.TypeFile {
			ref = ""
		}
		if q.ShowWhen.Value.Contains(ref) {
			continue
		}
		hidden[q.ID] = true
		if _, ok := values[q.ID]; ok {
			values[q.ID] = ""
		}
	}
	return hidden
}

// Apply clears hidden questions and validates the rest. files holds the
// number of uploaded files per question id; entries for hidden file
// questions are removed from it.
func (s *FormService) Apply(form *models.FormConfig, values map[string]string, files map[string]int) (map[string]bool, error) {
	hidden := Visibility(form, values)
	if form == nil {
		return hidden, nil
	}

	verr := &ValidationError{}
	for _, q := range form.Questions {
		if hidden[q.ID] {
			if q.Type == models.TypeFile {
				delete(values, q.ID)
				delete(files, q.ID)
			}
			continue
		}
		switch q.Type {
		case models.TypeFile:
			if q.Required && files[q.ID] == 0 {
				verr.add(q.ID, fmt.Sprintf("%s: attachment required", labelOf(q)))
			}
		default:
			v := values[q.ID]
			if q.Required && strings.TrimSpace(v) == "" {
				verr.add(q.ID, fmt.Sprintf("%s: required", labelOf(q)))
				continue
			}
			if v == "" || (q.Type != models.TypeSelect && q.Type != models.TypeBoolean) {
				continue
			}
			if choices := q.Choices(); len(choices) > 0 && !models.StringSet(choices).Contains(v) {
				verr.add(q.ID, fmt.Sprintf("%s: %q is not an option", labelOf(q), v))
			}
		}
	}
	if len(verr.Fields) > 0 {
		return hidden, verr
	}
	return hidden, nil
}

func labelOf(q models.Question) string {
	if q.Label != "" {
		return q.Label
	}
	return q.ID
}
