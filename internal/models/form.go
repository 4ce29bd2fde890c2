package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	TypeInput    = "input"
	TypeSelect   = "select"
	TypeTextarea = "textarea"
	TypeFile     = "file"
	TypeBoolean  = "boolean"
)

// DefaultBooleanOptions are offered by a boolean question that lists none.
var DefaultBooleanOptions = []string{"是", "否"}

// StringSet decodes from either a single string or a list of strings.
type StringSet []string

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = StringSet{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("showWhen value: expected string or string list")
	}
	*s = many
	return nil
}

func (s *StringSet) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = StringSet{node.Value}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*s = many
		return nil
	}
	return fmt.Errorf("showWhen value: expected string or string list")
}

func (s StringSet) Contains(v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

type ShowWhen struct {
	QuestionID string    `json:"questionId" yaml:"questionId"`
	Value      StringSet `json:"value"      yaml:"value"`
}

type Question struct {
	ID          string    `json:"id"                    yaml:"id"`
	Type        string    `json:"type"                  yaml:"type"`
	Label       string    `json:"label"                 yaml:"label"`
	Required    bool      `json:"required,omitempty"    yaml:"required,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Icon        string    `json:"icon,omitempty"        yaml:"icon,omitempty"`
	InputType   string    `json:"inputType,omitempty"   yaml:"inputType,omitempty"`
	Options     []string  `json:"options,omitempty"     yaml:"options,omitempty"`
	Rows        int       `json:"rows,omitempty"        yaml:"rows,omitempty"`
	Accept      string    `json:"accept,omitempty"      yaml:"accept,omitempty"`
	Multiple    bool      `json:"multiple,omitempty"    yaml:"multiple,omitempty"`
	ShowWhen    *ShowWhen `json:"showWhen,omitempty"    yaml:"showWhen,omitempty"`
}

// Choices returns the options a select or boolean question accepts.
func (q *Question) Choices() []string {
	if q.Type == TypeBoolean && len(q.Options) == 0 {
		return DefaultBooleanOptions
	}
	return q.Options
}

type SubmitConfig struct {
	Label            string `json:"label,omitempty"            yaml:"label,omitempty"`
	SuccessMessage   string `json:"successMessage,omitempty"   yaml:"successMessage,omitempty"`
	URL              string `json:"url,omitempty"              yaml:"url,omitempty"`
	SuccessTitle     string `json:"successTitle,omitempty"     yaml:"successTitle,omitempty"`
	SuccessSubtitle  string `json:"successSubtitle,omitempty"  yaml:"successSubtitle,omitempty"`
	SuccessNote      string `json:"successNote,omitempty"      yaml:"successNote,omitempty"`
	SuccessBackURL   string `json:"successBackUrl,omitempty"   yaml:"successBackUrl,omitempty"`
	SuccessBackLabel string `json:"successBackLabel,omitempty" yaml:"successBackLabel,omitempty"`
}

type FormConfig struct {
	Title     string        `json:"title"              yaml:"title"`
	Subtitle  string        `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Welcome   string        `json:"welcome,omitempty"  yaml:"welcome,omitempty"`
	Theme     string        `json:"theme,omitempty"    yaml:"theme,omitempty"`
	Questions []Question    `json:"questions"          yaml:"questions"`
	Submit    *SubmitConfig `json:"submit,omitempty"   yaml:"submit,omitempty"`
}

// Question looks up a question by id.
func (f *FormConfig) Question(id string) (*Question, bool) {
	for i := range f.Questions {
		if f.Questions[i].ID == id {
			return &f.Questions[i], true
		}
	}
	return nil, false
}

// Validate checks question ids, types and showWhen references.
func (f *FormConfig) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(f.Questions))
	for i, q := range f.Questions {
		if strings.TrimSpace(q.ID) == "" {
			errs = append(errs, fmt.Errorf("question %d: id is required", i+1))
			continue
		}
		if seen[q.ID] {
			errs = append(errs, fmt.Errorf("question %q: duplicate id", q.ID))
		}
		seen[q.ID] = true
		switch q.Type {
		case TypeInput, TypeSelect, TypeTextarea, TypeFile, TypeBoolean:
		default:
			errs = append(errs, fmt.Errorf("question %q: unknown type %q", q.ID, q.Type))
		}
	}
	for _, q := range f.Questions {
		if q.ShowWhen == nil {
			continue
		}
		ref := q.ShowWhen.QuestionID
		switch {
		case ref == q.ID:
			errs = append(errs, fmt.Errorf("question %q: showWhen references itself", q.ID))
		case !seen[ref]:
			errs = append(errs, fmt.Errorf("question %q: showWhen references unknown question %q", q.ID, ref))
		}
	}
	return errors.Join(errs...)
}
