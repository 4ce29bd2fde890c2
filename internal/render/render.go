// Package render produces the JoinUs form markup on the server. The class
// names and data attributes match what the browser widget hydrates.
package render

import (
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"strings"

	"github.com/aDarkMaker/JoinUs/internal/models"
	"github.com/aDarkMaker/JoinUs/internal/service"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	defaultIcon         = "ri-edit-line"
	defaultSelectPrompt = "请选择"
	defaultRows         = 5
	defaultSubtitle     = "JOIN US"
	defaultSubmitLabel  = "立即提交"
	defaultSuccessTitle = "真是个明智的选择！"
	defaultSuccessSub   = "期待我们的相遇"
	defaultSuccessNote  = "注意查收短信，不要错过哦"
	defaultBackURL      = "https://huaxiaoke.com"
	defaultBackLabel    = "返回"
)

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"lines": lines,
}).ParseFS(templateFS, "templates/*.tmpl"))

type field struct {
	models.Question
	Hidden       bool
	Value        string
	Icon         string
	Prompt       string
	Choices      []string
	RowCount     int
	InputKind    string
	AcceptTypes  string
	ShowWhenJSON string
}

type view struct {
	Title    string
	Subtitle string
	Welcome  string
	Theme    string
	Action   string
	Fields   []field
	Submit   models.SubmitConfig
}

func newView(form *models.FormConfig, values map[string]string) view {
	vals := make(map[string]string, len(values))
	for k, v := range values {
		vals[k] = v
	}
	hidden := service.Visibility(form, vals)

	v := view{
		Title:    form.Title,
		Subtitle: orDefault(form.Subtitle, defaultSubtitle),
		Welcome:  form.Welcome,
		Theme:    form.Theme,
		Action:   "#",
	}
	if form.Submit != nil {
		v.Submit = *form.Submit
		if form.Submit.URL != "" {
			v.Action = form.Submit.URL
		}
	}
	v.Submit.Label = orDefault(v.Submit.Label, defaultSubmitLabel)
	v.Submit.SuccessTitle = orDefault(v.Submit.SuccessTitle, defaultSuccessTitle)
	v.Submit.SuccessSubtitle = orDefault(v.Submit.SuccessSubtitle, defaultSuccessSub)
	v.Submit.SuccessNote = orDefault(v.Submit.SuccessNote, defaultSuccessNote)
	v.Submit.SuccessBackURL = orDefault(v.Submit.SuccessBackURL, defaultBackURL)
	v.Submit.SuccessBackLabel = orDefault(v.Submit.SuccessBackLabel, defaultBackLabel)

	for _, q := range form.Questions {
		f := field{
			Question:    q,
			Hidden:      hidden[q.ID],
			Value:       vals[q.ID],
			Icon:        orDefault(q.Icon, defaultIcon),
			Prompt:      q.Placeholder,
			Choices:     q.Choices(),
			RowCount:    q.Rows,
			InputKind:   orDefault(q.InputType, "text"),
			AcceptTypes: orDefault(q.Accept, "*"),
		}
		if f.RowCount <= 0 {
			f.RowCount = defaultRows
		}
		if q.Type == models.TypeBoolean || q.Type == models.TypeSelect {
			if q.Type == models.TypeBoolean {
				f.Prompt = orDefault(f.Prompt, defaultSelectPrompt)
			}
			if f.Value != "" && !models.StringSet(f.Choices).Contains(f.Value) {
				f.Value = ""
			}
		}
		if q.ShowWhen != nil {
			if b, err := json.Marshal(q.ShowWhen); err == nil {
				f.ShowWhenJSON = string(b)
			}
		}
		v.Fields = append(v.Fields, f)
	}
	return v
}

// Form writes the form element and the success panel. values pre-fills
// answers and drives the initial visibility of conditional questions.
func Form(w io.Writer, form *models.FormConfig, values map[string]string) error {
	return templates.ExecuteTemplate(w, "form", newView(form, values))
}

// Page writes a complete HTML document around Form.
func Page(w io.Writer, form *models.FormConfig, values map[string]string) error {
	return templates.ExecuteTemplate(w, "page", newView(form, values))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func lines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
