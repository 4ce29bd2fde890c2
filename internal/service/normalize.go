package service

import (
	"strings"

	"github.com/aDarkMaker/JoinUs/internal/models"
	"golang.org/x/text/width"
)

const (
	defaultNameField    = "name"
	defaultContactField = "contact"

	nameLabel    = "姓名"
	contactLabel = "联系方式"
)

// NormalizeName is the name key used for duplicate detection.
func NormalizeName(v string) string {
	return strings.TrimSpace(v)
}

// NormalizeContact keeps only the ASCII digits of v after folding
// full-width digits such as "１３８" to their narrow form.
func NormalizeContact(v string) string {
	folded := width.Fold.String(v)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DedupeFields returns the ids of the name and contact questions. The last
// matching question wins; without a form the ids are "name" and "contact".
func DedupeFields(form *models.FormConfig) (nameID, contactID string) {
	nameID, contactID = defaultNameField, defaultContactField
	if form == nil {
		return nameID, contactID
	}
	for _, q := range form.Questions {
		if q.Label == nameLabel || q.ID == defaultNameField {
			nameID = q.ID
		}
		if q.Label == contactLabel || q.ID == defaultContactField {
			contactID = q.ID
		}
	}
	return nameID, contactID
}

// ExportNameField returns the first question that holds the submitter's
// name, or "" when there is none.
func ExportNameField(form *models.FormConfig) string {
	if form == nil {
		return ""
	}
	for _, q := range form.Questions {
		if q.ID == defaultNameField || strings.Contains(q.Label, nameLabel) {
			return q.ID
		}
	}
	return ""
}
