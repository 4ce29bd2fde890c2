package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aDarkMaker/JoinUs/internal/models"
	"gopkg.in/yaml.v3"
)

// FormRepo reads the form configuration from the first readable candidate
// path. The file is read on every call so edits apply without a restart.
type FormRepo struct {
	paths []string
}

func NewFormRepo(paths ...string) *FormRepo {
	return &FormRepo{paths: paths}
}

func (r *FormRepo) Paths() []string {
	return r.paths
}

// Load returns (nil, nil) when no candidate file exists.
func (r *FormRepo) Load() (*models.FormConfig, error) {
	for _, p := range r.paths {
		raw, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read form %s: %w", p, err)
		}
		form, err := decodeForm(p, raw)
		if err != nil {
			return nil, fmt.Errorf("decode form %s: %w", p, err)
		}
		if err := form.Validate(); err != nil {
			return nil, fmt.Errorf("invalid form %s: %w", p, err)
		}
		return form, nil
	}
	return nil, nil
}

func decodeForm(path string, raw []byte) (*models.FormConfig, error) {
	var form models.FormConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &form); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(bytes.TrimSpace(raw), &form); err != nil {
			return nil, err
		}
	}
	return &form, nil
}
