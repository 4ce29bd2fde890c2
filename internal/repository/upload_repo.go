package repository

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Upload is one file received for a question.
type Upload struct {
	Key   string
	Index int
	Name  string
	Open  func() (io.ReadCloser, error)
}

// StoredFile is an attachment on disk.
type StoredFile struct {
	Name string
	Path string
}

// UploadRepo keeps attachments in one directory per submission id.
type UploadRepo struct {
	dir string
}

func NewUploadRepo(dir string) *UploadRepo {
	return &UploadRepo{dir: dir}
}

func (r *UploadRepo) Dir() string {
	return r.dir
}

func (r *UploadRepo) submissionDir(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("uploads: invalid submission id %q", id)
	}
	return filepath.Join(r.dir, id), nil
}

// Save writes uploads for a submission. An empty list creates nothing.
func (r *UploadRepo) Save(id string, uploads []Upload) error {
	if len(uploads) == 0 {
		return nil
	}
	dir, err := r.submissionDir(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("uploads: create dir: %w", err)
	}
	for _, u := range uploads {
		if err := saveUpload(filepath.Join(dir, StoredName(u.Key, u.Index, u.Name)), u); err != nil {
			return err
		}
	}
	return nil
}

func saveUpload(path string, u Upload) error {
	src, err := u.Open()
	if err != nil {
		return fmt.Errorf("uploads: open %s: %w", u.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("uploads: create %s: %w", path, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("uploads: write %s: %w", path, err)
	}
	return dst.Close()
}

// List returns the attachments of a submission sorted by name. A missing
// directory yields no files.
func (r *UploadRepo) List(id string) ([]StoredFile, error) {
	dir, err := r.submissionDir(id)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("uploads: read %s: %w", dir, err)
	}
	files := make([]StoredFile, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "" || name == ".DS_Store" {
			continue
		}
		files = append(files, StoredFile{Name: name, Path: filepath.Join(dir, name)})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (r *UploadRepo) Remove(id string) error {
	dir, err := r.submissionDir(id)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("uploads: remove %s: %w", dir, err)
	}
	return nil
}

// Count returns the number of stored attachments across all submissions.
func (r *UploadRepo) Count() (int, error) {
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("uploads: read %s: %w", r.dir, err)
	}
	total := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		files, err := r.List(e.Name())
		if err != nil {
			return 0, err
		}
		total += len(files)
	}
	return total, nil
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// StoredName is the on-disk name of the idx-th file uploaded for key.
func StoredName(key string, idx int, fileName string) string {
	return unsafeFileChars.ReplaceAllString(key+"_"+strconv.Itoa(idx)+"_"+fileName, "_")
}

var (
	storedPrefix = regexp.MustCompile(`^.+?_\d+_`)
	indexPrefix  = regexp.MustCompile(`^\d+_`)
)

// DisplayName strips the key/index prefix added by StoredName. keys are the
// question ids the file may belong to; the longest one that matches wins.
// Without a matching key the first "_<digits>_" ends the prefix.
func DisplayName(stored string, keys ...string) string {
	best, name := 0, ""
	for _, key := range keys {
		prefix := unsafeFileChars.ReplaceAllString(key, "_") + "_"
		if len(prefix) <= best {
			continue
		}
		rest, ok := strings.CutPrefix(stored, prefix)
		if !ok {
			continue
		}
		if loc := indexPrefix.FindStringIndex(rest); loc != nil && loc[1] < len(rest) {
			best, name = len(prefix), rest[loc[1]:]
		}
	}
	if name != "" {
		return name
	}
	if name := storedPrefix.ReplaceAllString(stored, ""); name != "" {
		return name
	}
	return stored
}
