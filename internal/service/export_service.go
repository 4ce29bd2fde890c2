package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aDarkMaker/JoinUs/internal/models"
	"github.com/aDarkMaker/JoinUs/internal/repository"
	"github.com/klauspost/compress/zip"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName     = "报名表"
	WorkbookName  = "报名表.xlsx"
	HeaderIndex   = "序号"
	HeaderTime    = "提交时间"
	unnamedPrefix = "未命名_"
	maxPersonName = 50
)

// Export is a finished archive ready to be sent to the client.
type Export struct {
	FileName string
	Data     []byte
}

type ExportService struct {
	subs    *SubmissionService
	uploads *repository.UploadRepo
	forms   *FormService
	logger  *slog.Logger
	now     func() time.Time
}

func NewExportService(subs *SubmissionService, uploads *repository.UploadRepo, forms *FormService, logger *slog.Logger) *ExportService {
	return &ExportService{subs: subs, uploads: uploads, forms: forms, logger: logger, now: time.Now}
}

// Columns returns the question ids to export, in order, and their headers.
// With a form the question order is used; otherwise the sorted union of
// record keys.
func Columns(form *models.FormConfig, subs []models.Submission) (ids, headers []string) {
	if form != nil && len(form.Questions) > 0 {
		for _, q := range form.Questions {
			ids = append(ids, q.ID)
			headers = append(headers, columnHeader(q.ID, q.Label))
		}
		return ids, headers
	}
	seen := map[string]bool{}
	for _, s := range subs {
		for _, k := range s.Keys() {
			if !seen[k] {
				seen[k] = true
				ids = append(ids, k)
			}
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		headers = append(headers, columnHeader(id, ""))
	}
	return ids, headers
}

func columnHeader(id, label string) string {
	if label != "" {
		return label
	}
	return "字段_" + id
}

func (s *ExportService) Build(ctx context.Context) (*Export, error) {
	subs, err := s.subs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}
	form := s.forms.Lookup()

	workbook, err := BuildWorkbook(form, subs)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := addZipEntry(zw, WorkbookName, workbook); err != nil {
		return nil, err
	}

	nameID := ExportNameField(form)
	used := map[string]int{}
	for i, sub := range subs {
		if sub.ID == "" {
			continue
		}
		files, err := s.uploads.List(sub.ID)
		if err != nil {
			s.logger.Warn("skip attachments", "id", sub.ID, "error", err)
			continue
		}
		if len(files) == 0 {
			continue
		}
		inner, err := personArchive(files, attachmentKeys(form, sub))
		if err != nil {
			return nil, fmt.Errorf("attachments of %s: %w", sub.ID, err)
		}

		person := ""
		if nameID != "" {
			person = sub.Get(nameID)
		}
		base := PersonName(person, i+1)
		used[base]++
		entry := base + ".zip"
		if n := used[base]; n > 1 {
			entry = base + "_" + strconv.Itoa(n) + ".zip"
		}
		if err := addZipEntry(zw, entry, inner); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}

	return &Export{
		FileName: "报名导出_" + s.now().UTC().Format("2006-01-02") + ".zip",
		Data:     buf.Bytes(),
	}, nil
}

// BuildWorkbook renders the submissions as an xlsx workbook with one sheet.
func BuildWorkbook(form *models.FormConfig, subs []models.Submission) ([]byte, error) {
	ids, headers := Columns(form, subs)

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, 0, len(headers)+2)
	header = append(header, HeaderIndex, HeaderTime)
	for _, h := range headers {
		header = append(header, h)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, sub := range subs {
		row := make([]any, 0, len(ids)+2)
		row = append(row, i+1, sub.SubmittedAt)
		for _, id := range ids {
			row = append(row, sub.Get(id))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	out, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return out.Bytes(), nil
}

// attachmentKeys lists the question ids a stored file name may start with.
func attachmentKeys(form *models.FormConfig, sub models.Submission) []string {
	keys := sub.Keys()
	if form != nil {
		for _, q := range form.Questions {
			keys = append(keys, q.ID)
		}
	}
	return keys
}

func personArchive(files []repository.StoredFile, keys []string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	taken := map[string]bool{}
	for _, file := range files {
		name := repository.DisplayName(file.Name, keys...)
		if taken[name] {
			name = file.Name
		}
		taken[name] = true

		if err := copyFileToZip(zw, name, file.Path); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func copyFileToZip(zw *zip.Writer, name, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: time.Now()})
	if err != nil {
		return fmt.Errorf("zip entry %s: %w", name, err)
	}
	_, err = io.Copy(w, src)
	return err
}

func addZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: time.Now()})
	if err != nil {
		return fmt.Errorf("zip entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("zip entry %s: %w", name, err)
	}
	return nil
}

var (
	whitespaceRun  = regexp.MustCompile(`[\s\p{Z}]+`)
	forbiddenChars = regexp.MustCompile(`[\\/:*?"<>|]`)
)

// PersonName turns a submitter's name into a safe archive entry name.
// n is the 1-based row used for the fallback name.
func PersonName(raw string, n int) string {
	fallback := unnamedPrefix + strconv.Itoa(n)
	if raw == "" {
		raw = fallback
	}
	name := strings.TrimSpace(raw)
	name = whitespaceRun.ReplaceAllString(name, " ")
	name = forbiddenChars.ReplaceAllString(name, "_")
	if r := []rune(name); len(r) > maxPersonName {
		name = string(r[:maxPersonName])
	}
	if name == "" {
		return fallback
	}
	return name
}
