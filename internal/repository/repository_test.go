package repository

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aDarkMaker/JoinUs/internal/db"
	"github.com/aDarkMaker/JoinUs/internal/models"
)

func sub(id, name string) models.Submission {
	return models.Submission{
		ID:          id,
		SubmittedAt: "2026-10-18T08:00:00.000Z",
		Values:      map[string]string{"name": name},
	}
}

func exerciseStore(t *testing.T, store SubmissionStore) {
	t.Helper()
	ctx := context.Background()

	subs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("expected no submissions, got %d", len(subs))
	}

	for _, s := range []models.Submission{sub("s_1", "a"), sub("s_2", "b"), sub("s_3", "c")} {
		if err := store.Append(ctx, s); err != nil {
			t.Fatalf("append %s: %v", s.ID, err)
		}
	}
	if err := store.Replace(ctx, 0, sub("s_1", "a2")); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := store.Replace(ctx, 3, sub("s_9", "z")); err == nil {
		t.Fatal("expected out of range replace to fail")
	}

	subs, err = store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var order []string
	for _, s := range subs {
		order = append(order, s.ID+"="+s.Get("name"))
	}
	if got := strings.Join(order, ","); got != "s_2=b,s_3=c,s_1=a2" {
		t.Fatalf("unexpected order after replace: %s", got)
	}
}

func TestSubmissionRepo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "submissions.json")
	exerciseStore(t, NewSubmissionRepo(path))

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.Contains(string(raw), `"_id": "s_2"`) {
		t.Fatalf("expected flat records on disk, got %s", raw)
	}
}

func TestSubmissionRepoReplaceWithoutIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "submissions.json")
	seed := `[{"name":"王五","phone":"111"},{"name":"张三","phone":"138"},{"name":"李四","phone":"222"}]`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewSubmissionRepo(path)
	ctx := context.Background()

	if err := store.Replace(ctx, 1, sub("s_new", "张三")); err != nil {
		t.Fatalf("replace: %v", err)
	}
	subs, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var order []string
	for _, s := range subs {
		order = append(order, s.ID+"="+s.Get("name"))
	}
	if got := strings.Join(order, ","); got != "=王五,=李四,s_new=张三" {
		t.Fatalf("unexpected records after replace: %s", got)
	}
}

func TestSubmissionRepoEmptyAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "submissions.json")

	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	subs, err := NewSubmissionRepo(path).List(context.Background())
	if err != nil || len(subs) != 0 {
		t.Fatalf("blank file should be empty, got %v %v", subs, err)
	}

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSubmissionRepo(path).List(context.Background()); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}

func TestSQLiteSubmissionRepo(t *testing.T) {
	sqlDB, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "submissions.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	store := NewSQLiteSubmissionRepo(sqlDB)
	defer store.Close()

	exerciseStore(t, store)
}

func TestFormRepoLoad(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.json")
	yamlPath := filepath.Join(dir, "form.yaml")
	doc := `
title: 招新
questions:
  - id: name
    type: input
    label: 姓名
    required: true
  - id: club
    type: boolean
    label: 是否加入社团
  - id: reason
    type: textarea
    label: 理由
    showWhen:
      questionId: club
      value: 是
`
	if err := os.WriteFile(yamlPath, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	form, err := NewFormRepo(missing, yamlPath).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if form == nil || form.Title != "招新" || len(form.Questions) != 3 {
		t.Fatalf("unexpected form %+v", form)
	}
	q, ok := form.Question("reason")
	if !ok || !q.ShowWhen.Value.Contains("是") {
		t.Fatalf("showWhen not decoded: %+v", q)
	}

	none, err := NewFormRepo(missing).Load()
	if err != nil || none != nil {
		t.Fatalf("expected no form, got %v %v", none, err)
	}
}

func TestFormRepoRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.json")
	body := `{"title":"x","questions":[{"id":"a","type":"input","showWhen":{"questionId":"zzz","value":"1"}}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFormRepo(path).Load(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestUploadRepo(t *testing.T) {
	repo := NewUploadRepo(filepath.Join(t.TempDir(), "uploads"))
	open := func(s string) func() (io.ReadCloser, error) {
		return func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(s)), nil }
	}

	err := repo.Save("s_1", []Upload{
		{Key: "photo", Index: 1, Name: "我的照片.jpg", Open: open("jpg")},
		{Key: "id_card", Index: 1, Name: "front.png", Open: open("png")},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(repo.Dir(), "s_1", ".DS_Store"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := repo.List("s_1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}
	if files[0].Name != "id_card_1_front.png" || files[1].Name != "photo_1_____.jpg" {
		t.Fatalf("unexpected stored names: %v", files)
	}

	n, err := repo.Count()
	if err != nil || n != 2 {
		t.Fatalf("expected count 2, got %d %v", n, err)
	}

	if err := repo.Remove("s_1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	files, err = repo.List("s_1")
	if err != nil || len(files) != 0 {
		t.Fatalf("expected no files after remove, got %v %v", files, err)
	}

	if _, err := repo.List("../etc"); err == nil {
		t.Fatal("expected error for traversal id")
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		stored string
		keys   []string
		want   string
	}{
		{"photo_1_a.jpg", nil, "a.jpg"},
		{"id_card_2_front.png", nil, "front.png"},
		{"photo_1_a_2_b.jpg", nil, "a_2_b.jpg"},
		{"noprefix.txt", nil, "noprefix.txt"},
		{"key_1_", nil, "key_1_"},
		{StoredName("file_2", 1, "cv.pdf"), []string{"name", "file_2"}, "cv.pdf"},
		{StoredName("q_1", 3, "a_2_b.jpg"), []string{"q", "q_1"}, "a_2_b.jpg"},
		{StoredName("q", 2, "x.pdf"), []string{"q", "q_2"}, "x.pdf"},
		{StoredName("简历", 1, "cv.pdf"), []string{"简历"}, "cv.pdf"},
		{"photo_1_a.jpg", []string{"other"}, "a.jpg"},
	}
	for _, tc := range cases {
		if got := DisplayName(tc.stored, tc.keys...); got != tc.want {
			t.Errorf("DisplayName(%q, %v) = %q, want %q", tc.stored, tc.keys, got, tc.want)
		}
	}
}
