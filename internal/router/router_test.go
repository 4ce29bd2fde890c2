package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aDarkMaker/JoinUs/internal/handler"
	"github.com/aDarkMaker/JoinUs/internal/repository"
	"github.com/aDarkMaker/JoinUs/internal/service"
)

const secret = "test-secret"

func newTestServer(t *testing.T, adminPass string) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	formPath := filepath.Join(dir, "form.json")
	form := `{"title":"t","questions":[{"id":"name","type":"input","label":"姓名","required":true}]}`
	if err := os.WriteFile(formPath, []byte(form), 0o644); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	forms := service.NewFormService(repository.NewFormRepo(formPath), logger)
	uploads := repository.NewUploadRepo(filepath.Join(dir, "uploads"))
	subs := service.NewSubmissionService(repository.NewSubmissionRepo(filepath.Join(dir, "submissions.json")), uploads, forms, logger)
	search := service.NewSearchService(subs, uploads, forms)
	authSvc, err := service.NewAuthService(adminPass, secret)
	if err != nil {
		t.Fatal(err)
	}

	opts := Options{Logger: logger, AllowedOrigins: []string{"*"}}
	if authSvc.Enabled() {
		opts.JWTSecret = secret
	}
	r := New(opts,
		handler.NewAuthHandler(authSvc),
		handler.NewFormHandler(forms, logger),
		handler.NewSubmissionHandler(subs, 1<<20, logger),
		handler.NewExportHandler(service.NewExportService(subs, uploads, forms, logger), logger),
		handler.NewSearchHandler(search),
		handler.NewDashboardHandler(search),
		handler.NewHealthHandler("json"),
	)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestPublicRoutes(t *testing.T) {
	srv := newTestServer(t, "")
	for _, path := range []string{"/", "/form.json", "/api/health", "/api/export", "/api/submissions", "/api/dashboard"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d", path, resp.StatusCode)
		}
	}

	resp, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown route = %d", resp.StatusCode)
	}
}

func TestLoginDisabled(t *testing.T) {
	srv := newTestServer(t, "")
	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", strings.NewReader(`{"password":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("login = %d", resp.StatusCode)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, "s3cret")

	resp, err := http.Get(srv.URL + "/api/export")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("export without token = %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/auth/login", "application/json", strings.NewReader(`{"password":"wrong"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/auth/login", "application/json", strings.NewReader(`{"password":"s3cret"}`))
	if err != nil {
		t.Fatal(err)
	}
	var login struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&login)
	resp.Body.Close()
	if login.Token == "" {
		t.Fatal("no token")
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("dashboard with header token = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/export?token=" + login.Token)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("export with query token = %d", resp.StatusCode)
	}

	// Submitting stays public.
	resp, err = http.Post(srv.URL+"/api/submit", "application/x-www-form-urlencoded", strings.NewReader("name=a"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("submit = %d", resp.StatusCode)
	}
}

func TestCORSExposesDuplicateHeader(t *testing.T) {
	srv := newTestServer(t, "")
	post := func() *http.Response {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/submit", strings.NewReader("name=a"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Origin", "https://example.org")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp
	}
	if resp := post(); resp.StatusCode != http.StatusOK {
		t.Fatalf("first submit = %d", resp.StatusCode)
	}
	resp := post()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second submit = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Duplicate") != "true" {
		t.Errorf("X-Duplicate = %q", resp.Header.Get("X-Duplicate"))
	}
	if got := resp.Header.Get("Access-Control-Expose-Headers"); !strings.Contains(got, "X-Duplicate") {
		t.Errorf("Access-Control-Expose-Headers = %q", got)
	}
}
