package datamate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:           baseURL,
		MaxRetries:        2,
		RequestsPerSecond: 1000,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid http", cfg: Config{BaseURL: "http://datamate:8080"}},
		{name: "valid https", cfg: Config{BaseURL: "https://datamate.example.com"}},
		{name: "empty base URL", cfg: Config{}, wantErr: true},
		{name: "bad scheme", cfg: Config{BaseURL: "ftp://datamate:8080"}, wantErr: true},
		{name: "no host", cfg: Config{BaseURL: "http://"}, wantErr: true},
		{name: "negative timeout", cfg: Config{BaseURL: "http://datamate:8080", Timeout: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddFiles_BatchesRecords(t *testing.T) {
	var (
		mu      sync.Mutex
		paths   []string
		batches [][]FileRecord
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Files []FileRecord `json:"files"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		mu.Lock()
		paths = append(paths, r.URL.Path)
		batches = append(batches, req.Files)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	records := make([]FileRecord, 2500)
	for i := range records {
		records[i] = FileRecord{FilePath: "/data/file.csv"}
	}

	if err := client.AddFiles(context.Background(), "slides", records); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}

	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	for _, sizes := range []struct{ idx, want int }{{0, 1000}, {1, 1000}, {2, 500}} {
		if len(batches[sizes.idx]) != sizes.want {
			t.Errorf("batch %d has %d records, want %d", sizes.idx, len(batches[sizes.idx]), sizes.want)
		}
	}
	wantPath := "/api/data-management/datasets/slides/files/upload/add"
	for _, p := range paths {
		if p != wantPath {
			t.Errorf("request path = %q, want %q", p, wantPath)
		}
	}
}

func TestAddFiles_EmptyDataset(t *testing.T) {
	client, err := New(testConfig("http://datamate:8080"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.AddFiles(context.Background(), "", []FileRecord{{FilePath: "/x"}}); err == nil {
		t.Fatal("expected an error for empty dataset")
	}
}

func TestAddFiles_NoRecordsIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	}))
	defer srv.Close()

	client, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.AddFiles(context.Background(), "slides", nil); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
}

func TestAddFiles_RetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.AddFiles(context.Background(), "slides", []FileRecord{{FilePath: "/x"}}); err != nil {
		t.Fatalf("AddFiles after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("got %d calls, want 2", calls)
	}
}

func TestAddFiles_ClientErrorIsPermanent(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "no such dataset", http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = client.AddFiles(context.Background(), "slides", []FileRecord{{FilePath: "/x"}})
	if err == nil {
		t.Fatal("expected an error for 404")
	}
	if calls != 1 {
		t.Errorf("got %d calls, want 1 (4xx must not retry)", calls)
	}
	if !strings.Contains(err.Error(), "no such dataset") {
		t.Errorf("error %q missing response body", err)
	}
}

func TestAddFiles_SendsAuthToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Token = "sekrit"
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.AddFiles(context.Background(), "slides", []FileRecord{{FilePath: "/x"}}); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	if auth != "Bearer sekrit" {
		t.Errorf("Authorization = %q, want %q", auth, "Bearer sekrit")
	}
}

func TestUploadBundle(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "demo-0.1.0.tar.gz")
	if err := os.WriteFile(archive, []byte("not really a tarball"), 0o644); err != nil {
		t.Fatal(err)
	}

	var (
		path        string
		contentType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		contentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parsing multipart form: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.UploadBundle(context.Background(), archive); err != nil {
		t.Fatalf("UploadBundle: %v", err)
	}
	if path != "/api/operator-management/operators/upload" {
		t.Errorf("request path = %q", path)
	}
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		t.Errorf("Content-Type = %q, want multipart", contentType)
	}
}

func TestUploadBundle_MissingArchive(t *testing.T) {
	client, err := New(testConfig("http://datamate:8080"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.UploadBundle(context.Background(), filepath.Join(t.TempDir(), "absent.tar.gz")); err == nil {
		t.Fatal("expected an error for a missing archive")
	}
}
