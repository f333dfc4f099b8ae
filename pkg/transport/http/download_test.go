package httptransport

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	jerrors "github.com/porthorian/jamfpro/pkg/errors"
)

func TestDownloadUsesContentDisposition(t *testing.T) {
	d, last, _ := newDispatcherServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="../../report.pdf"`)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF"))
	})
	dir := t.TempDir()

	saved, err := d.Download(context.Background(), DownloadRequest{
		Path: "/api/v1/computers-inventory/1001/attachments/1002",
		Dir:  dir,
	})
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if saved.Path != filepath.Join(dir, "report.pdf") {
		t.Fatalf("unexpected path: %s", saved.Path)
	}
	if last.accept != "*/*" || last.auth != "Bearer T1" {
		t.Fatalf("unexpected request headers: %+v", last)
	}

	content, err := os.ReadFile(saved.Path)
	if err != nil || string(content) != "%PDF" {
		t.Fatalf("unexpected content %q (%v)", content, err)
	}
}

func TestDownloadCollisionSuffix(t *testing.T) {
	d, _, _ := newDispatcherServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="X.csv"`)
		_, _ = w.Write([]byte("id,name\n"))
	})
	dir := t.TempDir()
	for _, name := range []string{"X.csv", "X(1).csv", "X(2).csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("existing"), 0o644); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	saved, err := d.Download(context.Background(), DownloadRequest{Path: "/api/v1/buildings/export", Method: http.MethodPost, Dir: dir})
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	want := filepath.Join(dir, "X(3).csv")
	if saved.Path != want {
		t.Fatalf("expected %s, got %s", want, saved.Path)
	}
	if !strings.Contains(saved.Message, "X(3).csv") {
		t.Fatalf("expected message to name X(3).csv, got %q", saved.Message)
	}

	existing, _ := os.ReadFile(filepath.Join(dir, "X.csv"))
	if string(existing) != "existing" {
		t.Fatal("expected existing file to be left untouched")
	}
}

func TestDownloadCollisionWithoutExtension(t *testing.T) {
	d, _, _ := newDispatcherServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("blob"))
	})
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "payload"), nil, 0o644); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	saved, err := d.Download(context.Background(), DownloadRequest{Path: "/api/v1/files/payload", Dir: dir})
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if filepath.Base(saved.Path) != "payload(1)" {
		t.Fatalf("expected suffix at end, got %s", saved.Path)
	}
}

func TestDownloadInfersImageExtension(t *testing.T) {
	d, _, _ := newDispatcherServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG"))
	})

	saved, err := d.Download(context.Background(), DownloadRequest{Path: "/api/v1/icon/download/12"})
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if filepath.Base(saved.Path) != "12.png" {
		t.Fatalf("expected 12.png, got %s", saved.Path)
	}
	if filepath.Dir(saved.Path) != d.downloadDir {
		t.Fatalf("expected dispatcher download dir, got %s", saved.Path)
	}
}

func TestDownloadClassifiesFailures(t *testing.T) {
	d, _, _ := newDispatcherServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no attachment"))
	})
	dir := t.TempDir()

	_, err := d.Download(context.Background(), DownloadRequest{Path: "/api/v1/computers-inventory/1001/attachments/1002", Dir: dir})
	if !jerrors.IsCode(err, jerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected nothing written, got %d entries", len(entries))
	}
}

func TestDownloadSurfacesFilesystemErrors(t *testing.T) {
	d, _, _ := newDispatcherServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data"))
	})
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, err := d.Download(context.Background(), DownloadRequest{Path: "/api/v1/files/data.bin", Dir: filepath.Join(blocker, "sub")})
	if err == nil {
		t.Fatal("expected filesystem error")
	}
	if jerrors.CodeOf(err) != "" {
		t.Fatalf("expected filesystem error to surface verbatim, got %v", err)
	}
}
