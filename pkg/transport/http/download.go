package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	jerrors "github.com/porthorian/jamfpro/pkg/errors"
)

const downloadsDirName = "Downloads"

type DownloadRequest struct {
	// Method defaults to GET. CSV exports use POST.
	Method string
	Path   string
	Query  url.Values
	// Body is JSON encoded when set.
	Body   any
	Accept string
	// Filename is used when the response has no Content-Disposition.
	Filename string
	// Dir overrides the dispatcher's download directory.
	Dir string
}

type Saved struct {
	Path    string
	Bytes   int64
	Message string
}

// Download writes a response body to the downloads directory, never
// overwriting: an existing name gets "(1)", "(2)", ... before its extension.
func (d *Dispatcher) Download(ctx context.Context, r DownloadRequest) (*Saved, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body []byte
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, jerrors.Wrap(jerrors.CodeInvalidParameterOptions, "failed to encode json body", err)
		}
		body = payload
	}

	req, err := d.newRequest(ctx, method, r.Path, r.Query, body)
	if err != nil {
		return nil, err
	}
	accept := r.Accept
	if accept == "" {
		accept = "*/*"
	}
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, jerrors.FromResponse(resp.StatusCode, string(raw))
	}

	dir := r.Dir
	if dir == "" {
		dir = d.downloadDir
	}
	if dir == "" {
		dir, err = DefaultDownloadDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	name := downloadName(resp, r.Filename, req.URL.Path)
	file, target, err := createUnique(dir, name)
	if err != nil {
		return nil, err
	}

	written, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(target)
		return nil, err
	}

	d.logger.V(1).Info("saved download", "path", target, "bytes", written)
	return &Saved{
		Path:    target,
		Bytes:   written,
		Message: fmt.Sprintf("%s successfully downloaded to %s.", filepath.Base(target), target),
	}, nil
}

// DefaultDownloadDir is the invoking user's Downloads directory.
func DefaultDownloadDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, downloadsDirName), nil
}

func downloadName(resp *http.Response, fallback, urlPath string) string {
	if disposition := resp.Header.Get("Content-Disposition"); disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := safeName(params["filename"]); name != "" {
				return name
			}
		}
	}

	if name := safeName(fallback); name != "" {
		return name
	}

	name := safeName(path.Base(urlPath))
	if name == "" {
		name = "download"
	}
	if filepath.Ext(name) == "" {
		name += imageExtension(resp.Header.Get("Content-Type"))
	}
	return name
}

// safeName strips directories so a server supplied name cannot escape dir.
func safeName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

func imageExtension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return ""
	}
	subtype := strings.TrimPrefix(mediaType, "image/")
	if i := strings.IndexByte(subtype, '+'); i >= 0 {
		subtype = subtype[:i]
	}
	switch subtype {
	case "jpeg", "pjpeg":
		return ".jpg"
	case "x-icon", "vnd.microsoft.icon":
		return ".ico"
	case "":
		return ""
	}
	return "." + subtype
}

func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 0; ; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s(%d)%s", stem, n, ext)
		}
		target := filepath.Join(dir, candidate)

		file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return file, target, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
}
