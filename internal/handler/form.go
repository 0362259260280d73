package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"vidtube/internal/util"
)

// saveFormFile persists one multipart file part to a fresh temp file and
// returns its path. A missing part is not an error: the path is empty and
// the caller decides whether the field was required. The caller owns
// deleting the returned file on every exit path.
func saveFormFile(r *http.Request, field string, tempDir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", fmt.Errorf("read form file %q: %w", field, err)
	}
	defer file.Close()

	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	path := filepath.Join(tempDir, uuid.NewString()+util.SafeExt(header.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write temp file: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return path, nil
}

func removeTempFile(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
