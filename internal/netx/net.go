// Package netx holds HTTP helpers shared by the scanvault client.
package netx

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// FilePart is a file attached to a multipart form under Field.
type FilePart struct {
	Field string
	Path  string
}

// NewMultipartRequest builds a request whose body streams fields and files
// as multipart/form-data. Files are read lazily while the body is consumed,
// so big scans are never buffered in memory.
func NewMultipartRequest(ctx context.Context, method, url string, fields map[string]string, files []FilePart) (*http.Request, error) {
	for _, f := range files {
		if _, err := os.Stat(f.Path); err != nil {
			return nil, fmt.Errorf("stat %s: %w", f.Path, err)
		}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeParts(mw, fields, files))
	}()

	req, err := http.NewRequestWithContext(ctx, method, url, pr)
	if err != nil {
		_ = pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

func writeParts(mw *multipart.Writer, fields map[string]string, files []FilePart) error {
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}

	for _, f := range files {
		if err := copyFile(mw, f); err != nil {
			return err
		}
	}

	return mw.Close()
}

func copyFile(mw *multipart.Writer, f FilePart) error {
	src, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := mw.CreateFormFile(f.Field, filepath.Base(f.Path))
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}
