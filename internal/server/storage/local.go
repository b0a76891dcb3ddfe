package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/scanvault/internal/common"
	"github.com/dmitrijs2005/scanvault/internal/filex"
)

// LocalURLPrefix is where the HTTP server exposes a LocalGateway root.
const LocalURLPrefix = "/uploads"

// LocalGateway keeps blobs as files below a root directory.
type LocalGateway struct {
	root    string
	baseURL string
}

func NewLocalGateway(dir, baseURL string) (*LocalGateway, error) {
	root, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}
	return &LocalGateway{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root is the directory blobs are written to.
func (g *LocalGateway) Root() string {
	return g.root
}

func (g *LocalGateway) path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(g.root, clean), nil
}

func (g *LocalGateway) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path, err := g.path(key)
	if err != nil {
		return err
	}

	return filex.WriteFileAtomic(path, func(f *os.File) error {
		_, err := io.Copy(f, &ctxReader{ctx: ctx, r: r})
		return err
	})
}

func (g *LocalGateway) Get(ctx context.Context, key string) (*Object, error) {
	path, err := g.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Object{Body: f, Size: fi.Size()}, nil
}

func (g *LocalGateway) Delete(ctx context.Context, key string) error {
	path, err := g.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (g *LocalGateway) URL(key string) string {
	return g.baseURL + "/" + strings.TrimLeft(key, "/")
}

// ctxReader stops a copy once ctx is done, e.g. when the client went away.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
