package services

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/scanvault/internal/common"
	"github.com/dmitrijs2005/scanvault/internal/logging"
	"github.com/dmitrijs2005/scanvault/internal/server/models"
	"github.com/dmitrijs2005/scanvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/scanvault/internal/server/repositories/repotest"
	"github.com/dmitrijs2005/scanvault/internal/server/storage"
)

// memGateway is an in-memory storage.Gateway.
type memGateway struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	seekers map[string]bool
	deleted []string
	putErr  error
	delErr  error
}

func newMemGateway() *memGateway {
	return &memGateway{blobs: map[string][]byte{}, seekers: map[string]bool{}}
}

func (g *memGateway) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if g.putErr != nil {
		return g.putErr
	}
	_, seekable := r.(io.ReadSeeker)
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blobs[key] = b
	g.seekers[key] = seekable
	return nil
}

func (g *memGateway) Get(ctx context.Context, key string) (*storage.Object, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.blobs[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &storage.Object{Body: io.NopCloser(bytes.NewReader(b)), Size: int64(len(b))}, nil
}

func (g *memGateway) Delete(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, key)
	if g.delErr != nil {
		return g.delErr
	}
	delete(g.blobs, key)
	return nil
}

func (g *memGateway) URL(key string) string {
	return "mem://bucket/" + key
}

func (g *memGateway) keys() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.blobs))
	for k := range g.blobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type env struct {
	db *sql.DB
	rm repomanager.RepositoryManager
	gw *memGateway
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return &env{
		db: repotest.OpenSQLite(t),
		rm: repomanager.NewSQLiteRepositoryManager(),
		gw: newMemGateway(),
	}
}

func (e *env) scans() *ScanService {
	return NewScanService(e.db, e.rm, e.gw, logging.NewNop())
}

func (e *env) user(t *testing.T, email string) int64 {
	t.Helper()
	u, err := e.rm.Users(e.db).Create(context.Background(), &models.User{Email: email, PasswordHash: "x", Name: email})
	require.NoError(t, err)
	return u.ID
}

func (e *env) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(query, args...).Scan(&n))
	return n
}

func upload(name, content string) Upload {
	return Upload{Filename: name, Size: int64(len(content)), Body: strings.NewReader(content)}
}

const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00"

func ptr[T any](v T) *T { return &v }
