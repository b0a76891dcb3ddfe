package storage

import (
	"context"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/scanvault/internal/logging"
	"github.com/dmitrijs2005/scanvault/internal/server/config"
)

func TestScanKey(t *testing.T) {
	orig := now
	t.Cleanup(func() { now = orig })
	now = func() time.Time { return time.Date(2024, 3, 7, 23, 0, 0, 0, time.UTC) }

	key := ScanKey(42, ".STL")
	re := regexp.MustCompile(`^scans/42/2024/03/07/[0-9a-f-]{36}\.stl$`)
	assert.Regexp(t, re, key)

	assert.NotEqual(t, key, ScanKey(42, "stl"))
	assert.Regexp(t, `^scans/42/2024/03/07/[0-9a-f-]{36}$`, ScanKey(42, ""))
}

func TestThumbnailKey(t *testing.T) {
	assert.Regexp(t, `^thumbnails/7/[0-9a-f-]{36}\.png$`, ThumbnailKey(7, "png"))
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	log := logging.NewNop()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.LocalStorageDir = filepath.Join(t.TempDir(), "blobs")

	g, err := New(ctx, cfg, log)
	require.NoError(t, err)
	lg, ok := g.(*LocalGateway)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8080/uploads/k", lg.URL("k"))

	cfg.StorageBackend = config.StorageSupabase
	cfg.SupabaseURL = "https://proj.supabase.co"
	g, err = New(ctx, cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &SupabaseGateway{}, g)

	cfg.StorageBackend = "ftp"
	_, err = New(ctx, cfg, log)
	assert.Error(t, err)
}

func TestSniffContentType(t *testing.T) {
	png := "\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 32)

	ct, r, err := SniffContentType(strings.NewReader(png))
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.True(t, IsImage(ct))
	assert.Equal(t, "png", ExtensionFor(ct))
	assert.Equal(t, "", ExtensionFor("application/x-unknown-thing"))

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, png, string(rest))

	ct, _, err = SniffContentType(strings.NewReader("solid cube\nendsolid cube\n"))
	require.NoError(t, err)
	assert.False(t, IsImage(ct))
}

func TestSniffContentType_Seekable(t *testing.T) {
	png := "\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 32)

	src := strings.NewReader("skip" + png)
	_, err := src.Seek(4, io.SeekStart)
	require.NoError(t, err)

	ct, r, err := SniffContentType(src)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Same(t, src, r)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, png, string(rest))
}

func TestSniffContentType_Stream(t *testing.T) {
	png := "\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 32)

	ct, r, err := SniffContentType(io.MultiReader(strings.NewReader(png)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	_, seekable := r.(io.Seeker)
	assert.False(t, seekable)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, png, string(rest))
}
