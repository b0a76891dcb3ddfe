package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/scanvault/internal/common"
)

type fakeS3 struct {
	objects map[string]string
	types   map[string]string
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]string{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = string(b)
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	v, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(v)),
		ContentLength: aws.Int64(int64(len(v))),
		ContentType:   aws.String(f.types[aws.ToString(in.Key)]),
	}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Gateway_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	g := NewS3GatewayWithClient(fake, "scans", "http://minio:9000/scans/")

	require.NoError(t, g.Put(ctx, "a/b.ply", strings.NewReader("ply"), 3, "application/octet-stream"))
	assert.Equal(t, "ply", fake.objects["scans/a/b.ply"])

	obj, err := g.Get(ctx, "a/b.ply")
	require.NoError(t, err)
	defer obj.Body.Close()
	data, _ := io.ReadAll(obj.Body)
	assert.Equal(t, "ply", string(data))
	assert.EqualValues(t, 3, obj.Size)
	assert.Equal(t, "application/octet-stream", obj.ContentType)

	assert.Equal(t, "http://minio:9000/scans/a/b.ply", g.URL("a/b.ply"))

	require.NoError(t, g.Delete(ctx, "a/b.ply"))
	_, err = g.Get(ctx, "a/b.ply")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestS3Gateway_PutError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("boom")
	g := NewS3GatewayWithClient(fake, "b", "http://x/b")

	err := g.Put(context.Background(), "k", strings.NewReader("x"), 1, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestNewS3Gateway_Seams(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew
	})

	var gotOpts s3.Options
	fake := newFakeS3()
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-west-1", lo.Region)
		assert.NotNil(t, lo.Credentials)
		return aws.Config{Region: lo.Region}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) S3API {
		for _, fn := range optFns {
			fn(&gotOpts)
		}
		return fake
	}

	g, err := NewS3Gateway(context.Background(), S3Options{
		AccessKey: "ak", SecretKey: "sk", Region: "eu-west-1",
		Endpoint: "http://minio:9000", Bucket: "scans",
	})
	require.NoError(t, err)
	assert.True(t, gotOpts.UsePathStyle)
	assert.Equal(t, "http://minio:9000", aws.ToString(gotOpts.BaseEndpoint))
	assert.Equal(t, "http://minio:9000/scans/k", g.URL("k"))

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err = NewS3Gateway(context.Background(), S3Options{Region: "us-east-1", Bucket: "b"})
	assert.Error(t, err)
}

// s3Server accepts path-style PutObject requests over plain HTTP.
type s3Server struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (s *s3Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.objects[r.URL.Path] = b
	s.types[r.URL.Path] = r.Header.Get("Content-Type")
	s.mu.Unlock()
	w.Header().Set("ETag", `"etag"`)
	w.WriteHeader(http.StatusOK)
}

func TestS3Gateway_ThumbnailOverHTTP(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))

	srv := &s3Server{objects: map[string][]byte{}, types: map[string]string{}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx := context.Background()
	g, err := NewS3Gateway(ctx, S3Options{
		AccessKey: "ak", SecretKey: "sk", Region: "us-east-1",
		Endpoint: ts.URL, Bucket: "thumbs",
	})
	require.NoError(t, err)

	png := []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 64))
	ct, body, err := SniffContentType(bytes.NewReader(png))
	require.NoError(t, err)

	require.NoError(t, g.Put(ctx, "thumbnails/1/a.png", body, int64(len(png)), ct))
	assert.Equal(t, png, srv.objects["/thumbs/thumbnails/1/a.png"])
	assert.Equal(t, "image/png", srv.types["/thumbs/thumbnails/1/a.png"])
}
