package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/scanvault/internal/common"
)

// SupabaseGateway talks to the Supabase Storage REST API of one bucket.
// The bucket is expected to be public so URL can hand out direct links.
type SupabaseGateway struct {
	baseURL string
	key     string
	bucket  string
	client  *http.Client
}

// NewSupabaseGateway configures a gateway for projectURL (https://xyz.supabase.co).
// A nil client falls back to one with a generous timeout for large uploads.
func NewSupabaseGateway(projectURL, serviceKey, bucket string, client *http.Client) *SupabaseGateway {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	return &SupabaseGateway{
		baseURL: strings.TrimRight(projectURL, "/"),
		key:     serviceKey,
		bucket:  bucket,
		client:  client,
	}
}

func (g *SupabaseGateway) objectURL(parts ...string) string {
	segs := append([]string{g.baseURL, "storage/v1/object"}, parts...)
	return strings.Join(segs, "/")
}

func escapeKey(key string) string {
	segs := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func (g *SupabaseGateway) authorize(req *http.Request) {
	req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+g.key)
	req.Header.Set("apikey", g.key)
}

func (g *SupabaseGateway) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.objectURL(url.PathEscape(g.bucket), escapeKey(key)), r)
	if err != nil {
		return err
	}
	g.authorize(req)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")
	if size >= 0 {
		req.ContentLength = size
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase put %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return supabaseError("put", key, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (g *SupabaseGateway) Get(ctx context.Context, key string) (*Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.objectURL(url.PathEscape(g.bucket), escapeKey(key)), nil)
	if err != nil {
		return nil, err
	}
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase get %s: %w", key, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		err := supabaseError("get", key, resp)
		if isSupabaseNotFound(resp.StatusCode, err) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}

	return &Object{
		Body:        resp.Body,
		Size:        resp.ContentLength,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (g *SupabaseGateway) Delete(ctx context.Context, key string) error {
	body, err := json.Marshal(struct {
		Prefixes []string `json:"prefixes"`
	}{Prefixes: []string{key}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, g.objectURL(url.PathEscape(g.bucket)), bytes.NewReader(body))
	if err != nil {
		return err
	}
	g.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase delete %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return supabaseError("delete", key, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (g *SupabaseGateway) URL(key string) string {
	return g.objectURL("public", url.PathEscape(g.bucket), escapeKey(key))
}

type supabaseStatusError struct {
	op      string
	key     string
	status  int
	message string
}

func (e *supabaseStatusError) Error() string {
	return fmt.Sprintf("supabase %s %s: status %d: %s", e.op, e.key, e.status, e.message)
}

func supabaseError(op, key string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return &supabaseStatusError{op: op, key: key, status: resp.StatusCode, message: strings.TrimSpace(string(raw))}
}

// Storage answers missing objects with either 404 or a 400 whose body
// carries a not_found error code.
func isSupabaseNotFound(status int, err error) bool {
	if status == http.StatusNotFound {
		return true
	}
	se, ok := err.(*supabaseStatusError)
	if !ok || status != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(se.message)
	return strings.Contains(msg, "not_found") || strings.Contains(msg, "not found")
}
