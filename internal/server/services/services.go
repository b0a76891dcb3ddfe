// Package services contains the server-side business logic: account
// registration and login, the scan catalog with its version history, and
// the shared tag and project vocabularies. Services own validation and
// multi-step writes; repositories only run SQL.
package services

import (
	"io"
	"strings"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}

// normalizePage applies the default limit and clamps limit and offset.
func normalizePage(limit, offset int) (int, int) {
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// optional maps blank strings to nil.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// trimPtr returns a trimmed copy of *p, or nil.
func trimPtr(p *string) *string {
	if p != nil {
		v := strings.TrimSpace(*p)
		return &v
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
