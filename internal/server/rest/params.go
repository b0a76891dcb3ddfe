package rest

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/scanvault/internal/common"
	"github.com/dmitrijs2005/scanvault/internal/validation"
)

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter; absent yields def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.Errorf("%s must be an integer", name)
	}
	return n, nil
}

// optionalID parses an optional positive id. Blank or non-positive values
// mean "none".
func optionalID(raw, name string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, validation.Errorf("%s must be an integer", name)
	}
	if id <= 0 {
		return nil, nil
	}
	return &id, nil
}

// tagIDs is a list of tag ids that also accepts a string holding a JSON
// array, as sent by multipart forms.
type tagIDs []int64

func (t *tagIDs) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		ids, err := parseTagIDs(s)
		if err != nil {
			return err
		}
		*t = ids
		return nil
	}

	var ids []int64
	if err := json.Unmarshal(b, &ids); err != nil {
		return fmt.Errorf("%w: tags must be an array of ids", common.ErrorValidation)
	}
	*t = ids
	return nil
}

// parseTagIDs decodes the "tags" form field.
func parseTagIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []int64{}, nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, validation.Errorf("tags must be a JSON array of ids")
	}
	return ids, nil
}
