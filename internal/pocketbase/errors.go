package pocketbase

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrUnreachable        = errors.New("pocketbase unreachable")
	// ErrUnsupportedVersion marks a server without the legacy admins API
	// (PocketBase >= 0.23).
	ErrUnsupportedVersion = errors.New("admins API not found, PocketBase >= 0.23 is not supported")
)

// Data codes PocketBase uses for unique-name and unique-value rejections.
var duplicateCodes = map[string]bool{
	"validation_collection_name_exists": true,
	"validation_not_unique":             true,
}

// APIError is the error body PocketBase returns for any 4xx/5xx response.
type APIError struct {
	Status  int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pocketbase: %d %s", e.Status, strings.TrimSpace(e.Message))
	if details := e.details(); len(details) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(details, "; "))
	}
	return b.String()
}

// Is lets callers classify with errors.Is(err, ErrNotFound) and friends.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrAlreadyExists:
		if e.Status != http.StatusBadRequest {
			return false
		}
		for _, code := range e.Codes() {
			if duplicateCodes[code] {
				return true
			}
		}
		return strings.Contains(strings.ToLower(e.Message), "already exists")
	}
	return false
}

// Codes returns every validation code found in Data, depth first.
func (e *APIError) Codes() []string {
	var codes []string
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case map[string]any:
			if code, ok := t["code"].(string); ok {
				codes = append(codes, code)
			}
			for _, k := range sortedKeys(t) {
				if k != "code" {
					walk(t[k])
				}
			}
		case []any:
			for _, item := range t {
				walk(item)
			}
		}
	}
	walk(e.Data)
	return codes
}

func (e *APIError) details() []string {
	var out []string
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		m, ok := v.(map[string]any)
		if !ok {
			return
		}
		if msg, ok := m["message"].(string); ok && prefix != "" {
			out = append(out, prefix+": "+msg)
			return
		}
		for _, k := range sortedKeys(m) {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			walk(key, m[k])
		}
	}
	walk("", e.Data)
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func notFound(msg string) *APIError {
	return &APIError{Status: http.StatusNotFound, Message: msg}
}
