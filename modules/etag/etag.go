package etag

import (
	"fmt"
	"net/http"
	"strings"
)

type ETaggable interface {
	V() string
}

// For HTTP headers, remember that the actual header value is usually quoted:
//
// fmt.Sprintf("%q", ETag(obj))
func ETag(obj ETaggable) string {
	return "v:" + obj.V()
}

func ParseETag(etag string) (string, error) {
	const prefix = "v:"
	if !strings.HasPrefix(etag, prefix) {
		return "", fmt.Errorf("invalid etag format")
	}
	return strings.TrimPrefix(etag, prefix), nil
}

// NotModified sets the ETag header for obj and reports whether the request's
// If-None-Match already names it, in which case the caller answers 304.
func NotModified(w http.ResponseWriter, r *http.Request, obj ETaggable) bool {
	tag := fmt.Sprintf("%q", ETag(obj))
	w.Header().Set("ETag", tag)

	inm := r.Header.Get("If-None-Match")
	if inm == "" {
		return false
	}
	for candidate := range strings.SplitSeq(inm, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == tag {
			return true
		}
	}
	return false
}
