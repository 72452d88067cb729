package cachekey

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

const methodSeparator = ":"

// Key returns the cache key for a request: the method and the request URI.
// The gateway serves a single origin, so the origin is not part of the key.
// In practice only GET keys are ever written to the cache.
func Key(r *http.Request) string {
	return r.Method + methodSeparator + r.URL.RequestURI()
}

// MethodPrefix gets the key prefix for the given method,
// e.g. the prefix shared by all GET keys.
func MethodPrefix(method string) string {
	return method + methodSeparator
}

// RequestFromKey generates a caching-wise equal request to the request that
// resulted in the provided key.
func RequestFromKey(key string) (*http.Request, error) {
	method, uri, found := strings.Cut(key, methodSeparator)
	if !found {
		return nil, errors.Errorf("malformed key: %s", key)
	}
	return http.NewRequest(method, uri, nil)
}
