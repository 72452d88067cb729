package classifier

import (
	"net/http"
	"strings"
)

// Class is the interception class of a request.
type Class int

const (
	// ClassIgnored requests pass straight to the network with no caching
	// and no strategy logic applied at all.
	ClassIgnored Class = iota
	// ClassAPI requests are freshness-sensitive and handled network-first.
	ClassAPI
	// ClassStatic requests are part of the app bundle and handled cache-first.
	ClassStatic
)

func (c Class) String() string {
	switch c {
	case ClassAPI:
		return "api"
	case ClassStatic:
		return "static"
	}
	return "ignored"
}

// Classifier filters intercepted requests into ignored, API and static-asset
// classes. API responses are expected to be transactional, so the network is
// preferred for them; the static bundle changes rarely between deployments,
// so the cache is preferred for latency and offline availability.
type Classifier struct {
	apiSegment      string
	excludedSchemes map[string]bool
}

func New(apiSegment string, excludedSchemes []string) Classifier {
	excluded := make(map[string]bool, len(excludedSchemes))
	for _, scheme := range excludedSchemes {
		excluded[strings.ToLower(scheme)] = true
	}
	return Classifier{
		apiSegment:      apiSegment,
		excludedSchemes: excluded,
	}
}

func (c Classifier) Classify(r *http.Request) Class {
	if r.Method != http.MethodGet {
		return ClassIgnored
	}
	if c.excludedSchemes[strings.ToLower(r.URL.Scheme)] {
		return ClassIgnored
	}
	if c.apiSegment != "" && strings.Contains(r.URL.Path, c.apiSegment) {
		return ClassAPI
	}
	return ClassStatic
}
