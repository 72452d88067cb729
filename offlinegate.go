package offlinegate

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync"

	"github.com/offline-gate/offline-gate/cache"
	cachekey "github.com/offline-gate/offline-gate/pkg/cache-key"
	classifier "github.com/offline-gate/offline-gate/pkg/request-classifier"
	serializer "github.com/offline-gate/offline-gate/pkg/response-serializer"
	tee "github.com/offline-gate/offline-gate/pkg/response-writer-tee"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultAPIPathSegment = "/api/"
)

var defaultExcludedSchemes = []string{"chrome-extension", "moz-extension"}

type Config struct {
	// Storage for cache partitions.
	Cache cache.PartitionProvider
	// URL of the origin server.
	// Origins with paths are not supported.
	OriginURL url.URL
	// Precache manifest: asset paths fetched and stored at install time.
	// The manifest content also determines the cache partition version tag.
	Manifest Manifest
	// Path segment that marks a request as an API request.
	// Defaults to "/api/".
	APIPathSegment string
	// URL schemes that are never intercepted, e.g. browser-extension-internal
	// schemes. Defaults to chrome-extension and moz-extension.
	ExcludedSchemes []string
	// Logger to use. The global zerolog logger is used if nil.
	Logger *zerolog.Logger
}

// Gateway is the offline-resilience worker: it intercepts every request the
// host application issues, classifies it, and serves it network-first (API),
// cache-first (static assets) or as a plain passthrough (everything else).
// Until registered it proxies everything untouched.
type Gateway struct {
	cache        cache.PartitionProvider
	classify     classifier.Classifier
	manifest     Manifest
	version      string
	instanceID   string
	log          zerolog.Logger
	reverseproxy httputil.ReverseProxy

	mu        sync.Mutex
	state     WorkerState
	activated chan struct{}
}

// CreateGateway initializes the gateway instance.
// The worker starts parked; call Register to install and activate it.
func CreateGateway(config Config) *Gateway {
	// use console logger if not specified in config
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *config.Logger
	}

	apiSegment := config.APIPathSegment
	if apiSegment == "" {
		apiSegment = defaultAPIPathSegment
	}
	excluded := config.ExcludedSchemes
	if excluded == nil {
		excluded = defaultExcludedSchemes
	}

	version := config.Manifest.VersionTag()

	// create a child logger and add defaults
	logger = logger.With().
		Str("origin", config.OriginURL.String()).
		Str("version", version).
		Logger()

	g := &Gateway{
		cache:      config.Cache,
		classify:   classifier.New(apiSegment, excluded),
		manifest:   config.Manifest,
		version:    version,
		instanceID: uuid.NewString(),
		log:        logger,
		state:      StateParked,
		activated:  make(chan struct{}),
	}

	g.reverseproxy = httputil.ReverseProxy{
		Director: createDirector(config.OriginURL.Scheme, config.OriginURL.Host),
		// the error handler fires on transport errors only, never on a
		// response the origin actually produced: mark the tee as failed so
		// the strategies can tell "origin unreachable" apart from "origin
		// answered with an error status"
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			g.log.Debug().Err(err).Str("url", r.URL.String()).Msg("Origin fetch failed")
			if rwtee, ok := w.(*tee.ResponseSaver); ok {
				rwtee.Fail()
				return
			}
			w.WriteHeader(http.StatusBadGateway)
		},
	}

	return g
}

// Version returns the version tag naming the current cache partition.
func (g *Gateway) Version() string {
	return g.version
}

// InstanceID identifies this worker instance on the registration surface.
func (g *Gateway) InstanceID() string {
	return g.instanceID
}

// ServeHTTP implements the http.Handler interface.
// Each request is classified first; ignored requests and all requests of a
// non-active worker pass straight through to the origin.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	class := g.classify.Classify(r)
	if !g.active() || class == classifier.ClassIgnored {
		g.passthrough(w, r)
		return
	}
	switch class {
	case classifier.ClassAPI:
		g.networkFirst(w, r)
	default:
		g.cacheFirst(w, r)
	}
}

// passthrough forwards the request to the origin with no caching and no
// strategy logic applied at all.
func (g *Gateway) passthrough(w http.ResponseWriter, r *http.Request) {
	cs := CacheStatus{}
	if r.Method != http.MethodGet {
		cs.Forward(CacheStatusFwdMethod)
	} else {
		cs.Forward(CacheStatusFwdBypass)
	}
	w.Header().Set("Cache-Status", cs.String())
	g.reverseproxy.ServeHTTP(w, r)
	g.logRequest(r, cs)
}

// networkFirst serves API requests: the live origin response is preferred and
// a copy of it is stored, so a later request for the same key can be answered
// from the cache when the origin is unreachable.
func (g *Gateway) networkFirst(w http.ResponseWriter, r *http.Request) {
	key := cachekey.Key(r)
	cs := CacheStatus{}
	cs.Forward(CacheStatusFwdUriMiss)
	w.Header().Set("Cache-Status", cs.String())

	rwtee := tee.NewResponseSaver(w)
	g.reverseproxy.ServeHTTP(rwtee, r)

	if !rwtee.Failed() {
		// live response already streamed to the client; keep a copy for
		// offline fallback, but never an error body
		if cacheable(rwtee) {
			g.writeCache(key, rwtee)
		}
		g.logRequest(r, cs)
		return
	}

	// origin unreachable, fall back to the stored entry if there is one
	if res := g.storedResponse(key); res != nil {
		hit := CacheStatus{}
		hit.Hit()
		g.sendStoredResponse(w, r, res, hit)
		return
	}

	// no fallback: the failure propagates to the caller unresolved
	cs.Detail("unreachable")
	w.Header().Set("Cache-Status", cs.String())
	http.Error(w, "offline-gate: origin unreachable", http.StatusBadGateway)
	g.logRequest(r, cs)
}

// cacheFirst serves static-asset requests: a stored entry is returned
// immediately without any network call, and only complete 200 responses are
// ever persisted on a miss.
func (g *Gateway) cacheFirst(w http.ResponseWriter, r *http.Request) {
	key := cachekey.Key(r)
	if res := g.storedResponse(key); res != nil {
		cs := CacheStatus{}
		cs.Hit()
		g.sendStoredResponse(w, r, res, cs)
		return
	}

	cs := CacheStatus{}
	cs.Forward(CacheStatusFwdUriMiss)
	w.Header().Set("Cache-Status", cs.String())

	rwtee := tee.NewResponseSaver(w)
	g.reverseproxy.ServeHTTP(rwtee, r)

	if rwtee.Failed() {
		g.sendOfflineFallback(w, r)
		return
	}
	if cacheable(rwtee) {
		g.writeCache(key, rwtee)
	}
	g.logRequest(r, cs)
}

// cacheable reports whether a captured static-asset response may be
// persisted. Only complete 200 responses qualify, which excludes redirects
// and opaque responses (no verifiable benefit in caching them) as well as
// errors (caching one would poison future lookups).
func cacheable(rwtee *tee.ResponseSaver) bool {
	return rwtee.StatusCode() == http.StatusOK
}

// sendOfflineFallback returns the synthetic placeholder response for a
// static-asset miss with no connectivity, so the caller always receives some
// response rather than an unhandled failure.
func (g *Gateway) sendOfflineFallback(w http.ResponseWriter, r *http.Request) {
	cs := CacheStatus{}
	cs.Forward(CacheStatusFwdUriMiss)
	cs.Detail("offline")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Status", cs.String())
	w.WriteHeader(http.StatusRequestTimeout)
	fmt.Fprintln(w, "network error: origin unreachable and no cached copy available")
	g.logRequest(r, cs)
}

// storedResponse reads the entry for the given key from the current
// partition. It returns nil on a miss or an unreadable entry.
func (g *Gateway) storedResponse(key string) *http.Response {
	b, ok, err := g.cache.Get(g.version, key)
	if err != nil {
		g.log.Error().Err(err).Str("key", key).Msg("Could not retrieve from cache")
		return nil
	}
	if !ok {
		return nil
	}
	req, err := cachekey.RequestFromKey(key)
	if err != nil {
		g.log.Error().Err(err).Str("key", key).Msg("Could not recreate request")
		return nil
	}
	res, err := serializer.BytesToResponse(b, req)
	if err != nil {
		g.log.Error().Err(err).Str("key", key).Msg("Could not create response")
		return nil
	}
	return res
}

func (g *Gateway) sendStoredResponse(w http.ResponseWriter, r *http.Request, res *http.Response, cs CacheStatus) {
	if res.Body != nil {
		defer res.Body.Close()
	}
	copyHeader(w.Header(), res.Header)
	w.Header().Set("Cache-Status", cs.String())
	w.WriteHeader(res.StatusCode)
	bytesWritten, err := io.Copy(w, res.Body)
	if err != nil {
		g.log.Error().Err(err).Msg("Could not write response body to client")
	}
	g.logRequest(r, cs)
	g.log.Trace().Msgf("Wrote body (%d bytes)", bytesWritten)
}

// writeCache stores the captured response in the current partition.
// Failures are best-effort: the response has already been sent to the
// client, so a failed write is logged and nothing more.
func (g *Gateway) writeCache(key string, rwtee *tee.ResponseSaver) {
	g.log.Trace().Str("key", key).Msg("Writing to cache")
	if err := g.cache.Put(g.version, key, rwtee.Response()); err != nil {
		g.log.Error().Err(err).Str("key", key).Msg("Could not write cache entry")
	}
}

func createDirector(scheme, host string) func(req *http.Request) {
	return func(req *http.Request) {
		req.URL.Scheme = scheme
		req.URL.Host = host
		req.Host = host
	}
}

func (g *Gateway) logRequest(r *http.Request, cs CacheStatus) {
	isHit := 0
	if cs.status == CacheStatusHit {
		isHit = 1
	}
	g.log.Debug().
		Str("method", r.Method).
		Str("url", r.URL.String()).
		Str("sourceIp", getRequestSourceIp(r)).
		Str("status", string(cs.status)).
		Str("fwd", string(cs.fwdReason)).
		Int("hit", isHit).
		Msg("Sending response to client")
}

func getRequestSourceIp(r *http.Request) string {
	// RemoteAddr is in the format:
	// 1.2.3.4:10000 for ipv4
	// [1:2:3]:10000 for ipv6
	ipAndPort := r.RemoteAddr
	portSepIdx := strings.LastIndex(ipAndPort, ":")
	// if not found, return
	if portSepIdx < 0 {
		return ipAndPort
	}
	ip := ipAndPort[:portSepIdx]
	return ip
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
