package offlinegate

import "fmt"

type CacheStatusStatus string

const (
	CacheStatusHit = "hit"
	CacheStatusFwd = "fwd"
)

type CacheStatusFwdReason string

const (
	// The gateway was configured to not handle this request
	// (excluded scheme, or the worker is not active).
	CacheStatusFwdBypass = "bypass"

	// The request method's semantics require the request to be
	// forwarded.
	CacheStatusFwdMethod = "method"

	// The cache did not contain a response that matched the
	// request URI.
	CacheStatusFwdUriMiss = "uri-miss"
)

// CacheStatus builds the value of the Cache-Status response header the
// gateway attaches to every response it handles.
type CacheStatus struct {
	status    CacheStatusStatus
	detail    string
	fwdReason CacheStatusFwdReason
}

func (cs *CacheStatus) Hit() {
	cs.status = CacheStatusHit
}

func (cs *CacheStatus) Forward(reason CacheStatusFwdReason) {
	cs.status = CacheStatusFwd
	cs.fwdReason = reason
}

func (cs *CacheStatus) Detail(detail string) {
	cs.detail = detail
}

func (cs *CacheStatus) String() string {
	status := fmt.Sprintf("Offline-Gate; %s", cs.status)
	if cs.status == "fwd" && cs.fwdReason != "" {
		status = fmt.Sprintf("%s=%s", status, cs.fwdReason)
	}
	if cs.detail != "" {
		status = status + "; detail=" + cs.detail
	}
	return status
}
