package offlinegate

import (
	"encoding/hex"
	"strings"

	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"
)

// Manifest is the fixed ordered list of root-relative static asset paths
// precached at install time. It is supplied at configuration time, never
// derived at runtime, and does not change for the lifetime of a worker
// version.
type Manifest []string

// Validate checks that every manifest path is root-relative.
func (m Manifest) Validate() error {
	if len(m) == 0 {
		return errors.New("empty precache manifest")
	}
	for _, path := range m {
		if !strings.HasPrefix(path, "/") {
			return errors.Errorf("manifest path %q is not root-relative", path)
		}
	}
	return nil
}

// VersionTag derives the cache partition name from the manifest content.
// Deriving the tag from a content hash (instead of a hand-bumped literal)
// means shipping a changed manifest always rotates the partition, so stale
// assets cannot survive a deployment because someone forgot to bump a
// version constant.
func (m Manifest) VersionTag() string {
	h := sha256.New()
	for _, path := range m {
		h.Write([]byte(path))
		h.Write([]byte{'\n'})
	}
	return "v-" + hex.EncodeToString(h.Sum(nil))[:12]
}
