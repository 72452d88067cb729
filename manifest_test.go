package offlinegate

import (
	"strings"
	"testing"
)

func TestVersionTagIsStable(t *testing.T) {
	m := Manifest{"/", "/assets/app.js"}
	if m.VersionTag() != m.VersionTag() {
		t.Fatal("Version tag not deterministic")
	}
}

func TestVersionTagTracksManifestContent(t *testing.T) {
	a := Manifest{"/", "/assets/app.js"}
	b := Manifest{"/", "/assets/app.v2.js"}
	if a.VersionTag() == b.VersionTag() {
		t.Fatal("Different manifests produced the same version tag")
	}
}

func TestVersionTagGuardsAgainstPathJoining(t *testing.T) {
	a := Manifest{"/ab", "/c"}
	b := Manifest{"/a", "/bc"}
	if a.VersionTag() == b.VersionTag() {
		t.Fatal("Path boundaries not part of the hash")
	}
}

func TestVersionTagFormat(t *testing.T) {
	tag := Manifest{"/"}.VersionTag()
	if !strings.HasPrefix(tag, "v-") {
		t.Fatalf("Tag is %s", tag)
	}
}

func TestManifestValidation(t *testing.T) {
	if err := (Manifest{}).Validate(); err == nil {
		t.Fatal("Empty manifest accepted")
	}
	if err := (Manifest{"index.html"}).Validate(); err == nil {
		t.Fatal("Relative path accepted")
	}
	if err := (Manifest{"/", "/index.html"}).Validate(); err != nil {
		t.Fatalf("Valid manifest rejected: %v", err)
	}
}
