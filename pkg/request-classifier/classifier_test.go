package classifier

import (
	"net/http"
	"testing"
)

func newTestClassifier() Classifier {
	return New("/api/", []string{"chrome-extension", "moz-extension"})
}

func TestNonGetIsIgnored(t *testing.T) {
	c := newTestClassifier()
	for _, method := range []string{"POST", "PUT", "DELETE", "PATCH", "HEAD"} {
		r, _ := http.NewRequest(method, "http://localhost/api/things", nil)
		if class := c.Classify(r); class != ClassIgnored {
			t.Fatalf("%s classified as %s", method, class)
		}
	}
}

func TestExcludedSchemeIsIgnored(t *testing.T) {
	c := newTestClassifier()
	r, _ := http.NewRequest("GET", "chrome-extension://abcdef/script.js", nil)
	if class := c.Classify(r); class != ClassIgnored {
		t.Fatalf("Extension request classified as %s", class)
	}
}

func TestApiPathSegment(t *testing.T) {
	c := newTestClassifier()
	r, _ := http.NewRequest("GET", "http://localhost/api/sessions/42", nil)
	if class := c.Classify(r); class != ClassAPI {
		t.Fatalf("API request classified as %s", class)
	}
}

func TestEverythingElseIsStatic(t *testing.T) {
	c := newTestClassifier()
	for _, uri := range []string{"/", "/index.html", "/assets/app.js", "/fonts/inter.woff2"} {
		r, _ := http.NewRequest("GET", "http://localhost"+uri, nil)
		if class := c.Classify(r); class != ClassStatic {
			t.Fatalf("%s classified as %s", uri, class)
		}
	}
}
