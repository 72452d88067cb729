package cachekey

import (
	"net/http"
	"testing"
)

func TestKeyContainsMethodAndUri(t *testing.T) {
	r, _ := http.NewRequest("GET", "http://dev.localhost/page?q=1", nil)
	if key := Key(r); key != "GET:/page?q=1" {
		t.Fatalf("Key is %s", key)
	}
}

func TestRequestFromKey(t *testing.T) {
	r, _ := http.NewRequest("GET", "http://dev.localhost/page", nil)
	key := Key(r)
	req, err := RequestFromKey(key)
	if err != nil {
		t.Fatalf("%s: %s", key, err)
	}
	if url := req.URL.String(); url != "/page" {
		t.Fatalf("Created request url for key %s is %s", key, url)
	}
	if req.Method != "GET" {
		t.Fatalf("Created request method is %s", req.Method)
	}
}

func TestRequestFromMalformedKey(t *testing.T) {
	if _, err := RequestFromKey("no-separator-here"); err == nil {
		t.Fatal("Expected error for malformed key")
	}
}
