package serializer

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestResponseToBytesBodyIntact(t *testing.T) {
	response := `HTTP/1.1 200 OK
Server: Test

This is the body`

	res, err := http.ReadResponse(bufio.NewReader(strings.NewReader(response)), nil)
	if err != nil {
		panic(err)
	}

	_, err = ResponseToBytes(res)
	if err != nil {
		t.Fatalf("Error: %v", err)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("Error: %v", err)
	}
	if fmt.Sprintf("%s", body) != "This is the body" {
		t.Fatalf("Body: %s", body)
	}
}

func TestRoundTrip(t *testing.T) {
	response := `HTTP/1.1 404 Not Found
Content-Type: text/plain

nope`

	res, err := http.ReadResponse(bufio.NewReader(strings.NewReader(response)), nil)
	if err != nil {
		panic(err)
	}
	bts, err := ResponseToBytes(res)
	if err != nil {
		t.Fatalf("Error: %v", err)
	}

	res2, err := BytesToResponse(bts, nil)
	if err != nil {
		t.Fatalf("Error: %v", err)
	}
	if res2.StatusCode != 404 {
		t.Fatalf("Status is %d", res2.StatusCode)
	}
	if ct := res2.Header.Get("Content-Type"); ct != "text/plain" {
		t.Fatalf("Content-Type is %s", ct)
	}
	body, _ := io.ReadAll(res2.Body)
	if string(body) != "nope" {
		t.Fatalf("Body: %s", body)
	}
}
