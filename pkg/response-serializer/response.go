package serializer

import (
	"bufio"
	"bytes"
	"net/http"
)

// BytesToResponse converts a stored byte slice back into a http.Response.
// The bytes are the HTTP/1.1 wire representation of the response:
// status line, headers and body.
func BytesToResponse(b []byte, req *http.Request) (*http.Response, error) {
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(b)), req)
}

// ResponseToBytes converts a response to its HTTP/1.1 wire representation.
// The response body is replaced with a fresh reader, since serializing
// consumes the original body stream.
func ResponseToBytes(res *http.Response) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := res.Write(buf); err != nil {
		return nil, err
	}
	bts := buf.Bytes()
	clonedRes, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(bts)), res.Request)
	if err != nil {
		return nil, err
	}
	res.Body = clonedRes.Body
	return bts, nil
}
