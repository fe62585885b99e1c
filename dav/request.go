package dav

import (
	"net/http"
	"net/url"
)

// FilePart is one uploaded file of a POST request, already decoded by
// the transport adapter.
type FilePart struct {
	Name string
	Data []byte
}

// Request is the transport-independent view of one WebDAV request.
// The transport adapter fills it in completely before dispatch; no
// handler reads ambient state.
type Request struct {
	Method string
	Path   string //raw request-uri path, prefix included
	Header http.Header
	Body   []byte

	//POST only, parsed by the transport adapter
	Parts []FilePart
	Form  url.Values
}

// Response is what a handler produces; the transport adapter writes
// it back to the wire.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func newResponse(status int) *Response {
	return &Response{
		Status: status,
		Header: make(http.Header),
	}
}
