package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/xxxsen/davcore/tree/memtree"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	opts = append([]Option{WithTree(memtree.New())}, opts...)
	svr, err := New("127.0.0.1:0", opts...)
	assert.NoError(t, err)
	engine := gin.New()
	svr.RegisterRoutes(engine.Group(svr.c.prefix))
	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, client *http.Client, method string, url string, body []byte, headers map[string]string) *http.Response {
	var rd *bytes.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rd)
	assert.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rsp, err := client.Do(req)
	assert.NoError(t, err)
	return rsp
}

func TestServerPutGetDelete(t *testing.T) {
	ts := newTestServer(t)
	client := ts.Client()

	rsp := doRequest(t, client, http.MethodPut, ts.URL+"/a.txt", []byte("hello"), nil)
	assert.Equal(t, http.StatusCreated, rsp.StatusCode)
	assert.NotEmpty(t, rsp.Header.Get("ETag"))
	rsp.Body.Close()

	rsp = doRequest(t, client, http.MethodGet, ts.URL+"/a.txt", nil, nil)
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(rsp.Body)
	rsp.Body.Close()
	assert.Equal(t, "hello", buf.String())

	rsp = doRequest(t, client, http.MethodDelete, ts.URL+"/a.txt", nil, nil)
	assert.Equal(t, http.StatusNoContent, rsp.StatusCode)
	rsp.Body.Close()

	rsp = doRequest(t, client, http.MethodGet, ts.URL+"/a.txt", nil, nil)
	assert.Equal(t, http.StatusNotFound, rsp.StatusCode)
	rsp.Body.Close()
}

func TestServerDavMethods(t *testing.T) {
	ts := newTestServer(t)
	client := ts.Client()

	rsp := doRequest(t, client, "MKCOL", ts.URL+"/docs", nil, nil)
	assert.Equal(t, http.StatusCreated, rsp.StatusCode)
	rsp.Body.Close()

	rsp = doRequest(t, client, http.MethodPut, ts.URL+"/docs/a.txt", []byte("abc"), nil)
	assert.Equal(t, http.StatusCreated, rsp.StatusCode)
	rsp.Body.Close()

	rsp = doRequest(t, client, "PROPFIND", ts.URL+"/docs", nil, map[string]string{"Depth": "1"})
	assert.Equal(t, http.StatusMultiStatus, rsp.StatusCode)
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(rsp.Body)
	rsp.Body.Close()
	assert.Contains(t, buf.String(), "<D:href>/docs/a.txt</D:href>")

	rsp = doRequest(t, client, "COPY", ts.URL+"/docs/a.txt", nil, map[string]string{"Destination": "/docs/b.txt"})
	assert.Equal(t, http.StatusCreated, rsp.StatusCode)
	rsp.Body.Close()

	rsp = doRequest(t, client, "OPTIONS", ts.URL+"/", nil, nil)
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Equal(t, "1,2", rsp.Header.Get("DAV"))
	rsp.Body.Close()
}

func TestServerLockFlow(t *testing.T) {
	ts := newTestServer(t)
	client := ts.Client()
	lockBody := `<?xml version="1.0" encoding="utf-8"?>
<D:lockinfo xmlns:D="DAV:">
  <D:lockscope><D:exclusive/></D:lockscope>
  <D:locktype><D:write/></D:locktype>
  <D:owner><D:href>mailto:user@example.com</D:href></D:owner>
</D:lockinfo>`

	rsp := doRequest(t, client, "LOCK", ts.URL+"/a.txt", []byte(lockBody), nil)
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	token := rsp.Header.Get("Lock-Token")
	assert.NotEmpty(t, token)
	rsp.Body.Close()

	rsp = doRequest(t, client, http.MethodPut, ts.URL+"/a.txt", []byte("x"), nil)
	assert.Equal(t, http.StatusLocked, rsp.StatusCode)
	rsp.Body.Close()

	rsp = doRequest(t, client, http.MethodPut, ts.URL+"/a.txt", []byte("x"), map[string]string{"If": "(" + token + ")"})
	assert.Equal(t, http.StatusCreated, rsp.StatusCode)
	rsp.Body.Close()

	rsp = doRequest(t, client, "UNLOCK", ts.URL+"/a.txt", nil, map[string]string{"Lock-Token": token})
	assert.Equal(t, http.StatusNoContent, rsp.StatusCode)
	rsp.Body.Close()
}

func TestServerPatchExtension(t *testing.T) {
	ts := newTestServer(t, WithEnablePatch(true))
	client := ts.Client()

	rsp := doRequest(t, client, http.MethodPut, ts.URL+"/a.txt", []byte("hello world"), nil)
	assert.Equal(t, http.StatusCreated, rsp.StatusCode)
	rsp.Body.Close()

	rsp = doRequest(t, client, "PATCH", ts.URL+"/a.txt", []byte("HELLO"), map[string]string{
		"Content-Type":   "application/x-sabredav-partialupdate",
		"X-Update-Range": "bytes=0-4",
	})
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	rsp.Body.Close()

	rsp = doRequest(t, client, http.MethodGet, ts.URL+"/a.txt", nil, nil)
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(rsp.Body)
	rsp.Body.Close()
	assert.Equal(t, "HELLO world", buf.String())
}

func TestServerPostMultipart(t *testing.T) {
	ts := newTestServer(t)
	client := ts.Client()

	rsp := doRequest(t, client, "MKCOL", ts.URL+"/up", nil, nil)
	assert.Equal(t, http.StatusCreated, rsp.StatusCode)
	rsp.Body.Close()

	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	fw, err := w.CreateFormFile("file", "note.txt")
	assert.NoError(t, err)
	_, _ = fw.Write([]byte("content"))
	assert.NoError(t, w.WriteField("redirectUrl", "/done"))
	assert.NoError(t, w.Close())

	rsp = doRequest(t, client, http.MethodPost, ts.URL+"/up", buf.Bytes(), map[string]string{
		"Content-Type": w.FormDataContentType(),
	})
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Equal(t, "/done", rsp.Header.Get("Location"))
	rsp.Body.Close()

	rsp = doRequest(t, client, http.MethodGet, ts.URL+"/up/note.txt", nil, nil)
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	out := new(bytes.Buffer)
	_, _ = out.ReadFrom(rsp.Body)
	rsp.Body.Close()
	assert.Equal(t, "content", out.String())
}

func TestServerPostMultipartStableFieldOrder(t *testing.T) {
	ts := newTestServer(t)
	client := ts.Client()

	rsp := doRequest(t, client, "MKCOL", ts.URL+"/up", nil, nil)
	assert.Equal(t, http.StatusCreated, rsp.StatusCode)
	rsp.Body.Close()

	//two file fields, written in reverse field-name order; only the
	//first gathered part is stored and that must not depend on map
	//iteration order
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	fw, err := w.CreateFormFile("zfield", "second.txt")
	assert.NoError(t, err)
	_, _ = fw.Write([]byte("second"))
	fw, err = w.CreateFormFile("afield", "first.txt")
	assert.NoError(t, err)
	_, _ = fw.Write([]byte("first"))
	assert.NoError(t, w.Close())

	rsp = doRequest(t, client, http.MethodPost, ts.URL+"/up", buf.Bytes(), map[string]string{
		"Content-Type": w.FormDataContentType(),
	})
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	rsp.Body.Close()

	rsp = doRequest(t, client, http.MethodGet, ts.URL+"/up/first.txt", nil, nil)
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	rsp.Body.Close()
	rsp = doRequest(t, client, http.MethodGet, ts.URL+"/up/second.txt", nil, nil)
	assert.Equal(t, http.StatusNotFound, rsp.StatusCode)
	rsp.Body.Close()
}

func TestServerWithPrefix(t *testing.T) {
	ts := newTestServer(t, WithPrefix("/dav"))
	client := ts.Client()

	rsp := doRequest(t, client, http.MethodPut, ts.URL+"/dav/a.txt", []byte("x"), nil)
	assert.Equal(t, http.StatusCreated, rsp.StatusCode)
	rsp.Body.Close()

	rsp = doRequest(t, client, http.MethodGet, ts.URL+"/dav/a.txt", nil, nil)
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	rsp.Body.Close()
}
