package dav

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xxxsen/davcore/tree/memtree"
)

const lockBody = `<?xml version="1.0" encoding="utf-8"?>
<D:lockinfo xmlns:D="DAV:">
  <D:lockscope><D:exclusive/></D:lockscope>
  <D:locktype><D:write/></D:locktype>
  <D:owner><D:href>mailto:user@example.com</D:href></D:owner>
</D:lockinfo>`

func lockToken(t *testing.T, rsp *Response) string {
	raw := rsp.Header.Get("Lock-Token")
	assert.NotEmpty(t, raw)
	return strings.TrimSuffix(strings.TrimPrefix(raw, "<"), ">")
}

func TestLockUnlockRoundTrip(t *testing.T) {
	ctx := context.Background()
	mt := memtree.New()
	d := NewDispatcher(mt)

	rsp := d.Dispatch(ctx, makeRequest("LOCK", "/a.txt", []byte(lockBody), map[string]string{"Timeout": "Second-600"}))
	assert.Equal(t, http.StatusOK, rsp.Status)
	token := lockToken(t, rsp)
	assert.True(t, strings.HasPrefix(token, "opaquelocktoken:"))
	body := string(rsp.Body)
	assert.Contains(t, body, "<D:activelock>")
	assert.Contains(t, body, "<D:exclusive>")
	assert.Contains(t, body, "Second-600")
	assert.Contains(t, body, token)
	assert.Contains(t, body, "mailto:user@example.com")

	locks, err := mt.GetLockInfo(ctx, "a.txt")
	assert.NoError(t, err)
	assert.Len(t, locks, 1)

	rsp = d.Dispatch(ctx, makeRequest("UNLOCK", "/a.txt", nil, map[string]string{"Lock-Token": "<" + token + ">"}))
	assert.Equal(t, http.StatusNoContent, rsp.Status)

	locks, err = mt.GetLockInfo(ctx, "a.txt")
	assert.NoError(t, err)
	assert.Empty(t, locks)
}

func TestLockConflict(t *testing.T) {
	ctx := context.Background()
	d := NewDispatcher(memtree.New())
	rsp := d.Dispatch(ctx, makeRequest("LOCK", "/a.txt", []byte(lockBody), nil))
	assert.Equal(t, http.StatusOK, rsp.Status)

	rsp = d.Dispatch(ctx, makeRequest("LOCK", "/a.txt", []byte(lockBody), nil))
	assert.Equal(t, http.StatusLocked, rsp.Status)
}

func TestLockRefreshKeepsToken(t *testing.T) {
	ctx := context.Background()
	d := NewDispatcher(memtree.New())
	rsp := d.Dispatch(ctx, makeRequest("LOCK", "/a.txt", []byte(lockBody), nil))
	assert.Equal(t, http.StatusOK, rsp.Status)
	token := lockToken(t, rsp)

	//bodyless refresh with the held token
	rsp = d.Dispatch(ctx, makeRequest("LOCK", "/a.txt", nil, map[string]string{
		"If":      "(<" + token + ">)",
		"Timeout": "Second-1200",
	}))
	assert.Equal(t, http.StatusOK, rsp.Status)
	assert.Equal(t, token, lockToken(t, rsp))
	assert.Contains(t, string(rsp.Body), "Second-1200")
}

func TestLockRefreshWithoutLock(t *testing.T) {
	d := NewDispatcher(memtree.New())
	//no body and no matching lock, nothing to refresh
	rsp := d.Dispatch(context.Background(), makeRequest("LOCK", "/a.txt", nil, nil))
	assert.Equal(t, http.StatusBadRequest, rsp.Status)
}

func TestLockedResourceBlocksPut(t *testing.T) {
	ctx := context.Background()
	d := NewDispatcher(memtree.New())
	rsp := d.Dispatch(ctx, makeRequest("LOCK", "/a.txt", []byte(lockBody), nil))
	token := lockToken(t, rsp)

	rsp = d.Dispatch(ctx, makeRequest("PUT", "/a.txt", []byte("x"), nil))
	assert.Equal(t, http.StatusLocked, rsp.Status)

	rsp = d.Dispatch(ctx, makeRequest("PUT", "/a.txt", []byte("x"), map[string]string{"If": "(<" + token + ">)"}))
	assert.Equal(t, http.StatusCreated, rsp.Status)
}

func TestUnlockMissingHeader(t *testing.T) {
	d := NewDispatcher(memtree.New())
	rsp := d.Dispatch(context.Background(), makeRequest("UNLOCK", "/a.txt", nil, nil))
	assert.Equal(t, http.StatusBadRequest, rsp.Status)
}

func TestUnlockUnknownToken(t *testing.T) {
	ctx := context.Background()
	d := NewDispatcher(memtree.New())
	d.Dispatch(ctx, makeRequest("LOCK", "/a.txt", []byte(lockBody), nil))
	rsp := d.Dispatch(ctx, makeRequest("UNLOCK", "/a.txt", nil, map[string]string{"Lock-Token": "<opaquelocktoken:wrong>"}))
	assert.Equal(t, http.StatusPreconditionFailed, rsp.Status)
}

func TestLockSharedScope(t *testing.T) {
	body := strings.Replace(lockBody, "exclusive", "shared", 2)
	d := NewDispatcher(memtree.New())
	rsp := d.Dispatch(context.Background(), makeRequest("LOCK", "/a.txt", []byte(body), nil))
	assert.Equal(t, http.StatusOK, rsp.Status)
	assert.Contains(t, string(rsp.Body), "<D:shared>")
}
