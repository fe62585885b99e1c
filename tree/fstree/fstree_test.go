package fstree

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xxxsen/davcore/daverr"
)

func newTestTree(t *testing.T) *FSTree {
	ft, err := New(t.TempDir())
	assert.NoError(t, err)
	return ft
}

func TestNewRejectsBadRoot(t *testing.T) {
	_, err := New("/definitely/not/here")
	assert.Error(t, err)

	f := filepath.Join(t.TempDir(), "plain.txt")
	assert.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
	_, err = New(f)
	assert.Error(t, err)
}

func TestFileLifecycle(t *testing.T) {
	ctx := context.Background()
	ft := newTestTree(t)

	etag, err := ft.CreateFile(ctx, "a.txt", []byte("v1"))
	assert.NoError(t, err)
	assert.NotEmpty(t, etag)

	data, err := ft.Get(ctx, "a.txt")
	assert.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)

	_, err = ft.CreateFile(ctx, "a.txt", []byte("v2"))
	assert.Equal(t, daverr.KindConflict, daverr.KindOf(err))

	etag2, err := ft.Put(ctx, "a.txt", []byte("v2"))
	assert.NoError(t, err)
	assert.NotEqual(t, etag, etag2)
	data, err = ft.Get(ctx, "a.txt")
	assert.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)

	assert.NoError(t, ft.Delete(ctx, "a.txt"))
	_, err = ft.Get(ctx, "a.txt")
	assert.True(t, daverr.IsNotFound(err))
}

func TestPathEscapeRejected(t *testing.T) {
	ctx := context.Background()
	ft := newTestTree(t)
	_, err := ft.Get(ctx, "../outside.txt")
	assert.Equal(t, daverr.KindBadRequest, daverr.KindOf(err))
	_, err = ft.Put(ctx, "a/../../b.txt", []byte("x"))
	assert.Equal(t, daverr.KindBadRequest, daverr.KindOf(err))
}

func TestWriteWithoutParent(t *testing.T) {
	ctx := context.Background()
	ft := newTestTree(t)
	_, err := ft.CreateFile(ctx, "no/sub/a.txt", []byte("x"))
	assert.Equal(t, daverr.KindConflict, daverr.KindOf(err))
}

func TestGetNodeInfoListing(t *testing.T) {
	ctx := context.Background()
	ft := newTestTree(t)
	assert.NoError(t, ft.CreateDirectory(ctx, "docs"))
	_, err := ft.CreateFile(ctx, "docs/a.txt", []byte("aa"))
	assert.NoError(t, err)

	infos, err := ft.GetNodeInfo(ctx, "docs", 1)
	assert.NoError(t, err)
	assert.Len(t, infos, 2)
	assert.Equal(t, "", infos[0].Name)
	assert.True(t, infos[0].IsDir())
	assert.Equal(t, "a.txt", infos[1].Name)
	assert.Equal(t, int64(2), infos[1].Size)
	assert.NotZero(t, infos[1].Mtime)

	_, err = ft.GetNodeInfo(ctx, "missing", 0)
	assert.True(t, daverr.IsNotFound(err))
}

func TestMove(t *testing.T) {
	ctx := context.Background()
	ft := newTestTree(t)
	_, err := ft.CreateFile(ctx, "a.txt", []byte("x"))
	assert.NoError(t, err)
	assert.NoError(t, ft.CreateDirectory(ctx, "dir"))

	assert.NoError(t, ft.Move(ctx, "a.txt", "dir/b.txt"))
	_, err = ft.Get(ctx, "a.txt")
	assert.True(t, daverr.IsNotFound(err))
	data, err := ft.Get(ctx, "dir/b.txt")
	assert.NoError(t, err)
	assert.Equal(t, []byte("x"), data)

	assert.True(t, daverr.IsNotFound(ft.Move(ctx, "nope.txt", "dir/c.txt")))
}

func TestCopyDirectoryRecursive(t *testing.T) {
	ctx := context.Background()
	ft := newTestTree(t)
	assert.NoError(t, ft.CreateDirectory(ctx, "src"))
	assert.NoError(t, ft.CreateDirectory(ctx, "src/sub"))
	_, err := ft.CreateFile(ctx, "src/a.txt", []byte("a"))
	assert.NoError(t, err)
	_, err = ft.CreateFile(ctx, "src/sub/b.txt", []byte("b"))
	assert.NoError(t, err)

	assert.NoError(t, ft.Copy(ctx, "src", "dst"))
	data, err := ft.Get(ctx, "dst/a.txt")
	assert.NoError(t, err)
	assert.Equal(t, []byte("a"), data)
	data, err = ft.Get(ctx, "dst/sub/b.txt")
	assert.NoError(t, err)
	assert.Equal(t, []byte("b"), data)

	//source survives the copy
	_, err = ft.Get(ctx, "src/a.txt")
	assert.NoError(t, err)
}

func TestGetReturnsIndependentCopies(t *testing.T) {
	ctx := context.Background()
	ft := newTestTree(t)
	_, err := ft.CreateFile(ctx, "a.txt", []byte("hello world"))
	assert.NoError(t, err)

	first, err := ft.Get(ctx, "a.txt")
	assert.NoError(t, err)
	//second read comes from the cache, mutating it must not leak back
	second, err := ft.Get(ctx, "a.txt")
	assert.NoError(t, err)
	copy(second, "HELLO")

	assert.Equal(t, []byte("hello world"), first)
	third, err := ft.Get(ctx, "a.txt")
	assert.NoError(t, err)
	assert.Equal(t, []byte("hello world"), third)
}

func TestGetOnDirectory(t *testing.T) {
	ctx := context.Background()
	ft := newTestTree(t)
	assert.NoError(t, ft.CreateDirectory(ctx, "dir"))
	_, err := ft.Get(ctx, "dir")
	assert.Equal(t, daverr.KindConflict, daverr.KindOf(err))
}

func TestSmallCacheSize(t *testing.T) {
	ft, err := New(t.TempDir(), WithCacheSize(1024))
	assert.NoError(t, err)
	ctx := context.Background()
	_, err = ft.CreateFile(ctx, "a.txt", []byte("x"))
	assert.NoError(t, err)
	data, err := ft.Get(ctx, "a.txt")
	assert.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}

func TestCacheInvalidationOnWrite(t *testing.T) {
	ctx := context.Background()
	ft := newTestTree(t)
	_, err := ft.CreateFile(ctx, "a.txt", []byte("v1"))
	assert.NoError(t, err)
	_, err = ft.Get(ctx, "a.txt")
	assert.NoError(t, err)

	_, err = ft.Put(ctx, "a.txt", []byte("v2"))
	assert.NoError(t, err)
	data, err := ft.Get(ctx, "a.txt")
	assert.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
}
