package fstree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/xxxsen/davcore/daverr"
	"github.com/xxxsen/davcore/entity"
	"github.com/xxxsen/davcore/tree"
	"github.com/xxxsen/davcore/utils"
	"golang.org/x/sync/errgroup"
)

const (
	defaultCacheSize        = 16 * 1024 * 1024
	defaultCacheKeySizeMax  = 512 * 1024
	defaultCopyConcurrency  = 4
	defaultMinCacheCounters = 64
	defaultDirFileMode      = os.FileMode(0o755)
	defaultRegularFileMode  = os.FileMode(0o644)
)

var _ tree.ITree = (*FSTree)(nil)

type config struct {
	cacheSize int64
}

type Option func(c *config)

// WithCacheSize bounds the in memory read cache, in bytes. Zero
// disables the cache.
func WithCacheSize(size int64) Option {
	return func(c *config) {
		c.cacheSize = size
	}
}

// FSTree serves a directory of the local filesystem. File reads go
// through a ristretto cache keyed by tree path; every write to a path
// drops its entry.
type FSTree struct {
	root  string
	cache *ristretto.Cache[string, []byte]
}

func New(root string, opts ...Option) (*FSTree, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root failed, err:%w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}
	c := &config{cacheSize: defaultCacheSize}
	for _, opt := range opts {
		opt(c)
	}
	t := &FSTree{root: root}
	if c.cacheSize > 0 {
		counters := c.cacheSize / defaultCacheKeySizeMax * 10
		if counters < defaultMinCacheCounters {
			counters = defaultMinCacheCounters
		}
		cc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
			NumCounters: counters,
			MaxCost:     c.cacheSize,
			BufferItems: 64,
			Cost: func(value []byte) int64 {
				return int64(len(value))
			},
		})
		if err != nil {
			return nil, fmt.Errorf("create read cache failed, err:%w", err)
		}
		t.cache = cc
	}
	return t, nil
}

// location maps a tree path onto the backing filesystem, refusing
// anything that would escape the root.
func (t *FSTree) location(p string) (string, error) {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", daverr.Newf(daverr.KindBadRequest, "invalid path %q", p)
		}
	}
	return filepath.Join(t.root, filepath.FromSlash(p)), nil
}

func wrapOsError(p string, err error) error {
	if os.IsNotExist(err) {
		return daverr.Newf(daverr.KindNotFound, "node %q not found", p)
	}
	return err
}

func fileInfoToNode(name string, st os.FileInfo) *entity.NodeInfo {
	info := &entity.NodeInfo{
		Name:  name,
		Kind:  entity.NodeKindFile,
		Size:  st.Size(),
		Mtime: st.ModTime().UnixMilli(),
	}
	if st.IsDir() {
		info.Kind = entity.NodeKindDirectory
		info.Size = 0
	}
	return info
}

func (t *FSTree) GetNodeInfo(ctx context.Context, path string, depth int) ([]*entity.NodeInfo, error) {
	loc, err := t.location(path)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(loc)
	if err != nil {
		return nil, wrapOsError(path, err)
	}
	rs := []*entity.NodeInfo{fileInfoToNode("", st)}
	if depth == 0 || !st.IsDir() {
		return rs, nil
	}
	ents, err := os.ReadDir(loc)
	if err != nil {
		return nil, wrapOsError(path, err)
	}
	for _, ent := range ents {
		est, err := ent.Info()
		if err != nil {
			continue
		}
		rs = append(rs, fileInfoToNode(ent.Name(), est))
	}
	return rs, nil
}

func (t *FSTree) Get(ctx context.Context, path string) ([]byte, error) {
	loc, err := t.location(path)
	if err != nil {
		return nil, err
	}
	//cached slices are shared across calls, hand out copies only
	if t.cache != nil {
		if data, ok := t.cache.Get(path); ok {
			cp := make([]byte, len(data))
			copy(cp, data)
			return cp, nil
		}
	}
	st, err := os.Stat(loc)
	if err != nil {
		return nil, wrapOsError(path, err)
	}
	if st.IsDir() {
		return nil, daverr.Newf(daverr.KindConflict, "node %q is a directory", path)
	}
	data, err := os.ReadFile(loc)
	if err != nil {
		return nil, wrapOsError(path, err)
	}
	if t.cache != nil && len(data) <= defaultCacheKeySizeMax {
		cp := make([]byte, len(data))
		copy(cp, data)
		t.cache.Set(path, cp, int64(len(cp)))
	}
	return data, nil
}

func (t *FSTree) Put(ctx context.Context, path string, data []byte) (string, error) {
	return t.writeFile(path, data, false)
}

func (t *FSTree) CreateFile(ctx context.Context, path string, data []byte) (string, error) {
	return t.writeFile(path, data, true)
}

func (t *FSTree) writeFile(path string, data []byte, create bool) (string, error) {
	loc, err := t.location(path)
	if err != nil {
		return "", err
	}
	st, err := os.Stat(loc)
	if err == nil {
		if st.IsDir() {
			return "", daverr.Newf(daverr.KindConflict, "node %q is a directory", path)
		}
		if create {
			return "", daverr.Newf(daverr.KindConflict, "node %q already exists", path)
		}
	}
	if _, err := os.Stat(filepath.Dir(loc)); err != nil {
		return "", daverr.Wrap(daverr.KindConflict, err, "parent directory missing")
	}
	if err := os.WriteFile(loc, data, defaultRegularFileMode); err != nil {
		return "", wrapOsError(path, err)
	}
	t.dropCache(path)
	return utils.EtagOf(data), nil
}

func (t *FSTree) CreateDirectory(ctx context.Context, path string) error {
	loc, err := t.location(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(loc); err == nil {
		return daverr.Newf(daverr.KindConflict, "node %q already exists", path)
	}
	if _, err := os.Stat(filepath.Dir(loc)); err != nil {
		return daverr.Wrap(daverr.KindConflict, err, "parent directory missing")
	}
	if err := os.Mkdir(loc, defaultDirFileMode); err != nil {
		return wrapOsError(path, err)
	}
	return nil
}

func (t *FSTree) Delete(ctx context.Context, path string) error {
	loc, err := t.location(path)
	if err != nil {
		return err
	}
	st, err := os.Stat(loc)
	if err != nil {
		return wrapOsError(path, err)
	}
	if err := os.RemoveAll(loc); err != nil {
		return wrapOsError(path, err)
	}
	if st.IsDir() {
		t.clearCache()
	} else {
		t.dropCache(path)
	}
	return nil
}

func (t *FSTree) Move(ctx context.Context, src, dst string) error {
	srcLoc, err := t.location(src)
	if err != nil {
		return err
	}
	dstLoc, err := t.location(dst)
	if err != nil {
		return err
	}
	if _, err := os.Stat(srcLoc); err != nil {
		return wrapOsError(src, err)
	}
	if err := os.RemoveAll(dstLoc); err != nil {
		return wrapOsError(dst, err)
	}
	if err := os.Rename(srcLoc, dstLoc); err != nil {
		return wrapOsError(src, err)
	}
	t.clearCache()
	return nil
}

func (t *FSTree) Copy(ctx context.Context, src, dst string) error {
	srcLoc, err := t.location(src)
	if err != nil {
		return err
	}
	dstLoc, err := t.location(dst)
	if err != nil {
		return err
	}
	st, err := os.Stat(srcLoc)
	if err != nil {
		return wrapOsError(src, err)
	}
	if err := os.RemoveAll(dstLoc); err != nil {
		return wrapOsError(dst, err)
	}
	if !st.IsDir() {
		if err := copyFile(srcLoc, dstLoc); err != nil {
			return err
		}
		t.dropCache(dst)
		return nil
	}
	if err := copyDir(ctx, srcLoc, dstLoc); err != nil {
		return err
	}
	t.clearCache()
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, defaultRegularFileMode)
}

// copyDir recreates the directory skeleton first, then copies file
// content concurrently.
func copyDir(ctx context.Context, src, dst string) error {
	var files [][2]string
	err := filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, defaultDirFileMode)
		}
		files = append(files, [2]string{p, target})
		return nil
	})
	if err != nil {
		return err
	}
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(defaultCopyConcurrency)
	for _, item := range files {
		item := item
		eg.Go(func() error {
			return copyFile(item[0], item[1])
		})
	}
	return eg.Wait()
}

func (t *FSTree) dropCache(path string) {
	if t.cache != nil {
		t.cache.Del(path)
	}
}

func (t *FSTree) clearCache() {
	if t.cache != nil {
		t.cache.Clear()
	}
}
