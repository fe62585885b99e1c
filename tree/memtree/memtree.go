package memtree

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/davcore/daverr"
	"github.com/xxxsen/davcore/entity"
	"github.com/xxxsen/davcore/tree"
	"github.com/xxxsen/davcore/utils"
)

var (
	_ tree.ITree     = (*MemTree)(nil)
	_ tree.ILockTree = (*MemTree)(nil)
)

type node struct {
	name     string
	dir      bool
	data     []byte
	mtime    int64
	children map[string]*node
}

func (n *node) info() *entity.NodeInfo {
	kind := entity.NodeKindFile
	if n.dir {
		kind = entity.NodeKindDirectory
	}
	return &entity.NodeInfo{
		Name:  n.name,
		Kind:  kind,
		Size:  int64(len(n.data)),
		Mtime: n.mtime,
	}
}

type memLock struct {
	lk       *entity.Lock
	expireAt int64
}

// MemTree is an in memory tree with lock support, mainly for tests and
// quick local serving. All data lives in process memory.
type MemTree struct {
	mu    sync.RWMutex
	root  *node
	locks map[string][]*memLock
}

func New() *MemTree {
	return &MemTree{
		root:  &node{dir: true, mtime: time.Now().UnixMilli(), children: make(map[string]*node)},
		locks: make(map[string][]*memLock),
	}
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func (t *MemTree) lookup(p string) (*node, error) {
	cur := t.root
	for _, seg := range splitPath(p) {
		if !cur.dir {
			return nil, daverr.Newf(daverr.KindNotFound, "node %q not found", p)
		}
		next, ok := cur.children[seg]
		if !ok {
			return nil, daverr.Newf(daverr.KindNotFound, "node %q not found", p)
		}
		cur = next
	}
	return cur, nil
}

func (t *MemTree) lookupParent(p string) (*node, string, error) {
	segs := splitPath(p)
	if len(segs) == 0 {
		return nil, "", daverr.New(daverr.KindBadRequest, "empty path")
	}
	parent, err := t.lookup(strings.Join(segs[:len(segs)-1], "/"))
	if err != nil {
		return nil, "", err
	}
	if !parent.dir {
		return nil, "", daverr.Newf(daverr.KindConflict, "parent of %q is not a directory", p)
	}
	return parent, segs[len(segs)-1], nil
}

func (t *MemTree) GetNodeInfo(ctx context.Context, path string, depth int) ([]*entity.NodeInfo, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.lookup(path)
	if err != nil {
		return nil, err
	}
	self := n.info()
	self.Name = ""
	rs := []*entity.NodeInfo{self}
	if depth == 0 || !n.dir {
		return rs, nil
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rs = append(rs, n.children[name].info())
	}
	return rs, nil
}

func (t *MemTree) Get(ctx context.Context, path string) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.lookup(path)
	if err != nil {
		return nil, err
	}
	if n.dir {
		return nil, daverr.Newf(daverr.KindConflict, "node %q is a directory", path)
	}
	data := make([]byte, len(n.data))
	copy(data, n.data)
	return data, nil
}

func (t *MemTree) Put(ctx context.Context, path string, data []byte) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeFile(path, data, false)
}

func (t *MemTree) CreateFile(ctx context.Context, path string, data []byte) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeFile(path, data, true)
}

func (t *MemTree) writeFile(path string, data []byte, create bool) (string, error) {
	parent, name, err := t.lookupParent(path)
	if err != nil {
		return "", err
	}
	n, ok := parent.children[name]
	if ok {
		if n.dir {
			return "", daverr.Newf(daverr.KindConflict, "node %q is a directory", path)
		}
		if create {
			return "", daverr.Newf(daverr.KindConflict, "node %q already exists", path)
		}
	} else {
		n = &node{name: name}
		parent.children[name] = n
	}
	n.data = make([]byte, len(data))
	copy(n.data, data)
	n.mtime = time.Now().UnixMilli()
	return utils.EtagOf(data), nil
}

func (t *MemTree) CreateDirectory(ctx context.Context, path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	parent, name, err := t.lookupParent(path)
	if err != nil {
		return err
	}
	if _, ok := parent.children[name]; ok {
		return daverr.Newf(daverr.KindConflict, "node %q already exists", path)
	}
	parent.children[name] = &node{
		name:     name,
		dir:      true,
		mtime:    time.Now().UnixMilli(),
		children: make(map[string]*node),
	}
	return nil
}

func (t *MemTree) Delete(ctx context.Context, path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	parent, name, err := t.lookupParent(path)
	if err != nil {
		return err
	}
	if _, ok := parent.children[name]; !ok {
		return daverr.Newf(daverr.KindNotFound, "node %q not found", path)
	}
	delete(parent.children, name)
	return nil
}

func (t *MemTree) Move(ctx context.Context, src, dst string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	srcParent, srcName, err := t.lookupParent(src)
	if err != nil {
		return err
	}
	n, ok := srcParent.children[srcName]
	if !ok {
		return daverr.Newf(daverr.KindNotFound, "node %q not found", src)
	}
	dstParent, dstName, err := t.lookupParent(dst)
	if err != nil {
		return err
	}
	delete(srcParent.children, srcName)
	n.name = dstName
	dstParent.children[dstName] = n
	return nil
}

func (t *MemTree) Copy(ctx context.Context, src, dst string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := t.lookup(src)
	if err != nil {
		return err
	}
	dstParent, dstName, err := t.lookupParent(dst)
	if err != nil {
		return err
	}
	dstParent.children[dstName] = cloneNode(n, dstName)
	return nil
}

func cloneNode(n *node, name string) *node {
	cp := &node{
		name:  name,
		dir:   n.dir,
		mtime: time.Now().UnixMilli(),
	}
	if n.dir {
		cp.children = make(map[string]*node, len(n.children))
		for cname, child := range n.children {
			cp.children[cname] = cloneNode(child, cname)
		}
		return cp
	}
	cp.data = make([]byte, len(n.data))
	copy(cp.data, n.data)
	return cp
}

func lockDeadline(lk *entity.Lock) int64 {
	if lk.Timeout == entity.TimeoutInfinite {
		return math.MaxInt64
	}
	return time.Now().UnixMilli() + lk.Timeout*1000
}

func (t *MemTree) pruneExpiredLocked(path string, now int64) []*memLock {
	locks := t.locks[path]
	alive := locks[:0]
	for _, ml := range locks {
		if ml.expireAt > now {
			alive = append(alive, ml)
		}
	}
	if len(alive) == 0 {
		delete(t.locks, path)
		return nil
	}
	t.locks[path] = alive
	return alive
}

func (t *MemTree) GetLocks(ctx context.Context) ([]*entity.Lock, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now().UnixMilli()
	var rs []*entity.Lock
	for path := range t.locks {
		for _, ml := range t.pruneExpiredLocked(path, now) {
			rs = append(rs, ml.lk)
		}
	}
	return rs, nil
}

func (t *MemTree) GetLockInfo(ctx context.Context, path string) ([]*entity.Lock, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var rs []*entity.Lock
	for _, ml := range t.pruneExpiredLocked(path, time.Now().UnixMilli()) {
		rs = append(rs, ml.lk)
	}
	return rs, nil
}

func (t *MemTree) LockNode(ctx context.Context, path string, lk *entity.Lock) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	locks := t.pruneExpiredLocked(path, time.Now().UnixMilli())
	for _, ml := range locks {
		if ml.lk.Token == lk.Token {
			// refresh
			ml.lk = lk
			ml.expireAt = lockDeadline(lk)
			return nil
		}
	}
	t.locks[path] = append(locks, &memLock{lk: lk, expireAt: lockDeadline(lk)})
	return nil
}

func (t *MemTree) UnlockNode(ctx context.Context, path string, lk *entity.Lock) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	locks := t.pruneExpiredLocked(path, time.Now().UnixMilli())
	for i, ml := range locks {
		if ml.lk.Token != lk.Token {
			continue
		}
		locks = append(locks[:i], locks[i+1:]...)
		if len(locks) == 0 {
			delete(t.locks, path)
			return nil
		}
		t.locks[path] = locks
		return nil
	}
	return daverr.Newf(daverr.KindPreconditionFailed, "no lock with token %q on %q", lk.Token, path)
}
