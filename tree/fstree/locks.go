package fstree

import (
	"context"
	"math"
	"time"

	"github.com/xxxsen/davcore/dao"
	"github.com/xxxsen/davcore/entity"
	"github.com/xxxsen/davcore/tree"
)

var (
	_ tree.ITree     = (*LockedFSTree)(nil)
	_ tree.ILockTree = (*LockedFSTree)(nil)
)

// LockedFSTree adds dao backed lock support on top of FSTree. Lock
// state lives in sqlite so it survives restarts; expiry is enforced by
// the dao's listing filter plus a periodic sweep.
type LockedFSTree struct {
	*FSTree
	lockDao dao.ILockDao
}

func WithLocks(t *FSTree, d dao.ILockDao) *LockedFSTree {
	return &LockedFSTree{FSTree: t, lockDao: d}
}

// locks are keyed by a slash prefixed node path so the tree root ("")
// never collides with the dao's list-all sentinel.
func lockKey(path string) string {
	return "/" + path
}

func lockExpireAt(lk *entity.Lock) int64 {
	if lk.Timeout == entity.TimeoutInfinite {
		return math.MaxInt64
	}
	return time.Now().UnixMilli() + lk.Timeout*1000
}

func tabToLock(tab *entity.LockTab) *entity.Lock {
	return &entity.Lock{
		Token:   tab.LockToken,
		Scope:   tab.LockScope,
		Owner:   tab.LockOwner,
		Timeout: tab.TimeoutSeconds,
		Depth:   tab.LockDepth,
	}
}

func (t *LockedFSTree) GetLocks(ctx context.Context) ([]*entity.Lock, error) {
	tabs, err := t.lockDao.ListLocks(ctx, "")
	if err != nil {
		return nil, err
	}
	rs := make([]*entity.Lock, 0, len(tabs))
	for _, tab := range tabs {
		rs = append(rs, tabToLock(tab))
	}
	return rs, nil
}

func (t *LockedFSTree) GetLockInfo(ctx context.Context, path string) ([]*entity.Lock, error) {
	tabs, err := t.lockDao.ListLocks(ctx, lockKey(path))
	if err != nil {
		return nil, err
	}
	rs := make([]*entity.Lock, 0, len(tabs))
	for _, tab := range tabs {
		rs = append(rs, tabToLock(tab))
	}
	return rs, nil
}

func (t *LockedFSTree) LockNode(ctx context.Context, path string, lk *entity.Lock) error {
	tabs, err := t.lockDao.ListLocks(ctx, lockKey(path))
	if err != nil {
		return err
	}
	for _, tab := range tabs {
		if tab.LockToken == lk.Token {
			return t.lockDao.RefreshLock(ctx, lk.Token, lk.Timeout, lockExpireAt(lk))
		}
	}
	return t.lockDao.CreateLock(ctx, &entity.LockTab{
		LockToken:      lk.Token,
		NodePath:       lockKey(path),
		LockScope:      lk.Scope,
		LockOwner:      lk.Owner,
		LockDepth:      lk.Depth,
		TimeoutSeconds: lk.Timeout,
		ExpireAt:       lockExpireAt(lk),
	})
}

func (t *LockedFSTree) UnlockNode(ctx context.Context, path string, lk *entity.Lock) error {
	return t.lockDao.RemoveLock(ctx, lk.Token)
}

// SweepExpired removes rows whose deadline already passed. Callers
// usually run it on a ticker.
func (t *LockedFSTree) SweepExpired(ctx context.Context) error {
	return t.lockDao.RemoveExpired(ctx, time.Now().UnixMilli())
}
