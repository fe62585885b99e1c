package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/davcore/dao"
	"github.com/xxxsen/davcore/entity"
)

const (
	defaultMaxLockDaoCacheSize    = 4096
	defaultLockDaoCacheExpireTime = 5 * time.Second
)

// lockDao caches per path lock listings in front of the sqlite dao.
// The ttl is short so a stale listing only outlives a lock mutation
// done by another process briefly.
type lockDao struct {
	dao.ILockDao
	cache *lru.LRU[string, []*entity.LockTab]
}

func NewLockDao(impl dao.ILockDao) dao.ILockDao {
	return &lockDao{
		ILockDao: impl,
		cache:    lru.NewLRU[string, []*entity.LockTab](defaultMaxLockDaoCacheSize, nil, defaultLockDaoCacheExpireTime),
	}
}

func (l *lockDao) CreateLock(ctx context.Context, lk *entity.LockTab) error {
	defer l.cache.Remove(lk.NodePath)
	return l.ILockDao.CreateLock(ctx, lk)
}

func (l *lockDao) RefreshLock(ctx context.Context, token string, timeoutSeconds int64, expireAt int64) error {
	defer l.cache.Purge()
	return l.ILockDao.RefreshLock(ctx, token, timeoutSeconds, expireAt)
}

func (l *lockDao) RemoveLock(ctx context.Context, token string) error {
	defer l.cache.Purge()
	return l.ILockDao.RemoveLock(ctx, token)
}

func (l *lockDao) ListLocks(ctx context.Context, path string) ([]*entity.LockTab, error) {
	if path == "" {
		return l.ILockDao.ListLocks(ctx, path)
	}
	if rs, ok := l.cache.Get(path); ok {
		return rs, nil
	}
	rs, err := l.ILockDao.ListLocks(ctx, path)
	if err != nil {
		return nil, err
	}
	l.cache.Add(path, rs)
	return rs, nil
}

func (l *lockDao) RemoveExpired(ctx context.Context, now int64) error {
	defer l.cache.Purge()
	return l.ILockDao.RemoveExpired(ctx, now)
}
