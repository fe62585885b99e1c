package dao

import (
	"context"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/xxxsen/common/database"
	"github.com/xxxsen/common/database/dbkit"
	"github.com/xxxsen/davcore/entity"
)

type ILockDao interface {
	CreateLock(ctx context.Context, lk *entity.LockTab) error
	RefreshLock(ctx context.Context, token string, timeoutSeconds int64, expireAt int64) error
	RemoveLock(ctx context.Context, token string) error
	// ListLocks returns the unexpired locks on path; an empty path
	// lists every unexpired lock.
	ListLocks(ctx context.Context, path string) ([]*entity.LockTab, error)
	RemoveExpired(ctx context.Context, now int64) error
}

type lockDaoImpl struct {
	dbc database.IDatabase
}

func NewLockDao(dbc database.IDatabase) ILockDao {
	return &lockDaoImpl{
		dbc: dbc,
	}
}

func (l *lockDaoImpl) table() string {
	return "dav_lock_tab"
}

func (l *lockDaoImpl) CreateLock(ctx context.Context, lk *entity.LockTab) error {
	now := time.Now().UnixMilli()
	data := []map[string]interface{}{
		{
			"lock_token":      lk.LockToken,
			"node_path":       lk.NodePath,
			"lock_scope":      lk.LockScope,
			"lock_owner":      lk.LockOwner,
			"lock_depth":      lk.LockDepth,
			"timeout_seconds": lk.TimeoutSeconds,
			"ctime":           now,
			"mtime":           now,
			"expire_at":       lk.ExpireAt,
		},
	}
	sql, args, err := builder.BuildInsert(l.table(), data)
	if err != nil {
		return err
	}
	if _, err := l.dbc.ExecContext(ctx, sql, args...); err != nil {
		return err
	}
	return nil
}

func (l *lockDaoImpl) RefreshLock(ctx context.Context, token string, timeoutSeconds int64, expireAt int64) error {
	where := map[string]interface{}{
		"lock_token": token,
	}
	update := map[string]interface{}{
		"timeout_seconds": timeoutSeconds,
		"expire_at":       expireAt,
		"mtime":           time.Now().UnixMilli(),
	}
	sql, args, err := builder.BuildUpdate(l.table(), where, update)
	if err != nil {
		return err
	}
	if _, err := l.dbc.ExecContext(ctx, sql, args...); err != nil {
		return err
	}
	return nil
}

func (l *lockDaoImpl) RemoveLock(ctx context.Context, token string) error {
	where := map[string]interface{}{
		"lock_token": token,
	}
	sql, args, err := builder.BuildDelete(l.table(), where)
	if err != nil {
		return err
	}
	if _, err := l.dbc.ExecContext(ctx, sql, args...); err != nil {
		return err
	}
	return nil
}

func (l *lockDaoImpl) ListLocks(ctx context.Context, path string) ([]*entity.LockTab, error) {
	where := map[string]interface{}{
		"expire_at >": time.Now().UnixMilli(),
	}
	if path != "" {
		where["node_path"] = path
	}
	rs := make([]*entity.LockTab, 0, 4)
	if err := dbkit.SimpleQuery(ctx, l.dbc, l.table(), where, &rs, dbkit.ScanWithTagName("json")); err != nil {
		return nil, err
	}
	return rs, nil
}

func (l *lockDaoImpl) RemoveExpired(ctx context.Context, now int64) error {
	where := map[string]interface{}{
		"expire_at <=": now,
	}
	sql, args, err := builder.BuildDelete(l.table(), where)
	if err != nil {
		return err
	}
	if _, err := l.dbc.ExecContext(ctx, sql, args...); err != nil {
		return err
	}
	return nil
}
