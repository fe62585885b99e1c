package tree

import (
	"context"

	"github.com/xxxsen/davcore/entity"
)

// ITree is the storage contract the protocol core runs against.
// Paths are slash separated and relative to the tree root, the root
// itself being the empty string.
//
// GetNodeInfo returns the queried node first (Name empty) and, when
// depth is non-zero and the node is a directory, its direct children.
// A missing node yields a daverr.KindNotFound error.
type ITree interface {
	GetNodeInfo(ctx context.Context, path string, depth int) ([]*entity.NodeInfo, error)
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, data []byte) (string, error)
	CreateFile(ctx context.Context, path string, data []byte) (string, error)
	CreateDirectory(ctx context.Context, path string) error
	Delete(ctx context.Context, path string) error
	Move(ctx context.Context, src, dst string) error
	Copy(ctx context.Context, src, dst string) error
}

// ILockTree is the optional lock capability. A tree that implements
// it gets LOCK/UNLOCK advertised and class 2 compliance; lock timeout
// expiry is the implementation's responsibility.
type ILockTree interface {
	GetLocks(ctx context.Context) ([]*entity.Lock, error)
	GetLockInfo(ctx context.Context, path string) ([]*entity.Lock, error)
	LockNode(ctx context.Context, path string, lk *entity.Lock) error
	UnlockNode(ctx context.Context, path string, lk *entity.Lock) error
}
