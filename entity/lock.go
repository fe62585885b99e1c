package entity

const (
	LockScopeExclusive = "exclusive"
	LockScopeShared    = "shared"
)

const (
	DepthZero     = 0
	DepthInfinity = -1
)

// TimeoutInfinite marks a lock that never expires on its own.
const TimeoutInfinite int64 = -1

type Lock struct {
	Token   string `json:"token"`
	Scope   string `json:"scope"`
	Owner   string `json:"owner"`
	Timeout int64  `json:"timeout"` //seconds
	Depth   int    `json:"depth"`
}

// LockTab is the sqlite row layout backing persisted locks.
type LockTab struct {
	Id             uint64 `json:"id"`
	LockToken      string `json:"lock_token"`
	NodePath       string `json:"node_path"`
	LockScope      string `json:"lock_scope"`
	LockOwner      string `json:"lock_owner"`
	LockDepth      int    `json:"lock_depth"`
	TimeoutSeconds int64  `json:"timeout_seconds"`
	Ctime          int64  `json:"ctime"`
	Mtime          int64  `json:"mtime"`
	ExpireAt       int64  `json:"expire_at"`
}
