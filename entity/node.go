package entity

const (
	NodeKindFile      int32 = 1
	NodeKindDirectory int32 = 2
)

// NodeInfo describes a single node as reported by a tree backend.
// For the queried node itself Name is empty; listing entries carry
// the child's relative name.
type NodeInfo struct {
	Name  string `json:"name"`
	Kind  int32  `json:"kind"`
	Size  int64  `json:"size"`
	Mtime int64  `json:"mtime"` //unix milli, 0 when the backend has no timestamp
}

func (n *NodeInfo) IsDir() bool {
	return n.Kind == NodeKindDirectory
}
