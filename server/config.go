package server

import (
	"github.com/xxxsen/davcore/tree"
)

type config struct {
	prefix      string
	tree        tree.ITree
	userMap     map[string]string
	patchEnable bool
}

type Option func(c *config)

// WithPrefix mounts the dav routes under prefix instead of the root.
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

func WithTree(t tree.ITree) Option {
	return func(c *config) {
		c.tree = t
	}
}

// WithUser enables basic auth with the given user/password pairs; an
// empty map leaves the server open.
func WithUser(m map[string]string) Option {
	return func(c *config) {
		c.userMap = m
	}
}

// WithEnablePatch registers the partial update extension.
func WithEnablePatch(v bool) Option {
	return func(c *config) {
		c.patchEnable = v
	}
}

func applyOpts(opts ...Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
