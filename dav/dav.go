package dav

import (
	"context"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davcore/daverr"
	"github.com/xxxsen/davcore/tree"
	"go.uber.org/zap"
)

// Handler is one dispatchable method implementation. Extensions such
// as the partial update handler satisfy the same interface as the
// built-in methods.
type Handler interface {
	Method() string
	Handle(ctx context.Context, req *Request) (*Response, error)
}

type handlerFunc func(ctx context.Context, req *Request) (*Response, error)

type Dispatcher struct {
	tree     tree.ITree
	locks    tree.ILockTree //nil when the tree has no lock capability
	prefix   string
	handlers map[string]handlerFunc
}

type Option func(d *Dispatcher)

// WithPrefix sets the base uri stripped from every request path.
func WithPrefix(prefix string) Option {
	return func(d *Dispatcher) {
		d.prefix = strings.TrimSuffix(prefix, "/")
	}
}

// WithExtension registers an extra method handler; it overrides a
// built-in handler of the same name.
func WithExtension(h Handler) Option {
	return func(d *Dispatcher) {
		d.handlers[strings.ToLower(h.Method())] = h.Handle
	}
}

func NewDispatcher(t tree.ITree, opts ...Option) *Dispatcher {
	d := &Dispatcher{tree: t}
	if lt, ok := t.(tree.ILockTree); ok {
		d.locks = lt
	}
	d.handlers = map[string]handlerFunc{
		"options":   d.handleOptions,
		"get":       d.handleGet,
		"head":      d.handleHead,
		"post":      d.handlePost,
		"delete":    d.handleDelete,
		"put":       d.handlePut,
		"mkcol":     d.handleMkcol,
		"propfind":  d.handlePropfind,
		"proppatch": d.handleProppatch,
		"copy":      d.handleCopy,
		"move":      d.handleMove,
	}
	if d.locks != nil {
		d.handlers["lock"] = d.handleLock
		d.handlers["unlock"] = d.handleUnlock
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SupportsLocks reports whether the backing tree carries the lock
// capability.
func (d *Dispatcher) SupportsLocks() bool {
	return d.locks != nil
}

// AllowedMethods returns the uppercase method set currently routable,
// sorted for stable Allow headers and route registration.
func (d *Dispatcher) AllowedMethods() []string {
	rs := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		rs = append(rs, strings.ToUpper(name))
	}
	sort.Strings(rs)
	return rs
}

// Dispatch routes one request and is the single place where handler
// errors become status codes. Unknown methods fail closed.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Response {
	h, ok := d.handlers[strings.ToLower(req.Method)]
	if !ok {
		return d.failResponse(ctx, req, daverr.Newf(daverr.KindMethodNotAllowed, "method %s not allowed", req.Method))
	}
	rsp, err := h(ctx, req)
	if err != nil {
		return d.failResponse(ctx, req, err)
	}
	return rsp
}

func (d *Dispatcher) failResponse(ctx context.Context, req *Request, err error) *Response {
	status := daverr.StatusOf(err)
	logutil.GetLogger(ctx).Error("request failed",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", status),
		zap.Error(err))
	rsp := newResponse(status)
	rsp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	rsp.Body = []byte(err.Error())
	return rsp
}
