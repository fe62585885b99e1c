package dav

import (
	"context"
	"net/http"
)

func (d *Dispatcher) handleDelete(ctx context.Context, req *Request) (*Response, error) {
	p, err := ResolvePath(req.Path, d.prefix)
	if err != nil {
		return nil, err
	}
	if err := d.checkWriteLocks(ctx, req, p); err != nil {
		return nil, err
	}
	if err := d.tree.Delete(ctx, p); err != nil {
		return nil, err
	}
	return newResponse(http.StatusNoContent), nil
}
