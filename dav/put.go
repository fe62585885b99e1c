package dav

import (
	"context"
	"net/http"

	"github.com/xxxsen/davcore/daverr"
)

func (d *Dispatcher) handlePut(ctx context.Context, req *Request) (*Response, error) {
	p, err := ResolvePath(req.Path, d.prefix)
	if err != nil {
		return nil, err
	}
	if err := d.checkWriteLocks(ctx, req, p); err != nil {
		return nil, err
	}
	infos, err := d.tree.GetNodeInfo(ctx, p, 0)
	if err != nil {
		if !daverr.IsNotFound(err) {
			return nil, err
		}
		etag, err := d.tree.CreateFile(ctx, p, req.Body)
		if err != nil {
			return nil, err
		}
		return putResponse(http.StatusCreated, etag), nil
	}
	if len(infos) > 0 && infos[0].IsDir() {
		return nil, daverr.Newf(daverr.KindConflict, "cannot put content on collection %q", p)
	}
	if req.Header.Get("If-None-Match") != "" {
		return nil, daverr.Newf(daverr.KindPreconditionFailed, "resource %q already exists", p)
	}
	etag, err := d.tree.Put(ctx, p, req.Body)
	if err != nil {
		return nil, err
	}
	return putResponse(http.StatusOK, etag), nil
}

func putResponse(status int, etag string) *Response {
	rsp := newResponse(status)
	if etag != "" {
		rsp.Header.Set("ETag", etag)
	}
	return rsp
}
