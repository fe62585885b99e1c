package dav

import (
	"context"
	"net/http"
	"strconv"

	"github.com/xxxsen/davcore/daverr"
)

func (d *Dispatcher) handleGet(ctx context.Context, req *Request) (*Response, error) {
	p, err := ResolvePath(req.Path, d.prefix)
	if err != nil {
		return nil, err
	}
	infos, err := d.tree.GetNodeInfo(ctx, p, 0)
	if err != nil {
		return nil, err
	}
	data, err := d.tree.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	rsp := newResponse(http.StatusOK)
	if len(infos) > 0 && infos[0].Size > 0 {
		rsp.Header.Set("Content-Length", strconv.FormatInt(infos[0].Size, 10))
	}
	rsp.Header.Set("Content-Type", "application/octet-stream")
	rsp.Body = data
	return rsp, nil
}

// handleHead is deliberately unimplemented; clients are expected to
// use GET or PROPFIND instead.
func (d *Dispatcher) handleHead(ctx context.Context, req *Request) (*Response, error) {
	return nil, daverr.New(daverr.KindNotImplemented, "head is not implemented")
}
