package dav

import (
	"context"
	"net/http"

	"github.com/xxxsen/davcore/daverr"
)

func (d *Dispatcher) handleMkcol(ctx context.Context, req *Request) (*Response, error) {
	//extended mkcol bodies are not understood, reject rather than ignore
	if len(req.Body) > 0 {
		return nil, daverr.New(daverr.KindUnsupportedMediaType, "mkcol request body is not supported")
	}
	p, err := ResolvePath(req.Path, d.prefix)
	if err != nil {
		return nil, err
	}
	if err := d.checkWriteLocks(ctx, req, p); err != nil {
		return nil, err
	}
	parent := parentOf(p)
	pinfos, err := d.tree.GetNodeInfo(ctx, parent, 0)
	if err != nil {
		if daverr.IsNotFound(err) {
			return nil, daverr.Newf(daverr.KindConflict, "parent collection %q does not exist", parent)
		}
		return nil, err
	}
	if len(pinfos) == 0 || !pinfos[0].IsDir() {
		return nil, daverr.Newf(daverr.KindConflict, "parent %q is not a collection", parent)
	}
	if err := d.tree.CreateDirectory(ctx, p); err != nil {
		return nil, err
	}
	return newResponse(http.StatusCreated), nil
}
