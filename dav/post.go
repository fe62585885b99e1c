package dav

import (
	"context"
	"net/http"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// handlePost stores the first uploaded file part into the target
// collection; extra parts are ignored. A redirectUrl form field, when
// present, is echoed back through the Location header so browser form
// uploads can bounce to a landing page.
func (d *Dispatcher) handlePost(ctx context.Context, req *Request) (*Response, error) {
	p, err := ResolvePath(req.Path, d.prefix)
	if err != nil {
		return nil, err
	}
	if len(req.Parts) > 0 {
		part := req.Parts[0]
		target := joinPath(p, part.Name)
		if err := d.checkWriteLocks(ctx, req, target); err != nil {
			return nil, err
		}
		if _, err := d.tree.Put(ctx, target, part.Data); err != nil {
			return nil, err
		}
		logutil.GetLogger(ctx).Debug("stored form upload",
			zap.String("target", target),
			zap.Int("size", len(part.Data)))
	}
	rsp := newResponse(http.StatusOK)
	if loc := req.Form.Get("redirectUrl"); loc != "" {
		rsp.Header.Set("Location", loc)
	}
	return rsp, nil
}
