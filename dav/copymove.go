package dav

import (
	"context"
	"net/http"

	"github.com/xxxsen/davcore/daverr"
)

// CopyMoveRequest is the resolved intent of a COPY or MOVE after all
// preconditions held.
type CopyMoveRequest struct {
	Source             string
	Destination        string
	Overwrite          bool
	DestinationExisted bool //201 vs 204 on success
}

func (d *Dispatcher) resolveCopyMove(ctx context.Context, req *Request, src string) (*CopyMoveRequest, error) {
	dstHeader := req.Header.Get("Destination")
	if dstHeader == "" {
		return nil, daverr.New(daverr.KindBadRequest, "destination header missing")
	}
	dst, err := ResolvePath(dstHeader, d.prefix)
	if err != nil {
		return nil, err
	}
	overwrite, err := ParseOverwrite(req.Header.Get("Overwrite"))
	if err != nil {
		return nil, err
	}
	//source must exist, a missing source is terminal
	if _, err := d.tree.GetNodeInfo(ctx, src, 0); err != nil {
		return nil, err
	}
	parent := parentOf(dst)
	pinfos, err := d.tree.GetNodeInfo(ctx, parent, 0)
	if err != nil {
		if daverr.IsNotFound(err) {
			return nil, daverr.Newf(daverr.KindConflict, "destination parent %q does not exist", parent)
		}
		return nil, err
	}
	if len(pinfos) == 0 || !pinfos[0].IsDir() {
		return nil, daverr.Newf(daverr.KindUnsupportedMediaType, "destination parent %q is not a collection", parent)
	}
	rs := &CopyMoveRequest{
		Source:      src,
		Destination: dst,
		Overwrite:   overwrite,
	}
	if _, err := d.tree.GetNodeInfo(ctx, dst, 0); err == nil {
		if !overwrite {
			return nil, daverr.Newf(daverr.KindPreconditionFailed, "destination %q exists and overwrite is disabled", dst)
		}
		rs.DestinationExisted = true
	} else if !daverr.IsNotFound(err) {
		return nil, err
	}
	return rs, nil
}

func (d *Dispatcher) handleCopy(ctx context.Context, req *Request) (*Response, error) {
	src, err := ResolvePath(req.Path, d.prefix)
	if err != nil {
		return nil, err
	}
	cm, err := d.resolveCopyMove(ctx, req, src)
	if err != nil {
		return nil, err
	}
	//only the destination is written to
	if err := d.checkWriteLocks(ctx, req, cm.Destination); err != nil {
		return nil, err
	}
	if err := d.tree.Copy(ctx, cm.Source, cm.Destination); err != nil {
		return nil, err
	}
	return copyMoveResponse(cm), nil
}

func (d *Dispatcher) handleMove(ctx context.Context, req *Request) (*Response, error) {
	src, err := ResolvePath(req.Path, d.prefix)
	if err != nil {
		return nil, err
	}
	cm, err := d.resolveCopyMove(ctx, req, src)
	if err != nil {
		return nil, err
	}
	if err := d.checkWriteLocks(ctx, req, cm.Source, cm.Destination); err != nil {
		return nil, err
	}
	if err := d.tree.Move(ctx, cm.Source, cm.Destination); err != nil {
		return nil, err
	}
	return copyMoveResponse(cm), nil
}

func copyMoveResponse(cm *CopyMoveRequest) *Response {
	if cm.DestinationExisted {
		return newResponse(http.StatusNoContent)
	}
	return newResponse(http.StatusCreated)
}
