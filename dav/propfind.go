package dav

import (
	"context"
	"encoding/xml"
	"net/http"

	"github.com/xxxsen/davcore/daverr"
)

func (d *Dispatcher) handlePropfind(ctx context.Context, req *Request) (*Response, error) {
	p, err := ResolvePath(req.Path, d.prefix)
	if err != nil {
		return nil, err
	}
	depth := ParseDepth(req.Header.Get("Depth"), 1)
	if depth != 0 {
		// infinity listings are clamped to a single level
		depth = 1
	}
	infos, err := d.tree.GetNodeInfo(ctx, p, depth)
	if err != nil {
		return nil, err
	}
	ms := buildMultistatus(req.Path, infos)
	raw, err := xml.Marshal(ms)
	if err != nil {
		return nil, daverr.Wrap(daverr.KindUnknown, err, "marshal multistatus")
	}
	rsp := newResponse(http.StatusMultiStatus)
	rsp.Header.Set("Content-Type", "application/xml; charset=utf-8")
	rsp.Body = append([]byte(xml.Header), raw...)
	return rsp, nil
}
