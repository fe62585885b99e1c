package dav

import (
	"context"
	"net/http"
	"strings"
)

func (d *Dispatcher) handleOptions(ctx context.Context, req *Request) (*Response, error) {
	rsp := newResponse(http.StatusOK)
	rsp.Header.Set("Allow", strings.Join(d.AllowedMethods(), ", "))
	compliance := "1"
	if d.locks != nil {
		compliance = "1,2"
	}
	rsp.Header.Set("DAV", compliance)
	rsp.Header.Set("MS-Author-Via", "DAV")
	return rsp, nil
}
