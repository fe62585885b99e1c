package dav

import (
	"context"

	"github.com/xxxsen/davcore/daverr"
)

// handleProppatch is advertised but not implemented; dead properties
// need a property store this core does not carry.
func (d *Dispatcher) handleProppatch(ctx context.Context, req *Request) (*Response, error) {
	return nil, daverr.New(daverr.KindNotImplemented, "proppatch is not implemented")
}
