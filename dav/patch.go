package dav

import (
	"context"
	"net/http"

	"github.com/xxxsen/davcore/daverr"
	"github.com/xxxsen/davcore/tree"
)

const partialUpdateContentType = "application/x-sabredav-partialupdate"

// PartialUpdateHandler implements the sabredav PATCH partial update
// extension: a byte range of an existing file is overwritten in place,
// growing the file when the range extends past its end.
type PartialUpdateHandler struct {
	tree   tree.ITree
	prefix string
}

func NewPartialUpdateHandler(t tree.ITree, prefix string) *PartialUpdateHandler {
	return &PartialUpdateHandler{tree: t, prefix: prefix}
}

func (h *PartialUpdateHandler) Method() string {
	return "PATCH"
}

func (h *PartialUpdateHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	p, err := ResolvePath(req.Path, h.prefix)
	if err != nil {
		return nil, err
	}
	if ct := req.Header.Get("Content-Type"); ct != partialUpdateContentType {
		return nil, daverr.Newf(daverr.KindUnsupportedMediaType, "unsupported patch content type %q", ct)
	}
	ur := ParseUpdateRange(req.Header.Get("X-Update-Range"))
	if ur == nil {
		return nil, daverr.New(daverr.KindRangeNotSatisfiable, "invalid or missing x-update-range header")
	}
	if ur.Start != nil && ur.End != nil && *ur.End-*ur.Start+1 != int64(len(req.Body)) {
		return nil, daverr.Newf(daverr.KindRangeNotSatisfiable,
			"range length %d does not match body length %d", *ur.End-*ur.Start+1, len(req.Body))
	}
	existing := []byte(nil)
	created := false
	infos, err := h.tree.GetNodeInfo(ctx, p, 0)
	if err != nil {
		if !daverr.IsNotFound(err) {
			return nil, err
		}
		created = true
	} else {
		if infos[0].IsDir() {
			return nil, daverr.Newf(daverr.KindConflict, "cannot patch directory %q", p)
		}
		existing, err = h.tree.Get(ctx, p)
		if err != nil {
			return nil, err
		}
	}
	merged, err := applyRange(existing, ur, req.Body)
	if err != nil {
		return nil, err
	}
	if created {
		etag, err := h.tree.CreateFile(ctx, p, merged)
		if err != nil {
			return nil, err
		}
		return putResponse(http.StatusCreated, etag), nil
	}
	etag, err := h.tree.Put(ctx, p, merged)
	if err != nil {
		return nil, err
	}
	return putResponse(http.StatusOK, etag), nil
}

// applyRange writes body over data at the resolved range start,
// growing the file when the write extends past its end. An end-only
// range addresses the last len(body) bytes ending at End. The result
// is always a fresh buffer; data may be shared with other readers.
func applyRange(data []byte, ur *UpdateRange, body []byte) ([]byte, error) {
	var start int64
	switch {
	case ur.Start != nil:
		start = *ur.Start
	default:
		start = *ur.End - int64(len(body)) + 1
	}
	if start < 0 {
		return nil, daverr.Newf(daverr.KindRangeNotSatisfiable, "range start %d out of bounds", start)
	}
	size := int64(len(data))
	if end := start + int64(len(body)); end > size {
		size = end
	}
	merged := make([]byte, size)
	copy(merged, data)
	copy(merged[start:], body)
	return merged, nil
}
