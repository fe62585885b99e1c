package dav

import (
	"encoding/xml"
	"fmt"

	"github.com/xxxsen/davcore/daverr"
	"github.com/xxxsen/davcore/entity"
)

type lockInfoRequest struct {
	XMLName xml.Name `xml:"lockinfo"`
	Scope   struct {
		Exclusive *struct{} `xml:"exclusive"`
		Shared    *struct{} `xml:"shared"`
	} `xml:"lockscope"`
	Owner struct {
		Href     string `xml:"href"`
		Chardata string `xml:",chardata"`
	} `xml:"owner"`
}

// parseLockRequest extracts the requested scope and owner from a LOCK
// body. A missing lockscope defaults to exclusive.
func parseLockRequest(body []byte) (scope string, owner string, err error) {
	var req lockInfoRequest
	if err := xml.Unmarshal(body, &req); err != nil {
		return "", "", daverr.Wrap(daverr.KindBadRequest, err, "decode lockinfo body failed")
	}
	scope = entity.LockScopeExclusive
	if req.Scope.Shared != nil {
		scope = entity.LockScopeShared
	}
	owner = req.Owner.Href
	if owner == "" {
		owner = req.Owner.Chardata
	}
	return scope, owner, nil
}

type lockHref struct {
	Href string `xml:"D:href"`
}

type activeLock struct {
	Scope struct {
		Exclusive *struct{} `xml:"D:exclusive,omitempty"`
		Shared    *struct{} `xml:"D:shared,omitempty"`
	} `xml:"D:lockscope"`
	Type struct {
		Write struct{} `xml:"D:write"`
	} `xml:"D:locktype"`
	Depth     string   `xml:"D:depth"`
	Owner     string   `xml:"D:owner,omitempty"`
	Timeout   string   `xml:"D:timeout"`
	LockToken lockHref `xml:"D:locktoken"`
	LockRoot  lockHref `xml:"D:lockroot"`
}

type lockPropResponse struct {
	XMLName       xml.Name `xml:"D:prop"`
	XMLNS         string   `xml:"xmlns:D,attr"`
	LockDiscovery struct {
		ActiveLock activeLock `xml:"D:activelock"`
	} `xml:"D:lockdiscovery"`
}

func formatDepth(depth int) string {
	if depth == entity.DepthInfinity {
		return "infinity"
	}
	return fmt.Sprintf("%d", depth)
}

func formatTimeout(timeout int64) string {
	if timeout == entity.TimeoutInfinite {
		return "Infinite"
	}
	return fmt.Sprintf("Second-%d", timeout)
}

func buildLockResponse(lk *entity.Lock, root string) ([]byte, error) {
	rsp := lockPropResponse{XMLNS: "DAV:"}
	al := &rsp.LockDiscovery.ActiveLock
	if lk.Scope == entity.LockScopeShared {
		al.Scope.Shared = &struct{}{}
	} else {
		al.Scope.Exclusive = &struct{}{}
	}
	al.Depth = formatDepth(lk.Depth)
	al.Owner = lk.Owner
	al.Timeout = formatTimeout(lk.Timeout)
	al.LockToken.Href = lk.Token
	al.LockRoot.Href = root
	raw, err := xml.Marshal(rsp)
	if err != nil {
		return nil, daverr.Wrap(daverr.KindUnknown, err, "marshal lock response")
	}
	return append([]byte(xml.Header), raw...), nil
}
