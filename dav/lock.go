package dav

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/xxxsen/davcore/daverr"
	"github.com/xxxsen/davcore/entity"
)

const lockTokenPrefix = "opaquelocktoken:"

// resolveConditionURIs rewrites tagged condition uris into tree paths
// so the validator can compare them against the target. Conditions
// whose uri does not resolve keep it verbatim and simply never match.
func (d *Dispatcher) resolveConditionURIs(conds []IfCondition) []IfCondition {
	for i, cond := range conds {
		if cond.URI == "" {
			continue
		}
		p, err := ResolvePath(cond.URI, d.prefix)
		if err != nil {
			continue
		}
		conds[i].URI = p
	}
	return conds
}

func (d *Dispatcher) handleLock(ctx context.Context, req *Request) (*Response, error) {
	p, err := ResolvePath(req.Path, d.prefix)
	if err != nil {
		return nil, err
	}
	conds := d.resolveConditionURIs(ParseIfHeader(req.Header.Get("If")))
	ok, matched, err := ValidateLocks(ctx, d.locks, []string{p}, conds)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, daverr.Newf(daverr.KindLocked, "resource %q is locked", p)
	}
	lk := &entity.Lock{
		Scope: entity.LockScopeExclusive,
		Depth: entity.DepthInfinity,
	}
	if len(req.Body) > 0 {
		scope, owner, err := parseLockRequest(req.Body)
		if err != nil {
			return nil, err
		}
		lk.Scope = scope
		lk.Owner = owner
		if ParseDepth(req.Header.Get("Depth"), entity.DepthInfinity) != entity.DepthZero {
			lk.Depth = entity.DepthInfinity
		} else {
			lk.Depth = entity.DepthZero
		}
		lk.Token = lockTokenPrefix + uuid.NewString()
	}
	lk.Timeout = ParseTimeout(req.Header.Get("Timeout"))
	if matched != nil {
		// refresh keeps the existing token
		lk.Token = matched.Token
		if len(req.Body) == 0 {
			lk.Scope = matched.Scope
			lk.Owner = matched.Owner
			lk.Depth = matched.Depth
		}
	}
	if lk.Token == "" {
		return nil, daverr.New(daverr.KindBadRequest, "lock refresh without matching lock")
	}
	if err := d.locks.LockNode(ctx, p, lk); err != nil {
		return nil, err
	}
	body, err := buildLockResponse(lk, req.Path)
	if err != nil {
		return nil, err
	}
	rsp := newResponse(http.StatusOK)
	rsp.Header.Set("Content-Type", "application/xml; charset=utf-8")
	rsp.Header.Set("Lock-Token", "<"+lk.Token+">")
	rsp.Body = body
	return rsp, nil
}

func (d *Dispatcher) handleUnlock(ctx context.Context, req *Request) (*Response, error) {
	p, err := ResolvePath(req.Path, d.prefix)
	if err != nil {
		return nil, err
	}
	token := strings.TrimSpace(req.Header.Get("Lock-Token"))
	if token == "" {
		return nil, daverr.New(daverr.KindBadRequest, "missing lock-token header")
	}
	token = strings.TrimSuffix(strings.TrimPrefix(token, "<"), ">")
	locks, err := d.locks.GetLockInfo(ctx, p)
	if err != nil && !daverr.IsNotFound(err) {
		return nil, err
	}
	for _, lk := range locks {
		if lk.Token != token {
			continue
		}
		if err := d.locks.UnlockNode(ctx, p, lk); err != nil {
			return nil, err
		}
		return newResponse(http.StatusNoContent), nil
	}
	return nil, daverr.Newf(daverr.KindPreconditionFailed, "no lock with token %q on %q", token, p)
}
