package dav

import (
	"context"

	"github.com/xxxsen/davcore/daverr"
	"github.com/xxxsen/davcore/entity"
	"github.com/xxxsen/davcore/tree"
)

// ValidateLocks decides whether a write touching uris may proceed
// given the conditions of the If header. Every uri must be satisfied
// by at least one condition (conjunction over uris, disjunction over
// conditions per uri); the first unsatisfied uri fails the whole call.
// The lock satisfying the last matched condition is returned so LOCK
// can reuse its token for a refresh.
func ValidateLocks(ctx context.Context, lt tree.ILockTree, uris []string, conds []IfCondition) (bool, *entity.Lock, error) {
	var matched *entity.Lock
	for _, uri := range uris {
		locks, err := lt.GetLockInfo(ctx, uri)
		if err != nil && !daverr.IsNotFound(err) {
			return false, nil, err
		}
		if len(locks) == 0 && len(conds) == 0 {
			continue
		}
		if len(locks) == 0 || len(conds) == 0 {
			return false, nil, nil
		}
		lk := matchCondition(uri, locks, conds)
		if lk == nil {
			return false, nil, nil
		}
		matched = lk
	}
	return true, matched, nil
}

// checkWriteLocks gates a mutating request on the lock state of its
// target uris. A tree without lock capability never blocks writes.
func (d *Dispatcher) checkWriteLocks(ctx context.Context, req *Request, uris ...string) error {
	if d.locks == nil {
		return nil
	}
	conds := d.resolveConditionURIs(ParseIfHeader(req.Header.Get("If")))
	ok, _, err := ValidateLocks(ctx, d.locks, uris, conds)
	if err != nil {
		return err
	}
	if !ok {
		return daverr.Newf(daverr.KindLocked, "target of %s %s is locked", req.Method, req.Path)
	}
	return nil
}

func matchCondition(uri string, locks []*entity.Lock, conds []IfCondition) *entity.Lock {
	for _, cond := range conds {
		if cond.URI != "" && cond.URI != uri {
			continue
		}
		for _, lk := range locks {
			if cond.Negated != (lk.Token == cond.Token) {
				return lk
			}
		}
	}
	return nil
}
