package dav

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xxxsen/davcore/daverr"
	"github.com/xxxsen/davcore/entity"
)

const defaultLockTimeout = 3600

// IfCondition is one parsed clause of the If request header. An empty
// URI means the condition is untagged and applies to whatever resource
// is being validated.
type IfCondition struct {
	URI     string
	Token   string
	Negated bool
}

// clause grammar: [<uri> ]( [Not ]<token> ), matched greedily; a
// clause without an explicit uri inherits the nearest preceding one.
var ifClauseRe = regexp.MustCompile(`(?i)(?:<([^>]*)>\s+)?\(\s*(Not\s+)?<([^>]*)>\s*\)`)

// ParseIfHeader parses the If header into its ordered condition list.
// Malformed input yields no conditions rather than an error.
func ParseIfHeader(v string) []IfCondition {
	matches := ifClauseRe.FindAllStringSubmatch(v, -1)
	conds := make([]IfCondition, 0, len(matches))
	lastURI := ""
	for _, m := range matches {
		uri := m[1]
		if uri == "" {
			uri = lastURI
		} else {
			lastURI = uri
		}
		conds = append(conds, IfCondition{
			URI:     uri,
			Token:   m[3],
			Negated: m[2] != "",
		})
	}
	return conds
}

// ParseDepth maps the Depth header onto {0, 1, .., infinity}; any
// absent or non-numeric value falls back to def.
func ParseDepth(v string, def int) int {
	if v == "" {
		return def
	}
	if strings.EqualFold(v, "infinity") {
		return entity.DepthInfinity
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// ParseOverwrite parses the Overwrite header, defaulting to true when
// absent. Anything but T/F is a client error.
func ParseOverwrite(v string) (bool, error) {
	switch strings.ToUpper(v) {
	case "", "T":
		return true, nil
	case "F":
		return false, nil
	default:
		return false, daverr.Newf(daverr.KindBadRequest, "invalid overwrite header value %q", v)
	}
}

// ParseTimeout parses the Timeout request header (Second-N or
// Infinite, possibly a comma separated preference list; the first
// understood entry wins).
func ParseTimeout(v string) int64 {
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if strings.EqualFold(item, "infinite") {
			return entity.TimeoutInfinite
		}
		if rest, ok := strings.CutPrefix(item, "Second-"); ok {
			secs, err := strconv.ParseInt(rest, 10, 64)
			if err == nil && secs > 0 {
				return secs
			}
		}
	}
	return defaultLockTimeout
}

// UpdateRange is a parsed X-Update-Range byte range; at least one of
// Start/End is set.
type UpdateRange struct {
	Start *int64
	End   *int64
}

// ParseUpdateRange parses bytes=<start>-<end> where either bound may
// be blank but not both. Anything else yields nil; the caller decides
// how to fail.
func ParseUpdateRange(v string) *UpdateRange {
	rest, ok := strings.CutPrefix(v, "bytes=")
	if !ok {
		return nil
	}
	start, end, ok := strings.Cut(rest, "-")
	if !ok {
		return nil
	}
	var ur UpdateRange
	if start != "" {
		n, err := strconv.ParseInt(start, 10, 64)
		if err != nil || n < 0 {
			return nil
		}
		ur.Start = &n
	}
	if end != "" {
		n, err := strconv.ParseInt(end, 10, 64)
		if err != nil || n < 0 {
			return nil
		}
		ur.End = &n
	}
	if ur.Start == nil && ur.End == nil {
		return nil
	}
	return &ur
}
