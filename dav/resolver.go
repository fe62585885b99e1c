package dav

import (
	"net/url"
	"strings"

	"github.com/xxxsen/davcore/daverr"
)

// ResolvePath turns a raw request uri into a tree path: absolute urls
// are reduced to their path component, the configured prefix is
// stripped, the rest is url-decoded and slash-trimmed. A uri outside
// the prefix is a hard boundary violation.
func ResolvePath(rawURI string, prefix string) (string, error) {
	if !strings.HasPrefix(rawURI, "/") && strings.Contains(rawURI, "://") {
		u, err := url.Parse(rawURI)
		if err != nil {
			return "", daverr.Wrap(daverr.KindBadRequest, err, "parse absolute uri failed")
		}
		rawURI = u.Path
	}
	if !strings.HasPrefix(rawURI, prefix) {
		return "", daverr.Newf(daverr.KindPermissionDenied, "uri %q outside of base uri %q", rawURI, prefix)
	}
	p := strings.TrimPrefix(rawURI, prefix)
	decoded, err := url.PathUnescape(p)
	if err != nil {
		return "", daverr.Wrap(daverr.KindBadRequest, err, "decode uri failed")
	}
	return strings.Trim(decoded, "/"), nil
}

func parentOf(p string) string {
	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		return p[:idx]
	}
	return ""
}

func joinPath(dir string, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
