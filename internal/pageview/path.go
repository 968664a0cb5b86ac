package pageview

import (
	"net/url"
	"strings"
)

const HomePath = "/"

// CanonicalPath reduces a page URL to the dedup key used for viewed pages:
// scheme, host, query and fragment are dropped and one root prefix is stripped.
func CanonicalPath(raw, rootPrefix string) string {
	raw = strings.TrimSpace(raw)

	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	} else {
		if i := strings.IndexAny(p, "?#"); i >= 0 {
			p = p[:i]
		}
		if i := strings.Index(p, "://"); i >= 0 {
			p = p[i+3:]
			if j := strings.Index(p, "/"); j >= 0 {
				p = p[j:]
			} else {
				p = ""
			}
		}
	}

	if prefix := strings.Trim(rootPrefix, "/"); prefix != "" {
		prefix = "/" + prefix
		switch {
		case p == prefix:
			p = ""
		case strings.HasPrefix(p, prefix+"/"):
			p = p[len(prefix):]
		}
	}

	if p == "" || p == "/" {
		return HomePath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
