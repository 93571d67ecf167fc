// Package link builds the public download URL of a stored upload.
//
// The origin part comes from the uploading client. Unless a Policy with
// allowed origins is configured, it is used verbatim, so a client can make the
// returned link point at any host.
package link

import (
	"errors"
	"net/url"
	"strings"
)

// DownloadPrefix is the route under which stored files are served.
const DownloadPrefix = "/download/"

// ErrOriginNotAllowed is returned by Policy.Check for origins outside the allow-list.
var ErrOriginNotAllowed = errors.New("origin not allowed")

// Build returns origin + "/download/" + name, with trailing slashes of origin
// removed and name escaped as a path segment.
func Build(origin, name string) string {
	return strings.TrimRight(origin, "/") + DownloadPrefix + url.PathEscape(name)
}

// Policy decides which declared origins may be used to build links.
type Policy struct {
	allowed map[string]struct{}
}

// NewPolicy creates a policy. An empty list allows any origin.
func NewPolicy(origins []string) *Policy {
	p := &Policy{}
	for _, o := range origins {
		o = normalize(o)
		if o == "" {
			continue
		}
		if p.allowed == nil {
			p.allowed = make(map[string]struct{}, len(origins))
		}
		p.allowed[o] = struct{}{}
	}
	return p
}

// Restricted reports whether the policy has an allow-list.
func (p *Policy) Restricted() bool {
	return p != nil && len(p.allowed) > 0
}

// Check returns the origin to use for links, or ErrOriginNotAllowed.
func (p *Policy) Check(origin string) (string, error) {
	if !p.Restricted() {
		return origin, nil
	}
	if _, ok := p.allowed[normalize(origin)]; !ok {
		return "", ErrOriginNotAllowed
	}
	return origin, nil
}

// RequestOrigin formats scheme and host as an origin.
func RequestOrigin(scheme, host string) string {
	if host == "" {
		return ""
	}
	return scheme + "://" + host
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}
