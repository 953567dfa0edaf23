package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// URLParts is a request target split into its components.
type URLParts struct {
	Scheme string
	Host   string
	Path   string
	Port   uint16
}

// DefaultPort returns the well-known port of a scheme, or 0.
func DefaultPort(scheme string) uint16 {
	switch scheme {
	case "http":
		return 80
	case "https":
		return 443
	case "ftp":
		return 21
	default:
		return 0
	}
}

// ParseURL decomposes a request target as it appears in proxy logs. Targets
// may omit the scheme ("host:443" for CONNECT) or the path.
func ParseURL(raw string) (URLParts, error) {
	var u URLParts

	rest := raw
	if i := strings.Index(raw, "://"); i >= 0 {
		u.Scheme = raw[:i]
		rest = raw[i+3:]
	}

	authority := rest
	u.Path = "/"
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		authority = rest[:i]
		u.Path = rest[i:]
	}

	u.Host = authority
	port, explicit := "", false
	if i := strings.IndexByte(authority, ':'); i >= 0 {
		u.Host = authority[:i]
		port, explicit = authority[i+1:], true
	}

	// An explicit :0 is treated like a missing port.
	if !explicit || port == "0" {
		u.Port = DefaultPort(u.Scheme)
		return u, nil
	}
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return URLParts{}, fmt.Errorf("invalid port %q in %q", port, raw)
	}
	u.Port = uint16(p)
	return u, nil
}
