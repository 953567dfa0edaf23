package parser

import (
	"net/netip"
	"strings"
)

// splitSpaces splits s on ' ' only. Runs of spaces produce no empty fields;
// tabs and other whitespace stay inside fields.
func splitSpaces(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ' ' })
}

// cutSlash splits a composite "a/b" token at its first slash.
func cutSlash(token string) (before, after string, ok bool) {
	return strings.Cut(token, "/")
}

// parseAddr parses an IPv4 or IPv6 literal. Zoned addresses are rejected.
func parseAddr(s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(s)
	if err != nil || addr.Zone() != "" {
		return netip.Addr{}, false
	}
	return addr, true
}

// userName maps the "no identity" marker to an empty name.
func userName(token string) string {
	if token == "-" {
		return ""
	}
	return token
}
