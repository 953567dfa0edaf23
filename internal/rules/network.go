package rules

import (
	"net/netip"
	"strings"
	"sync"
)

var prefixCache sync.Map // string -> netip.Prefix, or struct{} when invalid

// InNetwork reports whether ip is one of networks. Entries may be a single
// address or a CIDR prefix; invalid entries never match.
//
//	InNetwork(SourceIP, "10.0.0.0/8", "192.168.1.10")
func (e *Env) InNetwork(ip string, networks ...string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, n := range networks {
		if p, ok := lookupPrefix(n); ok && p.Contains(addr) {
			return true
		}
	}
	return false
}

func lookupPrefix(s string) (netip.Prefix, bool) {
	if v, ok := prefixCache.Load(s); ok {
		p, ok := v.(netip.Prefix)
		return p, ok
	}

	var (
		p   netip.Prefix
		err error
	)
	if strings.Contains(s, "/") {
		p, err = netip.ParsePrefix(s)
	} else {
		var a netip.Addr
		if a, err = netip.ParseAddr(s); err == nil {
			a = a.Unmap()
			p = netip.PrefixFrom(a, a.BitLen())
		}
	}
	if err != nil {
		prefixCache.Store(s, struct{}{})
		return netip.Prefix{}, false
	}
	p = p.Masked()
	prefixCache.Store(s, p)
	return p, true
}
