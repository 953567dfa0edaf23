// Package parser turns Squid and squidGuard log lines into normalized
// web-proxy events.
package parser

import (
	"sort"

	"github.com/samber/lo"

	"github.com/cyra/squidnorm/internal/webproxy"
)

// Parser defines the interface implemented by log parsers.
//
// Parse never modifies its input. On success it returns a new Log carrying
// the normalized event; on failure it returns an *Error whose Kind is
// ErrFormatMismatch or ErrParse.
type Parser interface {
	Name() string
	Parse(log *webproxy.Log) (*webproxy.Log, error)
}

var factories = map[string]func() Parser{
	"squid":        func() Parser { return NewSquid() },
	"squid_access": func() Parser { return NewSquid() },
	"squidguard":   func() Parser { return NewSquidGuard() },
	"auto":         func() Parser { return NewChain(NewSquidGuard(), NewSquid()) },
}

// New returns a parser implementation by name.
func New(name string) (Parser, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, ErrUnknownParser
	}
	return factory(), nil
}

// Names lists the parser names accepted by New.
func Names() []string {
	names := lo.Keys(factories)
	sort.Strings(names)
	return names
}
