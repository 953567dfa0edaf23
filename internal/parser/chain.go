package parser

import (
	"errors"

	"github.com/cyra/squidnorm/internal/webproxy"
)

// Chain tries several parsers over the same line, in order.
type Chain struct {
	parsers []Parser
}

// NewChain creates a Chain. Put parsers with the cheapest rejection first.
func NewChain(parsers ...Parser) *Chain {
	return &Chain{parsers: parsers}
}

func (c *Chain) Name() string {
	return "auto"
}

// Parse returns the first successful result. If every parser fails, the first
// parse error wins over format mismatches, since it comes from a parser that
// recognized the line.
func (c *Chain) Parse(in *webproxy.Log) (*webproxy.Log, error) {
	var firstParseErr error
	for _, p := range c.parsers {
		out, err := p.Parse(in)
		if err == nil {
			return out, nil
		}
		if IsParseError(err) && firstParseErr == nil {
			firstParseErr = err
		}
	}
	if firstParseErr != nil {
		return nil, firstParseErr
	}
	return nil, mismatch(c.Name(), in, errors.New("no parser recognized the line"))
}
