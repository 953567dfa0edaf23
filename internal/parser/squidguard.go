package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cyra/squidnorm/internal/webproxy"
)

// squidGuard decision log format:
//
//	2021-02-14 00:02:33 [26] Request(default/porn/-) pornpage.com:443 172.17.0.1/172.17.0.1 - CONNECT REDIRECT
//
// The header holds date, time and the bracketed process id; the body starts
// at "Request(" and lists rule tag, URL, client/fqdn, ident, method, action.
const (
	requestMarker   = " Request("
	guardTimeLayout = "2006-01-02 15:04:05"
	guardMinBody    = 5

	// squidGuard redirects the client instead of relaying a response, so no
	// status is logged. 503 marks the request as intercepted.
	guardStatusCode = 503
)

// SquidGuard parses squidGuard decision log lines.
type SquidGuard struct{}

// NewSquidGuard creates a squidGuard log parser.
func NewSquidGuard() *SquidGuard {
	return &SquidGuard{}
}

func (p *SquidGuard) Name() string {
	return "squidguard"
}

func (p *SquidGuard) Parse(in *webproxy.Log) (*webproxy.Log, error) {
	line := in.Message

	pos := strings.Index(line, requestMarker)
	if pos < 0 {
		return nil, mismatch(p.Name(), in, errors.New("no Request( marker"))
	}

	created, err := guardTimestamp(line[:pos])
	if err != nil {
		return nil, malformed(p.Name(), in, err)
	}

	body := splitSpaces(line[pos+1:])
	if len(body) < guardMinBody {
		return nil, malformed(p.Name(), in, fmt.Errorf("expected at least %d body fields, got %d", guardMinBody, len(body)))
	}

	client, _, ok := cutSlash(body[2])
	if !ok {
		return nil, malformed(p.Name(), in, fmt.Errorf("client field %q", body[2]))
	}
	src, ok := parseAddr(client)
	if !ok {
		return nil, mismatch(p.Name(), in, fmt.Errorf("source address %q", client))
	}

	u, err := ParseURL(body[1])
	if err != nil {
		return nil, malformed(p.Name(), in, err)
	}

	_, ruleName, err := parseRuleTag(body[0])
	if err != nil {
		return nil, malformed(p.Name(), in, err)
	}
	category := RuleCategory(ruleName)

	out := webproxy.NewLog(line, in.Received, in.Origin)
	out.Parser = p.Name()
	out.Created = created
	out.CreatedUnit = webproxy.Milliseconds
	out.Event = &webproxy.Event{
		SourceIP:        src,
		DestinationIP:   webproxy.Unspecified,
		DestinationPort: u.Port,
		Domain:          u.Host,
		URL:             u.Path,
		HTTPMethod:      webproxy.ParseHTTPMethod(body[4]),
		HTTPCode:        guardStatusCode,
		MimeType:        "",
		InBytes:         0,
		OutBytes:        0,
		Protocol:        webproxy.ParseProtocol(u.Scheme),
		UserName:        userName(body[3]),
		RuleName:        &ruleName,
		RuleCategory:    &category,
		Outcome:         webproxy.OutcomeBlock,
	}
	// squidGuard logs no duration. The URL field is tried as one and only
	// sets the attribute for purely numeric targets.
	// TODO: drop this once a real duration source for squidGuard is known.
	if d, err := strconv.ParseUint(body[1], 10, 64); err == nil {
		out.SetField(webproxy.FieldNetworkDuration, d)
	}
	return out, nil
}

// guardTimestamp reads the date and time tokens at the tail of the header,
// skipping the trailing "[pid]" token when present, and returns Unix
// milliseconds.
func guardTimestamp(header string) (int64, error) {
	tokens := splitSpaces(header)
	if n := len(tokens); n > 0 && strings.HasPrefix(tokens[n-1], "[") {
		tokens = tokens[:n-1]
	}
	if len(tokens) < 2 {
		return 0, fmt.Errorf("header %q has no date and time", header)
	}
	stamp := tokens[len(tokens)-2] + " " + tokens[len(tokens)-1]
	t, err := time.ParseInLocation(guardTimeLayout, stamp, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("timestamp: %w", err)
	}
	return t.UnixMilli(), nil
}

// parseRuleTag extracts ruleset and rule name from "Request(ruleset/rule/...)".
func parseRuleTag(tag string) (ruleset, rule string, err error) {
	open := strings.IndexByte(tag, '(')
	if open < 0 {
		return "", "", fmt.Errorf("rule tag %q: missing '('", tag)
	}
	inner := tag[open+1:]
	ruleset, rest, ok := strings.Cut(inner, "/")
	if !ok {
		return "", "", fmt.Errorf("rule tag %q: missing ruleset separator", tag)
	}
	rule, _, ok = strings.Cut(rest, "/")
	if !ok {
		return "", "", fmt.Errorf("rule tag %q: missing rule separator", tag)
	}
	return ruleset, rule, nil
}
