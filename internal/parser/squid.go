package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cyra/squidnorm/internal/webproxy"
)

// Squid native access.log format:
//
//	time elapsed remotehost code/status bytes method URL rfc931 peerstatus/peerhost type
//	1613260836.628    287 172.17.0.1 TCP_TUNNEL_ABORTED/200 18353 CONNECT www.google.com:443 - HIER_DIRECT/142.250.184.4 -
//
// Lines shipped over syslog carry an envelope ending in the process tag:
//
//	<1>1 2020-09-25T16:23:25+02:00 OPNsense.localdomain (squid-1)[91300]: 1601051005.952 ...
const (
	squidFields = 10

	squidProcessTag = "squid"
	dispositionNone = "NONE"
)

var bareSchemes = map[string]bool{
	"http": true, "https": true, "ftp": true, "ws": true, "wss": true,
}

// Squid parses Squid access-log lines.
type Squid struct{}

// NewSquid creates a Squid access-log parser.
func NewSquid() *Squid {
	return &Squid{}
}

const maxUnixSeconds = float64(1 << 63)

func (p *Squid) Name() string {
	return "squid"
}

func (p *Squid) Parse(in *webproxy.Log) (*webproxy.Log, error) {
	line := in.Message

	payload := line
	if strings.HasPrefix(line, "<") {
		tag := strings.Index(line, squidProcessTag)
		if tag < 0 {
			return nil, mismatch(p.Name(), in, errors.New("syslog envelope without squid process tag"))
		}
		sep := strings.Index(line[tag:], ": ")
		if sep < 0 {
			return nil, malformed(p.Name(), in, errors.New("syslog envelope not terminated"))
		}
		payload = line[tag+sep+2:]
	}

	fields := splitSpaces(payload)
	if len(fields) != squidFields {
		return nil, malformed(p.Name(), in, fmt.Errorf("expected %d fields, got %d", squidFields, len(fields)))
	}

	ts, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil, malformed(p.Name(), in, fmt.Errorf("timestamp: %w", err))
	}
	if math.IsNaN(ts) || math.IsInf(ts, 0) {
		return nil, malformed(p.Name(), in, fmt.Errorf("timestamp %q", fields[0]))
	}
	// int64 conversion of anything outside this range is implementation-defined.
	if ts >= maxUnixSeconds || ts < -maxUnixSeconds {
		return nil, malformed(p.Name(), in, fmt.Errorf("timestamp %q out of range", fields[0]))
	}

	src, ok := parseAddr(fields[2])
	if !ok {
		return nil, mismatch(p.Name(), in, fmt.Errorf("source address %q", fields[2]))
	}

	_, peer, ok := cutSlash(fields[8])
	if !ok {
		return nil, malformed(p.Name(), in, fmt.Errorf("hierarchy code %q", fields[8]))
	}
	dst := webproxy.Unspecified
	if peer != "-" {
		if dst, ok = parseAddr(peer); !ok {
			return nil, malformed(p.Name(), in, fmt.Errorf("destination address %q", peer))
		}
	}

	u, err := ParseURL(fields[6])
	if err != nil {
		return nil, malformed(p.Name(), in, err)
	}
	domain := u.Host
	if bareSchemes[domain] {
		// "https:443" style targets leave the scheme where the host should be.
		domain = ""
	}

	disposition, status, ok := cutSlash(fields[3])
	if !ok {
		return nil, malformed(p.Name(), in, fmt.Errorf("result code %q", fields[3]))
	}
	code, err := strconv.ParseUint(status, 10, 32)
	if err != nil {
		return nil, malformed(p.Name(), in, fmt.Errorf("status: %w", err))
	}

	size, err := strconv.ParseUint(fields[4], 10, 32)
	if err != nil {
		return nil, malformed(p.Name(), in, fmt.Errorf("bytes: %w", err))
	}

	out := webproxy.NewLog(payload, in.Received, in.Origin)
	out.Parser = p.Name()
	out.Created = int64(ts)
	out.CreatedUnit = webproxy.Seconds
	out.Event = &webproxy.Event{
		SourceIP:        src,
		DestinationIP:   dst,
		DestinationPort: u.Port,
		Domain:          domain,
		URL:             u.Path,
		HTTPMethod:      webproxy.ParseHTTPMethod(fields[5]),
		HTTPCode:        uint32(code),
		MimeType:        fields[9],
		InBytes:         uint32(size),
		OutBytes:        0,
		Protocol:        webproxy.ParseProtocol(u.Scheme),
		UserName:        userName(fields[7]),
		Outcome:         squidOutcome(disposition, uint32(code)),
	}
	if d, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
		out.SetField(webproxy.FieldNetworkDuration, d)
	}
	return out, nil
}

// squidOutcome derives the verdict. A non-2xx status always blocks; within
// 2xx only the NONE disposition blocks.
func squidOutcome(disposition string, status uint32) webproxy.Outcome {
	if status < 200 || status >= 300 {
		return webproxy.OutcomeBlock
	}
	if disposition == dispositionNone {
		return webproxy.OutcomeBlock
	}
	return webproxy.OutcomeAllow
}
