// Package webproxy holds the vendor-neutral web-proxy event produced by the
// log parsers and the envelope that carries it through the pipeline.
package webproxy

import (
	"encoding/json"
	"net/netip"
	"strings"
	"time"
)

// FieldNetworkDuration is the auxiliary field holding the request duration
// reported by the proxy, when the log line carries a usable value.
const FieldNetworkDuration = "network.duration"

// Unspecified is the address used when a log line does not report one.
var Unspecified = netip.IPv4Unspecified()

// Event represents a normalized proxied request.
type Event struct {
	SourceIP        netip.Addr
	DestinationIP   netip.Addr
	DestinationPort uint16
	Domain          string
	URL             string
	HTTPMethod      HTTPMethod
	HTTPCode        uint32
	MimeType        string
	InBytes         uint32
	OutBytes        uint32
	Protocol        Protocol
	UserName        string
	RuleName        *string
	RuleCategory    *RuleCategory
	Outcome         Outcome
}

// TimeUnit is the resolution of Log.Created.
type TimeUnit uint8

const (
	Seconds TimeUnit = iota
	Milliseconds
)

// Log is a single log record. Raw input carries only Message, Received and
// Origin; a parser returns a new Log with the remaining fields filled in.
type Log struct {
	Message     string
	Received    int64
	Origin      netip.Addr
	Created     int64
	CreatedUnit TimeUnit
	Parser      string
	Event       *Event
	Fields      map[string]uint64
}

// NewLog wraps a raw line with the receipt timestamp and origin address of
// whatever delivered it.
func NewLog(message string, received int64, origin netip.Addr) *Log {
	return &Log{
		Message:  message,
		Received: received,
		Origin:   origin,
	}
}

// SetField attaches an auxiliary numeric attribute.
func (l *Log) SetField(name string, v uint64) {
	if l.Fields == nil {
		l.Fields = make(map[string]uint64)
	}
	l.Fields[name] = v
}

// Field returns an auxiliary attribute.
func (l *Log) Field(name string) (uint64, bool) {
	v, ok := l.Fields[name]
	return v, ok
}

// CreatedTime converts Created to a UTC time according to CreatedUnit.
func (l *Log) CreatedTime() time.Time {
	if l.CreatedUnit == Milliseconds {
		return time.UnixMilli(l.Created).UTC()
	}
	return time.Unix(l.Created, 0).UTC()
}

// SplitPathQuery separates a request path from its query string. The query
// keeps its leading '?'.
func SplitPathQuery(p string) (path, query string) {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		return p[:i], p[i:]
	}
	return p, ""
}

// Flatten returns the log as a flat field dictionary keyed by dotted names.
func (l *Log) Flatten() map[string]any {
	out := map[string]any{
		"message":        l.Message,
		"event.created":  l.Created,
		"event.received": l.Received,
	}
	if l.Origin.IsValid() {
		out["observer.ip"] = l.Origin.String()
	}
	if l.Parser != "" {
		out["observer.product"] = l.Parser
	}
	for k, v := range l.Fields {
		out[k] = v
	}

	ev := l.Event
	if ev == nil {
		return out
	}
	path, query := SplitPathQuery(ev.URL)
	out["event.outcome"] = ev.Outcome.String()
	out["source.ip"] = ev.SourceIP.String()
	out["destination.ip"] = ev.DestinationIP.String()
	out["destination.port"] = ev.DestinationPort
	out["url.domain"] = ev.Domain
	out["url.path"] = path
	out["url.query"] = query
	out["network.protocol"] = ev.Protocol.String()
	out["http.request.method"] = ev.HTTPMethod.String()
	out["http.response.status_code"] = ev.HTTPCode
	out["http.response.mime_type"] = ev.MimeType
	out["destination.bytes"] = ev.InBytes
	out["source.bytes"] = ev.OutBytes
	out["user.name"] = ev.UserName
	if ev.RuleName != nil {
		out["rule.name"] = *ev.RuleName
	}
	if ev.RuleCategory != nil {
		out["rule.category"] = ev.RuleCategory.String()
	}
	return out
}

// MarshalJSON encodes the flattened form.
func (l *Log) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Flatten())
}
