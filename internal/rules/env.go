package rules

import "github.com/cyra/squidnorm/internal/webproxy"

// Env is the environment rule expressions are evaluated against. Optional
// event attributes that are absent show up as empty strings.
type Env struct {
	Message         string
	Parser          string
	SourceIP        string
	DestinationIP   string
	DestinationPort int
	Domain          string
	URL             string
	Path            string
	Query           string
	Method          string
	Protocol        string
	Status          int
	MimeType        string
	InBytes         int
	OutBytes        int
	User            string
	RuleName        string
	RuleCategory    string
	Outcome         string
	Duration        int
	HasDuration     bool
}

// NewEnv flattens a parsed log into an Env. A log without an event only
// carries Message and Parser.
func NewEnv(l *webproxy.Log) *Env {
	env := &Env{Message: l.Message, Parser: l.Parser}
	if d, ok := l.Field(webproxy.FieldNetworkDuration); ok {
		env.Duration, env.HasDuration = int(d), true
	}

	ev := l.Event
	if ev == nil {
		return env
	}

	path, query := webproxy.SplitPathQuery(ev.URL)

	env.SourceIP = ev.SourceIP.String()
	env.DestinationIP = ev.DestinationIP.String()
	env.DestinationPort = int(ev.DestinationPort)
	env.Domain = ev.Domain
	env.URL = ev.URL
	env.Path = path
	env.Query = query
	env.Method = ev.HTTPMethod.String()
	env.Protocol = ev.Protocol.String()
	env.Status = int(ev.HTTPCode)
	env.MimeType = ev.MimeType
	env.InBytes = int(ev.InBytes)
	env.OutBytes = int(ev.OutBytes)
	env.User = ev.UserName
	env.Outcome = ev.Outcome.String()
	if ev.RuleName != nil {
		env.RuleName = *ev.RuleName
	}
	if ev.RuleCategory != nil {
		env.RuleCategory = ev.RuleCategory.String()
	}
	return env
}
