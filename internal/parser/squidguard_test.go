package parser

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyra/squidnorm/internal/webproxy"
)

func TestSquidGuard_Connect(t *testing.T) {
	line := "2021-02-14 00:02:33 [26] Request(default/porn/-) pornpage.com:443 172.17.0.1/172.17.0.1 - CONNECT REDIRECT"

	out, err := NewSquidGuard().Parse(rawLog(line))
	require.NoError(t, err)
	ev := out.Event
	require.NotNil(t, ev)

	assert.Equal(t, netip.MustParseAddr("172.17.0.1"), ev.SourceIP)
	assert.Equal(t, webproxy.Unspecified, ev.DestinationIP)
	assert.Equal(t, webproxy.OutcomeBlock, ev.Outcome)
	assert.Equal(t, uint32(503), ev.HTTPCode)
	assert.Equal(t, "pornpage.com", ev.Domain)
	assert.Equal(t, uint16(443), ev.DestinationPort)
	assert.Equal(t, uint32(0), ev.InBytes)
	assert.Equal(t, uint32(0), ev.OutBytes)
	assert.Equal(t, "", ev.MimeType)
	assert.Equal(t, "", ev.UserName)
	assert.Equal(t, webproxy.MethodCONNECT, ev.HTTPMethod.Kind)

	require.NotNil(t, ev.RuleName)
	assert.Equal(t, "porn", *ev.RuleName)
	require.NotNil(t, ev.RuleCategory)
	assert.Equal(t, webproxy.CategoryPornography, *ev.RuleCategory)
	assert.Equal(t, "Pornography", ev.RuleCategory.String())

	assert.Equal(t, int64(1613260953000), out.Created)
	assert.Equal(t, webproxy.Milliseconds, out.CreatedUnit)
	assert.Equal(t, "2021-02-14 00:02:33", out.CreatedTime().Format("2006-01-02 15:04:05"))
	assert.Equal(t, line, out.Message)

	_, ok := out.Field(webproxy.FieldNetworkDuration)
	assert.False(t, ok)
}

func TestSquidGuard_Categories(t *testing.T) {
	tests := []struct {
		rule     string
		host     string
		category webproxy.RuleCategory
	}{
		{"hacking", "hackpage.com", webproxy.CategoryHacking},
		{"porn", "pornpage.com", webproxy.CategoryPornography},
		{"anonvpn", "anonpage.com", webproxy.CategoryProxyAvoidance},
		{"lingerie", "lingeriepage.com", webproxy.CategoryUncategorized},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			line := "2021-03-13 19:46:49 [21] Request(default/" + tt.rule + "/-) http://" + tt.host +
				"/random-stuff/and-random.html?param_1=value_1&param_2=value_2 172.17.0.1/172.17.0.1 - GET REDIRECT"

			out, err := NewSquidGuard().Parse(rawLog(line))
			require.NoError(t, err)
			ev := out.Event

			assert.Equal(t, webproxy.Unspecified, ev.DestinationIP)
			assert.Equal(t, webproxy.OutcomeBlock, ev.Outcome)
			assert.Equal(t, tt.host, ev.Domain)
			assert.Equal(t, uint16(80), ev.DestinationPort)
			assert.Equal(t, webproxy.ProtocolHTTP, ev.Protocol.Kind)
			assert.Equal(t, "GET", ev.HTTPMethod.String())
			assert.Equal(t, tt.category, *ev.RuleCategory)

			path, query := webproxy.SplitPathQuery(ev.URL)
			assert.Equal(t, "/random-stuff/and-random.html", path)
			assert.Equal(t, "?param_1=value_1&param_2=value_2", query)
		})
	}
}

func TestSquidGuard_UserAndHeaderVariants(t *testing.T) {
	line := "2021-03-13 19:46:49 Request(office/finance-banks/x) https://bank.example/login 10.0.0.7/pc7.lan bob POST"

	out, err := NewSquidGuard().Parse(rawLog(line))
	require.NoError(t, err)
	ev := out.Event
	assert.Equal(t, "bob", ev.UserName)
	assert.Equal(t, webproxy.MethodPOST, ev.HTTPMethod.Kind)
	assert.Equal(t, uint16(443), ev.DestinationPort)
	assert.Equal(t, "finance-banks", *ev.RuleName)
	assert.Equal(t, webproxy.CategoryFinance, *ev.RuleCategory)
	assert.Equal(t, "2021-03-13 19:46:49", out.CreatedTime().Format("2006-01-02 15:04:05"))
}

func TestSquidGuard_NumericURLSetsDuration(t *testing.T) {
	line := "2021-03-13 19:46:49 [21] Request(default/adv/-) 12345 172.17.0.1/- - GET REDIRECT"

	out, err := NewSquidGuard().Parse(rawLog(line))
	require.NoError(t, err)
	d, ok := out.Field(webproxy.FieldNetworkDuration)
	assert.True(t, ok)
	assert.Equal(t, uint64(12345), d)
}

func TestSquidGuard_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
		kind error
	}{
		{
			name: "no request marker",
			line: "1613260836.628 287 172.17.0.1 TCP_MISS/200 1 GET http://a/ - HIER_DIRECT/1.1.1.1 -",
			kind: ErrFormatMismatch,
		},
		{
			name: "too few body tokens",
			line: "2021-02-14 00:02:33 [26] Request(default/porn/-) pornpage.com:443 172.17.0.1/172.17.0.1 -",
			kind: ErrParse,
		},
		{
			name: "bad timestamp",
			line: "2021-02-31 00:02:33 [26] Request(default/porn/-) pornpage.com:443 172.17.0.1/172.17.0.1 - CONNECT REDIRECT",
			kind: ErrParse,
		},
		{
			name: "header without time",
			line: "[26] Request(default/porn/-) pornpage.com:443 172.17.0.1/172.17.0.1 - CONNECT REDIRECT",
			kind: ErrParse,
		},
		{
			name: "rule tag without second slash",
			line: "2021-02-14 00:02:33 [26] Request(default) pornpage.com:443 172.17.0.1/172.17.0.1 - CONNECT REDIRECT",
			kind: ErrParse,
		},
		{
			name: "client without slash",
			line: "2021-02-14 00:02:33 [26] Request(default/porn/-) pornpage.com:443 172.17.0.1 - CONNECT REDIRECT",
			kind: ErrParse,
		},
		{
			name: "client not an address",
			line: "2021-02-14 00:02:33 [26] Request(default/porn/-) pornpage.com:443 pc7.lan/pc7.lan - CONNECT REDIRECT",
			kind: ErrFormatMismatch,
		},
		{
			name: "port not numeric",
			line: "2021-02-14 00:02:33 [26] Request(default/porn/-) pornpage.com:https 172.17.0.1/- - CONNECT REDIRECT",
			kind: ErrParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := rawLog(tt.line)
			out, err := NewSquidGuard().Parse(in)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.kind)

			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Same(t, in, perr.Log)
		})
	}
}

func TestParseRuleTag(t *testing.T) {
	tests := []struct {
		tag     string
		ruleset string
		rule    string
		wantErr bool
	}{
		{"Request(default/porn/-)", "default", "porn", false},
		{"Request(office/recreation/humor/-)", "office", "recreation", false},
		{"Request(default//-)", "default", "", false},
		{"Request(default/porn)", "", "", true},
		{"Request(default)", "", "", true},
		{"default/porn/-", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			ruleset, rule, err := parseRuleTag(tt.tag)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ruleset, ruleset)
			assert.Equal(t, tt.rule, rule)
		})
	}
}

func TestRuleCategory(t *testing.T) {
	tests := []struct {
		rule string
		want webproxy.RuleCategory
	}{
		{"porn", webproxy.CategoryPornography},
		{"adv", webproxy.CategorySpam},
		{"anonvpn", webproxy.CategoryProxyAvoidance},
		{"hacking", webproxy.CategoryHacking},
		{"sex/lingerie", webproxy.CategoryIntimateApparel},
		{"recreation/humor", webproxy.CategoryHumorJokes},
		{"webtv", webproxy.CategoryVideoStreams},
		{"automobile/cars", webproxy.CategoryVehicles},
		{"finance/banking", webproxy.CategoryFinance},
		{"hobby/games-online", webproxy.CategoryPersonalSites},
		{"hobby-finance", webproxy.CategoryFinance},
		{"automobile-finance", webproxy.CategoryVehicles},
		{"Porn", webproxy.CategoryUncategorized},
		{"", webproxy.CategoryUncategorized},
		{"nosuchlist", webproxy.CategoryUncategorized},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			assert.Equal(t, tt.want, RuleCategory(tt.rule))
		})
	}
}
