package webproxy

import "strings"

// Outcome is the normalized verdict for a proxied request.
type Outcome uint8

const (
	OutcomeAllow Outcome = iota
	OutcomeBlock
)

func (o Outcome) String() string {
	if o == OutcomeBlock {
		return "BLOCK"
	}
	return "ALLOW"
}

// MethodKind enumerates the HTTP methods the proxies report.
type MethodKind uint8

const (
	MethodUnknown MethodKind = iota
	MethodGET
	MethodPOST
	MethodPUT
	MethodPATCH
	MethodOPTIONS
	MethodCONNECT
)

var methodNames = [...]string{
	MethodGET:     "GET",
	MethodPOST:    "POST",
	MethodPUT:     "PUT",
	MethodPATCH:   "PATCH",
	MethodOPTIONS: "OPTIONS",
	MethodCONNECT: "CONNECT",
}

// HTTPMethod is a closed set of methods plus an Unknown variant that keeps
// the vendor's token (upper-cased) in Raw.
type HTTPMethod struct {
	Kind MethodKind
	Raw  string
}

// ParseHTTPMethod maps a raw method token. Matching is case-sensitive.
func ParseHTTPMethod(token string) HTTPMethod {
	switch token {
	case "GET":
		return HTTPMethod{Kind: MethodGET}
	case "POST":
		return HTTPMethod{Kind: MethodPOST}
	case "PUT":
		return HTTPMethod{Kind: MethodPUT}
	case "PATCH":
		return HTTPMethod{Kind: MethodPATCH}
	case "OPTIONS":
		return HTTPMethod{Kind: MethodOPTIONS}
	case "CONNECT":
		return HTTPMethod{Kind: MethodCONNECT}
	default:
		return HTTPMethod{Kind: MethodUnknown, Raw: strings.ToUpper(token)}
	}
}

// Known reports whether the method belongs to the closed set.
func (m HTTPMethod) Known() bool { return m.Kind != MethodUnknown }

func (m HTTPMethod) String() string {
	if m.Kind == MethodUnknown {
		return m.Raw
	}
	return methodNames[m.Kind]
}

// ProtocolKind enumerates URL schemes seen in proxy logs.
type ProtocolKind uint8

const (
	ProtocolUnknown ProtocolKind = iota
	ProtocolHTTP
	ProtocolHTTPS
	ProtocolFTP
	ProtocolWS
	ProtocolWSS
)

var protocolNames = [...]string{
	ProtocolHTTP:  "http",
	ProtocolHTTPS: "https",
	ProtocolFTP:   "ftp",
	ProtocolWS:    "ws",
	ProtocolWSS:   "wss",
}

// Protocol is a closed set of schemes plus an Unknown variant carrying the
// scheme verbatim. An empty scheme is Unknown with an empty Raw.
type Protocol struct {
	Kind ProtocolKind
	Raw  string
}

// ParseProtocol maps a URL scheme without case adjustment.
func ParseProtocol(scheme string) Protocol {
	switch scheme {
	case "http":
		return Protocol{Kind: ProtocolHTTP}
	case "https":
		return Protocol{Kind: ProtocolHTTPS}
	case "ftp":
		return Protocol{Kind: ProtocolFTP}
	case "ws":
		return Protocol{Kind: ProtocolWS}
	case "wss":
		return Protocol{Kind: ProtocolWSS}
	default:
		return Protocol{Kind: ProtocolUnknown, Raw: scheme}
	}
}

// Known reports whether the protocol belongs to the closed set.
func (p Protocol) Known() bool { return p.Kind != ProtocolUnknown }

func (p Protocol) String() string {
	if p.Kind == ProtocolUnknown {
		return p.Raw
	}
	return protocolNames[p.Kind]
}

// RuleCategory is the normalized category of a URL-filter rule.
type RuleCategory uint8

const (
	CategoryUncategorized RuleCategory = iota
	CategoryAlcohol
	CategoryAlternativeSpirituality
	CategoryCopyrightConcerns
	CategoryDynamicDNSHost
	CategoryEducation
	CategoryEmail
	CategoryFinance
	CategoryForums
	CategoryGambling
	CategoryGovernment
	CategoryHacking
	CategoryHealth
	CategoryHumorJokes
	CategoryIntimateApparel
	CategoryInternetTelephony
	CategoryJobSearch
	CategoryMaliciousSources
	CategoryMarijuana
	CategoryMilitary
	CategoryNews
	CategoryOnlineChat
	CategoryP2P
	CategoryPersonalSites
	CategoryPersonalsDating
	CategoryPhishing
	CategoryPoliticalAdvocacy
	CategoryPornography
	CategoryProxyAvoidance
	CategoryQuestionableLegality
	CategoryRadioAudioStreams
	CategoryReligion
	CategoryRemoteAccess
	CategoryRestaurants
	CategorySearchEngines
	CategoryShopping
	CategorySocialNetworking
	CategorySoftwareDownloads
	CategorySpam
	CategorySports
	CategoryTravel
	CategoryURLShorteners
	CategoryVehicles
	CategoryVideoStreams
	CategoryViolence
	CategoryWeapons
	CategoryWebAds
	CategoryWebHosting
)

var categoryNames = [...]string{
	CategoryUncategorized:           "Uncategorized",
	CategoryAlcohol:                 "Alcohol",
	CategoryAlternativeSpirituality: "AlternativeSpirituality",
	CategoryCopyrightConcerns:       "CopyrightConcerns",
	CategoryDynamicDNSHost:          "DynamicDNSHost",
	CategoryEducation:               "Education",
	CategoryEmail:                   "Email",
	CategoryFinance:                 "Finance",
	CategoryForums:                  "Forums",
	CategoryGambling:                "Gambling",
	CategoryGovernment:              "Government",
	CategoryHacking:                 "Hacking",
	CategoryHealth:                  "Health",
	CategoryHumorJokes:              "HumorJokes",
	CategoryIntimateApparel:         "IntimateApparel",
	CategoryInternetTelephony:       "InternetTelephony",
	CategoryJobSearch:               "JobSearch",
	CategoryMaliciousSources:        "MaliciousSources",
	CategoryMarijuana:               "Marijuana",
	CategoryMilitary:                "Military",
	CategoryNews:                    "News",
	CategoryOnlineChat:              "OnlineChat",
	CategoryP2P:                     "P2P",
	CategoryPersonalSites:           "PersonalSites",
	CategoryPersonalsDating:         "PersonalsDating",
	CategoryPhishing:                "Phishing",
	CategoryPoliticalAdvocacy:       "PoliticalAdvocacy",
	CategoryPornography:             "Pornography",
	CategoryProxyAvoidance:          "ProxyAvoidance",
	CategoryQuestionableLegality:    "QuestionableLegality",
	CategoryRadioAudioStreams:       "RadioAudioStreams",
	CategoryReligion:                "Religion",
	CategoryRemoteAccess:            "RemoteAccess",
	CategoryRestaurants:             "Restaurants",
	CategorySearchEngines:           "SearchEngines",
	CategoryShopping:                "Shopping",
	CategorySocialNetworking:        "SocialNetworking",
	CategorySoftwareDownloads:       "SoftwareDownloads",
	CategorySpam:                    "Spam",
	CategorySports:                  "Sports",
	CategoryTravel:                  "Travel",
	CategoryURLShorteners:           "URLShorteners",
	CategoryVehicles:                "Vehicles",
	CategoryVideoStreams:            "VideoStreams",
	CategoryViolence:                "Violence",
	CategoryWeapons:                 "Weapons",
	CategoryWebAds:                  "WebAds",
	CategoryWebHosting:              "WebHosting",
}

func (c RuleCategory) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return categoryNames[CategoryUncategorized]
}
