package parser

import (
	"strings"

	"github.com/cyra/squidnorm/internal/webproxy"
)

// Shalla list categories, see http://www.shallalist.de/categories.html
var ruleCategories = map[string]webproxy.RuleCategory{
	"adv":                    webproxy.CategorySpam,
	"aggressive":             webproxy.CategoryQuestionableLegality,
	"alcohol":                webproxy.CategoryAlcohol,
	"anonvpn":                webproxy.CategoryProxyAvoidance,
	"chat":                   webproxy.CategoryOnlineChat,
	"costtraps":              webproxy.CategoryPhishing,
	"dating":                 webproxy.CategoryPersonalsDating,
	"downloads":              webproxy.CategoryP2P,
	"drugs":                  webproxy.CategoryMarijuana,
	"dynamic":                webproxy.CategoryDynamicDNSHost,
	"education/schools":      webproxy.CategoryEducation,
	"fortunetelling":         webproxy.CategoryAlternativeSpirituality,
	"forum":                  webproxy.CategoryForums,
	"gamble":                 webproxy.CategoryGambling,
	"government":             webproxy.CategoryGovernment,
	"hacking":                webproxy.CategoryHacking,
	"homestyle":              webproxy.CategoryPersonalSites,
	"hospitals":              webproxy.CategoryHealth,
	"imagehosting":           webproxy.CategoryWebHosting,
	"isp":                    webproxy.CategoryInternetTelephony,
	"jobsearch":              webproxy.CategoryJobSearch,
	"library":                webproxy.CategoryEducation,
	"military":               webproxy.CategoryMilitary,
	"movies":                 webproxy.CategoryEducation,
	"music":                  webproxy.CategoryP2P,
	"news":                   webproxy.CategoryNews,
	"podcasts":               webproxy.CategoryRadioAudioStreams,
	"politics":               webproxy.CategoryPoliticalAdvocacy,
	"porn":                   webproxy.CategoryPornography,
	"radiotv":                webproxy.CategoryRadioAudioStreams,
	"recreation/humor":       webproxy.CategoryHumorJokes,
	"recreation/martialarts": webproxy.CategorySports,
	"recreation/restaurants": webproxy.CategoryRestaurants,
	"recreation/sports":      webproxy.CategorySports,
	"recreation/travel":      webproxy.CategoryTravel,
	"recreation/wellness":    webproxy.CategoryHealth,
	"redirector":             webproxy.CategoryURLShorteners,
	"religion":               webproxy.CategoryReligion,
	"remotecontrol":          webproxy.CategoryRemoteAccess,
	"ringtones":              webproxy.CategoryInternetTelephony,
	"science/astronomy":      webproxy.CategoryEducation,
	"science/chemistry":      webproxy.CategoryEducation,
	"searchengines":          webproxy.CategorySearchEngines,
	"sex/lingerie":           webproxy.CategoryIntimateApparel,
	"shopping":               webproxy.CategoryShopping,
	"socialnet":              webproxy.CategorySocialNetworking,
	"spyware":                webproxy.CategoryMaliciousSources,
	"tracker":                webproxy.CategoryWebAds,
	"updatesites":            webproxy.CategorySoftwareDownloads,
	"urlshortener":           webproxy.CategoryURLShorteners,
	"violence":               webproxy.CategoryViolence,
	"warez":                  webproxy.CategoryCopyrightConcerns,
	"weapons":                webproxy.CategoryWeapons,
	"webmail":                webproxy.CategoryEmail,
	"webphone":               webproxy.CategoryOnlineChat,
	"webradio":               webproxy.CategoryRadioAudioStreams,
	"webtv":                  webproxy.CategoryVideoStreams,
}

// RuleCategory maps a squidGuard rule name to a category. The automobile,
// finance and hobby families match by substring and win over the table.
func RuleCategory(rule string) webproxy.RuleCategory {
	switch {
	case strings.Contains(rule, "automobile"):
		return webproxy.CategoryVehicles
	case strings.Contains(rule, "finance"):
		return webproxy.CategoryFinance
	case strings.Contains(rule, "hobby"):
		return webproxy.CategoryPersonalSites
	}
	if c, ok := ruleCategories[rule]; ok {
		return c
	}
	return webproxy.CategoryUncategorized
}
