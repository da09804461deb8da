package classifier

import (
	"regexp"
	"strings"
)

// BotInfo describes detected automated traffic.
type BotInfo struct {
	IsBot    bool
	Name     string
	Category string
}

// Bot categories used for analytics grouping.
const (
	BotSearchEngine  = "search_engine"
	BotSocialPreview = "social_preview"
	BotAICrawler     = "ai_crawler"
	BotSEOTool       = "seo_tool"
	BotMonitoring    = "monitoring"
	BotLibrary       = "library"
	BotHeadless      = "headless"
	BotFeedReader    = "feed_reader"
	BotSecurity      = "security"
	BotArchiver      = "archiver"
	BotUnknown       = "unknown"
)

type botPattern struct {
	pattern string
	name    string
}

// Pattern tables are ordered: the first match within a group wins, and groups
// are checked in the order of botPatternGroups. Keep both orders stable,
// downstream dashboards depend on deterministic classification.

var searchEngineBots = []botPattern{
	{"googlebot", "Google"},
	{"google-inspectiontool", "Google Search Console"},
	{"google-safety", "Google Safe Browsing"},
	{"googleother", "Google Other"},
	{"google-adwords", "Google Ads"},
	{"adsbot-google", "Google Ads"},
	{"mediapartners-google", "Google AdSense"},
	{"apis-google", "Google APIs"},
	{"feedfetcher-google", "Google Feeds"},
	{"google-read-aloud", "Google Read Aloud"},
	{"bingbot", "Bing"},
	{"bingpreview", "Bing Preview"},
	{"msnbot", "MSN/Bing"},
	{"adidxbot", "Bing Ads"},
	{"yandexbot", "Yandex"},
	{"yandex.com/bots", "Yandex"},
	{"duckduckbot", "DuckDuckGo"},
	{"duckduckgo", "DuckDuckGo"},
	{"baiduspider", "Baidu"},
	{"sogou", "Sogou"},
	{"qwantify", "Qwant"},
	{"ecosia", "Ecosia"},
	{"exabot", "Exalead"},
	{"ia_archiver", "Alexa"},
	{"applebot", "Apple"},
	{"petalbot", "Huawei Petal"},
	{"seznambot", "Seznam"},
	{"naver", "Naver"},
	{"daum", "Daum"},
	{"360spider", "Qihoo 360"},
	{"yisouspider", "Yisou"},
}

var socialPreviewBots = []botPattern{
	{"facebookexternalhit", "Facebook"},
	{"facebookcatalog", "Facebook Catalog"},
	{"meta-externalagent", "Meta"},
	{"twitterbot", "Twitter"},
	{"linkedinbot", "LinkedIn"},
	{"pinterestbot", "Pinterest"},
	{"pinterest.com", "Pinterest"},
	{"slackbot", "Slack"},
	{"slack-imgproxy", "Slack"},
	{"telegrambot", "Telegram"},
	{"whatsapp", "WhatsApp"},
	{"discordbot", "Discord"},
	{"viber", "Viber"},
	{"line-poker", "LINE"},
	{"kakaotalk", "KakaoTalk"},
	{"redditbot", "Reddit"},
	{"embedly", "Embedly"},
	{"quora link preview", "Quora"},
	{"tumblr", "Tumblr"},
	{"flipboard", "Flipboard"},
	{"w3c_validator", "W3C Validator"},
}

var aiCrawlerBots = []botPattern{
	{"gptbot", "OpenAI GPT"},
	{"chatgpt-user", "ChatGPT"},
	{"oai-searchbot", "OpenAI Search"},
	{"anthropic-ai", "Anthropic"},
	{"claude-web", "Claude"},
	{"claudebot", "Claude"},
	{"perplexitybot", "Perplexity"},
	{"cohere-ai", "Cohere"},
	{"google-extended", "Google AI/Bard"},
	{"bytespider", "ByteDance AI"},
	{"amazonbot", "Amazon Alexa AI"},
	{"omgilibot", "Omgili"},
	{"omgili", "Omgili"},
	{"diffbot", "Diffbot"},
	{"ccbot", "Common Crawl"},
	{"youbot", "You.com"},
	{"meta-externalfetcher", "Meta AI"},
}

var seoToolBots = []botPattern{
	{"ahrefsbot", "Ahrefs"},
	{"ahrefs.com", "Ahrefs"},
	{"semrushbot", "SEMrush"},
	{"semrush.com", "SEMrush"},
	{"mj12bot", "Majestic"},
	{"majestic.com", "Majestic"},
	{"dotbot", "Moz"},
	{"rogerbot", "Moz"},
	{"moz.com", "Moz"},
	{"screaming frog", "Screaming Frog"},
	{"seokicks", "SEOkicks"},
	{"sistrix", "SISTRIX"},
	{"blexbot", "Webmeup"},
	{"dataforseo", "DataForSEO"},
	{"serpstatbot", "Serpstat"},
	{"seobilitybot", "Seobility"},
	{"siteauditbot", "SiteAudit"},
	{"spyfu", "SpyFu"},
	{"linkdexbot", "Linkdex"},
	{"barkrowler", "Babbar"},
	{"domcopbot", "DomCop"},
	{"megaindex", "MegaIndex"},
}

var monitoringBots = []botPattern{
	{"uptimerobot", "UptimeRobot"},
	{"pingdom", "Pingdom"},
	{"site24x7", "Site24x7"},
	{"statuscake", "StatusCake"},
	{"freshping", "Freshping"},
	{"hetrixtools", "HetrixTools"},
	{"nodeping", "NodePing"},
	{"newrelicpinger", "New Relic"},
	{"new relic", "New Relic"},
	{"datadog", "Datadog"},
	{"dynatrace", "Dynatrace"},
	{"appoptics", "AppOptics"},
	{"sentry", "Sentry"},
	{"jetmon", "Jetpack"},
	{"monitis", "Monitis"},
	{"catchpoint", "Catchpoint"},
	{"gomez", "Dynatrace Gomez"},
	{"webpagetest", "WebPageTest"},
	{"gtmetrix", "GTmetrix"},
	{"pagespeed", "PageSpeed"},
}

var httpLibraryBots = []botPattern{
	{"wget", "Wget"},
	{"curl", "cURL"},
	{"httpie", "HTTPie"},
	{"lynx", "Lynx"},
	{"python-requests", "Python Requests"},
	{"python-urllib", "Python urllib"},
	{"python-httpx", "Python httpx"},
	{"aiohttp", "Python aiohttp"},
	{"go-http-client", "Go HTTP"},
	{"java/", "Java"},
	{"okhttp", "OkHttp (Java/Android)"},
	{"apache-httpclient", "Apache HttpClient"},
	{"node-fetch", "Node.js fetch"},
	{"axios", "Axios"},
	{"needle", "Needle (Node.js)"},
	{"request/", "Request (Node.js)"},
	{"superagent", "SuperAgent"},
	{"libwww-perl", "Perl LWP"},
	{"php/", "PHP"},
	{"guzzle", "Guzzle (PHP)"},
	{"cfnetwork", "CFNetwork (Apple)"},
	{"restsharp", "RestSharp (.NET)"},
	{"httpclient", "HttpClient (.NET)"},
}

var headlessBrowserBots = []botPattern{
	{"headlesschrome", "Headless Chrome"},
	{"headless chrome", "Headless Chrome"},
	{"phantomjs", "PhantomJS"},
	{"slimerjs", "SlimerJS"},
	{"selenium", "Selenium"},
	{"puppeteer", "Puppeteer"},
	{"playwright", "Playwright"},
	{"electron", "Electron"},
	{"prerender", "Prerender"},
	{"rendertron", "Rendertron"},
	{"browserless", "Browserless"},
}

var feedReaderBots = []botPattern{
	{"feedly", "Feedly"},
	{"feedbin", "Feedbin"},
	{"inoreader", "Inoreader"},
	{"theoldreader", "The Old Reader"},
	{"newsblur", "NewsBlur"},
	{"netvibes", "Netvibes"},
	{"feedspot", "Feedspot"},
	{"superfeedr", "Superfeedr"},
	{"feedpress", "FeedPress"},
	{"feeder.co", "Feeder"},
	{"bazqux", "BazQux"},
}

var securityScannerBots = []botPattern{
	{"nessus", "Nessus"},
	{"qualys", "Qualys"},
	{"netsparker", "Netsparker"},
	{"acunetix", "Acunetix"},
	{"nikto", "Nikto"},
	{"sqlmap", "SQLMap"},
	{"wpscan", "WPScan"},
	{"zgrab", "ZGrab"},
	{"masscan", "Masscan"},
	{"nmap", "Nmap"},
	{"censys", "Censys"},
	{"shodan", "Shodan"},
}

var archiverBots = []botPattern{
	{"archive.org_bot", "Internet Archive"},
	{"ia_archiver", "Internet Archive"},
	{"wayback", "Wayback Machine"},
	{"arquivo.pt", "Arquivo.pt"},
	{"webarchive", "Web Archive"},
	{"httrack", "HTTrack"},
}

type botPatternGroup struct {
	patterns []botPattern
	category string
}

// Ordered roughly by frequency; a UA matching patterns in two groups always
// resolves to the earlier group.
var botPatternGroups = []botPatternGroup{
	{searchEngineBots, BotSearchEngine},
	{socialPreviewBots, BotSocialPreview},
	{aiCrawlerBots, BotAICrawler},
	{seoToolBots, BotSEOTool},
	{monitoringBots, BotMonitoring},
	{httpLibraryBots, BotLibrary},
	{headlessBrowserBots, BotHeadless},
	{feedReaderBots, BotFeedReader},
	{securityScannerBots, BotSecurity},
	{archiverBots, BotArchiver},
}

// genericBotRegex catches unknown bots following naming conventions. It will
// flag the occasional legitimate UA containing one of these substrings;
// dashboards assume this exact behavior, don't tighten it.
var genericBotRegex = regexp.MustCompile(`(?i)\bbot\b|\bcrawl|\bspider\b|\bscrape|\bfetch|\bindex|\barchive|\bmonitor|\bcheck|\bscan|\bvalidat|\bpreview|\bslurp|\brobots|http://|https://`)

// DetectBot classifies a user-agent string as automated traffic or not.
// Empty user-agents are treated as bots (misconfigured or suspicious
// clients), known patterns win over the generic fallback.
func DetectBot(userAgent string) BotInfo {
	if strings.TrimSpace(userAgent) == "" {
		return BotInfo{IsBot: true, Name: "Empty User-Agent", Category: BotUnknown}
	}

	uaLower := strings.ToLower(userAgent)

	for _, group := range botPatternGroups {
		for _, p := range group.patterns {
			if strings.Contains(uaLower, p.pattern) {
				return BotInfo{IsBot: true, Name: p.name, Category: group.category}
			}
		}
	}

	if genericBotRegex.MatchString(uaLower) {
		return BotInfo{IsBot: true, Name: "Unknown Bot", Category: BotUnknown}
	}

	return BotInfo{}
}
