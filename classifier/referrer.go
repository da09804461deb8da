package classifier

import (
	"net/url"
	"strings"
)

// Traffic source types.
const (
	SourceDirect   = "direct"
	SourceOrganic  = "organic"
	SourceSocial   = "social"
	SourceEmail    = "email"
	SourceReferral = "referral"
)

// ReferrerInfo is the classified traffic source of a page view.
type ReferrerInfo struct {
	Type   string
	Domain string
	Source string
}

type sourcePattern struct {
	pattern string
	name    string
}

var emailProviders = []sourcePattern{
	{"mail.google.com", "Gmail"},
	{"outlook.live.com", "Outlook"},
	{"outlook.office", "Outlook"},
	{"mail.yahoo.com", "Yahoo Mail"},
	{"mail.aol.com", "AOL Mail"},
	{"mail.proton.me", "Proton Mail"},
	{"protonmail", "Proton Mail"},
	{"mail.zoho.com", "Zoho Mail"},
	{"mailchimp", "Mailchimp"},
	{"mailchi.mp", "Mailchimp"},
	{"campaign-archive", "Mailchimp"},
	{"sendgrid", "SendGrid"},
	{"constantcontact", "Constant Contact"},
	{"substack.com", "Substack"},
	{"buttondown", "Buttondown"},
	{"convertkit", "ConvertKit"},
	{"klaviyo", "Klaviyo"},
	{"getrevue", "Revue"},
}

// Generic markers checked against both the extracted domain and the full
// referrer URL.
var emailIndicators = []string{
	"mail.",
	"email.",
	"webmail.",
	"newsletter",
	"campaign",
	"mailer",
}

var searchEngines = []sourcePattern{
	{"google.", "Google"},
	{"bing.com", "Bing"},
	{"search.yahoo", "Yahoo"},
	{"yahoo.com", "Yahoo"},
	{"duckduckgo.com", "DuckDuckGo"},
	{"yandex.", "Yandex"},
	{"baidu.com", "Baidu"},
	{"ecosia.org", "Ecosia"},
	{"qwant.com", "Qwant"},
	{"startpage.com", "Startpage"},
	{"search.brave.com", "Brave Search"},
	{"searx", "SearX"},
	{"kagi.com", "Kagi"},
	{"seznam.cz", "Seznam"},
	{"naver.com", "Naver"},
	{"sogou.com", "Sogou"},
	{"so.com", "Qihoo 360"},
	{"ask.com", "Ask"},
	{"aol.com", "AOL"},
	{"presearch", "Presearch"},
	{"mojeek.com", "Mojeek"},
}

var socialNetworks = []sourcePattern{
	{"facebook.com", "Facebook"},
	{"fb.com", "Facebook"},
	{"m.facebook", "Facebook"},
	{"l.facebook", "Facebook"},
	{"lm.facebook", "Facebook"},
	{"instagram.com", "Instagram"},
	{"l.instagram", "Instagram"},
	{"twitter.com", "Twitter/X"},
	{"t.co", "Twitter/X"},
	{"x.com", "Twitter/X"},
	{"linkedin.com", "LinkedIn"},
	{"lnkd.in", "LinkedIn"},
	{"youtube.com", "YouTube"},
	{"youtu.be", "YouTube"},
	{"reddit.com", "Reddit"},
	{"old.reddit", "Reddit"},
	{"out.reddit", "Reddit"},
	{"pinterest.", "Pinterest"},
	{"pin.it", "Pinterest"},
	{"tiktok.com", "TikTok"},
	{"snapchat.com", "Snapchat"},
	{"tumblr.com", "Tumblr"},
	{"whatsapp.com", "WhatsApp"},
	{"wa.me", "WhatsApp"},
	{"telegram.org", "Telegram"},
	{"t.me", "Telegram"},
	{"discord.com", "Discord"},
	{"discord.gg", "Discord"},
	{"discordapp", "Discord"},
	{"mastodon", "Mastodon"},
	{"threads.net", "Threads"},
	{"bsky.app", "Bluesky"},
	{"news.ycombinator.com", "Hacker News"},
	{"lobste.rs", "Lobsters"},
	{"slashdot.org", "Slashdot"},
	{"quora.com", "Quora"},
	{"medium.com", "Medium"},
	{"dev.to", "DEV Community"},
	{"hashnode", "Hashnode"},
	{"twitch.tv", "Twitch"},
	{"vk.com", "VK"},
	{"weibo.com", "Weibo"},
	{"line.me", "LINE"},
	{"kakao", "KakaoTalk"},
	{"nextdoor.com", "Nextdoor"},
	{"slack.com", "Slack"},
}

// ClassifyReferrer resolves the traffic source for a referrer URL. An empty
// referrer is direct traffic. The domain is normalized with any leading www.
// stripped; if the referrer cannot be parsed as a URL the raw lowercased
// string stands in for the domain.
func ClassifyReferrer(referrer string) ReferrerInfo {
	referrer = strings.TrimSpace(referrer)
	if referrer == "" {
		return ReferrerInfo{Type: SourceDirect}
	}

	refLower := strings.ToLower(referrer)
	domain := extractDomain(refLower)

	for _, p := range emailProviders {
		if strings.Contains(domain, p.pattern) || strings.Contains(refLower, p.pattern) {
			return ReferrerInfo{Type: SourceEmail, Domain: domain, Source: p.name}
		}
	}
	for _, marker := range emailIndicators {
		if strings.Contains(domain, marker) || strings.Contains(refLower, marker) {
			return ReferrerInfo{Type: SourceEmail, Domain: domain, Source: "Email"}
		}
	}

	for _, p := range searchEngines {
		if strings.Contains(domain, p.pattern) {
			return ReferrerInfo{Type: SourceOrganic, Domain: domain, Source: p.name}
		}
	}

	for _, p := range socialNetworks {
		if strings.Contains(domain, p.pattern) {
			return ReferrerInfo{Type: SourceSocial, Domain: domain, Source: p.name}
		}
	}

	return ReferrerInfo{Type: SourceReferral, Domain: domain, Source: domain}
}

func extractDomain(refLower string) string {
	raw := refLower
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return strings.TrimPrefix(refLower, "www.")
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
