package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ua       string
		isBot    bool
		botName  string
		category string
	}{
		{
			name:     "googlebot",
			ua:       "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			isBot:    true,
			botName:  "Google",
			category: BotSearchEngine,
		},
		{
			name:     "bingbot",
			ua:       "Mozilla/5.0 (compatible; bingbot/2.0; +http://www.bing.com/bingbot.htm)",
			isBot:    true,
			botName:  "Bing",
			category: BotSearchEngine,
		},
		{
			name:     "facebook preview",
			ua:       "facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)",
			isBot:    true,
			botName:  "Facebook",
			category: BotSocialPreview,
		},
		{
			name:     "gptbot",
			ua:       "Mozilla/5.0 AppleWebKit/537.36 (KHTML, like Gecko); compatible; GPTBot/1.0; +https://openai.com/gptbot",
			isBot:    true,
			botName:  "OpenAI GPT",
			category: BotAICrawler,
		},
		{
			name:     "ahrefs",
			ua:       "Mozilla/5.0 (compatible; AhrefsBot/7.0; +http://ahrefs.com/robot/)",
			isBot:    true,
			botName:  "Ahrefs",
			category: BotSEOTool,
		},
		{
			name:     "uptime robot",
			ua:       "Mozilla/5.0+(compatible; UptimeRobot/2.0; http://www.uptimerobot.com/)",
			isBot:    true,
			botName:  "UptimeRobot",
			category: BotMonitoring,
		},
		{
			name:     "curl",
			ua:       "curl/8.4.0",
			isBot:    true,
			botName:  "cURL",
			category: BotLibrary,
		},
		{
			name:     "python requests",
			ua:       "python-requests/2.31.0",
			isBot:    true,
			botName:  "Python Requests",
			category: BotLibrary,
		},
		{
			name:     "headless chrome",
			ua:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) HeadlessChrome/120.0.0.0 Safari/537.36",
			isBot:    true,
			botName:  "Headless Chrome",
			category: BotHeadless,
		},
		{
			name:     "feedly",
			ua:       "Feedly/1.0 (+http://www.feedly.com/fetcher.html)",
			isBot:    true,
			botName:  "Feedly",
			category: BotFeedReader,
		},
		{
			name:     "sqlmap",
			ua:       "sqlmap/1.7.11#stable (https://sqlmap.org)",
			isBot:    true,
			botName:  "SQLMap",
			category: BotSecurity,
		},
		{
			name:     "wayback machine",
			ua:       "Mozilla/5.0 (compatible; archive.org_bot +http://archive.org/details/archive.org_bot)",
			isBot:    true,
			botName:  "Internet Archive",
			category: BotArchiver,
		},
		{
			name:     "unknown bot by naming convention",
			ua:       "SomeRandomBot/3.2 (crawling the web)",
			isBot:    true,
			botName:  "Unknown Bot",
			category: BotUnknown,
		},
		{
			name:  "chrome on windows",
			ua:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			isBot: false,
		},
		{
			name:  "safari on mac",
			ua:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
			isBot: false,
		},
		{
			name:  "firefox on linux",
			ua:    "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			isBot: false,
		},
		{
			name:  "mobile safari",
			ua:    "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
			isBot: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DetectBot(tt.ua)
			require.Equal(t, tt.isBot, got.IsBot)
			if tt.isBot {
				assert.Equal(t, tt.botName, got.Name)
				assert.Equal(t, tt.category, got.Category)
			}
		})
	}
}

func TestDetectBotEmptyUA(t *testing.T) {
	t.Parallel()

	for _, ua := range []string{"", "   "} {
		got := DetectBot(ua)
		require.True(t, got.IsBot)
		assert.Equal(t, "Empty User-Agent", got.Name)
		assert.Equal(t, BotUnknown, got.Category)
	}
}

// ia_archiver appears in both the search-engine and archiver tables; order
// ensures the earlier group wins.
func TestDetectBotGroupPrecedence(t *testing.T) {
	t.Parallel()

	got := DetectBot("ia_archiver (+http://www.alexa.com/site/help/webmasters)")
	require.True(t, got.IsBot)
	assert.Equal(t, "Alexa", got.Name)
	assert.Equal(t, BotSearchEngine, got.Category)
}
