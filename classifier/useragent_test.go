package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	uaChromeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaIPhoneSafari  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1"
	uaIPad          = "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
	uaAndroidPhone  = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.43 Mobile Safari/537.36"
	uaAndroidTablet = "Mozilla/5.0 (Linux; Android 13; SM-X700) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.6045.66 Safari/537.36"
	uaSmartTV       = "Mozilla/5.0 (SMART-TV; Linux; Tizen 6.5) AppleWebKit/537.36 (KHTML, like Gecko) Version/5.0 TV Safari/537.36"
)

func TestParseUserAgent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		ua         string
		browser    string
		majorVer   string
		os         string
		deviceType string
	}{
		{
			name:       "chrome on windows",
			ua:         uaChromeWindows,
			browser:    "Chrome",
			majorVer:   "120",
			os:         "Windows",
			deviceType: DeviceDesktop,
		},
		{
			name:       "safari on iphone",
			ua:         uaIPhoneSafari,
			browser:    "Safari",
			majorVer:   "17",
			os:         "iOS",
			deviceType: DeviceMobile,
		},
		{
			name:       "safari on ipad",
			ua:         uaIPad,
			browser:    "Safari",
			majorVer:   "16",
			os:         "iOS",
			deviceType: DeviceTablet,
		},
		{
			name:       "chrome on android phone",
			ua:         uaAndroidPhone,
			browser:    "Chrome",
			majorVer:   "120",
			os:         "Android",
			deviceType: DeviceMobile,
		},
		{
			name:       "android without mobile token is tablet",
			ua:         uaAndroidTablet,
			browser:    "Chrome",
			majorVer:   "119",
			os:         "Android",
			deviceType: DeviceTablet,
		},
		{
			name:       "smart tv",
			ua:         uaSmartTV,
			deviceType: DeviceTV,
		},
		{
			name:       "playstation",
			ua:         "Mozilla/5.0 (PlayStation 5 5.02) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/13.0 Safari/605.1.15",
			deviceType: DeviceTV,
		},
		{
			name:       "xbox",
			ua:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64; Xbox; Xbox One) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/48.0.2564.82 Safari/537.36 Edge/20.02",
			deviceType: DeviceTV,
		},
		{
			name:       "fire tv",
			ua:         "Mozilla/5.0 (Linux; Android 7.1.2; AFTMM Build/NS6265; FireTV) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/59.0.3071.125 Mobile Safari/537.36",
			deviceType: DeviceTV,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseUserAgent(tt.ua)
			assert.Equal(t, tt.deviceType, got.DeviceType)
			if tt.browser != "" {
				assert.Equal(t, tt.browser, got.Browser)
				assert.Equal(t, tt.majorVer, got.BrowserVersion)
				assert.Equal(t, tt.os, got.OS)
			}
		})
	}
}

func TestDeviceTypeFromWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		width int
		want  string
	}{
		{0, DeviceUnknown},
		{-1, DeviceUnknown},
		{1, DeviceMobile},
		{375, DeviceMobile},
		{767, DeviceMobile},
		{768, DeviceTablet},
		{1023, DeviceTablet},
		{1024, DeviceDesktop},
		{2560, DeviceDesktop},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DeviceTypeFromWidth(tt.width), "width %d", tt.width)
	}
}

func TestRefineDeviceType(t *testing.T) {
	t.Parallel()

	// Desktop UA in a narrow viewport gets reclassified.
	assert.Equal(t, DeviceMobile, RefineDeviceType(DeviceDesktop, 375))
	assert.Equal(t, DeviceTablet, RefineDeviceType(DeviceDesktop, 800))
	assert.Equal(t, DeviceDesktop, RefineDeviceType(DeviceDesktop, 1440))

	// No viewport reported keeps the UA verdict.
	assert.Equal(t, DeviceDesktop, RefineDeviceType(DeviceDesktop, 0))

	// Non-desktop UA verdicts are trusted regardless of viewport.
	assert.Equal(t, DeviceMobile, RefineDeviceType(DeviceMobile, 1440))
	assert.Equal(t, DeviceTV, RefineDeviceType(DeviceTV, 375))
}
