package classifier

import (
	"strings"

	"github.com/mileusna/useragent"
)

// Device types.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceTV      = "tv"
	DeviceUnknown = "unknown"
)

// UAInfo is the parsed browser environment of a page view.
type UAInfo struct {
	Browser        string
	BrowserVersion string
	OS             string
	OSVersion      string
	DeviceType     string
}

var tvMarkers = []string{
	"smart-tv",
	"smarttv",
	"googletv",
	"appletv",
	"hbbtv",
	"crkey",
	"roku",
	"viera",
	"netcast",
	"aquos",
	"dtv",
	"bravia",
	"tizen",
	"webos",
	"playstation",
	"xbox",
	"firetv",
}

// ParseUserAgent extracts browser, OS and device class from a user-agent
// string. Browser version is the major version only.
func ParseUserAgent(uaString string) UAInfo {
	ua := useragent.Parse(uaString)
	uaLower := strings.ToLower(uaString)

	info := UAInfo{
		Browser:        ua.Name,
		BrowserVersion: majorVersion(ua.Version),
		OS:             ua.OS,
		OSVersion:      ua.OSVersion,
		DeviceType:     deviceType(ua, uaLower),
	}
	if info.Browser == "" {
		info.Browser = "Unknown"
	}
	if info.OS == "" {
		info.OS = "Unknown"
	}
	return info
}

func deviceType(ua useragent.UserAgent, uaLower string) string {
	for _, marker := range tvMarkers {
		if strings.Contains(uaLower, marker) {
			return DeviceTV
		}
	}
	switch {
	case strings.Contains(uaLower, "ipad"), ua.Tablet:
		return DeviceTablet
	case ua.Mobile:
		return DeviceMobile
	// Android without a "Mobile" token is a tablet by convention.
	case strings.Contains(uaLower, "android"):
		return DeviceTablet
	default:
		return DeviceDesktop
	}
}

// DeviceTypeFromWidth maps a CSS viewport width in pixels to a device class.
// A zero width means the client did not report one.
func DeviceTypeFromWidth(width int) string {
	switch {
	case width <= 0:
		return DeviceUnknown
	case width < 768:
		return DeviceMobile
	case width < 1024:
		return DeviceTablet
	default:
		return DeviceDesktop
	}
}

// RefineDeviceType corrects a UA-derived device class with the reported
// viewport width. Desktop UAs in a narrow viewport are reclassified (desktop
// browsers in responsive mode, VMs, scaled windows); non-desktop UA
// detections always win.
func RefineDeviceType(uaDevice string, viewportWidth int) string {
	if uaDevice != DeviceDesktop || viewportWidth <= 0 {
		return uaDevice
	}
	return DeviceTypeFromWidth(viewportWidth)
}

func majorVersion(v string) string {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}
