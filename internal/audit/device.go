package audit

import (
	"strings"

	"github.com/mssola/useragent"
)

// DescribeUserAgent renders a User-Agent header as "Browser on OS"
func DescribeUserAgent(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgent)
	if ua.Bot() {
		name, _ := ua.Browser()
		if name == "" {
			return "Bot"
		}
		return "Bot " + name
	}

	browser, _ := ua.Browser()
	os := ua.OSInfo().Name
	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			os = platform
		}
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
