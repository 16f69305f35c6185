// Package platform classifies user agents and picks redirect targets.
package platform

import "strings"

type Platform string

const (
	IOS     Platform = "ios"
	Android Platform = "android"
	Other   Platform = "other"
)

// Target is the pair of URLs handed to the interstitial page: the deep link
// to attempt and the URL to land on when the app is not installed.
type Target struct {
	Platform    Platform
	RedirectURL string
	FallbackURL string
}

// Resolver holds the configured per-platform destinations.
type Resolver struct {
	Scheme      string // deep-link URI scheme, without "://"
	IOSStore    string
	AndroidPlay string
	DefaultWeb  string
}

// Classify maps a user agent and a link path to redirect targets. It never
// fails: anything that is not recognizably iOS or Android gets the default
// web target. iOS substrings are tested before Android because a handful of
// agents mention both.
func (r *Resolver) Classify(userAgent, path string) Target {
	switch Detect(userAgent) {
	case IOS:
		return Target{
			Platform:    IOS,
			RedirectURL: r.Scheme + "://" + path,
			FallbackURL: r.IOSStore,
		}
	case Android:
		return Target{
			Platform:    Android,
			RedirectURL: r.Scheme + "://" + path,
			FallbackURL: r.AndroidPlay,
		}
	default:
		return Target{
			Platform:    Other,
			RedirectURL: r.DefaultWeb,
			FallbackURL: r.DefaultWeb,
		}
	}
}

// Detect returns the platform for a user agent string.
func Detect(userAgent string) Platform {
	ua := strings.ToLower(userAgent)
	if strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "ipod") {
		return IOS
	}
	if strings.Contains(ua, "android") {
		return Android
	}
	return Other
}
