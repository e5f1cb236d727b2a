package cms

import (
	"strings"
)

// Platform identifies one of the supported content platforms.
type Platform string

const (
	Ghost     Platform = "ghost"
	Medium    Platform = "medium"
	Notion    Platform = "notion"
	Shopify   Platform = "shopify"
	Webflow   Platform = "webflow"
	WordPress Platform = "wordpress"
)

// Platforms lists every supported platform in a stable order.
var Platforms = []Platform{Ghost, Medium, Notion, Shopify, Webflow, WordPress}

var displayNames = map[Platform]string{
	Ghost:     "Ghost",
	Medium:    "Medium",
	Notion:    "Notion",
	Shopify:   "Shopify",
	Webflow:   "Webflow",
	WordPress: "WordPress",
}

// DisplayName returns the human readable platform name, which is also the
// value adapters return from Name.
func (p Platform) DisplayName() string {
	if name, ok := displayNames[p]; ok {
		return name
	}
	return string(p)
}

func (p Platform) String() string { return string(p) }

// ParsePlatform resolves a platform identifier case-insensitively.
func ParsePlatform(value string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := displayNames[p]; !ok {
		return "", &Error{
			Code:    CodeUnsupportedPlatform,
			Message: "unsupported CMS platform: " + value,
		}
	}
	return p, nil
}
