// Package platform defines the closed set of supported social platforms and
// renders their deep-link and web URL templates.
package platform

import (
	"fmt"
	"strings"
)

// Placeholder is substituted with the handle when rendering a template.
const Placeholder = "{username}"

// Platform identifies a supported social platform.
type Platform uint8

// Supported platforms, in catalog order.
const (
	Instagram Platform = iota
	Snapchat
	WhatsApp
	Telegram
	Discord
	TikTok
	Twitter
	LinkedIn
	Signal
	Messenger
	Threads
	Custom

	count // number of platforms; keep last
)

// Info describes how a platform is presented and launched.
type Info struct {
	Name             string // stable identifier used for persistence and dedup keys
	DisplayName      string
	DeepLinkTemplate string
	WebURLTemplate   string
	AppID            string // package/bundle identifier the host checks for installation
	Icon             string // opaque icon reference for UIs
}

var catalog = [count]Info{
	Instagram: {
		Name:             "instagram",
		DisplayName:      "Instagram",
		DeepLinkTemplate: "instagram://user?username={username}",
		WebURLTemplate:   "https://instagram.com/{username}",
		AppID:            "com.instagram.android",
		Icon:             "ic_instagram",
	},
	Snapchat: {
		Name:             "snapchat",
		DisplayName:      "Snapchat",
		DeepLinkTemplate: "snapchat://add/{username}",
		WebURLTemplate:   "https://snapchat.com/add/{username}",
		AppID:            "com.snapchat.android",
		Icon:             "ic_snapchat",
	},
	WhatsApp: {
		Name:             "whatsapp",
		DisplayName:      "WhatsApp",
		DeepLinkTemplate: "https://wa.me/{username}",
		WebURLTemplate:   "https://wa.me/{username}",
		AppID:            "com.whatsapp",
		Icon:             "ic_whatsapp",
	},
	Telegram: {
		Name:             "telegram",
		DisplayName:      "Telegram",
		DeepLinkTemplate: "tg://resolve?domain={username}",
		WebURLTemplate:   "https://t.me/{username}",
		AppID:            "org.telegram.messenger",
		Icon:             "ic_telegram",
	},
	Discord: {
		Name:             "discord",
		DisplayName:      "Discord",
		DeepLinkTemplate: "discord://users/{username}",
		WebURLTemplate:   "https://discord.com/users/{username}",
		AppID:            "com.discord",
		Icon:             "ic_discord",
	},
	TikTok: {
		Name:             "tiktok",
		DisplayName:      "TikTok",
		DeepLinkTemplate: "snssdk1128://user/profile/{username}",
		WebURLTemplate:   "https://tiktok.com/@{username}",
		AppID:            "com.ss.android.ugc.tiktok",
		Icon:             "ic_tiktok",
	},
	Twitter: {
		Name:             "twitter",
		DisplayName:      "X (Twitter)",
		DeepLinkTemplate: "twitter://user?screen_name={username}",
		WebURLTemplate:   "https://x.com/{username}",
		AppID:            "com.twitter.android",
		Icon:             "ic_twitter",
	},
	LinkedIn: {
		Name:             "linkedin",
		DisplayName:      "LinkedIn",
		DeepLinkTemplate: "linkedin://profile/{username}",
		WebURLTemplate:   "https://linkedin.com/in/{username}",
		AppID:            "com.linkedin.android",
		Icon:             "ic_linkedin",
	},
	Signal: {
		Name:             "signal",
		DisplayName:      "Signal",
		DeepLinkTemplate: "sgnl://signal.me/#p/{username}",
		WebURLTemplate:   "https://signal.me/#p/{username}",
		AppID:            "org.thoughtcrime.securesms",
		Icon:             "ic_signal",
	},
	Messenger: {
		Name:             "messenger",
		DisplayName:      "Messenger",
		DeepLinkTemplate: "fb-messenger://user/{username}",
		WebURLTemplate:   "https://m.me/{username}",
		AppID:            "com.facebook.orca",
		Icon:             "ic_messenger",
	},
	Threads: {
		Name:             "threads",
		DisplayName:      "Threads",
		DeepLinkTemplate: "barcelona://user?username={username}",
		WebURLTemplate:   "https://threads.net/@{username}",
		AppID:            "com.instagram.barcelona",
		Icon:             "ic_threads",
	},
	Custom: {
		Name:             "custom",
		DisplayName:      "Custom Link",
		DeepLinkTemplate: Placeholder,
		WebURLTemplate:   Placeholder,
		Icon:             "ic_social_link",
	},
}

// All returns every platform in catalog order.
func All() []Platform {
	out := make([]Platform, 0, count)
	for p := range count {
		out = append(out, p)
	}
	return out
}

// Valid reports whether p is a member of the catalog.
func (p Platform) Valid() bool { return p < count }

// Info returns the catalog entry for p. Invalid platforms yield the zero Info.
func (p Platform) Info() Info {
	if !p.Valid() {
		return Info{}
	}
	return catalog[p]
}

// String returns the platform identifier (e.g., "instagram").
func (p Platform) String() string {
	if !p.Valid() {
		return fmt.Sprintf("platform(%d)", uint8(p))
	}
	return catalog[p].Name
}

// DisplayName returns the human-readable platform name.
func (p Platform) DisplayName() string { return p.Info().DisplayName }

// AppID returns the identifier a host uses to check whether the platform app is installed.
func (p Platform) AppID() string { return p.Info().AppID }

// DeepLinkTemplate returns the deep-link template for p.
func DeepLinkTemplate(p Platform) string { return p.Info().DeepLinkTemplate }

// WebURLTemplate returns the web fallback template for p.
func WebURLTemplate(p Platform) string { return p.Info().WebURLTemplate }

// Render substitutes handle for the placeholder in template.
// The handle is inserted verbatim: no escaping or URL encoding is applied.
func Render(template, handle string) string {
	return strings.Replace(template, Placeholder, handle, 1)
}

// DeepLink renders the deep link for handle.
func (p Platform) DeepLink(handle string) string { return Render(DeepLinkTemplate(p), handle) }

// WebURL renders the web fallback URL for handle.
func (p Platform) WebURL(handle string) string { return Render(WebURLTemplate(p), handle) }

// MarshalText implements encoding.TextMarshaler using the platform identifier.
func (p Platform) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid platform %d", uint8(p))
	}
	return []byte(catalog[p].Name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Platform) UnmarshalText(text []byte) error {
	parsed, ok := Parse(string(text))
	if !ok {
		return fmt.Errorf("unknown platform %q", text)
	}
	*p = parsed
	return nil
}

// Parse returns the platform whose identifier matches name, ignoring case.
// "x" is accepted as an alias for Twitter.
func Parse(name string) (Platform, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "x" {
		return Twitter, true
	}
	for p := range count {
		if catalog[p].Name == name {
			return p, true
		}
	}
	return 0, false
}

// FromDisplayName returns the platform whose display name matches name, ignoring case.
func FromDisplayName(name string) (Platform, bool) {
	for p := range count {
		if strings.EqualFold(catalog[p].DisplayName, name) {
			return p, true
		}
	}
	return 0, false
}
