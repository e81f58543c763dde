// Package patterns holds the static text patterns used to recognise social
// handles: per-platform profile URL shapes, the bare "@handle" mention, the
// keyword hints used to attribute a mention, and messaging-label mappings.
//
// All tables are built once at package init and never modified.
package patterns

import (
	"regexp"

	"github.com/codeGROOVE-dev/sociolink/pkg/platform"
)

// URLSet is the ordered list of profile URL patterns for one platform.
// Each pattern captures the handle in group 1.
type URLSet struct {
	Platform platform.Platform
	Patterns []*regexp.Regexp
	// Reserved lists path segments that look like handles but are site pages.
	Reserved map[string]bool
}

// A `\b` before each host keeps "about.me/" from reading as t.me and
// "telegram.me/" from reading as m.me.
func urlPattern(host, handle string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?\b` + host + `(` + handle + `)/?`)
}

// URLs is evaluated in order; the first platform with a matching pattern wins.
var URLs = []URLSet{
	{
		Platform: platform.Instagram,
		Patterns: []*regexp.Regexp{
			urlPattern(`instagram\.com/`, `[A-Za-z0-9_.-]+`),
			urlPattern(`instagr\.am/`, `[A-Za-z0-9_.-]+`),
		},
		Reserved: set("p", "reel", "reels", "stories", "explore", "direct", "accounts", "about", "legal", "developer"),
	},
	{
		Platform: platform.Twitter,
		Patterns: []*regexp.Regexp{
			urlPattern(`twitter\.com/`, `[A-Za-z0-9_]+`),
			urlPattern(`x\.com/`, `[A-Za-z0-9_]+`),
		},
		Reserved: set("home", "search", "explore", "i", "intent", "share", "hashtag", "settings", "notifications", "messages", "tos", "privacy"),
	},
	{
		Platform: platform.TikTok,
		Patterns: []*regexp.Regexp{
			urlPattern(`tiktok\.com/@`, `[A-Za-z0-9_.-]+`),
			regexp.MustCompile(`(?i)(?:https?://)?(?:vm\.)?\btiktok\.com/([A-Za-z0-9]+)/?`),
		},
		Reserved: set("discover", "foryou", "following", "live", "upload", "tag", "music", "about", "legal"),
	},
	{
		Platform: platform.LinkedIn,
		Patterns: []*regexp.Regexp{
			urlPattern(`linkedin\.com/in/`, `[A-Za-z0-9_-]+`),
		},
	},
	{
		Platform: platform.Snapchat,
		Patterns: []*regexp.Regexp{
			urlPattern(`snapchat\.com/add/`, `[A-Za-z0-9_.-]+`),
		},
	},
	{
		Platform: platform.Discord,
		Patterns: []*regexp.Regexp{
			urlPattern(`discord\.gg/`, `[A-Za-z0-9]+`),
		},
	},
	{
		Platform: platform.Telegram,
		Patterns: []*regexp.Regexp{
			urlPattern(`t\.me/`, `[A-Za-z0-9_]+`),
			urlPattern(`telegram\.me/`, `[A-Za-z0-9_]+`),
		},
		Reserved: set("joinchat", "addstickers", "proxy", "socks", "share", "s", "c"),
	},
	{
		Platform: platform.WhatsApp,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:https?://)?\b(?:wa\.me/|api\.whatsapp\.com/send\?phone=)(\+?[0-9]+)/?`),
		},
	},
	{
		Platform: platform.Messenger,
		Patterns: []*regexp.Regexp{
			urlPattern(`m\.me/`, `[A-Za-z0-9.]+`),
			urlPattern(`messenger\.com/t/`, `[A-Za-z0-9.]+`),
		},
	},
	{
		Platform: platform.Threads,
		Patterns: []*regexp.Regexp{
			urlPattern(`threads\.net/@`, `[A-Za-z0-9_.-]+`),
		},
	},
	{
		Platform: platform.Signal,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:https?://)?\bsignal\.me/#p/(\+?[0-9]+)`),
		},
	},
}

// Mention matches a bare "@handle" token; the handle is group 1.
var Mention = regexp.MustCompile(`@([A-Za-z0-9_.-]+)`)

// Keyword associates words seen near a mention with a platform.
type Keyword struct {
	Platform platform.Platform
	Words    []string // lower-case
}

// Keywords is searched in order; the first entry with any word present wins.
// Short words like "ig" and "sc" also hit inside longer words. That is a known
// imprecision of the heuristic and is reflected in the 0.8 confidence tier.
var Keywords = []Keyword{
	{platform.Instagram, []string{"instagram", "insta", "ig"}},
	{platform.Twitter, []string{"twitter", "tweet", "x.com"}},
	{platform.TikTok, []string{"tiktok", "tik tok"}},
	{platform.Snapchat, []string{"snapchat", "snap", "sc"}},
	{platform.LinkedIn, []string{"linkedin", "linked in"}},
	{platform.Discord, []string{"discord"}},
	{platform.Telegram, []string{"telegram", "tg"}},
	{platform.Threads, []string{"threads"}},
}

// MessagingLabel maps a substring of an IM label to a platform.
type MessagingLabel struct {
	Label    string
	Platform platform.Platform
}

// MessagingLabels is matched case-insensitively by substring, in order.
var MessagingLabels = []MessagingLabel{
	{"Telegram", platform.Telegram},
	{"WhatsApp", platform.WhatsApp},
	{"Skype", platform.Discord}, // closest match among supported platforms
	{"Signal", platform.Signal},
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
