package platform

import "strings"

// marker maps a URL fragment to the platform it identifies.
// Order matters: "m.me/" is a suffix of other hosts, so it sits near the end.
type marker struct {
	text     string
	platform Platform
}

var markers = []marker{
	{"instagram.com/", Instagram},
	{"snapchat.com/add/", Snapchat},
	{"wa.me/", WhatsApp},
	{"t.me/", Telegram},
	{"discord.com/users/", Discord},
	{"tiktok.com/@", TikTok},
	{"x.com/", Twitter},
	{"twitter.com/", Twitter},
	{"linkedin.com/in/", LinkedIn},
	{"signal.me/#p/", Signal},
	{"m.me/", Messenger},
	{"threads.net/@", Threads},
}

// Detect guesses the platform and handle from a pasted profile URL.
// The handle is the text after the platform marker, up to the first '?' or '/'.
// It is a loose substring check for interactive input; use the detect package
// for scanning contact data.
func Detect(text string) (Platform, string, bool) {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)
	for _, m := range markers {
		idx := strings.Index(lower, m.text)
		if idx < 0 {
			continue
		}
		handle := text[idx+len(m.text):]
		if i := strings.IndexAny(handle, "?/"); i >= 0 {
			handle = handle[:i]
		}
		if handle == "" {
			return 0, "", false
		}
		return m.platform, handle, true
	}
	return 0, "", false
}
