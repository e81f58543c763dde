package backup

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/codeGROOVE-dev/sociolink/pkg/platform"
)

// Format recognises one export shape.
// Parse returns ok=false when doc is not in this format.
type Format struct {
	Name  string
	Parse func(doc gjson.Result) (matches []Match, ok bool)
}

// DefaultFormats are tried in order by New.
var DefaultFormats = []Format{SnapchatFriends, SnapchatMyData}

// SnapchatFriends reads {"friends":[{"display_name":..,"username":..}]}.
var SnapchatFriends = Format{
	Name:  "snapchat-friends",
	Parse: friendList("friends", "display_name", "username", platform.Snapchat),
}

// SnapchatMyData reads the "Download My Data" friends.json layout:
// {"Friends":[{"Username":..,"Display Name":..}]}.
var SnapchatMyData = Format{
	Name:  "snapchat-mydata",
	Parse: friendList("Friends", "Display Name", "Username", platform.Snapchat),
}

// friendList builds a parser for an object holding an array of friend objects.
// Entries missing either field, or holding blank or non-scalar values, are skipped.
func friendList(listKey, nameKey, handleKey string, p platform.Platform) func(gjson.Result) ([]Match, bool) {
	return func(doc gjson.Result) ([]Match, bool) {
		if !doc.IsObject() {
			return nil, false
		}
		list := doc.Get(listKey)
		if !list.IsArray() {
			return nil, false
		}
		var out []Match
		list.ForEach(func(_, entry gjson.Result) bool {
			name := stringField(entry, nameKey)
			handle := stringField(entry, handleKey)
			if name == "" || handle == "" {
				return true
			}
			out = append(out, Match{DisplayName: name, Platform: p, Handle: handle})
			return true
		})
		return out, true
	}
}

// stringField reads a string or number field. Numbers keep their JSON text,
// so a display name of 5 reads as "5". Values are not trimmed.
func stringField(entry gjson.Result, key string) string {
	if !entry.IsObject() {
		return ""
	}
	v := entry.Get(key)
	var s string
	switch v.Type {
	case gjson.String:
		s = v.Str
	case gjson.Number:
		s = v.Raw
	default:
		return ""
	}
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}
