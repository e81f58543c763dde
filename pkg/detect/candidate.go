// Package detect extracts candidate social handles from contact fields.
//
// Three passes run over a contact: website URLs, free-text notes, and labelled
// messaging entries. Their candidates are merged, filtered against links the
// caller already stores, and collapsed to one candidate per platform and
// case-folded handle.
//
//	d := detect.New()
//	found := d.Detect(contact, existing)
//
// Every function in this package is pure and safe for concurrent use.
package detect

import (
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/sociolink/pkg/link"
	"github.com/codeGROOVE-dev/sociolink/pkg/platform"
)

// Confidence tiers. The free-text tiers are product heuristics, not derived values.
const (
	ConfidenceURL       = 1.0 // explicit profile URL
	ConfidenceMessaging = 0.9 // labelled messaging entry
	ConfidenceKeyword   = 0.8 // mention with a platform keyword nearby
	ConfidenceDefault   = 0.4 // bare mention attributed to the default platform
)

// AutoDetectedLabel marks stored links whose confidence is below LabelThreshold.
const (
	AutoDetectedLabel = "Auto-detected"
	LabelThreshold    = 0.7
)

// Origin records which contact field produced a candidate.
type Origin uint8

// Origins in scan order.
const (
	OriginURL Origin = iota
	OriginText
	OriginMessaging
)

var originNames = [...]string{
	OriginURL:       "url-field",
	OriginText:      "free-text",
	OriginMessaging: "messaging-field",
}

func (o Origin) String() string {
	if int(o) < len(originNames) {
		return originNames[o]
	}
	return fmt.Sprintf("origin(%d)", uint8(o))
}

// Description returns a short human-readable source description.
func (o Origin) Description() string {
	switch o {
	case OriginURL:
		return "From websites"
	case OriginText:
		return "From notes"
	case OriginMessaging:
		return "From messaging apps"
	default:
		return "Detected"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Origin) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Origin) UnmarshalText(text []byte) error {
	for i, name := range originNames {
		if name == string(text) {
			*o = Origin(i)
			return nil
		}
	}
	return fmt.Errorf("unknown origin %q", text)
}

// Candidate is a handle found in a contact's fields.
type Candidate struct {
	Platform   platform.Platform `json:"platform"`
	Handle     string            `json:"handle"`
	Origin     Origin            `json:"origin"`
	Confidence float64           `json:"confidence"`
}

// Key returns the dedup key for the candidate.
func (c Candidate) Key() string { return link.Key(c.Platform, c.Handle) }

// IM is a labelled instant-messaging entry on a contact.
type IM struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Contact is the subset of contact data the detector reads.
type Contact struct {
	Websites []string `json:"websites,omitempty"`
	Notes    string   `json:"notes,omitempty"`
	IMs      []IM     `json:"ims,omitempty"`
}

// ToLinks converts candidates into links for contactKey, stamped with now.
// Candidates below LabelThreshold are labelled AutoDetectedLabel so a UI can
// flag them for review.
func ToLinks(candidates []Candidate, contactKey string, now time.Time) []link.Link {
	out := make([]link.Link, 0, len(candidates))
	for _, c := range candidates {
		l := link.Link{
			ContactKey: contactKey,
			Platform:   c.Platform,
			Handle:     c.Handle,
			CreatedAt:  now,
		}
		if c.Confidence < LabelThreshold {
			l.Label = AutoDetectedLabel
		}
		out = append(out, l)
	}
	return out
}
