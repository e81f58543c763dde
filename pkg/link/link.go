// Package link defines the persisted social link shape shared by the
// detector, the backup reconciler, and link stores.
package link

import (
	"errors"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/sociolink/pkg/platform"
)

// ErrEmptyHandle is returned when a link is built without a handle.
var ErrEmptyHandle = errors.New("empty handle")

// Link is a social identity attached to a contact.
//
//nolint:govet // fieldalignment: intentional layout for readability
type Link struct {
	ID         string            `json:"id,omitempty"`
	ContactKey string            `json:"contact_key"`
	Platform   platform.Platform `json:"platform"`
	Handle     string            `json:"handle"`
	Label      string            `json:"label,omitempty"` // optional user label; empty means use the platform name
	CreatedAt  time.Time         `json:"created_at"`
}

// Ref is a (platform, handle) pair a caller already has stored for a contact.
type Ref struct {
	Platform platform.Platform `json:"platform"`
	Handle   string            `json:"handle"`
}

// Key returns the dedup key for a platform and handle: "<platform>:<lowercased handle>".
func Key(p platform.Platform, handle string) string {
	return p.String() + ":" + strings.ToLower(handle)
}

// Key returns the dedup key for the link.
func (l Link) Key() string { return Key(l.Platform, l.Handle) }

// Ref returns the (platform, handle) pair for the link.
func (l Link) Ref() Ref { return Ref{Platform: l.Platform, Handle: l.Handle} }

// DisplayLabel returns the custom label, or the platform display name when unset.
func (l Link) DisplayLabel() string {
	if l.Label != "" {
		return l.Label
	}
	return l.Platform.DisplayName()
}

// DeepLink renders the platform deep link for the link's handle.
func (l Link) DeepLink() string { return l.Platform.DeepLink(l.Handle) }

// WebURL renders the platform web URL for the link's handle.
func (l Link) WebURL() string { return l.Platform.WebURL(l.Handle) }

// Validate checks the fields a store requires.
func (l Link) Validate() error {
	if strings.TrimSpace(l.Handle) == "" {
		return ErrEmptyHandle
	}
	if !l.Platform.Valid() {
		return errors.New("invalid platform")
	}
	if l.ContactKey == "" {
		return errors.New("empty contact key")
	}
	return nil
}

// Refs extracts the (platform, handle) pairs from links.
func Refs(links []Link) []Ref {
	out := make([]Ref, len(links))
	for i, l := range links {
		out[i] = l.Ref()
	}
	return out
}
