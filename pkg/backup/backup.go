// Package backup reads social-network data exports and pairs the friends they
// list with existing contacts by display name.
//
// Documents are tried against an ordered list of formats; the first format
// that recognises the document's shape extracts its entries. Unknown shapes
// and malformed JSON produce no matches rather than an error.
package backup

import (
	"log/slog"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/codeGROOVE-dev/sociolink/pkg/link"
	"github.com/codeGROOVE-dev/sociolink/pkg/platform"
)

// Match is one (display name, platform, handle) entry found in a backup.
type Match struct {
	DisplayName string            `json:"display_name"`
	Platform    platform.Platform `json:"platform"`
	Handle      string            `json:"handle"`
}

// Contact is an existing contact offered for matching.
type Contact struct {
	DisplayName string `json:"display_name"`
	Ref         string `json:"ref"` // opaque to this package
}

// Accepted is a backup entry paired with the contact it belongs to.
type Accepted struct {
	Match
	ContactRef string `json:"contact_ref"`
}

// Reconciler parses backups and matches them against contacts.
type Reconciler struct {
	logger  *slog.Logger
	formats []Format
}

// Option configures a Reconciler.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	formats []Format
}

// WithFormats replaces the recognised formats. They are tried in order.
func WithFormats(formats ...Format) Option {
	return func(c *config) { c.formats = formats }
}

// WithLogger sets a logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// New creates a Reconciler using DefaultFormats unless overridden.
func New(opts ...Option) *Reconciler {
	cfg := &config{formats: DefaultFormats}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Reconciler{logger: cfg.logger, formats: cfg.formats}
}

// Parse extracts matches from a backup document.
// It never fails: invalid JSON or an unrecognised shape yields nil.
func (r *Reconciler) Parse(data []byte) []Match {
	if !gjson.ValidBytes(data) {
		r.debug("backup is not valid JSON", "bytes", len(data))
		return nil
	}
	doc := gjson.ParseBytes(data)
	for _, f := range r.formats {
		matches, ok := f.Parse(doc)
		if !ok {
			continue
		}
		r.debug("backup format recognised", "format", f.Name, "entries", len(matches))
		return matches
	}
	r.debug("backup format not recognised", "bytes", len(data))
	return nil
}

// Reconcile parses data and pairs each entry with a contact.
func (r *Reconciler) Reconcile(data []byte, contacts []Contact) []Accepted {
	return Pair(r.Parse(data), contacts)
}

func (r *Reconciler) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

// Pair matches each entry to the first contact whose display name equals the
// entry's name ignoring case. Names are compared as given, so "Jane Doe " and
// "Jane Doe" differ. Entries with no such contact are dropped.
func Pair(matches []Match, contacts []Contact) []Accepted {
	if len(matches) == 0 || len(contacts) == 0 {
		return nil
	}
	var out []Accepted
	for _, m := range matches {
		for _, c := range contacts {
			if strings.EqualFold(c.DisplayName, m.DisplayName) {
				out = append(out, Accepted{Match: m, ContactRef: c.Ref})
				break
			}
		}
	}
	return out
}

// ToLinks converts accepted matches into links keyed by contact reference.
func ToLinks(accepted []Accepted, now time.Time) []link.Link {
	out := make([]link.Link, 0, len(accepted))
	for _, a := range accepted {
		out = append(out, link.Link{
			ContactKey: a.ContactRef,
			Platform:   a.Platform,
			Handle:     a.Handle,
			CreatedAt:  now,
		})
	}
	return out
}

var defaultReconciler = New()

// Parse extracts matches using DefaultFormats.
func Parse(data []byte) []Match { return defaultReconciler.Parse(data) }

// Reconcile parses data with DefaultFormats and pairs entries with contacts.
func Reconcile(data []byte, contacts []Contact) []Accepted {
	return defaultReconciler.Reconcile(data, contacts)
}
