package detect

import (
	"context"
	"log/slog"
	"slices"

	"github.com/codeGROOVE-dev/sociolink/pkg/link"
	"github.com/codeGROOVE-dev/sociolink/pkg/platform"
)

// Aggregate merges scanner output for one contact.
//
// Candidates whose key is already in existing are dropped. Of the rest, one
// candidate per key survives: the highest confidence, or the first seen on a
// tie. The result is sorted by descending confidence, keeping discovery order
// among equals.
func Aggregate(existing []link.Ref, candidates []Candidate) []Candidate {
	stored := make(map[string]bool, len(existing))
	for _, r := range existing {
		stored[link.Key(r.Platform, r.Handle)] = true
	}

	index := make(map[string]int, len(candidates))
	var out []Candidate
	for _, c := range candidates {
		key := c.Key()
		if stored[key] {
			continue
		}
		if i, ok := index[key]; ok {
			if c.Confidence > out[i].Confidence {
				out[i] = c
			}
			continue
		}
		index[key] = len(out)
		out = append(out, c)
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		switch {
		case a.Confidence > b.Confidence:
			return -1
		case a.Confidence < b.Confidence:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Detector runs all scanners over a contact.
type Detector struct {
	logger          *slog.Logger
	defaultPlatform platform.Platform
	skipEmails      bool
}

// Option configures a Detector.
type Option func(*config)

type config struct {
	logger          *slog.Logger
	defaultPlatform platform.Platform
	skipEmails      bool
}

// WithDefaultPlatform sets the platform assigned to bare mentions with no keyword nearby.
// Invalid platforms are ignored.
func WithDefaultPlatform(p platform.Platform) Option {
	return func(c *config) {
		if p.Valid() {
			c.defaultPlatform = p
		}
	}
}

// WithSkipEmails stops the notes scanner from reading the part of an email
// address after its '@' as a mention. An '@' directly preceded by a letter,
// digit or underscore is taken to be an email. Off by default, which also
// means "insta@jane.doe" is read as a mention.
func WithSkipEmails() Option {
	return func(c *config) { c.skipEmails = true }
}

// WithLogger sets a logger for debug output. Detection is silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// New creates a Detector. Bare mentions default to Instagram.
func New(opts ...Option) *Detector {
	cfg := &config{defaultPlatform: platform.Instagram}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Detector{logger: cfg.logger, defaultPlatform: cfg.defaultPlatform, skipEmails: cfg.skipEmails}
}

// DefaultPlatform returns the platform assigned to unattributed mentions.
func (d *Detector) DefaultPlatform() platform.Platform { return d.defaultPlatform }

// ScanNotes scans free text using the detector's default platform.
func (d *Detector) ScanNotes(text string) []Candidate {
	return scanNotes(text, d.defaultPlatform, d.skipEmails)
}

// Scan runs the scanners over c in order (websites, notes, messaging entries)
// without deduplication.
func (d *Detector) Scan(c Contact) []Candidate {
	var out []Candidate
	for _, w := range c.Websites {
		if cand, ok := ScanURL(w); ok {
			out = append(out, cand)
		}
	}
	out = append(out, d.ScanNotes(c.Notes)...)
	for _, im := range c.IMs {
		if cand, ok := MapMessaging(im); ok {
			out = append(out, cand)
		}
	}
	return out
}

// Detect returns the deduplicated candidates for c that are not already in existing,
// highest confidence first.
func (d *Detector) Detect(c Contact, existing []link.Ref) []Candidate {
	raw := d.Scan(c)
	out := Aggregate(existing, raw)
	if d.logger != nil {
		d.logger.LogAttrs(context.Background(), slog.LevelDebug, "detection complete",
			slog.Int("scanned", len(raw)),
			slog.Int("existing", len(existing)),
			slog.Int("candidates", len(out)))
	}
	return out
}

var defaultDetector = New()

// Detect runs the default detector over c.
func Detect(c Contact, existing []link.Ref) []Candidate {
	return defaultDetector.Detect(c, existing)
}
