// Package sociolink runs social-handle detection and backup reconciliation
// over batches of contacts.
//
// Basic usage:
//
//	results, err := sociolink.DetectAll(ctx, contacts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range results {
//	    fmt.Println(r.ContactKey, r.Candidates)
//	}
//
// Pass a store so handles the contact already has are not suggested again,
// and a cache to skip contacts whose fields have not changed:
//
//	results, err := sociolink.DetectAll(ctx, contacts,
//	    sociolink.WithLinks(db),
//	    sociolink.WithCache(cache))
package sociolink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/codeGROOVE-dev/sociolink/pkg/backup"
	"github.com/codeGROOVE-dev/sociolink/pkg/detect"
	"github.com/codeGROOVE-dev/sociolink/pkg/link"
	"github.com/codeGROOVE-dev/sociolink/pkg/platform"
	"github.com/codeGROOVE-dev/sociolink/pkg/resultcache"
)

type (
	// Candidate re-exports detect.Candidate for convenience.
	Candidate = detect.Candidate
	// Accepted re-exports backup.Accepted for convenience.
	Accepted = backup.Accepted
)

// DefaultConcurrency bounds DetectAll when WithConcurrency is not given.
const DefaultConcurrency = 8

// Contact is a contact as read from a contacts file.
type Contact struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	detect.Contact
}

// Result holds the candidates found for one contact.
type Result struct {
	ContactKey string      `json:"contact_key"`
	Name       string      `json:"name,omitempty"`
	Candidates []Candidate `json:"candidates"`
}

// LinkSource supplies the links a contact already has.
type LinkSource interface {
	Existing(ctx context.Context, contactKey string) ([]link.Ref, error)
}

// Option configures a DetectAll or Reconcile call.
type Option func(*config)

//nolint:govet // fieldalignment: intentional layout for readability
type config struct {
	cache           resultcache.Cacher
	links           LinkSource
	logger          *slog.Logger
	defaultPlatform platform.Platform
	concurrency     int
	formats         []backup.Format
	skipEmails      bool
}

// WithCache sets the cache for detection results.
func WithCache(cache resultcache.Cacher) Option {
	return func(c *config) { c.cache = cache }
}

// WithLinks sets where already-stored links are read from.
func WithLinks(links LinkSource) Option {
	return func(c *config) { c.links = links }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithDefaultPlatform sets the platform assigned to bare @mentions.
func WithDefaultPlatform(p platform.Platform) Option {
	return func(c *config) { c.defaultPlatform = p }
}

// WithSkipEmails stops email addresses in notes from being read as mentions.
func WithSkipEmails() Option {
	return func(c *config) { c.skipEmails = true }
}

// WithConcurrency bounds how many contacts are processed at once.
// Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithFormats replaces the backup formats Reconcile recognises.
func WithFormats(formats ...backup.Format) Option {
	return func(c *config) { c.formats = formats }
}

func newConfig(opts []Option) *config {
	cfg := &config{
		logger:          slog.Default(),
		defaultPlatform: platform.Instagram,
		concurrency:     DefaultConcurrency,
		formats:         backup.DefaultFormats,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// DetectAll detects candidates for every contact. Results are in input order.
// Cancelling ctx stops scheduling further contacts and returns ctx's error.
func DetectAll(ctx context.Context, contacts []Contact, opts ...Option) ([]Result, error) {
	cfg := newConfig(opts)
	dopts := []detect.Option{detect.WithDefaultPlatform(cfg.defaultPlatform), detect.WithLogger(cfg.logger)}
	if cfg.skipEmails {
		dopts = append(dopts, detect.WithSkipEmails())
	}
	d := detect.New(dopts...)

	results := make([]Result, len(contacts))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(cfg.concurrency).WithCancelOnError().WithFirstError()
	for i, c := range contacts {
		if ctx.Err() != nil {
			break
		}
		p.Go(func(ctx context.Context) error {
			found, err := detectOne(ctx, cfg, d, c)
			if err != nil {
				return fmt.Errorf("contact %q: %w", c.Key, err)
			}
			results[i] = Result{ContactKey: c.Key, Name: c.Name, Candidates: found}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r.Candidates)
	}
	cfg.logger.Debug("detection finished", "contacts", len(contacts), "candidates", total)
	return results, nil
}

func detectOne(ctx context.Context, cfg *config, d *detect.Detector, c Contact) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var existing []link.Ref
	if cfg.links != nil && c.Key != "" {
		refs, err := cfg.links.Existing(ctx, c.Key)
		if err != nil {
			return nil, fmt.Errorf("load existing links: %w", err)
		}
		existing = refs
	}

	if cfg.cache == nil {
		return d.Detect(c.Contact, existing), nil
	}
	key, err := cacheKey(d.DefaultPlatform(), cfg.skipEmails, c.Contact, existing)
	if err != nil {
		return nil, err
	}
	return resultcache.Fetch(ctx, cfg.cache, key, func(context.Context) ([]Candidate, error) {
		return d.Detect(c.Contact, existing), nil
	})
}

// cacheKey covers every input that changes the detection output.
func cacheKey(def platform.Platform, skipEmails bool, c detect.Contact, existing []link.Ref) (string, error) {
	fields, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode contact: %w", err)
	}
	refs, err := json.Marshal(existing)
	if err != nil {
		return "", fmt.Errorf("encode existing links: %w", err)
	}
	return resultcache.Key("detect/v2", def.String(), strconv.FormatBool(skipEmails), string(fields), string(refs)), nil
}

// Reconcile pairs the entries of a backup export with contacts by name.
func Reconcile(data []byte, contacts []Contact, opts ...Option) []Accepted {
	cfg := newConfig(opts)
	r := backup.New(backup.WithFormats(cfg.formats...), backup.WithLogger(cfg.logger))

	offered := make([]backup.Contact, len(contacts))
	for i, c := range contacts {
		offered[i] = backup.Contact{DisplayName: c.Name, Ref: c.Key}
	}
	accepted := r.Reconcile(data, offered)
	cfg.logger.Debug("reconcile finished", "contacts", len(contacts), "accepted", len(accepted))
	return accepted
}

// Links flattens detection results into links ready to store.
// Results without a contact key cannot be stored and are skipped.
func Links(results []Result, now time.Time) []link.Link {
	var out []link.Link
	for _, r := range results {
		if r.ContactKey == "" {
			continue
		}
		out = append(out, detect.ToLinks(r.Candidates, r.ContactKey, now)...)
	}
	return out
}
