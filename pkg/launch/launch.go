// Package launch chooses the URL used to open a social link and drives the
// deep-link then web-URL fallback against host-supplied collaborators.
package launch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codeGROOVE-dev/sociolink/pkg/link"
	"github.com/codeGROOVE-dev/sociolink/pkg/platform"
)

// ResolveLaunchURL returns the URL to open for handle on p.
//
// Custom links return the handle itself, which is already a full URL.
// Otherwise the deep link is returned when the platform app is installed and
// the web URL when it is not. Callers that fail to open the deep link should
// fall back to p.WebURL(handle); Launcher does this for them.
func ResolveLaunchURL(p platform.Platform, handle string, installed bool) string {
	if p == platform.Custom {
		return handle
	}
	if installed {
		return p.DeepLink(handle)
	}
	return p.WebURL(handle)
}

// AppChecker reports whether the app with the given identifier is installed.
type AppChecker interface {
	Installed(ctx context.Context, appID string) bool
}

// Opener opens a URL on the host. An error means nothing handled the URL.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// AppCheckerFunc adapts a function to AppChecker.
type AppCheckerFunc func(ctx context.Context, appID string) bool

// Installed calls f.
func (f AppCheckerFunc) Installed(ctx context.Context, appID string) bool { return f(ctx, appID) }

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, url string) error

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, url string) error { return f(ctx, url) }

// Launcher opens links, preferring the platform app when it is installed.
type Launcher struct {
	apps   AppChecker
	opener Opener
	logger *slog.Logger
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Launcher) { l.logger = logger }
}

// New creates a Launcher. A nil AppChecker treats every app as missing.
func New(apps AppChecker, opener Opener, opts ...Option) *Launcher {
	l := &Launcher{apps: apps, opener: opener, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch opens handle on p and returns the URL that was opened.
//
// Custom links are opened as-is. When the app is installed its deep link is
// tried first; if opening it fails the web URL is opened instead.
func (l *Launcher) Launch(ctx context.Context, p platform.Platform, handle string) (string, error) {
	if p == platform.Custom {
		if err := l.opener.Open(ctx, handle); err != nil {
			return "", fmt.Errorf("open %s: %w", handle, err)
		}
		return handle, nil
	}

	if l.installed(ctx, p) {
		deep := ResolveLaunchURL(p, handle, true)
		err := l.opener.Open(ctx, deep)
		if err == nil {
			return deep, nil
		}
		l.logger.DebugContext(ctx, "deep link failed, falling back to web", "platform", p, "url", deep, "error", err)
	}

	web := ResolveLaunchURL(p, handle, false)
	if err := l.opener.Open(ctx, web); err != nil {
		return "", fmt.Errorf("open %s: %w", web, err)
	}
	return web, nil
}

// LaunchLink opens a stored link.
func (l *Launcher) LaunchLink(ctx context.Context, lnk link.Link) (string, error) {
	return l.Launch(ctx, lnk.Platform, lnk.Handle)
}

func (l *Launcher) installed(ctx context.Context, p platform.Platform) bool {
	id := p.AppID()
	if id == "" || l.apps == nil {
		return false
	}
	return l.apps.Installed(ctx, id)
}
