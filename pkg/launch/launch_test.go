package launch

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/codeGROOVE-dev/sociolink/pkg/link"
	"github.com/codeGROOVE-dev/sociolink/pkg/platform"
)

func TestResolveLaunchURL(t *testing.T) {
	tests := []struct {
		name      string
		platform  platform.Platform
		handle    string
		installed bool
		want      string
	}{
		{"custom not installed", platform.Custom, "https://example.com/x", false, "https://example.com/x"},
		{"custom installed", platform.Custom, "https://example.com/x", true, "https://example.com/x"},
		{"instagram app", platform.Instagram, "jane", true, "instagram://user?username=jane"},
		{"instagram web", platform.Instagram, "jane", false, "https://instagram.com/jane"},
		{"twitter app", platform.Twitter, "jane", true, "twitter://user?screen_name=jane"},
		{"threads web", platform.Threads, "jane", false, "https://threads.net/@jane"},
		{"whatsapp either", platform.WhatsApp, "15551234567", true, "https://wa.me/15551234567"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveLaunchURL(tt.platform, tt.handle, tt.installed); got != tt.want {
				t.Errorf("ResolveLaunchURL(%v, %q, %v) = %q, want %q", tt.platform, tt.handle, tt.installed, got, tt.want)
			}
		})
	}
}

type recorder struct {
	fail   map[string]bool
	opened []string
}

func (r *recorder) Open(_ context.Context, url string) error {
	r.opened = append(r.opened, url)
	if r.fail[url] {
		return errors.New("no handler")
	}
	return nil
}

func installedApps(ids ...string) AppCheckerFunc {
	return func(_ context.Context, id string) bool {
		for _, want := range ids {
			if id == want {
				return true
			}
		}
		return false
	}
}

func TestLaunch(t *testing.T) {
	tests := []struct {
		name       string
		apps       AppChecker
		fail       []string
		platform   platform.Platform
		handle     string
		want       string
		wantOpened []string
		wantErr    bool
	}{
		{
			name:       "app installed",
			apps:       installedApps("com.instagram.android"),
			platform:   platform.Instagram,
			handle:     "jane",
			want:       "instagram://user?username=jane",
			wantOpened: []string{"instagram://user?username=jane"},
		},
		{
			name:       "deep link fails",
			apps:       installedApps("com.instagram.android"),
			fail:       []string{"instagram://user?username=jane"},
			platform:   platform.Instagram,
			handle:     "jane",
			want:       "https://instagram.com/jane",
			wantOpened: []string{"instagram://user?username=jane", "https://instagram.com/jane"},
		},
		{
			name:       "app missing",
			apps:       installedApps(),
			platform:   platform.Telegram,
			handle:     "jd",
			want:       "https://t.me/jd",
			wantOpened: []string{"https://t.me/jd"},
		},
		{
			name:       "nil checker",
			platform:   platform.Telegram,
			handle:     "jd",
			want:       "https://t.me/jd",
			wantOpened: []string{"https://t.me/jd"},
		},
		{
			name:       "custom",
			apps:       installedApps("com.instagram.android"),
			platform:   platform.Custom,
			handle:     "https://example.com/x",
			want:       "https://example.com/x",
			wantOpened: []string{"https://example.com/x"},
		},
		{
			name:       "web fails",
			apps:       installedApps(),
			fail:       []string{"https://t.me/jd"},
			platform:   platform.Telegram,
			handle:     "jd",
			wantOpened: []string{"https://t.me/jd"},
			wantErr:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{fail: map[string]bool{}}
			for _, f := range tt.fail {
				rec.fail[f] = true
			}
			l := New(tt.apps, rec)
			got, err := l.Launch(context.Background(), tt.platform, tt.handle)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Launch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Launch() = %q, want %q", got, tt.want)
			}
			if diff := cmp.Diff(tt.wantOpened, rec.opened); diff != "" {
				t.Errorf("opened mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLaunchLink(t *testing.T) {
	var opened string
	l := New(nil, OpenerFunc(func(_ context.Context, url string) error {
		opened = url
		return nil
	}))
	got, err := l.LaunchLink(context.Background(), link.Link{Platform: platform.LinkedIn, Handle: "jane-doe"})
	if err != nil {
		t.Fatalf("LaunchLink() error = %v", err)
	}
	if got != "https://linkedin.com/in/jane-doe" || opened != got {
		t.Errorf("LaunchLink() = %q, opened %q", got, opened)
	}
}
