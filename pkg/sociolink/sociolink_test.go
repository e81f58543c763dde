package sociolink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/codeGROOVE-dev/sociolink/pkg/detect"
	"github.com/codeGROOVE-dev/sociolink/pkg/link"
	"github.com/codeGROOVE-dev/sociolink/pkg/platform"
	"github.com/codeGROOVE-dev/sociolink/pkg/resultcache"
)

type fakeLinks map[string][]link.Ref

func (f fakeLinks) Existing(_ context.Context, key string) ([]link.Ref, error) {
	if key == "broken" {
		return nil, errors.New("disk on fire")
	}
	return f[key], nil
}

func TestDetectAll(t *testing.T) {
	contacts := []Contact{
		{Key: "1", Name: "Jane", Contact: detect.Contact{
			Websites: []string{"https://instagram.com/janedoe"},
			Notes:    "twitter: @jane_d",
		}},
		{Key: "2", Name: "Bob", Contact: detect.Contact{
			IMs: []detect.IM{{Label: "Telegram", Value: "bobtg"}},
		}},
		{Key: "3", Name: "Nobody"},
	}
	links := fakeLinks{"1": {{Platform: platform.Instagram, Handle: "JaneDoe"}}}

	got, err := DetectAll(context.Background(), contacts, WithLinks(links), WithConcurrency(2))
	if err != nil {
		t.Fatalf("DetectAll() error = %v", err)
	}
	want := []Result{
		{ContactKey: "1", Name: "Jane", Candidates: []Candidate{
			{Platform: platform.Twitter, Handle: "jane_d", Origin: detect.OriginText, Confidence: detect.ConfidenceKeyword},
		}},
		{ContactKey: "2", Name: "Bob", Candidates: []Candidate{
			{Platform: platform.Telegram, Handle: "bobtg", Origin: detect.OriginMessaging, Confidence: detect.ConfidenceMessaging},
		}},
		{ContactKey: "3", Name: "Nobody"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DetectAll() mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectAllPreservesOrder(t *testing.T) {
	contacts := make([]Contact, 50)
	for i := range contacts {
		contacts[i] = Contact{
			Key:     fmt.Sprint(i),
			Contact: detect.Contact{Websites: []string{fmt.Sprintf("https://t.me/user%d", i)}},
		}
	}
	got, err := DetectAll(context.Background(), contacts, WithConcurrency(4))
	if err != nil {
		t.Fatalf("DetectAll() error = %v", err)
	}
	if len(got) != len(contacts) {
		t.Fatalf("len(DetectAll()) = %d, want %d", len(got), len(contacts))
	}
	for i, r := range got {
		if r.ContactKey != fmt.Sprint(i) {
			t.Fatalf("result %d has key %q", i, r.ContactKey)
		}
		if len(r.Candidates) != 1 || r.Candidates[0].Handle != fmt.Sprintf("user%d", i) {
			t.Errorf("result %d candidates = %+v", i, r.Candidates)
		}
	}
}

func TestDetectAllDefaultPlatform(t *testing.T) {
	contacts := []Contact{{Key: "1", Contact: detect.Contact{Notes: "@someone"}}}
	got, err := DetectAll(context.Background(), contacts, WithDefaultPlatform(platform.Threads))
	if err != nil {
		t.Fatalf("DetectAll() error = %v", err)
	}
	want := []Candidate{{Platform: platform.Threads, Handle: "someone", Origin: detect.OriginText, Confidence: detect.ConfidenceDefault}}
	if diff := cmp.Diff(want, got[0].Candidates); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectAllSkipEmails(t *testing.T) {
	contacts := []Contact{{Key: "1", Contact: detect.Contact{Notes: "mail jane@example.org"}}}

	got, err := DetectAll(context.Background(), contacts)
	if err != nil {
		t.Fatalf("DetectAll() error = %v", err)
	}
	want := []Candidate{{Platform: platform.Instagram, Handle: "example.org", Origin: detect.OriginText, Confidence: detect.ConfidenceDefault}}
	if diff := cmp.Diff(want, got[0].Candidates); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}

	got, err = DetectAll(context.Background(), contacts, WithSkipEmails())
	if err != nil {
		t.Fatalf("DetectAll() error = %v", err)
	}
	if len(got[0].Candidates) != 0 {
		t.Errorf("DetectAll(WithSkipEmails) candidates = %+v, want none", got[0].Candidates)
	}
}

func TestDetectAllErrors(t *testing.T) {
	contacts := []Contact{{Key: "ok"}, {Key: "broken"}}
	if _, err := DetectAll(context.Background(), contacts, WithLinks(fakeLinks{})); err == nil {
		t.Error("DetectAll() with failing link source returned nil error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DetectAll(ctx, contacts); !errors.Is(err, context.Canceled) {
		t.Errorf("DetectAll() on cancelled ctx error = %v, want context.Canceled", err)
	}
}

func TestDetectAllCache(t *testing.T) {
	cache, err := resultcache.NewWithPath(time.Hour, t.TempDir())
	if err != nil {
		t.Fatalf("NewWithPath() error = %v", err)
	}
	defer cache.Close() //nolint:errcheck // test cleanup

	contacts := []Contact{{Key: "1", Contact: detect.Contact{Websites: []string{"linkedin.com/in/jane-doe"}}}}
	first, err := DetectAll(context.Background(), contacts, WithCache(cache))
	if err != nil {
		t.Fatalf("DetectAll() error = %v", err)
	}
	second, err := DetectAll(context.Background(), contacts, WithCache(cache))
	if err != nil {
		t.Fatalf("DetectAll() error = %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached result mismatch (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(resultcache.Stats{Hits: 1, Misses: 1}, cache.Stats()); diff != "" {
		t.Errorf("Stats() mismatch (-want +got):\n%s", diff)
	}

	// A different default platform is a different cache entry.
	if _, err := DetectAll(context.Background(), contacts, WithCache(cache), WithDefaultPlatform(platform.Twitter)); err != nil {
		t.Fatalf("DetectAll() error = %v", err)
	}
	if got := cache.Stats().Misses; got != 2 {
		t.Errorf("Misses = %d, want 2", got)
	}
}

func TestContactJSON(t *testing.T) {
	var got []Contact
	doc := `[{"key":"42","name":"Jane Doe","websites":["x.com/jd"],"notes":"hi","ims":[{"label":"Signal","value":"+1555"}]}]`
	if err := json.Unmarshal([]byte(doc), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := []Contact{{Key: "42", Name: "Jane Doe", Contact: detect.Contact{
		Websites: []string{"x.com/jd"},
		Notes:    "hi",
		IMs:      []detect.IM{{Label: "Signal", Value: "+1555"}},
	}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unmarshal() mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile(t *testing.T) {
	doc := []byte(`{"friends":[{"display_name":"Jane Doe","username":"janedoe99"},{"display_name":"Stranger","username":"st"}]}`)
	contacts := []Contact{{Key: "42", Name: "jane doe"}, {Key: "7", Name: "Bob"}}

	got := Reconcile(doc, contacts)
	if len(got) != 1 || got[0].ContactRef != "42" || got[0].Handle != "janedoe99" || got[0].Platform != platform.Snapchat {
		t.Errorf("Reconcile() = %+v", got)
	}
	if got := Reconcile(doc, contacts, WithFormats()); len(got) != 0 {
		t.Errorf("Reconcile() with no formats = %+v, want none", got)
	}
}

func TestLinks(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	results := []Result{
		{ContactKey: "1", Candidates: []Candidate{
			{Platform: platform.TikTok, Handle: "jd", Confidence: detect.ConfidenceURL},
			{Platform: platform.Instagram, Handle: "maybe", Confidence: detect.ConfidenceDefault},
		}},
		{ContactKey: "", Candidates: []Candidate{{Platform: platform.TikTok, Handle: "orphan", Confidence: 1}}},
	}
	want := []link.Link{
		{ContactKey: "1", Platform: platform.TikTok, Handle: "jd", CreatedAt: now},
		{ContactKey: "1", Platform: platform.Instagram, Handle: "maybe", Label: detect.AutoDetectedLabel, CreatedAt: now},
	}
	if diff := cmp.Diff(want, Links(results, now)); diff != "" {
		t.Errorf("Links() mismatch (-want +got):\n%s", diff)
	}
}
