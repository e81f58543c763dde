package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SOCIOLINK_DB", filepath.Join(dir, "links.db"))
	t.Setenv("SOCIOLINK_LOG_LEVEL", "error")
	t.Setenv("SOCIOLINK_DEFAULT_PLATFORM", "")
	t.Setenv("SOCIOLINK_CONCURRENCY", "")
	t.Setenv("SOCIOLINK_CACHE_TTL", "")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestOpen(t *testing.T) {
	setup(t)
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"open", "instagram", "janedoe"}, "https://instagram.com/janedoe\n"},
		{[]string{"open", "-installed", "instagram", "janedoe"}, "instagram://user?username=janedoe\n"},
		{[]string{"open", "x", "jd"}, "https://x.com/jd\n"},
		{[]string{"open", "-installed", "custom", "https://example.com"}, "https://example.com\n"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			got, err := runCmd(t, tt.args...)
			if err != nil {
				t.Fatalf("run() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("run() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := runCmd(t, "open", "myspace", "jd"); err == nil || errors.Is(err, errUsage) {
		t.Errorf("open unknown platform error = %v", err)
	}
}

func TestUsage(t *testing.T) {
	setup(t)
	for _, args := range [][]string{nil, {"frobnicate"}, {"open", "instagram"}, {"links"}} {
		if _, err := runCmd(t, args...); !errors.Is(err, errUsage) {
			t.Errorf("run(%q) error = %v, want usage", args, err)
		}
	}
}

func TestDetectSaveAndList(t *testing.T) {
	dir := setup(t)
	contacts := writeFile(t, dir, "contacts.json", `[
		{"key":"42","name":"Jane Doe","websites":["https://instagram.com/janedoe"],"notes":"snap me @jdsnap"},
		{"key":"7","name":"Bob","ims":[{"label":"WhatsApp","value":"15551234567"}]}
	]`)

	out, err := runCmd(t, "detect", "-no-cache", "-save", contacts)
	if err != nil {
		t.Fatalf("detect error = %v", err)
	}
	var results []struct {
		ContactKey string `json:"contact_key"`
		Candidates []struct {
			Platform string `json:"platform"`
			Handle   string `json:"handle"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode detect output: %v\n%s", err, out)
	}
	if len(results) != 2 || len(results[0].Candidates) != 2 || len(results[1].Candidates) != 1 {
		t.Fatalf("detect results = %+v", results)
	}

	// Saved links are now existing and no longer suggested.
	out, err = runCmd(t, "detect", "-no-cache", contacts)
	if err != nil {
		t.Fatalf("second detect error = %v", err)
	}
	if strings.Contains(out, "janedoe") {
		t.Errorf("second detect still suggests stored link:\n%s", out)
	}

	out, err = runCmd(t, "links", "42")
	if err != nil {
		t.Fatalf("links error = %v", err)
	}
	var views []linkView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode links output: %v", err)
	}
	for i := range views {
		views[i].ID = ""
	}
	want := []linkView{
		{Platform: "instagram", Label: "Instagram", Handle: "janedoe", DeepLink: "instagram://user?username=janedoe", WebURL: "https://instagram.com/janedoe"},
		{Platform: "snapchat", Label: "Snapchat", Handle: "jdsnap", DeepLink: "snapchat://add/jdsnap", WebURL: "https://snapchat.com/add/jdsnap"},
	}
	if diff := cmp.Diff(want, views); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestImport(t *testing.T) {
	dir := setup(t)
	contacts := writeFile(t, dir, "contacts.json", `[{"key":"42","name":"Jane Doe"}]`)
	backupFile := writeFile(t, dir, "friends.json", `{"friends":[{"display_name":"jane doe","username":"janedoe99"}]}`)

	out, err := runCmd(t, "import", "-save", backupFile, contacts)
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	if !strings.Contains(out, `"contact_ref": "42"`) || !strings.Contains(out, `"handle": "janedoe99"`) {
		t.Errorf("import output = %s", out)
	}

	out, err = runCmd(t, "links", "42")
	if err != nil {
		t.Fatalf("links error = %v", err)
	}
	if !strings.Contains(out, "https://snapchat.com/add/janedoe99") {
		t.Errorf("links output = %s", out)
	}

	out, err = runCmd(t, "import", writeFile(t, dir, "junk.json", `not json`), contacts)
	if err != nil {
		t.Fatalf("import junk error = %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("import junk output = %q, want []", out)
	}
}
