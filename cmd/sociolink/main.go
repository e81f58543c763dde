// Command sociolink finds social handles in contact data and manages the
// links stored for each contact.
//
// Usage:
//
//	sociolink detect contacts.json              # suggest handles per contact
//	sociolink detect -save contacts.json        # ...and store them
//	sociolink import snapchat.json contacts.json
//	sociolink open instagram janedoe
//	sociolink links 42
//
// Settings are read from SOCIOLINK_* environment variables or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/codeGROOVE-dev/sociolink/pkg/backup"
	"github.com/codeGROOVE-dev/sociolink/pkg/config"
	"github.com/codeGROOVE-dev/sociolink/pkg/launch"
	"github.com/codeGROOVE-dev/sociolink/pkg/platform"
	"github.com/codeGROOVE-dev/sociolink/pkg/resultcache"
	"github.com/codeGROOVE-dev/sociolink/pkg/sociolink"
	"github.com/codeGROOVE-dev/sociolink/pkg/store"
)

var errUsage = errors.New("usage")

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, errUsage) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: sociolink <command> [options] [args]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  detect [-db path] [-save] [-no-cache] [-skip-emails] contacts.json")
	fmt.Fprintln(w, "  import [-db path] [-save] backup.json contacts.json")
	fmt.Fprintln(w, "  open [-installed] <platform> <handle>")
	fmt.Fprintln(w, "  links [-db path] <contact-key>")
	fmt.Fprintln(w, "\nPlatforms:")
	for _, p := range platform.All() {
		fmt.Fprintf(w, "  - %s (%s)\n", p, p.DisplayName())
	}
}

// app carries what every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		usage(stderr)
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a := &app{cfg: cfg, stdout: stdout, stderr: stderr}

	switch args[0] {
	case "detect":
		return a.detect(ctx, args[1:])
	case "import":
		return a.importBackup(ctx, args[1:])
	case "open":
		return a.open(ctx, args[1:])
	case "links":
		return a.links(ctx, args[1:])
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return errUsage
	}
}

// flags registers the options shared by every subcommand.
func (a *app) flags(name string) (*flag.FlagSet, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.BoolVar(debug, "v", false, "verbose logging (same as -debug)")
	return fs, debug
}

func (a *app) setupLogger(debug bool) {
	level := a.cfg.LogLevel
	if debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
}

func (a *app) openStore(path string) (*store.Store, error) {
	s, err := store.Open(path, store.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("open link database %s: %w", path, err)
	}
	a.logger.Debug("link database opened", "path", path)
	return s, nil
}

func (a *app) closeStore(s *store.Store) {
	if err := s.Close(); err != nil {
		a.logger.Warn("failed to close link database", "error", err)
	}
}

func (a *app) detect(ctx context.Context, args []string) error {
	fs, debug := a.flags("detect")
	dbPath := fs.String("db", a.cfg.DBPath, "link database path")
	save := fs.Bool("save", false, "store the detected links")
	noCache := fs.Bool("no-cache", false, "disable the detection result cache")
	skipEmails := fs.Bool("skip-emails", false, "do not read email addresses in notes as mentions")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	a.setupLogger(*debug)

	contacts, err := readContacts(fs.Arg(0))
	if err != nil {
		return err
	}

	db, err := a.openStore(*dbPath)
	if err != nil {
		return err
	}
	defer a.closeStore(db)

	opts := []sociolink.Option{
		sociolink.WithLogger(a.logger),
		sociolink.WithLinks(db),
		sociolink.WithDefaultPlatform(a.cfg.DefaultPlatform),
		sociolink.WithConcurrency(a.cfg.Concurrency),
	}
	if *skipEmails {
		opts = append(opts, sociolink.WithSkipEmails())
	}
	if !*noCache && a.cfg.CacheTTL > 0 {
		cache, err := resultcache.New(a.cfg.CacheTTL)
		if err != nil {
			a.logger.Warn("failed to initialize cache, continuing without cache", "error", err)
		} else {
			defer func() {
				if err := cache.Close(); err != nil {
					a.logger.Warn("failed to close cache", "error", err)
				}
			}()
			opts = append(opts, sociolink.WithCache(cache))
		}
	}

	results, err := sociolink.DetectAll(ctx, contacts, opts...)
	if err != nil {
		return err
	}

	if *save {
		stored, err := db.InsertAll(ctx, sociolink.Links(results, time.Now()))
		if err != nil {
			return fmt.Errorf("save links: %w", err)
		}
		a.logger.Info("links saved", "count", len(stored))
	}
	return outputJSON(a.stdout, results)
}

func (a *app) importBackup(ctx context.Context, args []string) error {
	fs, debug := a.flags("import")
	dbPath := fs.String("db", a.cfg.DBPath, "link database path")
	save := fs.Bool("save", false, "store the matched links")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errUsage
	}
	a.setupLogger(*debug)

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	contacts, err := readContacts(fs.Arg(1))
	if err != nil {
		return err
	}

	accepted := sociolink.Reconcile(data, contacts, sociolink.WithLogger(a.logger))
	if accepted == nil {
		accepted = []sociolink.Accepted{}
	}

	if *save && len(accepted) > 0 {
		db, err := a.openStore(*dbPath)
		if err != nil {
			return err
		}
		defer a.closeStore(db)
		stored, err := db.InsertAll(ctx, backup.ToLinks(accepted, time.Now()))
		if err != nil {
			return fmt.Errorf("save links: %w", err)
		}
		a.logger.Info("links saved", "count", len(stored))
	}
	return outputJSON(a.stdout, accepted)
}

func (a *app) open(ctx context.Context, args []string) error {
	fs, debug := a.flags("open")
	installed := fs.Bool("installed", false, "treat the platform app as installed")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errUsage
	}
	a.setupLogger(*debug)

	p, ok := platform.Parse(fs.Arg(0))
	if !ok {
		return fmt.Errorf("unknown platform %q", fs.Arg(0))
	}

	// Printing stands in for the host's URL handler.
	apps := launch.AppCheckerFunc(func(context.Context, string) bool { return *installed })
	printer := launch.OpenerFunc(func(_ context.Context, url string) error {
		_, err := fmt.Fprintln(a.stdout, url)
		return err
	})
	_, err := launch.New(apps, printer, launch.WithLogger(a.logger)).Launch(ctx, p, fs.Arg(1))
	return err
}

type linkView struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Label    string `json:"label"`
	Handle   string `json:"handle"`
	DeepLink string `json:"deep_link"`
	WebURL   string `json:"web_url"`
}

func (a *app) links(ctx context.Context, args []string) error {
	fs, debug := a.flags("links")
	dbPath := fs.String("db", a.cfg.DBPath, "link database path")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	a.setupLogger(*debug)

	db, err := a.openStore(*dbPath)
	if err != nil {
		return err
	}
	defer a.closeStore(db)

	stored, err := db.LinksForContact(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	out := make([]linkView, 0, len(stored))
	for _, l := range stored {
		out = append(out, linkView{
			ID:       l.ID,
			Platform: l.Platform.String(),
			Label:    l.DisplayLabel(),
			Handle:   l.Handle,
			DeepLink: l.DeepLink(),
			WebURL:   l.WebURL(),
		})
	}
	return outputJSON(a.stdout, out)
}

func readContacts(path string) ([]sociolink.Contact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contacts: %w", err)
	}
	var contacts []sociolink.Contact
	if err := json.Unmarshal(data, &contacts); err != nil {
		return nil, fmt.Errorf("parse contacts %s: %w", path, err)
	}
	return contacts, nil
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
