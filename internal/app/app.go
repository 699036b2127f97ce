package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"journal/internal/config"
	"journal/internal/encryption"
	"journal/internal/journal"
	"journal/internal/store"
)

// ErrNotFound is returned when a reference given on the command line does
// not resolve to anything in scope.
var ErrNotFound = errors.New("not found")

// JournalApp is the application layer between the CLI and JournalService.
// It constructs all dependencies from config, loads the repository on start,
// exposes operations that accept raw command-line references, and writes the
// repository back on Close when the session changed it.
type JournalApp struct {
	cfg       *config.Config
	store     journal.Store
	encryptor journal.Encryptor
	clock     journal.Clock
	logger    journal.Logger
	service   *journal.JournalService
	session   *Session
	logFile   *os.File
}

// NewJournalApp creates a fully wired JournalApp from the given config and
// loads every project from the configured store.
// command identifies the CLI command being run (e.g. "ImportDefinition", "NewEvent").
// When verbose is set, log records are also written to stderr.
// The caller must call Close when done.
func NewJournalApp(cfg *config.Config, command string, verbose bool) (*JournalApp, error) {
	s, err := store.NewStoreFromConfig(context.Background(), cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		closeStore(s)
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	clock := journal.RealClock{}
	session := NewSession(command, clock.Now())
	l, logFile, err := newLogger(cfg.LogDir, session.ID, verbose)
	if err != nil {
		closeStore(s)
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: l}

	svc := journal.NewJournalService(s, logger, clock, journal.UUIDGenerator{})
	if err := svc.LoadFromStore(); err != nil {
		closeStore(s)
		logFile.Close()
		return nil, fmt.Errorf("loading journal: %w", err)
	}
	logger.Debug("session started", "command", command, "store", cfg.Store.Type)

	return &JournalApp{
		cfg:       cfg,
		store:     s,
		encryptor: enc,
		clock:     clock,
		logger:    logger,
		service:   svc,
		session:   session,
		logFile:   logFile,
	}, nil
}

// Now returns the current time of the app's clock.
func (a *JournalApp) Now() time.Time {
	return a.clock.Now()
}

// Display returns the presentation settings from the config.
func (a *JournalApp) Display() config.DisplayConfig {
	return a.cfg.Display
}

// fail marks the session failed and passes err through.
func (a *JournalApp) fail(err error) error {
	a.session.Fail()
	return err
}

// ParseScope parses a --project flag value. The empty string is unscoped.
func ParseScope(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid project id %q: %w", raw, err)
	}
	return id, nil
}

// ImportDefinition resolves the given path and imports it as a project named projectName.
func (a *JournalApp) ImportDefinition(projectName, rawPath string) error {
	p, err := filepath.Abs(rawPath)
	if err != nil {
		return a.fail(fmt.Errorf("resolving path: %w", err))
	}
	if err := a.service.ImportDefinition(projectName, p); err != nil {
		return a.fail(err)
	}
	a.session.MarkDirty()
	return nil
}

func (a *JournalApp) Projects() []journal.ProjectItemView {
	return a.service.ListProjects()
}

func (a *JournalApp) EventTemplates(scope uuid.UUID) []journal.EventTemplateItemView {
	return a.service.ListEventTemplates(scope)
}

func (a *JournalApp) TraceTemplates(scope uuid.UUID) []journal.TraceTemplateItemView {
	return a.service.ListTraceTemplates(scope)
}

func (a *JournalApp) Traces(scope uuid.UUID) []journal.TraceItemView {
	return a.service.ListTraces(scope)
}

func (a *JournalApp) Events(scope uuid.UUID) []journal.EventItemView {
	return a.service.ListEvents(scope)
}

// ViewTrace resolves ref (an id, or the name of an active trace in scope)
// and returns its full view.
func (a *JournalApp) ViewTrace(ref string, scope uuid.UUID) (journal.TraceView, error) {
	view, err := a.resolveTrace(ref, scope)
	if err != nil {
		return journal.TraceView{}, a.fail(err)
	}
	return view, nil
}

// ViewEvent returns the event with the given id.
func (a *JournalApp) ViewEvent(rawID string) (journal.EventView, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return journal.EventView{}, a.fail(fmt.Errorf("invalid event id %q: %w", rawID, err))
	}
	view, ok := a.service.ViewEvent(id)
	if !ok {
		return journal.EventView{}, a.fail(fmt.Errorf("event %s: %w", id, ErrNotFound))
	}
	return view, nil
}

// NewTrace creates a trace named name from the trace template matching
// templateRef, with the traces matching originRefs as its origins.
func (a *JournalApp) NewTrace(templateRef, name string, originRefs []string, scope uuid.UUID) (journal.TraceView, error) {
	tmpl, err := resolve("trace template", templateRef, a.service.ListTraceTemplates(scope),
		func(v journal.TraceTemplateItemView) (uuid.UUID, string) { return v.ID, v.Name })
	if err != nil {
		return journal.TraceView{}, a.fail(err)
	}

	b, err := a.service.CreateTraceBuilder(tmpl.ID)
	if err != nil {
		return journal.TraceView{}, a.fail(err)
	}
	b.Name = name
	for _, ref := range originRefs {
		origin, err := a.resolveTrace(ref, scope)
		if err != nil {
			return journal.TraceView{}, a.fail(fmt.Errorf("origin: %w", err))
		}
		b.SelectTrace(origin.Item())
		b.AddSelectedOrigin()
	}

	id := a.service.SaveTrace(b)
	a.session.MarkDirty()
	view, _ := a.service.ViewTrace(id)
	return view, nil
}

// NewEvent logs an event of the event template matching templateRef against
// the trace matching traceRef. Each entry of fields has the form name=value;
// an empty value clears the field. tags are added to the template's default tags.
func (a *JournalApp) NewEvent(traceRef, templateRef string, fields, tags []string, scope uuid.UUID) (journal.EventView, error) {
	trace, err := a.resolveTrace(traceRef, scope)
	if err != nil {
		return journal.EventView{}, a.fail(err)
	}
	if trace.TraceTemplate == nil {
		return journal.EventView{}, a.fail(fmt.Errorf("trace %s has no trace template", trace.ID))
	}

	var candidates []journal.EventTemplateItemView
	for _, et := range a.service.ListEventTemplates(uuid.Nil) {
		if et.TraceTemplateID == trace.TraceTemplate.ID {
			candidates = append(candidates, et)
		}
	}
	tmpl, err := resolve("event template", templateRef, candidates,
		func(v journal.EventTemplateItemView) (uuid.UUID, string) { return v.ID, v.Name })
	if err != nil {
		return journal.EventView{}, a.fail(err)
	}

	b, err := a.service.CreateEventBuilder(tmpl.ID, trace)
	if err != nil {
		return journal.EventView{}, a.fail(err)
	}
	if err := applyFields(b, fields); err != nil {
		return journal.EventView{}, a.fail(err)
	}
	for _, tag := range tags {
		b.AddTag(tag)
	}

	id := a.service.SaveEvent(b)
	a.session.MarkDirty()
	view, _ := a.service.ViewEvent(id)
	return view, nil
}

func applyFields(b *journal.EventBuilder, fields []string) error {
	for _, kv := range fields {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid field %q: expected name=value", kv)
		}
		name = strings.TrimSpace(name)
		if value == "" {
			f, ok := b.Field(name)
			if !ok {
				return fmt.Errorf("unknown field: %s", name)
			}
			f.Value.Clear()
			continue
		}
		if err := b.SetField(name, value); err != nil {
			return err
		}
	}
	return nil
}

// CompleteTrace marks the trace matching ref completed.
func (a *JournalApp) CompleteTrace(ref string, scope uuid.UUID) (journal.TraceView, error) {
	trace, err := a.resolveTrace(ref, scope)
	if err != nil {
		return journal.TraceView{}, a.fail(err)
	}
	a.service.CompleteTrace(trace.ID)
	a.session.MarkDirty()
	view, _ := a.service.ViewTrace(trace.ID)
	return view, nil
}

// Export writes a snapshot of the whole repository to rawPath, encrypted
// with passphrase unless it is empty. The file is replaced atomically.
func (a *JournalApp) Export(rawPath, passphrase string) error {
	var buf bytes.Buffer
	if err := a.service.ExportSnapshot(&buf); err != nil {
		return a.fail(err)
	}

	var out io.Reader = &buf
	if passphrase != "" {
		var enc bytes.Buffer
		if err := a.encryptor.Encrypt(passphrase, &buf, &enc); err != nil {
			return a.fail(fmt.Errorf("encrypting snapshot: %w", err))
		}
		out = &enc
	}

	if err := writeFileAtomic(rawPath, out); err != nil {
		return a.fail(err)
	}
	a.logger.Info("snapshot exported", "path", rawPath, "encrypted", passphrase != "")
	return nil
}

// Restore merges the snapshot at rawPath into the repository, decrypting
// it with passphrase unless it is empty.
func (a *JournalApp) Restore(rawPath, passphrase string) error {
	f, err := os.Open(rawPath)
	if err != nil {
		return a.fail(fmt.Errorf("opening snapshot: %w", err))
	}
	defer f.Close()

	var in io.Reader = f
	if passphrase != "" {
		var plain bytes.Buffer
		if err := a.encryptor.Decrypt(passphrase, f, &plain); err != nil {
			return a.fail(fmt.Errorf("decrypting snapshot: %w", err))
		}
		in = &plain
	}

	if err := a.service.RestoreSnapshot(in); err != nil {
		return a.fail(err)
	}
	a.session.MarkDirty()
	return nil
}

// Close writes the repository back to the store if the session changed it,
// then releases the store and the log file.
func (a *JournalApp) Close() error {
	var firstErr error

	if a.session.NeedsSave() {
		if err := a.service.SaveToStore(); err != nil {
			firstErr = fmt.Errorf("saving journal: %w", err)
			a.session.Fail()
		}
	}
	a.logger.Debug("session finished", "command", a.session.Command, "status", a.session.Status)

	if err := closeStore(a.store); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

// closeStore closes stores that hold resources.
func closeStore(s journal.Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// resolveTrace finds a trace by id, or by name among the active traces in scope.
func (a *JournalApp) resolveTrace(ref string, scope uuid.UUID) (journal.TraceView, error) {
	if id, err := uuid.Parse(ref); err == nil {
		view, ok := a.service.ViewTrace(id)
		if !ok {
			return journal.TraceView{}, fmt.Errorf("trace %s: %w", id, ErrNotFound)
		}
		return view, nil
	}
	item, err := resolve("trace", ref, a.service.ListTraces(scope),
		func(v journal.TraceItemView) (uuid.UUID, string) { return v.ID, v.Name })
	if err != nil {
		return journal.TraceView{}, err
	}
	view, _ := a.service.ViewTrace(item.ID)
	return view, nil
}

// resolve picks the item whose id equals ref, or else the single item whose
// name equals ref ignoring case.
func resolve[T any](kind, ref string, items []T, key func(T) (uuid.UUID, string)) (T, error) {
	var zero T
	if id, err := uuid.Parse(ref); err == nil {
		for _, it := range items {
			if itemID, _ := key(it); itemID == id {
				return it, nil
			}
		}
		return zero, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}

	var matches []T
	for _, it := range items {
		if _, name := key(it); strings.EqualFold(name, ref) {
			matches = append(matches, it)
		}
	}
	switch len(matches) {
	case 0:
		return zero, fmt.Errorf("%s %q: %w", kind, ref, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return zero, fmt.Errorf("%s name %q is ambiguous (%d matches), use an id", kind, ref, len(matches))
	}
}

// writeFileAtomic writes r to path via a temp file in the same directory.
func writeFileAtomic(path string, r io.Reader) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-export-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming snapshot: %w", err)
	}
	return nil
}
