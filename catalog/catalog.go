// Package catalog keeps rendered record schemas as Go source files in a
// directory, one schema per file.
//
// A file named <name>.go holds exactly what the renderer produced for the
// schema called <name>. Loading a schema imports that source again, so a
// catalog can be edited by hand as long as the file stays a single struct
// declaration.
package catalog

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	skemaforge "github.com/reoring/skemaforge"
	"github.com/reoring/skemaforge/dsl"
	"github.com/reoring/skemaforge/errors"
	"github.com/reoring/skemaforge/gen"
	"github.com/reoring/skemaforge/importer"
	"github.com/reoring/skemaforge/introspect"
)

// Ext is the file extension of catalog entries.
const Ext = ".go"

// DefaultDebounce is how long Watch waits for a burst of file events to
// settle before reporting.
const DefaultDebounce = 200 * time.Millisecond

// Dir is a catalog rooted at a directory.
type Dir struct {
	path string
	opts options
}

type options struct {
	logger   *zap.SugaredLogger
	pkg      string
	policy   skemaforge.UnknownPolicy
	timeout  time.Duration
	debounce time.Duration
	parallel int
}

// Option configures a Dir.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPackage sets the package clause of saved files.
func WithPackage(pkg string) Option { return func(o *options) { o.pkg = pkg } }

// WithUnknownPolicy sets the unknown-key policy of loaded schemas.
func WithUnknownPolicy(p skemaforge.UnknownPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithImportTimeout bounds each import.
func WithImportTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithDebounce sets the quiet period used by Watch.
func WithDebounce(d time.Duration) Option { return func(o *options) { o.debounce = d } }

// WithParallelism caps concurrent imports in LoadAll.
func WithParallelism(n int) Option { return func(o *options) { o.parallel = n } }

// Open returns the catalog at dir, creating the directory when missing.
func Open(dir string, opts ...Option) (*Dir, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.WithHint(errors.Wrap(errors.ErrInvalidName, "catalog directory"), "set catalog_dir or pass --catalog-dir")
	}
	o := options{
		logger:   zap.NewNop().Sugar(),
		pkg:      gen.DefaultPackage,
		timeout:  importer.DefaultTimeout,
		debounce: DefaultDebounce,
		parallel: 4,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create catalog %s", dir)
	}
	return &Dir{path: dir, opts: o}, nil
}

// Path returns the catalog directory.
func (d *Dir) Path() string { return d.path }

// ValidName reports whether name can be used as a catalog entry.
func ValidName(name string) error {
	switch {
	case name == "":
		return errors.Wrap(errors.ErrInvalidName, "schema name is empty")
	case strings.ContainsAny(name, `/\`):
		return errors.WithHint(errors.Wrapf(errors.ErrInvalidName, "schema name %q", name), "schema names may not contain path separators")
	case strings.HasPrefix(name, "."):
		return errors.WithHint(errors.Wrapf(errors.ErrInvalidName, "schema name %q", name), "schema names may not start with a dot")
	}
	return nil
}

// FilePath returns the file that holds name.
func (d *Dir) FilePath(name string) (string, error) {
	if err := ValidName(name); err != nil {
		return "", err
	}
	return filepath.Join(d.path, name+Ext), nil
}

// List returns the schema names in the catalog, sorted.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, errors.Wrapf(err, "list catalog %s", d.path)
	}
	var names []string
	for _, e := range entries {
		if name, ok := entryName(e.Name()); ok && !e.IsDir() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func entryName(file string) (string, bool) {
	if !strings.HasSuffix(file, Ext) || strings.HasSuffix(file, "_test"+Ext) {
		return "", false
	}
	name := strings.TrimSuffix(file, Ext)
	if ValidName(name) != nil {
		return "", false
	}
	return name, true
}

// Load imports the schema stored under name.
func (d *Dir) Load(ctx context.Context, name string) ([]skemaforge.FieldDescriptor, *dsl.RecordSchema, error) {
	path, err := d.FilePath(name)
	if err != nil {
		return nil, nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, errors.WithHint(errors.Wrapf(errors.ErrNotFound, "schema %q", name), "run `skemaforge list` to see saved schemas")
		}
		return nil, nil, errors.Wrapf(err, "read schema %q", name)
	}
	s, err := importer.Import(ctx, src,
		importer.WithFilename(path),
		importer.WithUnknownPolicy(d.opts.policy),
		importer.WithTimeout(d.opts.timeout),
	)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "load schema %q", name)
	}
	d.opts.logger.Debugw("schema loaded", "schema", name, "path", path, "fields", s.Len())
	return introspect.Introspect(s), s, nil
}

// Save renders fields and stores them under name, replacing any previous
// version atomically.
func (d *Dir) Save(name string, fields []skemaforge.FieldDescriptor) error {
	path, err := d.FilePath(name)
	if err != nil {
		return err
	}
	src, err := gen.Render(name, fields, gen.Options{Package: d.opts.pkg})
	if err != nil {
		return errors.Wrapf(err, "render schema %q", name)
	}
	if err := writeAtomic(d.path, path, src); err != nil {
		return errors.Wrapf(err, "save schema %q", name)
	}
	d.opts.logger.Infow("schema saved", "schema", name, "path", path)
	return nil
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(name)
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(name, 0o644); err != nil {
		return err
	}
	err = os.Rename(name, path)
	return err
}

// Delete removes the schema stored under name.
func (d *Dir) Delete(name string) error {
	path, err := d.FilePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(errors.ErrNotFound, "schema %q", name)
		}
		return errors.Wrapf(err, "delete schema %q", name)
	}
	d.opts.logger.Infow("schema deleted", "schema", name, "path", path)
	return nil
}

// LoadAll imports every schema concurrently and returns their descriptors
// by name. The first failure cancels the rest.
func (d *Dir) LoadAll(ctx context.Context) (map[string][]skemaforge.FieldDescriptor, error) {
	names, err := d.List()
	if err != nil {
		return nil, err
	}
	var (
		mu  sync.Mutex
		out = make(map[string][]skemaforge.FieldDescriptor, len(names))
	)
	g, gctx := errgroup.WithContext(ctx)
	if d.opts.parallel > 0 {
		g.SetLimit(d.opts.parallel)
	}
	for _, name := range names {
		g.Go(func() error {
			fields, _, err := d.Load(gctx, name)
			if err != nil {
				return err
			}
			mu.Lock()
			out[name] = fields
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Event reports a change to one catalog entry.
type Event struct {
	Name    string
	Removed bool
}

// Watch reports changes to catalog entries until ctx is cancelled. Bursts of
// file events are collapsed per entry and delivered in name order after the
// debounce period. fn runs on the watching goroutine.
func (d *Dir) Watch(ctx context.Context, fn func(Event)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer w.Close()
	if err := w.Add(d.path); err != nil {
		return errors.Wrapf(err, "watch %s", d.path)
	}
	d.opts.logger.Infow("watching catalog", "path", d.path)

	pending := map[string]bool{}
	timer := time.NewTimer(d.opts.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, ok := entryName(filepath.Base(event.Name))
			if !ok {
				continue
			}
			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				pending[name] = false
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				pending[name] = true
			default:
				continue
			}
			d.opts.logger.Debugw("catalog event", "schema", name, "op", event.Op.String())
			timer.Reset(d.opts.debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			d.opts.logger.Warnw("catalog watcher error", "error", err)
		case <-timer.C:
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fn(Event{Name: name, Removed: pending[name]})
			}
			clear(pending)
		}
	}
}
