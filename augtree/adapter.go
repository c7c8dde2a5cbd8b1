package augtree

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"honnef.co/go/augeas"
)

const (
	filesPrefix = "/files"

	lensModule   = "Httpd.lns"
	lensIncludes = "/augeas/load/Httpd/incl"
	lensExcludes = "/augeas/load/Httpd/excl"
	lensName     = "/augeas/load/Httpd/lens"

	versionPath     = "/augeas/version"
	saveModePath    = "/augeas/save"
	savedEventsPath = "/augeas/events/saved"
	errorRecords    = "/augeas//error"

	saveModeNoop      = "noop"
	saveModeOverwrite = "overwrite"
)

// saveExclusions keeps editor backups and package-manager artifacts away
// from the loader; a stray .augsave next to a registered file must not break
// a reload.
var saveExclusions = []string{
	"*.augnew", "*.augsave", "*.dpkg-dist", "*.dpkg-bak", "*.dpkg-new",
	"*.dpkg-old", "*.rpmsave", "*.rpmnew", "*~",
}

// FilePath returns the tree address of a configuration file. The mapping is
// pure: it depends only on the input, not on what is loaded.
func FilePath(path string) string {
	return filesPrefix + path
}

// Adapter owns one engine handle and the registry of include patterns
// installed on the Apache lens. It is not safe for concurrent use.
type Adapter struct {
	aug      augeas.Augeas
	registry map[string][]string // directory -> registered basenames or "*"
	loadPath string
	logger   *slog.Logger
}

// Option is a functional option for configuring an Adapter.
type Option func(*Adapter)

// WithLoadPath points the engine at an alternate lens directory. Empty keeps
// the engine's built-in search path.
func WithLoadPath(dir string) Option {
	return func(a *Adapter) {
		a.loadPath = dir
	}
}

// WithLogger configures structured logging for tree bookkeeping.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New initializes an engine handle that loads nothing by default; files
// enter the tree only through EnsureTransform and Load.
func New(opts ...Option) (*Adapter, error) {
	a := &Adapter{
		registry: make(map[string][]string),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	eng, err := augeas.New("/", a.loadPath, augeas.NoModlAutoload)
	if err != nil {
		return nil, fmt.Errorf("initializing augeas: %w", err)
	}
	a.aug = eng
	if err := a.installExclusions(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the engine handle.
func (a *Adapter) Close() {
	a.aug.Close()
}

// Version reads the engine version from its metadata tree.
func (a *Adapter) Version() (Version, error) {
	raw, ok, err := a.Get(versionPath)
	if err != nil {
		return Version{}, err
	}
	if !ok {
		return Version{}, ErrNoVersion
	}
	return ParseVersion(raw)
}

// Match evaluates a path expression and returns the matching node addresses
// in tree order.
func (a *Adapter) Match(expr string) ([]string, error) {
	matches, err := a.aug.Match(expr)
	if err != nil {
		return nil, fmt.Errorf("match %q: %w", expr, err)
	}
	return matches, nil
}

// Get reads the value of the node at path. The second return is false when
// no node matches; a path matching several nodes is ErrAmbiguousPath.
func (a *Adapter) Get(path string) (string, bool, error) {
	matches, err := a.aug.Match(path)
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", path, err)
	}
	switch len(matches) {
	case 0:
		return "", false, nil
	case 1:
	default:
		return "", false, fmt.Errorf("get %q: %w", path, ErrAmbiguousPath)
	}
	value, err := a.aug.Get(matches[0])
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", path, err)
	}
	return value, true, nil
}

// Set writes value at path, creating the node and its ancestors as needed.
func (a *Adapter) Set(path, value string) error {
	if err := a.aug.Set(path, value); err != nil {
		return fmt.Errorf("set %q: %w", path, err)
	}
	return nil
}

// Insert creates a new sibling of the node at path, labeled label, before or
// after it.
func (a *Adapter) Insert(path, label string, before bool) error {
	if err := a.aug.Insert(path, label, before); err != nil {
		return fmt.Errorf("insert %q at %q: %w", label, path, err)
	}
	return nil
}

// Remove deletes the nodes matching path and everything below them,
// returning how many nodes went away.
func (a *Adapter) Remove(path string) int {
	return a.aug.Remove(path)
}

// Load refreshes the tree from disk for every registered include. Unsaved
// in-memory changes are discarded by the engine, so callers flush first.
func (a *Adapter) Load() error {
	if err := a.aug.Load(); err != nil {
		return fmt.Errorf("loading tree: %w", err)
	}
	return nil
}

// Save writes pending changes to disk. Per-file failures are recorded in the
// engine's metadata tree and can be read with FileErrors.
func (a *Adapter) Save() error {
	if err := a.aug.Save(); err != nil {
		return fmt.Errorf("saving tree: %w", err)
	}
	return nil
}

// PendingFiles lists files whose in-memory state differs from disk, using a
// no-op save pass. The engine's save mode is restored afterwards. A change
// the lens cannot serialize produces no entry here; it lands in the error
// records instead, where FileErrors picks it up.
func (a *Adapter) PendingFiles() ([]string, error) {
	mode, ok, err := a.Get(saveModePath)
	if err != nil {
		return nil, err
	}
	if !ok || mode == "" {
		mode = saveModeOverwrite
	}
	if err := a.Set(saveModePath, saveModeNoop); err != nil {
		return nil, err
	}
	// The pass fails when any dirty file fails to serialize, without saying
	// which. The per-file error records carry that, so the return is dropped.
	_ = a.aug.Save()
	if err := a.Set(saveModePath, mode); err != nil {
		return nil, err
	}
	events, err := a.Match(savedEventsPath)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(events))
	for _, event := range events {
		target, ok, err := a.Get(event)
		if err != nil {
			return nil, err
		}
		if ok {
			files = append(files, strings.TrimPrefix(target, filesPrefix))
		}
	}
	return files, nil
}

// FileErrors collects the per-file failures the engine has recorded.
func (a *Adapter) FileErrors() ([]FileError, error) {
	records, err := a.Match(errorRecords)
	if err != nil {
		return nil, err
	}
	failures := make([]FileError, 0, len(records))
	for _, record := range records {
		fe := FileError{
			Addr: record,
			File: strings.TrimSuffix(strings.TrimPrefix(record, "/augeas"+filesPrefix), "/error"),
		}
		fe.Kind, _, _ = a.Get(record)
		fe.Lens, _, _ = a.Get(record + "/lens")
		fe.Line, _, _ = a.Get(record + "/line")
		fe.Message, _, _ = a.Get(record + "/message")
		failures = append(failures, fe)
	}
	return failures, nil
}

// EnsureTransform registers path with the Apache lens unless an existing
// pattern already covers it. Returns true when a new pattern was added and
// the tree needs a reload to pick the file up. Registering "dir/*" replaces
// previously registered individual files of dir.
func (a *Adapter) EnsureTransform(path string) (bool, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	useNew, removeOld := true, false
	if existing, ok := a.registry[dir]; ok {
		useNew = !slices.Contains(existing, "*")
		removeOld = base == "*"
	}
	if !useNew {
		return false, nil
	}
	covered, err := a.globCovered(path)
	if err != nil {
		return false, err
	}
	if covered {
		return false, nil
	}
	if removeOld {
		if err := a.removeTransforms(dir); err != nil {
			return false, err
		}
	}
	if err := a.addTransform(path); err != nil {
		return false, err
	}
	return true, nil
}

// RegisterPattern records path in the include registry without touching the
// engine. Used when a file joins the configuration through an Include
// directive that has not been written to disk yet.
func (a *Adapter) RegisterPattern(path string) {
	dir := filepath.Dir(path)
	a.registry[dir] = append(a.registry[dir], filepath.Base(path))
}

// Covers reports whether path is matched by any registered include pattern.
func (a *Adapter) Covers(path string) bool {
	if path == "" {
		return false
	}
	for dir, bases := range a.registry {
		for _, base := range bases {
			if ok, _ := filepath.Match(filepath.Join(dir, base), path); ok {
				return true
			}
		}
	}
	return false
}

// ContainingFile resolves the configuration file a tree address belongs to.
// The second return is false for addresses outside the loaded forest.
func (a *Adapter) ContainingFile(addr string) (string, bool) {
	rest, ok := strings.CutPrefix(addr, filesPrefix+"/")
	if !ok {
		return "", false
	}
	candidate := "/" + rest
	for candidate != "/" && candidate != "." {
		matches, err := a.aug.Match("/augeas" + filesPrefix + candidate + "/path")
		if err == nil && len(matches) > 0 {
			return candidate, true
		}
		candidate = filepath.Dir(candidate)
	}
	return "", false
}

// globCovered asks the engine whether any registered include pattern,
// evaluated as a glob, matches path.
func (a *Adapter) globCovered(path string) (bool, error) {
	matches, err := a.Match(fmt.Sprintf("/augeas/load/Httpd['%s' =~ glob(incl)]", path))
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

func (a *Adapter) addTransform(path string) error {
	last, err := a.Match(lensIncludes + "[last()]")
	if err != nil {
		return err
	}
	if len(last) > 0 {
		if err := a.Insert(last[0], "incl", false); err != nil {
			return err
		}
		if err := a.Set(lensIncludes+"[last()]", path); err != nil {
			return err
		}
	} else {
		if err := a.Set(lensName, lensModule); err != nil {
			return err
		}
		if err := a.Set(lensIncludes, path); err != nil {
			return err
		}
	}
	a.RegisterPattern(path)
	a.logger.Debug("registered include pattern", slog.String("pattern", path))
	return nil
}

func (a *Adapter) removeTransforms(dir string) error {
	for _, base := range a.registry[dir] {
		target := filepath.Join(dir, base)
		matches, err := a.Match(fmt.Sprintf("%s[. = '%s']", lensIncludes, target))
		if err != nil {
			return err
		}
		if len(matches) > 0 {
			a.Remove(matches[0])
		}
	}
	delete(a.registry, dir)
	a.logger.Debug("dropped include patterns", slog.String("dir", dir))
	return nil
}

func (a *Adapter) installExclusions() error {
	for i, pattern := range saveExclusions {
		if err := a.Set(fmt.Sprintf("%s[%d]", lensExcludes, i+1), pattern); err != nil {
			return err
		}
	}
	return nil
}
