package httpdconf

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"

	"github.com/dmitrymomot/httpdconf/augtree"
	"github.com/dmitrymomot/httpdconf/ctl"
)

// entryNames are the candidate main configuration files probed under the
// server root, in priority order.
var entryNames = []string{"apache2.conf", "httpd.conf", "conf/httpd.conf"}

// minAugeasVersion is the oldest engine release whose Apache lens handles
// line continuations and quoted arguments correctly.
var minAugeasVersion = augtree.Version{Major: 1, Minor: 2}

// Locations names the files where server-level directives belong.
type Locations struct {
	// Default is the main configuration file.
	Default string
	// Listen is the file where Listen directives live.
	Listen string
	// Name is the file where ServerName directives live.
	Name string
}

// Parser reads and edits an Apache installation's configuration through a
// lens-backed tree. It tracks loaded modules and runtime variables so that
// searches skip directives inside inactive IfModule and IfDefine blocks.
// A Parser is not safe for concurrent use.
type Parser struct {
	aug    *augtree.Adapter
	runner *ctl.Runner

	root      string
	entry     string
	locations Locations
	variables map[string]string
	modules   map[string]string

	minVersion augtree.Version
	runFunc    ctl.RunFunc
	logger     *slog.Logger
}

// New resolves the installation under cfg.ServerRoot, verifies the engine
// version, and parses the main configuration file together with everything
// it transitively includes. No subprocess is spawned here; runtime state is
// seeded from LoadModule directives until Reconcile refreshes it from the
// control command.
func New(cfg Config, opts ...Option) (*Parser, error) {
	p := &Parser{
		variables:  make(map[string]string),
		modules:    make(map[string]string),
		minVersion: minAugeasVersion,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}

	root, err := filepath.Abs(cfg.ServerRoot)
	if err != nil {
		return nil, errors.Join(ErrNoInstallation, err)
	}
	entry, err := findEntry(root)
	if err != nil {
		return nil, err
	}
	p.root = root
	p.entry = entry

	aug, err := augtree.New(
		augtree.WithLoadPath(cfg.LensDir),
		augtree.WithLogger(p.logger),
	)
	if err != nil {
		return nil, errors.Join(ErrNoInstallation, err)
	}
	p.aug = aug

	ver, err := aug.Version()
	if err != nil {
		aug.Close()
		return nil, errors.Join(ErrNotSupported, err)
	}
	if !ver.AtLeast(p.minVersion) {
		aug.Close()
		return nil, fmt.Errorf("%w: augeas %s is older than %s", ErrNotSupported, ver, p.minVersion)
	}

	ctlOpts := []ctl.Option{ctl.WithLogger(p.logger)}
	if p.runFunc != nil {
		ctlOpts = append(ctlOpts, ctl.WithRunFunc(p.runFunc))
	}
	p.runner = ctl.NewRunner(cfg.CtlCommand, ctlOpts...)

	if err := p.ParseFile(entry); err != nil {
		aug.Close()
		return nil, err
	}
	if err := p.scanLoadModules(); err != nil {
		aug.Close()
		return nil, err
	}
	if err := p.setLocations(); err != nil {
		aug.Close()
		return nil, err
	}

	if cfg.VHostRoot != "" {
		vroot, err := filepath.Abs(cfg.VHostRoot)
		if err != nil {
			aug.Close()
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		pattern := cfg.VHostFiles
		if pattern == "" {
			pattern = "*"
		}
		if err := p.ParseFile(filepath.Join(vroot, pattern)); err != nil {
			aug.Close()
			return nil, err
		}
	}

	p.logger.Debug("apache configuration parsed",
		slog.String("root", root),
		slog.String("entry", entry),
		slog.Int("modules", len(p.modules)))
	return p, nil
}

// findEntry locates the main configuration file under root.
func findEntry(root string) (string, error) {
	for _, name := range entryNames {
		candidate := filepath.Join(root, name)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no configuration file under %s", ErrNoInstallation, root)
}

// Close releases the underlying engine handle. The Parser must not be used
// afterwards.
func (p *Parser) Close() {
	if p.aug != nil {
		p.aug.Close()
		p.aug = nil
	}
}

// Root returns the resolved server root directory.
func (p *Parser) Root() string {
	return p.root
}

// Locations returns the resolved directive placement for this installation.
func (p *Parser) Locations() Locations {
	return p.locations
}

// Variables returns a copy of the known runtime variables and their values.
func (p *Parser) Variables() map[string]string {
	return maps.Clone(p.variables)
}

// Modules returns a copy of the known modules, keyed by both the module
// identifier and its source file name, mapped to the shared object path when
// one is known.
func (p *Parser) Modules() map[string]string {
	return maps.Clone(p.modules)
}

// Covered reports whether path is matched by a registered include pattern,
// meaning its directives are visible to searches.
func (p *Parser) Covered(path string) bool {
	return p.aug.Covers(path)
}

// ParseFile registers path with the Apache lens and loads it into the tree.
// path may contain glob characters to register a whole directory. Already
// covered paths are a no-op. Pending changes are flushed first because the
// engine discards unsaved edits on reload.
func (p *Parser) ParseFile(path string) error {
	if err := p.flushPending(); err != nil {
		return err
	}
	added, err := p.aug.EnsureTransform(path)
	if err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	if !added {
		return nil
	}
	if err := p.aug.Load(); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	p.logger.Debug("parsed configuration file", slog.String("path", path))
	return nil
}

// setLocations resolves where Listen and ServerName directives live. When all
// active occurrences of a directive sit in one file that file wins; otherwise
// the main configuration file is the safe target.
func (p *Parser) setLocations() error {
	listen, err := p.directiveSite("Listen")
	if err != nil {
		return err
	}
	name, err := p.directiveSite("ServerName")
	if err != nil {
		return err
	}
	p.locations = Locations{
		Default: p.entry,
		Listen:  listen,
		Name:    name,
	}
	return nil
}

func (p *Parser) directiveSite(directive string) (string, error) {
	matches, err := p.FindDirectives(directive, "", "")
	if err != nil {
		return "", err
	}
	files := make(map[string]struct{})
	for _, m := range matches {
		if file, ok := p.aug.ContainingFile(m); ok {
			files[file] = struct{}{}
		}
	}
	if len(files) == 1 {
		for file := range files {
			return file, nil
		}
	}
	return p.entry, nil
}
