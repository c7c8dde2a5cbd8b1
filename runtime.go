package httpdconf

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dmitrymomot/httpdconf/ctl"
)

// Reconcile refreshes runtime variables, loaded modules, and the include
// closure from the control command. All three reports are fetched and parsed
// before any internal state changes, so a failing report leaves the parser on
// its previous view.
func (p *Parser) Reconcile(ctx context.Context) error {
	variables, err := p.runner.Defines(ctx)
	if err != nil {
		return classifyRuntime(err)
	}
	includes, err := p.runner.Includes(ctx)
	if err != nil {
		return classifyRuntime(err)
	}
	modules, err := p.runner.Modules(ctx)
	if err != nil {
		return classifyRuntime(err)
	}

	p.variables = variables
	if err := p.loadIncludes(includes); err != nil {
		return err
	}
	if err := p.rebuildModules(modules); err != nil {
		return err
	}

	p.logger.Debug("reconciled runtime state",
		slog.Int("variables", len(p.variables)),
		slog.Int("modules", len(p.modules)))
	return nil
}

// classifyRuntime maps control-command failures to the domain taxonomy: a
// failed invocation means the runtime rejected the configuration, while an
// unreadable report is a parsing problem on our side.
func classifyRuntime(err error) error {
	if errors.Is(err, ctl.ErrRunFailed) {
		return errors.Join(ErrMisconfiguration, err)
	}
	return errors.Join(ErrInvalidConfig, err)
}

// loadIncludes walks the include tree reachable from the entry point, then
// parses any file the runtime reports as included that no registered pattern
// covers yet. Apache resolves includes the parser cannot, such as those built
// from environment values.
func (p *Parser) loadIncludes(reported []string) error {
	if _, err := p.FindDirectives("Include", "", ""); err != nil {
		return err
	}
	for _, inc := range reported {
		if !p.aug.Covers(inc) {
			if err := p.ParseFile(inc); err != nil {
				return err
			}
		}
	}
	return nil
}

// rebuildModules replaces the module table from the runtime report, then
// rescans LoadModule directives so statically compiled modules and shared
// objects both resolve. Each module is known under its identifier and its
// source file name.
func (p *Parser) rebuildModules(names []string) error {
	modules := make(map[string]string, len(names)*2)
	for _, name := range names {
		modules[name+"_module"] = ""
		modules["mod_"+name+".c"] = ""
	}
	p.modules = modules
	return p.scanLoadModules()
}

// scanLoadModules folds LoadModule directives into the module table until no
// scan discovers a new module. A discovered module can activate IfModule
// blocks hiding further LoadModule directives, so one pass is not enough.
func (p *Parser) scanLoadModules() error {
	for {
		before := len(p.modules)
		matches, err := p.FindDirectives("LoadModule", "", "")
		if err != nil {
			return err
		}
		for i := 0; i+1 < len(matches); i += 2 {
			name, okName, err := p.GetArgument(matches[i])
			if err != nil {
				return err
			}
			file, okFile, err := p.GetArgument(matches[i+1])
			if err != nil {
				return err
			}
			if !okName || !okFile {
				p.logger.Warn("skipping unreadable LoadModule directive",
					slog.String("addr", matches[i]))
				continue
			}
			p.modules[name] = file
			p.modules[sourceFileName(file)] = file
		}
		if len(p.modules) == before {
			return nil
		}
	}
}

// sourceFileName derives the conventional C source name Apache accepts in
// IfModule gates from a shared object path.
func sourceFileName(objectFile string) string {
	return strings.TrimSuffix(filepath.Base(objectFile), ".so") + ".c"
}
