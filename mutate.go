package httpdconf

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/httpdconf/augtree"
)

// owningFile resolves the loaded file that contains addr. Every mutator
// checks this first: a node created outside the loaded set belongs to no
// transform, and a save skips it without recording an error.
func (p *Parser) owningFile(addr string) (string, error) {
	file, ok := p.aug.ContainingFile(addr)
	if !ok {
		return "", fmt.Errorf("%w: %s is not under a loaded file", ErrInvalidConfig, addr)
	}
	return file, nil
}

// AddDirective appends one directive per value under the block at addr. Each
// value becomes its own directive node carrying a single argument, so later
// exact-value searches and removals work per value. Fails when addr is not
// under a loaded file.
func (p *Parser) AddDirective(addr, name string, values ...string) error {
	if _, err := p.owningFile(addr); err != nil {
		return err
	}
	for _, value := range values {
		if err := p.aug.Set(addr+"/directive[last() + 1]", name); err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
		if err := p.aug.Set(addr+"/directive[last()]/arg", value); err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
	}
	p.logger.Debug("added directive",
		slog.String("addr", addr),
		slog.String("name", name),
		slog.Int("values", len(values)))
	return nil
}

// AddDirectiveAtStart inserts one directive per value at the beginning of the
// block at addr, before any existing directive, preserving the order of
// values. Existing directive addresses shift by the number of values added.
func (p *Parser) AddDirectiveAtStart(addr, name string, values ...string) error {
	if _, err := p.owningFile(addr); err != nil {
		return err
	}
	first := addr + "/directive[1]"
	existing, err := p.aug.Match(first)
	if err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	if len(existing) == 0 {
		return p.AddDirective(addr, name, values...)
	}
	for i := len(values) - 1; i >= 0; i-- {
		if err := p.aug.Insert(first, "directive", true); err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
		if err := p.aug.Set(first, name); err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
		if err := p.aug.Set(first+"/arg", values[i]); err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
	}
	p.logger.Debug("added directive at start",
		slog.String("addr", addr),
		slog.String("name", name),
		slog.Int("values", len(values)))
	return nil
}

// AddDirectiveToIfModule appends one directive per value inside an IfModule
// block for module under addr, creating the block at the end of addr when no
// matching one exists yet.
func (p *Parser) AddDirectiveToIfModule(addr, module, name string, values ...string) error {
	if _, err := p.owningFile(addr); err != nil {
		return err
	}
	guard, err := p.moduleGuard(addr, module)
	if err != nil {
		return err
	}
	return p.AddDirective(guard, name, values...)
}

// moduleGuard returns the address of an IfModule block for module under addr,
// creating one when necessary.
func (p *Parser) moduleGuard(addr, module string) (string, error) {
	expr := fmt.Sprintf("%s/IfModule/*[self::arg=%s]", addr, quoteExpr(module))
	matches, err := p.aug.Match(expr)
	if err != nil {
		return "", errors.Join(ErrInvalidConfig, err)
	}
	if len(matches) > 0 {
		return strings.TrimSuffix(matches[0], "/arg"), nil
	}

	if err := p.aug.Set(addr+"/IfModule[last() + 1]/arg", module); err != nil {
		return "", errors.Join(ErrInvalidConfig, err)
	}
	created, err := p.aug.Match(addr + "/IfModule[last()]")
	if err != nil {
		return "", errors.Join(ErrInvalidConfig, err)
	}
	if len(created) == 0 {
		return "", fmt.Errorf("%w: IfModule block for %s vanished after creation", ErrInvalidConfig, module)
	}
	p.logger.Debug("created IfModule block",
		slog.String("addr", created[0]),
		slog.String("module", module))
	return created[0], nil
}

// AddComment appends a comment with exactly text to the block at addr, unless
// the containing file already holds one, so repeated marker writes stay
// single.
func (p *Parser) AddComment(addr, text string) error {
	file, err := p.owningFile(addr)
	if err != nil {
		return err
	}
	existing, err := p.findComments(augtree.FilePath(file), text, true)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	if err := p.aug.Set(addr+"/#comment[last() + 1]", text); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	return nil
}

// FindComments returns the addresses of every loaded comment containing text.
func (p *Parser) FindComments(text string) ([]string, error) {
	return p.findComments(augtree.FilePath(p.root), text, false)
}

func (p *Parser) findComments(start, text string, exact bool) ([]string, error) {
	nodes, err := p.aug.Match(start + "//*[label()='#comment']")
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	var found []string
	for _, node := range nodes {
		content, ok, err := p.aug.Get(node)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		if !ok {
			continue
		}
		if (exact && content == text) || (!exact && strings.Contains(content, text)) {
			found = append(found, node)
		}
	}
	return found, nil
}

// AddInclude appends an Include for incPath to mainConfig unless one is
// already active anywhere in the configuration. The target pattern is
// registered immediately so the new include counts as covered before the
// change reaches disk.
func (p *Parser) AddInclude(mainConfig, incPath string) error {
	existing, err := p.FindDirectives("Include", incPath, "")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	if err := p.AddDirective(augtree.FilePath(mainConfig), "Include", incPath); err != nil {
		return err
	}
	p.aug.RegisterPattern(incPath)
	p.logger.Debug("added include",
		slog.String("main", mainConfig),
		slog.String("include", incPath))
	return nil
}
