package httpdconf

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/httpdconf/augtree"
)

// lensSource identifies error records produced by the Apache lens; records
// from other lenses on the same engine are not ours to report.
const lensSource = "httpd.aug"

// PendingFiles lists the configuration files with unsaved in-memory changes.
func (p *Parser) PendingFiles() ([]string, error) {
	files, err := p.aug.PendingFiles()
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return files, nil
}

// Save writes pending changes to disk. When the engine rejects a file, the
// failure surfaces as a *SaveError naming it and nothing reaches disk, so the
// in-memory changes survive for inspection. After a clean write the saved
// files are reloaded so their tree addresses reflect the new on-disk state.
func (p *Parser) Save() error {
	// Error records that predate this save are not its fault; snapshot them
	// before the pending check runs its serialization pass.
	before, err := p.aug.FileErrors()
	if err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	pending, err := p.PendingFiles()
	if err != nil {
		return err
	}
	if err := p.rejectedFiles(before); err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	if err := p.aug.Save(); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	if err := p.rejectedFiles(before); err != nil {
		return err
	}

	for _, file := range pending {
		p.aug.Remove(augtree.FilePath(file))
	}
	if err := p.aug.Load(); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	p.logger.Debug("saved apache configuration", slog.Any("files", pending))
	return nil
}

// rejectedFiles reports the files whose error records appeared after the
// snapshot was taken, as a *SaveError. The engine records failures per file
// instead of failing the save call.
func (p *Parser) rejectedFiles(before []augtree.FileError) error {
	after, err := p.aug.FileErrors()
	if err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	failed := freshErrors(before, after)
	if len(failed) == 0 {
		return nil
	}
	files := make([]string, 0, len(failed))
	for _, fe := range failed {
		files = append(files, fe.File)
	}
	p.logger.Error("saving apache configuration failed", slog.Any("files", files))
	return &SaveError{Files: files, Causes: failed}
}

// freshErrors keeps the error records that were not present in the snapshot.
func freshErrors(before, after []augtree.FileError) []augtree.FileError {
	seen := make(map[string]struct{}, len(before))
	for _, fe := range before {
		seen[fe.Addr] = struct{}{}
	}
	var fresh []augtree.FileError
	for _, fe := range after {
		if _, ok := seen[fe.Addr]; !ok {
			fresh = append(fresh, fe)
		}
	}
	return fresh
}

// flushPending saves outstanding changes before an operation that reloads the
// tree, which would otherwise discard them.
func (p *Parser) flushPending() error {
	pending, err := p.PendingFiles()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	p.logger.Debug("flushing unsaved changes before reload", slog.Any("files", pending))
	return p.Save()
}

// CheckParsingErrors reports the files the Apache lens could not parse. A
// clean tree returns nil.
func (p *Parser) CheckParsingErrors() error {
	failures, err := p.aug.FileErrors()
	if err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	var msgs []string
	for _, fe := range failures {
		if strings.Contains(fe.Lens, lensSource) {
			msgs = append(msgs, fe.Error())
		}
	}
	if len(msgs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
	}
	return nil
}
