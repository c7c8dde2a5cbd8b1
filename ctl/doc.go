// Package ctl queries a running Apache HTTP Server for its effective state
// through the control binary (apache2ctl or apachectl).
//
// Each query runs the binary with -t and a dump flag and parses one of the
// three report formats the server prints: runtime variables (DUMP_RUN_CFG),
// loaded modules (DUMP_MODULES), and resolved include files (DUMP_INCLUDES).
// The report parsers are exported separately so canned output can be parsed
// without spawning anything:
//
//	vars, err := ctl.ParseDefines(report)
//
// A Runner owns the binary name and the spawn function; tests substitute the
// latter to feed fixed reports:
//
//	r := ctl.NewRunner("apache2ctl", ctl.WithRunFunc(fake))
//	mods, err := r.Modules(ctx)
//
// Failures split into two kinds: ErrRunFailed when the binary cannot be
// started or exits non-zero (the server rejects its own configuration), and
// ErrBadReport when the output does not follow the expected format.
package ctl
