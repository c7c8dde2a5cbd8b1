package httpdconf

import (
	"log/slog"

	"github.com/dmitrymomot/httpdconf/augtree"
	"github.com/dmitrymomot/httpdconf/ctl"
)

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger for parser operations.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMinAugeasVersion overrides the minimum Augeas version the parser
// accepts at construction.
func WithMinAugeasVersion(v augtree.Version) Option {
	return func(p *Parser) {
		p.minVersion = v
	}
}

// WithRunFunc substitutes the function used to invoke the Apache control
// command. Intended for tests.
func WithRunFunc(run ctl.RunFunc) Option {
	return func(p *Parser) {
		if run != nil {
			p.runFunc = run
		}
	}
}
