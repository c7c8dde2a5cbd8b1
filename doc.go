// Package httpdconf reads and edits Apache HTTP Server configuration through
// a lens-backed tree, the way the server itself would interpret it. It
// resolves the installation under a server root, follows Include and
// IncludeOptional directives across files, and evaluates IfModule and
// IfDefine conditions against the actual runtime state, so searches only see
// directives Apache would act on.
//
// # Features
//
//   - Server root and entry point resolution for common Apache layouts
//   - Case-insensitive directive search across the whole include closure
//   - Directive, comment, and include insertion with idempotent semantics
//   - Conditional block handling gated by loaded modules and defined variables
//   - ${VAR} interpolation in directive arguments from runtime variables
//   - Runtime reconciliation from apache2ctl dump reports
//   - Save with per-file error reporting and automatic reload
//
// # Basic Usage
//
// Create a parser for an installation and search its configuration:
//
//	import "github.com/dmitrymomot/httpdconf"
//
//	cfg, err := httpdconf.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	parser, err := httpdconf.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer parser.Close()
//
//	// Align the parser's view with the running server.
//	if err := parser.Reconcile(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	// Find every active DocumentRoot in the include closure.
//	roots, err := parser.FindDirectives("DocumentRoot", "", "")
//	for _, addr := range roots {
//		value, _, _ := parser.GetArgument(addr)
//		fmt.Println(addr, value)
//	}
//
// # Editing
//
// Mutations address tree nodes returned by searches. File paths map to tree
// addresses through augtree.FilePath; an address outside the loaded files is
// rejected. Changes accumulate in memory and reach disk only on Save:
//
//	sites := parser.Locations()
//	addr := augtree.FilePath(sites.Listen)
//	if err := parser.AddDirective(addr, "Listen", "8080"); err != nil {
//		log.Fatal(err)
//	}
//	if err := parser.Save(); err != nil {
//		var saveErr *httpdconf.SaveError
//		if errors.As(err, &saveErr) {
//			log.Fatalf("rejected files: %v", saveErr.Files)
//		}
//		log.Fatal(err)
//	}
//
// # Error Handling
//
// Failures wrap one of four sentinels so callers can branch with errors.Is:
// ErrNoInstallation when no Apache layout is found, ErrNotSupported when the
// engine is too old, ErrMisconfiguration when the runtime rejects the
// configuration, and ErrInvalidConfig for everything wrong inside the
// configuration itself. Save failures additionally carry *SaveError with the
// affected files.
package httpdconf
