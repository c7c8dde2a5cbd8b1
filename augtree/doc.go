// Package augtree wraps the Augeas tree engine behind a small typed surface
// for working with Apache HTTP Server configuration files.
//
// The engine exposes loaded files as a forest of nodes addressed by path
// strings. This package owns the mapping between filesystem paths and those
// addresses, the engine handle lifecycle, and the bookkeeping around loads
// and saves.
//
// # Address Mapping
//
// A configuration file appears in the tree under a fixed namespace prefix:
//
//	augtree.FilePath("/etc/apache2/apache2.conf")
//	// "/files/etc/apache2/apache2.conf"
//
// The mapping is pure string concatenation with no dependency on tree state.
//
// # Include Registry
//
// Files enter the tree through lens transforms. The adapter keeps a registry
// of the patterns it has installed so repeated registrations and files
// already covered by a wildcard pattern are recognized without touching the
// engine:
//
//	added, err := adapter.EnsureTransform("/etc/apache2/conf-enabled/*")
//	if added {
//	    err = adapter.Load()
//	}
//
// # Requirements
//
// The adapter needs libaugeas with the distribution lens set at runtime; the
// Httpd lens ships with every packaged Augeas release.
package augtree
