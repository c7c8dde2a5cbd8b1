package augtree_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/httpdconf/augtree"
)

func newAdapter(t *testing.T) *augtree.Adapter {
	t.Helper()

	a, err := augtree.New()
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func writeConf(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFilePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/files/etc/apache", augtree.FilePath("/etc/apache"))
	// Pure mapping: the input is prefixed as-is, without normalization.
	assert.Equal(t, "/files/etc//apache/../x", augtree.FilePath("/etc//apache/../x"))
}

func TestAdapterTreeOps(t *testing.T) {
	a := newAdapter(t)

	require.NoError(t, a.Set("/test/block/directive[1]", "Listen"))
	require.NoError(t, a.Set("/test/block/directive[1]/arg", "80"))

	value, ok, err := a.Get("/test/block/directive[1]/arg")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "80", value)

	_, ok, err = a.Get("/test/block/directive[9]")
	require.NoError(t, err)
	assert.False(t, ok, "missing node reads as absent, not as an error")

	require.NoError(t, a.Set("/test/block/directive[2]", "ServerName"))
	_, _, err = a.Get("/test/block/directive")
	require.ErrorIs(t, err, augtree.ErrAmbiguousPath)

	require.NoError(t, a.Insert("/test/block/directive[1]", "directive", true))
	require.NoError(t, a.Set("/test/block/directive[1]", "ServerRoot"))
	matches, err := a.Match("/test/block/directive")
	require.NoError(t, err)
	require.Len(t, matches, 3)
	first, _, err := a.Get(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "ServerRoot", first, "insert before lands at the first position")

	removed := a.Remove("/test/block")
	assert.Greater(t, removed, 1)
	matches, err = a.Match("/test/block//*")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestAdapterVersion(t *testing.T) {
	a := newAdapter(t)

	v, err := a.Version()
	require.NoError(t, err)
	assert.True(t, v.AtLeast(augtree.Version{Major: 1}), "reported version %s", v)
}

func TestEnsureTransform(t *testing.T) {
	a := newAdapter(t)
	dir := t.TempDir()
	conf := filepath.Join(dir, "a.conf")
	writeConf(t, conf, "Listen 80\n")

	t.Run("first registration loads the file", func(t *testing.T) {
		added, err := a.EnsureTransform(conf)
		require.NoError(t, err)
		require.True(t, added)
		require.NoError(t, a.Load())

		matches, err := a.Match(augtree.FilePath(conf) + "/directive")
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("repeat registration is recognized", func(t *testing.T) {
		added, err := a.EnsureTransform(conf)
		require.NoError(t, err)
		assert.False(t, added)
	})

	t.Run("wildcard replaces individual files", func(t *testing.T) {
		added, err := a.EnsureTransform(filepath.Join(dir, "*"))
		require.NoError(t, err)
		require.True(t, added)

		incl, err := a.Match("/augeas/load/Httpd/incl")
		require.NoError(t, err)
		patterns := make([]string, 0, len(incl))
		for _, addr := range incl {
			p, ok, err := a.Get(addr)
			require.NoError(t, err)
			require.True(t, ok)
			patterns = append(patterns, p)
		}
		assert.NotContains(t, patterns, conf)
		assert.Contains(t, patterns, filepath.Join(dir, "*"))
	})

	t.Run("files under a wildcard are covered", func(t *testing.T) {
		added, err := a.EnsureTransform(filepath.Join(dir, "b.conf"))
		require.NoError(t, err)
		assert.False(t, added)
	})
}

func TestCovers(t *testing.T) {
	a := newAdapter(t)
	dir := t.TempDir()

	assert.False(t, a.Covers(filepath.Join(dir, "site.conf")))
	assert.False(t, a.Covers(""))

	_, err := a.EnsureTransform(filepath.Join(dir, "*"))
	require.NoError(t, err)

	assert.True(t, a.Covers(filepath.Join(dir, "site.conf")))
	assert.False(t, a.Covers("/elsewhere/site.conf"))

	a.RegisterPattern("/elsewhere/site.conf")
	assert.True(t, a.Covers("/elsewhere/site.conf"))
}

func TestContainingFile(t *testing.T) {
	a := newAdapter(t)
	dir := t.TempDir()
	conf := filepath.Join(dir, "vhost.conf")
	writeConf(t, conf, "<VirtualHost *:80>\nServerName example.com\n</VirtualHost>\n")

	added, err := a.EnsureTransform(conf)
	require.NoError(t, err)
	require.True(t, added)
	require.NoError(t, a.Load())

	t.Run("node address resolves to its file", func(t *testing.T) {
		file, ok := a.ContainingFile(augtree.FilePath(conf) + "/VirtualHost/directive[1]")
		require.True(t, ok)
		assert.Equal(t, conf, file)
	})

	t.Run("file address resolves to itself", func(t *testing.T) {
		file, ok := a.ContainingFile(augtree.FilePath(conf))
		require.True(t, ok)
		assert.Equal(t, conf, file)
	})

	t.Run("unknown forest", func(t *testing.T) {
		_, ok := a.ContainingFile("/files/nowhere/at/all")
		assert.False(t, ok)

		_, ok = a.ContainingFile("/augeas/load/Httpd")
		assert.False(t, ok)
	})
}

func TestPendingFiles(t *testing.T) {
	a := newAdapter(t)
	dir := t.TempDir()
	conf := filepath.Join(dir, "pending.conf")
	writeConf(t, conf, "Listen 80\n")

	_, err := a.EnsureTransform(conf)
	require.NoError(t, err)
	require.NoError(t, a.Load())

	pending, err := a.PendingFiles()
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, a.Set(augtree.FilePath(conf)+"/directive[last() + 1]", "ServerName"))
	require.NoError(t, a.Set(augtree.FilePath(conf)+"/directive[last()]/arg", "example.com"))

	pending, err = a.PendingFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{conf}, pending)

	require.NoError(t, a.Save())

	pending, err = a.PendingFiles()
	require.NoError(t, err)
	assert.Empty(t, pending)

	content, err := os.ReadFile(conf)
	require.NoError(t, err)
	assert.Contains(t, string(content), "ServerName example.com")
}

func TestFileErrors(t *testing.T) {
	a := newAdapter(t)
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.conf")
	writeConf(t, broken, "<VirtualHost *:80>\nServerName example.com\n")

	_, err := a.EnsureTransform(broken)
	require.NoError(t, err)
	require.NoError(t, a.Load(), "per-file parse failures do not fail the load call")

	failures, err := a.FileErrors()
	require.NoError(t, err)
	require.NotEmpty(t, failures)

	var found bool
	for _, fe := range failures {
		if fe.File != broken {
			continue
		}
		found = true
		assert.Contains(t, fe.Lens, "httpd.aug")
		assert.NotEmpty(t, fe.Kind)
		assert.NotEmpty(t, fe.Error())
	}
	assert.True(t, found, "expected a failure record for %s", broken)
}
