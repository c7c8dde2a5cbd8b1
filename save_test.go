package httpdconf_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/httpdconf"
	"github.com/dmitrymomot/httpdconf/augtree"
)

func TestSave(t *testing.T) {
	t.Parallel()

	t.Run("nothing pending", func(t *testing.T) {
		t.Parallel()

		p := newParser(t, writeLayout(t))
		require.NoError(t, p.Save())
	})

	t.Run("writes and reloads", func(t *testing.T) {
		t.Parallel()

		root := writeLayout(t)
		p := newParser(t, root)
		ports := filepath.Join(root, "ports.conf")

		require.NoError(t, p.AddDirective(augtree.FilePath(ports), "Listen", "8443"))
		require.NoError(t, p.Save())

		pending, err := p.PendingFiles()
		require.NoError(t, err)
		assert.Empty(t, pending)

		content, err := os.ReadFile(ports)
		require.NoError(t, err)
		assert.Contains(t, string(content), "Listen 8443")

		matches, err := p.FindDirectives("Listen", "", "")
		require.NoError(t, err)
		assert.Len(t, matches, 3, "the reloaded tree sees the new directive")
	})

	t.Run("rejected file stays untouched on disk", func(t *testing.T) {
		t.Parallel()

		root := writeLayout(t)
		p := newParser(t, root)
		entry := filepath.Join(root, "apache2.conf")

		original, err := os.ReadFile(entry)
		require.NoError(t, err)

		// A directive name the lens cannot serialize forces a per-file save
		// failure.
		require.NoError(t, p.AddDirective(augtree.FilePath(entry), "Bad\nName", "x"))

		err = p.Save()
		var saveErr *httpdconf.SaveError
		require.ErrorAs(t, err, &saveErr)
		require.ErrorIs(t, err, httpdconf.ErrInvalidConfig)
		assert.Equal(t, []string{entry}, saveErr.Files)
		assert.NotEmpty(t, saveErr.Causes)

		content, err := os.ReadFile(entry)
		require.NoError(t, err)
		assert.Equal(t, string(original), string(content))
	})

	t.Run("only fresh errors are blamed", func(t *testing.T) {
		t.Parallel()

		root := writeLayout(t)
		writeFile(t, root, "sites-enabled/broken.conf", "<VirtualHost *:80>\n\tDocumentRoot /var/www/broken\n")
		p := newParser(t, root)
		entry := filepath.Join(root, "apache2.conf")

		require.NoError(t, p.AddDirective(augtree.FilePath(entry), "Bad\nName", "x"))

		err := p.Save()
		var saveErr *httpdconf.SaveError
		require.ErrorAs(t, err, &saveErr)
		assert.Equal(t, []string{entry}, saveErr.Files,
			"the pre-existing parse failure must not be attributed to this save")
	})
}
