package augtree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/httpdconf/augtree"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	t.Run("full version", func(t *testing.T) {
		t.Parallel()

		v, err := augtree.ParseVersion("1.12.0")
		require.NoError(t, err)
		assert.Equal(t, augtree.Version{Major: 1, Minor: 12, Patch: 0}, v)
	})

	t.Run("missing patch defaults to zero", func(t *testing.T) {
		t.Parallel()

		v, err := augtree.ParseVersion("1.2")
		require.NoError(t, err)
		assert.Equal(t, augtree.Version{Major: 1, Minor: 2}, v)
	})

	t.Run("distribution suffix ignored", func(t *testing.T) {
		t.Parallel()

		v, err := augtree.ParseVersion("1.12.0-2ubuntu1")
		require.NoError(t, err)
		assert.Equal(t, augtree.Version{Major: 1, Minor: 12, Patch: 0}, v)
	})

	t.Run("surrounding whitespace", func(t *testing.T) {
		t.Parallel()

		v, err := augtree.ParseVersion(" 1.4.0\n")
		require.NoError(t, err)
		assert.Equal(t, augtree.Version{Major: 1, Minor: 4}, v)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()

		for _, input := range []string{"", "1", "one.two", "x.1.0"} {
			_, err := augtree.ParseVersion(input)
			assert.Error(t, err, "input %q", input)
		}
	})
}

func TestVersionAtLeast(t *testing.T) {
	t.Parallel()

	floor := augtree.Version{Major: 1, Minor: 2}

	assert.True(t, augtree.Version{Major: 1, Minor: 2}.AtLeast(floor))
	assert.True(t, augtree.Version{Major: 1, Minor: 2, Patch: 1}.AtLeast(floor))
	assert.True(t, augtree.Version{Major: 1, Minor: 12}.AtLeast(floor))
	assert.True(t, augtree.Version{Major: 2}.AtLeast(floor))
	assert.False(t, augtree.Version{Major: 1, Minor: 1, Patch: 9}.AtLeast(floor))
	assert.False(t, augtree.Version{Major: 0, Minor: 10}.AtLeast(floor))
}

func TestVersionString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.12.0", augtree.Version{Major: 1, Minor: 12}.String())
}
