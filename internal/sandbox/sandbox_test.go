package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsContained(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"root itself", root, true},
		{"direct child", filepath.Join(root, "a"), true},
		{"nested child", filepath.Join(root, "a", "b"), true},
		{"nonexistent child", filepath.Join(root, "does", "not", "exist"), true},
		{"parent", filepath.Dir(root), false},
		{"traversal out", filepath.Join(root, "..", "elsewhere"), false},
		{"sibling with shared prefix", root + "-evil", false},
		{"unrelated", "/etc/passwd", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsContained(root, tt.candidate))
		})
	}
}

func TestIsContainedFollowsSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	link := filepath.Join(root, "escape")
	require.NoError(t, os.Symlink(outside, link))

	// The link lives under root lexically but resolves outside it.
	assert.False(t, IsContained(root, link))
	assert.False(t, IsContained(root, filepath.Join(link, "file.txt")))
}

func TestJoinAcceptsInsideFragments(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "ok.txt"), []byte("x"), 0o644))

	for _, fragment := range []string{
		"ok.txt",
		"sub/dir/new.txt",
		"a/../ok.txt",
		".",
	} {
		got, err := Join(root, fragment)
		require.NoError(t, err, fragment)
		assert.True(t, IsContained(root, got), "join %q produced %q", fragment, got)
	}
}

func TestJoinRejectsEscapes(t *testing.T) {
	root := t.TempDir()

	for _, fragment := range []string{
		"../secret",
		"../../etc/passwd",
		"a/../../..",
		"/etc/passwd",
	} {
		_, err := Join(root, fragment)
		assert.Error(t, err, fragment)
	}
}

func TestJoinRejectsSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))

	_, err := Join(root, "escape/file.txt")
	assert.Error(t, err)
}

func TestJoinEmptyFragmentIsRoot(t *testing.T) {
	root := t.TempDir()

	got, err := Join(root, "")
	require.NoError(t, err)

	resolvedRoot, err := Resolve(root)
	require.NoError(t, err)
	assert.Equal(t, resolvedRoot, got)
}

func TestResolveNonexistentSuffix(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "not", "yet", "created.txt")

	resolved, err := Resolve(target)
	require.NoError(t, err)

	resolvedRoot, err := Resolve(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(resolvedRoot, "not", "yet", "created.txt"), resolved)
}
