// Package sandbox establishes whether filesystem paths are contained within a
// workspace root. Every user-supplied path fragment must pass through Join
// before any I/O happens; resolution is what collapses traversal sequences
// like ../../etc/passwd.
package sandbox

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Resolve canonicalizes a path: absolute, lexically cleaned, with symlinks
// followed on the longest existing prefix. The trailing components may not
// exist yet (a write can target a file that is about to be created).
func Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolutize %s: %w", path, err)
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	// Walk upward until a prefix resolves, then re-attach the remainder.
	prefix := abs
	var rest []string
	for {
		parent := filepath.Dir(prefix)
		if parent == prefix {
			return "", fmt.Errorf("no resolvable prefix for %s", abs)
		}
		rest = append(rest, filepath.Base(prefix))
		prefix = parent

		resolved, err := filepath.EvalSymlinks(prefix)
		if err != nil {
			continue
		}
		for i := len(rest) - 1; i >= 0; i-- {
			resolved = filepath.Join(resolved, rest[i])
		}
		return resolved, nil
	}
}

// IsContained reports whether candidate is root or a descendant of root after
// both are resolved. Any resolution failure yields false; the check fails
// closed.
func IsContained(root, candidate string) bool {
	resolvedRoot, err := Resolve(root)
	if err != nil {
		return false
	}
	resolvedCandidate, err := Resolve(candidate)
	if err != nil {
		return false
	}
	if resolvedCandidate == resolvedRoot {
		return true
	}
	return strings.HasPrefix(resolvedCandidate, resolvedRoot+string(filepath.Separator))
}

// Join joins a user-supplied relative fragment to root, resolves the result,
// and verifies containment. Fragments whose resolution leaves the root —
// traversal sequences, absolute paths, symlinks pointing outside — are
// rejected, never clamped back inside.
func Join(root, fragment string) (string, error) {
	candidate := fragment
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(root, fragment)
	}
	resolved, err := Resolve(candidate)
	if err != nil {
		return "", fmt.Errorf("resolve %q under %s: %w", fragment, root, err)
	}
	if !IsContained(root, resolved) {
		return "", fmt.Errorf("%q escapes workspace root", fragment)
	}
	return resolved, nil
}
