// Package workspace exposes browse, read, write, create-directory, and delete
// operations scoped to a single workspace root.
//
// Every operation takes a relative path fragment, joins and resolves it
// against the root, and verifies sandbox containment before touching the
// filesystem. On a containment failure the operation returns a forbidden
// error and performs no I/O. The root itself is never deletable.
package workspace
