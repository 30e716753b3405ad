package workspace

import (
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/Zaybrah/sleepless-agent/internal/foundation/errors"
	"github.com/Zaybrah/sleepless-agent/internal/logfields"
	"github.com/Zaybrah/sleepless-agent/internal/sandbox"
)

// EntryKind tags a path as a file or a directory.
type EntryKind string

const (
	KindFile      EntryKind = "file"
	KindDirectory EntryKind = "directory"
)

// Entry describes one immediate child of a browsed directory.
type Entry struct {
	Name string    `json:"name"`
	Path string    `json:"path"`
	Kind EntryKind `json:"type"`
	Size *int64    `json:"size,omitempty"`
}

// BrowseResult is either file metadata or a directory listing.
type BrowseResult struct {
	Kind EntryKind
	// Name and Size are set for files.
	Name string
	Size int64
	// Path is relative to the workspace root ("" for the root itself).
	Path string
	// Items is set for directories, sorted by name.
	Items []Entry
}

// FileContent is the result of reading a file.
type FileContent struct {
	Content string
	Path    string
	Size    int64
}

// Service exposes sandboxed file operations under a single workspace root.
type Service struct {
	root string
}

// NewService resolves the workspace root, creating it if absent.
func NewService(root string) (*Service, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve workspace root").Build()
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "create workspace root").Build()
	}
	resolved, err := sandbox.Resolve(abs)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve workspace root").Build()
	}
	return &Service{root: resolved}, nil
}

// Root returns the resolved workspace root.
func (s *Service) Root() string {
	return s.root
}

// resolve scopes a user-supplied fragment to the workspace root. A fragment
// that escapes the root yields a forbidden error and no I/O happens.
func (s *Service) resolve(fragment string) (string, error) {
	target, err := sandbox.Join(s.root, fragment)
	if err != nil {
		return "", errors.ForbiddenError("access denied: path outside workspace").
			WithContext("path", fragment).
			Build()
	}
	return target, nil
}

func (s *Service) relative(target string) string {
	rel, err := filepath.Rel(s.root, target)
	if err != nil || rel == "." {
		return ""
	}
	return rel
}

// Browse returns file metadata for a file target or a sorted listing of
// immediate children for a directory target.
func (s *Service) Browse(fragment string) (*BrowseResult, error) {
	target, err := s.resolve(fragment)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return nil, errors.NotFoundError("path does not exist").WithContext("path", fragment).Build()
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "stat path").Build()
	}

	if !info.IsDir() {
		return &BrowseResult{
			Kind: KindFile,
			Name: info.Name(),
			Path: s.relative(target),
			Size: info.Size(),
		}, nil
	}

	dirEntries, err := os.ReadDir(target)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read directory").Build()
	}

	items := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entry := Entry{
			Name: de.Name(),
			Path: s.relative(filepath.Join(target, de.Name())),
			Kind: KindDirectory,
		}
		if !de.IsDir() {
			entry.Kind = KindFile
			if fi, err := de.Info(); err == nil {
				size := fi.Size()
				entry.Size = &size
			}
		}
		items = append(items, entry)
	}

	return &BrowseResult{
		Kind:  KindDirectory,
		Path:  s.relative(target),
		Items: items,
	}, nil
}

// Read returns the full UTF-8 content of a file. Binary files are rejected
// rather than truncated or corrupted.
func (s *Service) Read(fragment string) (*FileContent, error) {
	target, err := s.resolve(fragment)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return nil, errors.NotFoundError("file does not exist").WithContext("path", fragment).Build()
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "stat file").Build()
	}
	if info.IsDir() {
		return nil, errors.ValidationError("path is not a file").WithContext("path", fragment).Build()
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read file").Build()
	}
	if !utf8.Valid(data) {
		return nil, errors.ValidationError("file is binary and cannot be edited in the web UI").
			WithContext("path", fragment).
			Build()
	}

	return &FileContent{
		Content: string(data),
		Path:    s.relative(target),
		Size:    info.Size(),
	}, nil
}

// Write creates or overwrites a file with the given content, creating any
// missing parent directories.
func (s *Service) Write(fragment, content string) (string, error) {
	target, err := s.resolve(fragment)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "create parent directories").Build()
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "write file").Build()
	}

	rel := s.relative(target)
	slog.Info("File written", logfields.Path(rel))
	return rel, nil
}

// CreateDirectory creates a directory (and parents). An already-existing
// target, file or directory, is a conflict; it never silently succeeds.
func (s *Service) CreateDirectory(fragment string) (string, error) {
	target, err := s.resolve(fragment)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(target); err == nil {
		return "", errors.ConflictError("path already exists").WithContext("path", fragment).Build()
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "create directory").Build()
	}

	rel := s.relative(target)
	slog.Info("Folder created", logfields.Path(rel))
	return rel, nil
}

// Delete removes a file or recursively removes a directory tree. The
// workspace root itself is never deletable.
func (s *Service) Delete(fragment string) error {
	target, err := s.resolve(fragment)
	if err != nil {
		return err
	}

	if target == s.root {
		return errors.ForbiddenError("cannot delete workspace root").Build()
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return errors.NotFoundError("path does not exist").WithContext("path", fragment).Build()
	}
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "stat path").Build()
	}

	if info.IsDir() {
		if err := os.RemoveAll(target); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "delete directory").Build()
		}
		slog.Info("Folder deleted", logfields.Path(fragment))
		return nil
	}

	if err := os.Remove(target); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "delete file").Build()
	}
	slog.Info("File deleted", logfields.Path(fragment))
	return nil
}
