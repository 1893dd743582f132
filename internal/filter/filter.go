// Package filter expands command line arguments into the files to process.
package filter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoFiles is returned when the arguments expand to no files at all.
	ErrNoFiles = errors.New("no files matched")
	// ErrProtected is returned when an argument names one of the protected files.
	ErrProtected = errors.New("refusing to process key material")
)

// TempPrefix is the name prefix of in-flight temporary files, which walks never select.
const TempPrefix = ".tmp-"

// Filter selects files inside walked directories.
// On encryption artifacts are skipped, on decryption only artifacts are selected.
// Protected files are never selected, and naming one explicitly is an error.
type Filter struct {
	suffix  string
	decrypt bool

	excludes  patterns
	protected map[string]struct{}
	// protectedInfo catches protected files reached through links or differently spelled paths.
	protectedInfo []os.FileInfo
}

// Option configures a Filter.
type Option func(*Filter) error

// WithExcludes skips walked files matching any of the globs.
func WithExcludes(globs ...string) Option {
	return func(f *Filter) error {
		compiled, err := compilePatterns(globs)
		if err != nil {
			return fmt.Errorf("compiling exclude patterns: %w", err)
		}

		f.excludes = append(f.excludes, compiled...)

		return nil
	}
}

// WithProtected marks files that must never be processed, such as the key material.
func WithProtected(paths ...string) Option {
	return func(f *Filter) error {
		for _, path := range paths {
			f.protected[absolute(path)] = struct{}{}

			if info, err := os.Stat(path); err == nil {
				f.protectedInfo = append(f.protectedInfo, info)
			}
		}

		return nil
	}
}

// New returns a Filter for the given artifact suffix and direction.
func New(suffix string, decrypt bool, opts ...Option) (*Filter, error) {
	f := &Filter{
		suffix:    suffix,
		decrypt:   decrypt,
		protected: make(map[string]struct{}),
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// Match reports whether a file found while walking a directory should be processed.
func (f *Filter) Match(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, TempPrefix) {
		return false
	}

	if f.excludes.match(filepath.ToSlash(filepath.Clean(path))) {
		return false
	}

	return strings.HasSuffix(base, f.suffix) == f.decrypt
}

// Resolve takes positional args (files/directories).
// Files are added directly (bypassing filtering). Directories are walked and filtered.
// Returns matched files and total candidates scanned.
func (f *Filter) Resolve(args []string) (files []string, scanned int, err error) {
	seen := make(map[string]struct{})

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}

		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, arg := range args {
		arg = filepath.Clean(arg)

		info, err := os.Stat(arg)
		if err != nil {
			return nil, 0, fmt.Errorf("stat %q: %w", arg, err)
		}

		if !info.IsDir() {
			// Explicit file: bypass filtering, add directly.
			if f.isProtected(arg, info) {
				return nil, 0, fmt.Errorf("%w: %q", ErrProtected, arg)
			}

			scanned++

			add(arg)

			continue
		}

		// Directory: walk and filter.
		walked, total, err := f.walkDir(arg)
		if err != nil {
			return nil, 0, err
		}

		scanned += total

		for _, path := range walked {
			add(path)
		}
	}

	if len(files) == 0 {
		return nil, scanned, fmt.Errorf("%w: %v", ErrNoFiles, args)
	}

	return files, scanned, nil
}

// walkDir walks root recursively, returning regular files that pass the filter.
// Protected files are skipped without counting them as candidates.
func (f *Filter) walkDir(root string) (files []string, total int, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		if f.isProtected(path, info) {
			return nil
		}

		total++

		if !f.Match(path) {
			return nil
		}

		files = append(files, path)

		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("walking %q: %w", root, err)
	}

	return files, total, nil
}

func (f *Filter) isProtected(path string, info os.FileInfo) bool {
	if _, ok := f.protected[absolute(path)]; ok {
		return true
	}

	for _, protected := range f.protectedInfo {
		if os.SameFile(protected, info) {
			return true
		}
	}

	return false
}

func absolute(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	return abs
}
