// Package loader discovers and reads the C/C++ sources the extraction engine runs over.
package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/origadmin/dirgen/internal/core"
)

// DefaultExtensions are the source file extensions scanned when none are configured. Some
// dynamic modules are written in C++.
var DefaultExtensions = []string{".c", ".cpp"}

// ErrNoSources is returned when the roots hold no file with a scanned extension.
var ErrNoSources = errors.New("no source files found")

// Loader walks roots on an afero.Fs. Use afero.NewOsFs() for the real filesystem or
// afero.NewMemMapFs() in tests.
type Loader struct {
	fs   afero.Fs
	exts []string
}

// New creates a Loader keeping files with the given extensions, DefaultExtensions if none.
func New(fs afero.Fs, exts ...string) *Loader {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	normalized := make([]string, 0, len(exts))
	for _, ext := range exts {
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	return &Loader{fs: fs, exts: normalized}
}

// NewOsLoader creates a Loader over the operating system filesystem.
func NewOsLoader(exts ...string) *Loader {
	return New(afero.NewOsFs(), exts...)
}

// Extensions returns the extensions the loader keeps.
func (l *Loader) Extensions() []string {
	return slices.Clone(l.exts)
}

// Discover returns the source paths under roots. A root may be a file or a directory.
// Roots are visited in the given order and directories in lexical order; hidden directories
// below a root are skipped and a path reached twice is kept once.
func (l *Loader) Discover(roots ...string) ([]string, error) {
	var (
		paths []string
		seen  = make(map[string]struct{})
	)
	for _, root := range roots {
		err := afero.Walk(l.fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if path != root && strings.HasPrefix(info.Name(), ".") {
					slog.Debug("Loader: Skipping hidden directory", "path", path)
					return filepath.SkipDir
				}
				return nil
			}
			if !l.keep(path) {
				return nil
			}
			clean := filepath.Clean(path)
			if _, dup := seen[clean]; dup {
				return nil
			}
			seen[clean] = struct{}{}
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w under %s with extensions %s, please check the path",
			ErrNoSources, strings.Join(roots, ", "), strings.Join(l.exts, " "))
	}
	slog.Debug("Loader: Sources discovered", "roots", roots, "files", len(paths))
	return paths, nil
}

// Load discovers the sources under roots and reads them in discovery order.
func (l *Loader) Load(roots ...string) ([]core.SourceFile, error) {
	paths, err := l.Discover(roots...)
	if err != nil {
		return nil, err
	}
	files := make([]core.SourceFile, 0, len(paths))
	for _, path := range paths {
		content, err := afero.ReadFile(l.fs, path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, core.SourceFile{Path: path, Content: content})
	}
	return files, nil
}

func (l *Loader) keep(path string) bool {
	return slices.Contains(l.exts, filepath.Ext(path))
}
