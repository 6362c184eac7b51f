// Package template provides the templating engine for dirgen.
package template

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/spf13/afero"
)

// SupportFile is the name of the template rendering the Go support file.
const SupportFile = "support_file"

//go:embed *.tpl
var templates embed.FS

var funcs = template.FuncMap{
	"join":    strings.Join,
	"quote":   strconv.Quote,
	"comment": comment,
}

// Renderer is the interface for rendering templates.
type Renderer interface {
	Render(templateName string, data any) ([]byte, error)
}

// Manager is a template manager that holds and renders templates.
type Manager struct {
	tmpl *template.Template
}

var _ Renderer = (*Manager)(nil)

// NewManager creates a new template manager and parses the embedded templates.
func NewManager() *Manager {
	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(templates, "*.tpl"))
	return &Manager{tmpl: tmpl}
}

// Render executes the named template with the given data.
func (m *Manager) Render(templateName string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.tmpl.ExecuteTemplate(&buf, templateName, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", templateName, err)
	}
	return buf.Bytes(), nil
}

// Load parses user templates from files or directories on fs. A directory contributes its
// *.tpl files. Definitions replace the embedded ones of the same name; on error the manager
// is left unchanged.
func (m *Manager) Load(fs afero.Fs, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	next, err := m.tmpl.Clone()
	if err != nil {
		return fmt.Errorf("template clone failed: %w", err)
	}

	for _, path := range paths {
		fi, err := fs.Stat(path)
		if err != nil {
			return fmt.Errorf("template path: %w", err)
		}
		files := []string{path}
		if fi.IsDir() {
			if files, err = afero.Glob(fs, filepath.Join(path, "*.tpl")); err != nil {
				return fmt.Errorf("glob pattern error: %w", err)
			}
		}
		for _, f := range files {
			data, err := afero.ReadFile(fs, f)
			if err != nil {
				return err
			}
			if _, err := next.New(filepath.Base(f)).Parse(string(data)); err != nil {
				return fmt.Errorf("parse %s failed: %w", f, err)
			}
		}
	}

	m.tmpl = next
	return nil
}

// comment turns text into // comment lines.
func comment(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight("// "+strings.TrimSpace(line), " ")
	}
	return strings.Join(lines, "\n")
}
