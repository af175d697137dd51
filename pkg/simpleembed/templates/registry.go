// Package templates provides a simpleembed.TemplateRegistry backed by
// html/template. Templates are addressed by the file name stem, so
// "Embed_video.html" registers as "Embed_video".
package templates

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/tendant/simple-embed/pkg/simpleembed/markup"
)

// Extensions recognized when loading from a file system.
var Extensions = []string{".html", ".tmpl", ".gohtml"}

// ErrNoTemplate indicates none of the candidate names is registered.
var ErrNoTemplate = errors.New("no template registered for candidates")

// Registry holds named templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
	funcs     template.FuncMap
}

// Option configures a Registry.
type Option func(*Registry)

// WithFuncs adds template functions available to every template.
func WithFuncs(funcs template.FuncMap) Option {
	return func(r *Registry) {
		for k, v := range funcs {
			r.funcs[k] = v
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		templates: make(map[string]*template.Template),
		funcs:     template.FuncMap{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load creates a registry from every template file found in fsys.
func Load(fsys fs.FS, opts ...Option) (*Registry, error) {
	r := New(opts...)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := path.Ext(p)
		if !recognized(ext) {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(path.Base(p), ext)
		return r.Add(name, string(data))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	return r, nil
}

// Add parses text and registers it under name, replacing any previous
// template of the same name.
func (r *Registry) Add(name, text string) error {
	if name == "" {
		return errors.New("template name is required")
	}
	tpl, err := template.New(name).Funcs(r.funcs).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[name] = tpl
	return nil
}

// Names returns the registered template names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}

// HasTemplate reports whether any candidate is registered.
func (r *Registry) HasTemplate(names []string) bool {
	_, ok := r.first(names)
	return ok
}

// RenderWith executes the first registered candidate against data.
func (r *Registry) RenderWith(names []string, data interface{}) (markup.Markup, error) {
	tpl, ok := r.first(names)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoTemplate, strings.Join(names, ", "))
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", tpl.Name(), err)
	}
	return markup.Markup(buf.String()), nil
}

func (r *Registry) first(names []string) (*template.Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range names {
		if tpl, ok := r.templates[name]; ok {
			return tpl, true
		}
	}
	return nil, false
}

func recognized(ext string) bool {
	for _, e := range Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
