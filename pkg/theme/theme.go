// Package theme resolves the dashboard color theme and persists the user's preference.
package theme

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Theme is a dashboard color scheme.
type Theme string

// supported themes.
const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Parse returns the theme named by s.
func Parse(s string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	default:
		return "", false
	}
}

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Request carries the inputs of theme resolution.
type Request struct {
	Query  string // ?theme= value
	Iframe bool   // embedded mode never reads or writes the saved preference
	System string // system preference, e.g. from the Sec-CH-Prefers-Color-Scheme header
}

// RequestFrom extracts theme inputs from an http request.
func RequestFrom(r *http.Request, iframe bool) Request {
	return Request{
		Query:  r.URL.Query().Get("theme"),
		Iframe: iframe,
		System: r.Header.Get("Sec-CH-Prefers-Color-Scheme"),
	}
}

// Provider resolves themes and stores the saved preference in a file.
// empty path disables persistence.
type Provider struct {
	path string
	mu   sync.Mutex
}

// NewProvider makes a provider saving to path.
func NewProvider(path string) *Provider {
	return &Provider{path: path}
}

// Resolve picks the theme: query value, then saved preference and system preference
// (both skipped in iframe mode), then light.
func (p *Provider) Resolve(req Request) Theme {
	if t, ok := Parse(req.Query); ok {
		return t
	}
	if req.Iframe {
		return Light
	}
	if t, ok := p.Saved(); ok {
		return t
	}
	if t, ok := Parse(req.System); ok {
		return t
	}
	return Light
}

// Saved returns the saved preference, false if none or unreadable.
func (p *Provider) Saved() (Theme, bool) {
	if p.path == "" {
		return "", false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	data, err := os.ReadFile(p.path)
	if err != nil {
		return "", false
	}
	return Parse(string(data))
}

// Save stores t as the preference. iframe mode is never persisted.
func (p *Provider) Save(t Theme, iframe bool) error {
	if _, ok := Parse(string(t)); !ok {
		return fmt.Errorf("unknown theme %q", t)
	}
	if iframe || p.path == "" {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("create theme dir: %w", err)
	}
	if err := os.WriteFile(p.path, []byte(t), 0o600); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// Toggle flips the theme resolved for req and saves the result outside iframe mode.
func (p *Provider) Toggle(req Request) (Theme, error) {
	next := p.Resolve(req).Opposite()
	if err := p.Save(next, req.Iframe); err != nil {
		return "", err
	}
	return next, nil
}

// Clear removes the saved preference.
func (p *Provider) Clear() error {
	if p.path == "" {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear theme: %w", err)
	}
	return nil
}
