package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/specialistvlad/algogrid/internal/datastore"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeYAML = "application/yaml"
	ContentTypeBolt = "application/x-bolt"
	ContentTypeEnv  = "application/x-env"
)

// Factory opens a handler for a container location.
type Factory func(loc datastore.Location) (datastore.Handler, error)

// PathSpec selects the paths a factory serves. NamePattern is matched
// against the file name without its extension using filepath.Match
// syntax; an empty pattern matches every name.
type PathSpec struct {
	Extension   string
	NamePattern string
	ContentType string
}

// Match reports whether path is covered by the spec.
func (p PathSpec) Match(path string) bool {
	ext := filepath.Ext(path)
	if !strings.EqualFold(ext, p.Extension) {
		return false
	}
	if p.NamePattern == "" {
		return true
	}
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	ok, err := filepath.Match(p.NamePattern, stem)
	return err == nil && ok
}

func (p PathSpec) String() string {
	s := "*" + p.Extension
	if p.NamePattern != "" {
		s = p.NamePattern + p.Extension
	}
	if p.ContentType != "" {
		s += " (" + p.ContentType + ")"
	}
	return s
}

type registered struct {
	spec    PathSpec
	factory Factory
}

type schemeHandler struct {
	contentType string
	factory     Factory
}

// Manager holds the registered handler factories. Paths of the form
// "scheme://..." are served by scheme handlers, every other path by the
// extension based ones.
type Manager struct {
	mu      sync.RWMutex
	all     []registered
	schemes map[string]schemeHandler
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{schemes: make(map[string]schemeHandler)}
}

// Scheme returns the lower-cased URL scheme of path, if it has one.
// Windows drive letters are not schemes.
func Scheme(path string) (string, bool) {
	scheme, _, ok := strings.Cut(path, "://")
	if !ok || len(scheme) < 2 {
		return "", false
	}
	for i, r := range scheme {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isAlpha && (i == 0 || !(r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.')) {
			return "", false
		}
	}
	return strings.ToLower(scheme), true
}

// RegisterScheme adds a factory for "scheme://" paths. It panics if the
// scheme is already registered.
func (m *Manager) RegisterScheme(scheme, contentType string, factory Factory) {
	scheme = strings.ToLower(scheme)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schemes[scheme]; ok {
		panic(fmt.Sprintf("data handler for scheme '%s' already registered", scheme))
	}
	slog.Debug("Registering data handler.", "scheme", scheme, "content_type", contentType)
	m.schemes[scheme] = schemeHandler{contentType: contentType, factory: factory}
}

// Default returns a manager with the built-in file handlers registered.
func Default() *Manager {
	m := NewManager()
	m.Register(PathSpec{Extension: ".json", ContentType: ContentTypeJSON}, NewJSONFile)
	m.Register(PathSpec{Extension: ".yaml", ContentType: ContentTypeYAML}, NewYAMLFile)
	m.Register(PathSpec{Extension: ".yml", ContentType: ContentTypeYAML}, NewYAMLFile)
	m.Register(PathSpec{Extension: ".db", ContentType: ContentTypeBolt}, OpenBolt)
	m.Register(PathSpec{Extension: ".bolt", ContentType: ContentTypeBolt}, OpenBolt)

	remote := RemoteFactory(&http.Client{Timeout: DefaultRemoteTimeout})
	m.RegisterScheme("http", "", remote)
	m.RegisterScheme("https", "", remote)
	m.RegisterScheme("env", ContentTypeEnv, OpenEnv)
	return m
}

// Register adds a factory. It panics if the spec has no extension or is
// already registered.
func (m *Manager) Register(spec PathSpec, factory Factory) {
	if spec.Extension == "" {
		panic(fmt.Sprintf("handler spec '%s' has no extension", spec))
	}
	if !strings.HasPrefix(spec.Extension, ".") {
		spec.Extension = "." + spec.Extension
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.all {
		if strings.EqualFold(r.spec.Extension, spec.Extension) &&
			r.spec.NamePattern == spec.NamePattern &&
			r.spec.ContentType == spec.ContentType {
			panic(fmt.Sprintf("data handler for '%s' already registered", spec))
		}
	}
	slog.Debug("Registering data handler.", "spec", spec.String())
	m.all = append(m.all, registered{spec: spec, factory: factory})
}

// Resolve returns the factory serving path. A non-empty contentType
// narrows the candidates; it is required when several specs match.
func (m *Manager) Resolve(path, contentType string) (Factory, PathSpec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if scheme, ok := Scheme(path); ok {
		h, ok := m.schemes[scheme]
		if !ok {
			return nil, PathSpec{}, fmt.Errorf("%w: scheme '%s' of '%s'", ErrHandlerNotFound, scheme, path)
		}
		if contentType != "" && h.contentType != "" && contentType != h.contentType {
			return nil, PathSpec{}, fmt.Errorf("%w: '%s' with content type '%s'", ErrHandlerNotFound, path, contentType)
		}
		ct := h.contentType
		if ct == "" {
			ct = contentType
		}
		return h.factory, PathSpec{ContentType: ct}, nil
	}

	var candidates []registered
	for _, r := range m.all {
		if r.spec.Match(path) {
			candidates = append(candidates, r)
		}
	}
	if contentType != "" {
		filtered := candidates[:0:0]
		for _, r := range candidates {
			if r.spec.ContentType == contentType {
				filtered = append(filtered, r)
			}
		}
		candidates = filtered
	}

	switch len(candidates) {
	case 0:
		if contentType != "" {
			return nil, PathSpec{}, fmt.Errorf("%w: '%s' with content type '%s'", ErrHandlerNotFound, path, contentType)
		}
		return nil, PathSpec{}, fmt.Errorf("%w: '%s'", ErrHandlerNotFound, path)
	case 1:
		return candidates[0].factory, candidates[0].spec, nil
	default:
		specs := make([]string, len(candidates))
		for i, r := range candidates {
			specs[i] = r.spec.String()
		}
		return nil, PathSpec{}, fmt.Errorf("%w: '%s' matches %s", ErrHandlerConflict, path, strings.Join(specs, ", "))
	}
}

// Open resolves the handler for loc and opens it as a container.
func (m *Manager) Open(loc datastore.Location, contentType string) (*datastore.Container, error) {
	factory, spec, err := m.Resolve(loc.Path, contentType)
	if err != nil {
		return nil, err
	}
	h, err := factory(loc)
	if err != nil {
		return nil, fmt.Errorf("failed to open '%s': %w", loc.Path, err)
	}
	return datastore.NewContainer(loc, spec.ContentType, h), nil
}

// Extensions lists the registered extensions, sorted and without
// duplicates.
func (m *Manager) Extensions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, r := range m.all {
		ext := strings.ToLower(r.spec.Extension)
		if !seen[ext] {
			seen[ext] = true
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}
