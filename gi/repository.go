package gi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"
)

// Sentinel errors for metadata resolution failures.
var (
	ErrNamespaceNotFound = errors.New("namespace not found")
	ErrObjectNotFound    = errors.New("object not found")
	ErrSignalNotFound    = errors.New("signal not found")
	ErrVersionConflict   = errors.New("version does not satisfy constraint")
)

// ---------------------------------------------------------------------------
// Repository
// ---------------------------------------------------------------------------

// Repository holds loaded namespaces and resolves requirements against
// them with semver constraints.
type Repository struct {
	mu         sync.RWMutex
	namespaces map[string]*Namespace
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		namespaces: make(map[string]*Namespace),
	}
}

// Add registers a namespace. Re-adding a name is an error; a repository
// holds at most one version of each namespace.
func (r *Repository) Add(ns *Namespace) error {
	if ns == nil || ns.Name == "" {
		return errors.New("gi: add: namespace without a name")
	}
	if _, err := semver.NewVersion(ns.Version); err != nil {
		return fmt.Errorf("gi: add %s: bad version %q: %w", ns.Name, ns.Version, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.namespaces[ns.Name]; ok {
		return fmt.Errorf("gi: add %s: already loaded", ns.Name)
	}
	r.namespaces[ns.Name] = ns
	return nil
}

// Namespace returns a loaded namespace by name, or nil.
func (r *Repository) Namespace(name string) *Namespace {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namespaces[name]
}

// Require resolves a namespace by name and checks its version against a
// semver constraint ("^1.0", ">=2.1 <3", ...).
func (r *Repository) Require(name, constraint string) (*Namespace, error) {
	ns := r.Namespace(name)
	if ns == nil {
		return nil, fmt.Errorf("gi: require %s %s: %w", name, constraint, ErrNamespaceNotFound)
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("gi: require %s: bad constraint %q: %w", name, constraint, err)
	}
	v, err := semver.NewVersion(ns.Version)
	if err != nil {
		return nil, fmt.Errorf("gi: require %s: bad version %q: %w", name, ns.Version, err)
	}
	if !c.Check(v) {
		return nil, fmt.Errorf("gi: require %s %s: have %s: %w",
			name, constraint, ns.Version, ErrVersionConflict)
	}
	return ns, nil
}

// ResolveDependencies checks that every dependency a namespace declares
// is loaded in a satisfying version.
func (r *Repository) ResolveDependencies(ns *Namespace) error {
	for dep, constraint := range ns.Dependencies {
		if _, err := r.Require(dep, constraint); err != nil {
			return fmt.Errorf("gi: %s depends on %s: %w", ns.Name, dep, err)
		}
	}
	return nil
}

// LookupSignal resolves "class + signal" through a named namespace,
// walking the class's parent chain.
func (r *Repository) LookupSignal(namespace, class, signal string) (*Signal, error) {
	ns := r.Namespace(namespace)
	if ns == nil {
		return nil, fmt.Errorf("gi: lookup %s.%s::%s: %w", namespace, class, signal, ErrNamespaceNotFound)
	}
	return ns.ResolveSignal(class, signal)
}

// Names returns the loaded namespace names.
func (r *Repository) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.namespaces))
	for name := range r.namespaces {
		names = append(names, name)
	}
	return names
}
