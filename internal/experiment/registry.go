package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/partsim/internal/collision"
	"github.com/san-kum/partsim/internal/compute"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/dynamo"
)

type Registry struct {
	strategies map[string]collision.Strategy
	hosts      map[string]func(workers int) compute.Host
	patterns   map[string]Pattern
}

func NewRegistry() *Registry {
	r := &Registry{
		strategies: make(map[string]collision.Strategy),
		hosts:      make(map[string]func(int) compute.Host),
		patterns:   make(map[string]Pattern),
	}

	for _, s := range collision.Strategies() {
		r.strategies[s.String()] = s
	}

	r.hosts["cpu"] = func(workers int) compute.Host { return compute.NewCPUHost(workers) }
	r.hosts["opengl"] = func(int) compute.Host { return compute.NewOpenGLHost() }

	r.patterns["rain"] = Rain
	r.patterns["lattice"] = Lattice
	r.patterns["mixed"] = Mixed
	r.patterns["column"] = Column

	return r
}

func (r *Registry) GetStrategy(name string) (collision.Strategy, error) {
	if s, ok := r.strategies[name]; ok {
		return s, nil
	}
	return collision.ParseStrategy(name)
}

// GetHost accepts the same names and aliases as config validation.
func (r *Registry) GetHost(name string, workers int) (compute.Host, error) {
	canonical, _ := compute.CanonicalHost(name)
	fn, ok := r.hosts[canonical]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownHost, name)
	}
	return fn(workers), nil
}

func (r *Registry) GetPattern(name string) (Pattern, error) {
	fn, ok := r.patterns[name]
	if !ok {
		return nil, fmt.Errorf("unknown spawn pattern: %s", name)
	}
	return fn, nil
}

func (r *Registry) ListStrategies() []string { return sortedKeys(r.strategies) }
func (r *Registry) ListHosts() []string      { return sortedKeys(r.hosts) }
func (r *Registry) ListPatterns() []string   { return sortedKeys(r.patterns) }
func (r *Registry) ListScenes() []string     { return config.ListPresets() }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
