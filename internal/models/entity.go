package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Entity is one tracked subject (a political party) with a stable code.
type Entity struct {
	Code        string `json:"code" yaml:"code" toml:"code" validate:"required"`
	DisplayName string `json:"display_name" yaml:"display_name" toml:"display_name" validate:"required"`
	ShortName   string `json:"short_name" yaml:"short_name" toml:"short_name" validate:"required"`
	ProviderID  string `json:"provider_id" yaml:"provider_id" toml:"provider_id" validate:"required"`
	Color       string `json:"color" yaml:"color" toml:"color" validate:"omitempty,hexcolor"`
}

// Registry is the immutable, ordered entity set for one geography.
// Registry order is the canonical iteration, batching and tie-break order.
type Registry struct {
	geo       string
	timeframe string
	entities  []Entity
	index     map[string]int
	providers map[string]string
}

// NewRegistry validates the entities and returns a registry that preserves their order.
func NewRegistry(geo, timeframe string, entities []Entity) (*Registry, error) {
	if len(entities) == 0 {
		return nil, fmt.Errorf("registry for geo %q has no entities", geo)
	}

	validate := validator.New()
	r := &Registry{
		geo:       geo,
		timeframe: timeframe,
		entities:  make([]Entity, 0, len(entities)),
		index:     make(map[string]int, len(entities)),
		providers: make(map[string]string, len(entities)),
	}

	for i, e := range entities {
		e.Code = strings.TrimSpace(e.Code)
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("entity %d (%q) is invalid: %w", i+1, e.Code, err)
		}
		if _, dup := r.index[e.Code]; dup {
			return nil, fmt.Errorf("duplicate entity code %q", e.Code)
		}
		if other, dup := r.providers[e.ProviderID]; dup {
			return nil, fmt.Errorf("entities %q and %q share provider id %q", other, e.Code, e.ProviderID)
		}
		r.index[e.Code] = len(r.entities)
		r.providers[e.ProviderID] = e.Code
		r.entities = append(r.entities, e)
	}

	return r, nil
}

// Geo returns the provider geography code (e.g. "AU", "AU-VIC").
func (r *Registry) Geo() string { return r.geo }

// Timeframe returns the provider timeframe expression.
func (r *Registry) Timeframe() string { return r.timeframe }

// Len returns the number of entities.
func (r *Registry) Len() int { return len(r.entities) }

// Codes returns the entity codes in registry order.
func (r *Registry) Codes() []string {
	codes := make([]string, len(r.entities))
	for i, e := range r.entities {
		codes[i] = e.Code
	}
	return codes
}

// Entities returns a copy of the entities in registry order.
func (r *Registry) Entities() []Entity {
	out := make([]Entity, len(r.entities))
	copy(out, r.entities)
	return out
}

// Entity looks up an entity by code.
func (r *Registry) Entity(code string) (Entity, bool) {
	i, ok := r.index[code]
	if !ok {
		return Entity{}, false
	}
	return r.entities[i], true
}

// ShortName returns the display short name for a code, or the code itself when unknown.
func (r *Registry) ShortName(code string) string {
	if e, ok := r.Entity(code); ok {
		return e.ShortName
	}
	return code
}

// ResolveCode maps an entity code or provider identifier to the entity code.
func (r *Registry) ResolveCode(key string) (string, bool) {
	if _, ok := r.index[key]; ok {
		return key, true
	}
	code, ok := r.providers[key]
	return code, ok
}

// ZeroInts returns a map holding 0 for every registry code.
func (r *Registry) ZeroInts() map[string]int {
	m := make(map[string]int, len(r.entities))
	for _, e := range r.entities {
		m[e.Code] = 0
	}
	return m
}

// ZeroFloats returns a map holding 0 for every registry code.
func (r *Registry) ZeroFloats() map[string]float64 {
	m := make(map[string]float64, len(r.entities))
	for _, e := range r.entities {
		m[e.Code] = 0
	}
	return m
}
