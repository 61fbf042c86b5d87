package model

import (
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/types"
)

// KnowledgeBase holds the immutable threat and control catalogs.
// It is built once per scoring run and only read afterwards.
type KnowledgeBase struct {
	threats      map[types.ThreatID]*Threat
	threatOrder  []types.ThreatID
	controls     map[types.ControlID]*Control
	controlOrder []types.ControlID
}

// NewKnowledgeBase validates the catalogs and indexes them by ID.
// IDs and normalized names must be unique. Catalog order is preserved for
// iteration.
func NewKnowledgeBase(threats []Threat, controls []Control) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		threats:  make(map[types.ThreatID]*Threat, len(threats)),
		controls: make(map[types.ControlID]*Control, len(controls)),
	}

	threatNames := make(map[string]types.ThreatID, len(threats))
	for i := range threats {
		t := threats[i]
		if err := t.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid threat", goerr.V("index", i))
		}
		if _, exists := kb.threats[t.ID]; exists {
			return nil, goerr.Wrap(ErrDuplicateID, "duplicate threat ID", goerr.V(ThreatIDKey, t.ID))
		}
		if other, exists := threatNames[normalizeName(t.Name)]; exists {
			return nil, goerr.Wrap(ErrDuplicateID, "duplicate threat name",
				goerr.V(ThreatIDKey, t.ID),
				goerr.V("conflicts_with", other),
				goerr.V("name", t.Name))
		}
		threatNames[normalizeName(t.Name)] = t.ID
		kb.threats[t.ID] = &t
		kb.threatOrder = append(kb.threatOrder, t.ID)
	}

	controlNames := make(map[string]types.ControlID, len(controls))
	for i := range controls {
		c := controls[i]
		if err := c.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid control", goerr.V("index", i))
		}
		if _, exists := kb.controls[c.ID]; exists {
			return nil, goerr.Wrap(ErrDuplicateID, "duplicate control ID", goerr.V(ControlIDKey, c.ID))
		}
		if other, exists := controlNames[normalizeName(c.Name)]; exists {
			return nil, goerr.Wrap(ErrDuplicateID, "duplicate control name",
				goerr.V(ControlIDKey, c.ID),
				goerr.V("conflicts_with", other),
				goerr.V("name", c.Name))
		}
		controlNames[normalizeName(c.Name)] = c.ID
		kb.controls[c.ID] = &c
		kb.controlOrder = append(kb.controlOrder, c.ID)
	}

	return kb, nil
}

// Threats returns the threat catalog in authored order
func (kb *KnowledgeBase) Threats() []*Threat {
	result := make([]*Threat, 0, len(kb.threatOrder))
	for _, id := range kb.threatOrder {
		result = append(result, kb.threats[id])
	}
	return result
}

// Controls returns the control catalog in authored order
func (kb *KnowledgeBase) Controls() []*Control {
	result := make([]*Control, 0, len(kb.controlOrder))
	for _, id := range kb.controlOrder {
		result = append(result, kb.controls[id])
	}
	return result
}

// Threat looks up a threat by ID
func (kb *KnowledgeBase) Threat(id types.ThreatID) (*Threat, bool) {
	t, ok := kb.threats[id]
	return t, ok
}

// Control looks up a control by ID
func (kb *KnowledgeBase) Control(id types.ControlID) (*Control, bool) {
	c, ok := kb.controls[id]
	return c, ok
}

// LoadThreatsByID returns a copy of the threat index keyed by ID
func (kb *KnowledgeBase) LoadThreatsByID() map[types.ThreatID]*Threat {
	result := make(map[types.ThreatID]*Threat, len(kb.threats))
	for id, t := range kb.threats {
		result[id] = t
	}
	return result
}

// LoadThreatsByName returns the threat index keyed by normalized name
func (kb *KnowledgeBase) LoadThreatsByName() map[string]*Threat {
	result := make(map[string]*Threat, len(kb.threats))
	for _, t := range kb.threats {
		result[normalizeName(t.Name)] = t
	}
	return result
}

// LoadControlsByID returns a copy of the control index keyed by ID
func (kb *KnowledgeBase) LoadControlsByID() map[types.ControlID]*Control {
	result := make(map[types.ControlID]*Control, len(kb.controls))
	for id, c := range kb.controls {
		result[id] = c
	}
	return result
}

// LoadControlsByName returns the control index keyed by normalized name
func (kb *KnowledgeBase) LoadControlsByName() map[string]*Control {
	result := make(map[string]*Control, len(kb.controls))
	for _, c := range kb.controls {
		result[normalizeName(c.Name)] = c
	}
	return result
}

// ResolveResult is the outcome of resolving human-readable names against a catalog.
// Every name that could not be resolved is listed in Missing.
type ResolveResult[T any] struct {
	Found   map[string]T
	Missing []string
}

// Err returns ErrUnresolvedCatalogEntry carrying the count and list of
// unresolved names, or nil when everything resolved.
func (r *ResolveResult[T]) Err() error {
	if len(r.Missing) == 0 {
		return nil
	}
	return goerr.Wrap(ErrUnresolvedCatalogEntry, "catalog names could not be resolved",
		goerr.V(MissingCountKey, len(r.Missing)),
		goerr.V(MissingKey, r.Missing),
	)
}

// ResolveThreatNames resolves threat names (or IDs) to threat IDs
func (kb *KnowledgeBase) ResolveThreatNames(names []string) *ResolveResult[types.ThreatID] {
	byName := kb.LoadThreatsByName()
	return resolve(names, func(name string) (types.ThreatID, bool) {
		if t, ok := kb.threats[types.ThreatID(name)]; ok {
			return t.ID, true
		}
		if t, ok := byName[normalizeName(name)]; ok {
			return t.ID, true
		}
		return "", false
	})
}

// ResolveControlNames resolves control names (or IDs) to control IDs
func (kb *KnowledgeBase) ResolveControlNames(names []string) *ResolveResult[types.ControlID] {
	byName := kb.LoadControlsByName()
	return resolve(names, func(name string) (types.ControlID, bool) {
		if c, ok := kb.controls[types.ControlID(name)]; ok {
			return c.ID, true
		}
		if c, ok := byName[normalizeName(name)]; ok {
			return c.ID, true
		}
		return "", false
	})
}

func resolve[T any](names []string, lookup func(string) (T, bool)) *ResolveResult[T] {
	result := &ResolveResult[T]{
		Found: make(map[string]T, len(names)),
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		if v, ok := lookup(name); ok {
			result.Found[name] = v
		} else {
			result.Missing = append(result.Missing, name)
		}
	}
	sort.Strings(result.Missing)
	return result
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
