package prop

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Registry holds all loaded pistol and magazine definitions indexed by ID.
type Registry struct {
	pistols   map[string]*PistolDef
	magazines map[string]*MagazineDef
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{
		pistols:   make(map[string]*PistolDef),
		magazines: make(map[string]*MagazineDef),
	}
}

// LoadRegistry loads root/pistols and root/magazines and checks that every
// pistol names a known magazine.
func LoadRegistry(root string) (*Registry, error) {
	r := NewRegistry()
	mags, err := LoadMagazines(filepath.Join(root, "magazines"))
	if err != nil {
		return nil, err
	}
	for _, m := range mags {
		if err := r.RegisterMagazine(m); err != nil {
			return nil, err
		}
	}
	pistols, err := LoadPistols(filepath.Join(root, "pistols"))
	if err != nil {
		return nil, err
	}
	for _, p := range pistols {
		if err := r.RegisterPistol(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RegisterMagazine adds m to the registry.
//
// Precondition:  m must not be nil.
// Postcondition: Magazine(m.ID) returns m; returns error if m.ID already registered.
func (r *Registry) RegisterMagazine(m *MagazineDef) error {
	if _, exists := r.magazines[m.ID]; exists {
		return fmt.Errorf("prop: Registry.RegisterMagazine: magazine ID %q already registered", m.ID)
	}
	r.magazines[m.ID] = m
	return nil
}

// RegisterPistol adds p to the registry.
//
// Precondition:  p must not be nil; p.Magazine must already be registered.
// Postcondition: Pistol(p.ID) returns p; returns error on a duplicate ID or
// unknown magazine.
func (r *Registry) RegisterPistol(p *PistolDef) error {
	if _, exists := r.pistols[p.ID]; exists {
		return fmt.Errorf("prop: Registry.RegisterPistol: pistol ID %q already registered", p.ID)
	}
	if _, ok := r.magazines[p.Magazine]; !ok {
		return fmt.Errorf("prop: Registry.RegisterPistol: pistol %q references unknown magazine %q", p.ID, p.Magazine)
	}
	r.pistols[p.ID] = p
	return nil
}

// Pistol returns the PistolDef for id, or nil if not found.
func (r *Registry) Pistol(id string) *PistolDef {
	return r.pistols[id]
}

// Magazine returns the MagazineDef for id, or nil if not found.
func (r *Registry) Magazine(id string) *MagazineDef {
	return r.magazines[id]
}

// PistolIDs returns the registered pistol IDs in sorted order.
func (r *Registry) PistolIDs() []string {
	ids := make([]string, 0, len(r.pistols))
	for id := range r.pistols {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
