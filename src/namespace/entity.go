// Package namespace implements the namespace tree and scope search paths the parser consults on
// every identifier token (the classic type-vs-identifier disambiguation) and that the type resolver
// later walks to find every declared type, class and function.
package namespace

import (
	"strings"

	"github.com/dolthub/swiss"

	"jcc/src/source"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Kind differentiates the five flavors of namespace entity.
type Kind int

// Visibility controls where an entity may be referenced from.
type Visibility int

// Entity is a node in the namespace tree: a name, its kind, its parent and its own children. A class
// both is a type entity and introduces a child namespace for its members.
type Entity struct {
	Name       string
	Kind       Kind
	Visibility Visibility
	Parent     *Entity
	Ref        source.Ref
	Children   *swiss.Map[string, *Entity]

	// Payload is an opaque pointer back to the richer representation of this entity (a *types.Type
	// for type/class entities, nothing for identifiers/labels). The namespace package does not know
	// about types.Type to avoid an import cycle; the type resolver sets this after declaration.
	Payload interface{}
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	KindIdentifier Kind = iota
	KindType
	KindClass
	KindNamespace
	KindLabel
)

const (
	Public Visibility = iota
	Protected
	Private
)

var kindNames = [...]string{"identifier", "type", "class", "namespace", "label"}

func (k Kind) String() string { return kindNames[k] }

// ---------------------
// ----- Functions -----
// ---------------------

// entityChildrenCapacity is the initial size hint for a fresh scope's children map: most namespaces,
// classes and function bodies declare a handful of names, not hundreds.
const entityChildrenCapacity = 4

// newEntity allocates a child entity under parent.
func newEntity(parent *Entity, name string, kind Kind, vis Visibility, ref source.Ref) *Entity {
	return &Entity{
		Name:       name,
		Kind:       kind,
		Visibility: vis,
		Parent:     parent,
		Ref:        ref,
		Children:   swiss.NewMap[string, *Entity](entityChildrenCapacity),
	}
}

// QualifiedName walks to the root joining component names with "::". The root's own name is empty,
// so a top-level entity named "Foo" has qualified name "::Foo" only when referenced from the root;
// QualifiedName itself returns "Foo" for a root child, matching how the resolver compares suffixes.
func (e *Entity) QualifiedName() string {
	if e == nil {
		return ""
	}
	var parts []string
	for n := e; n != nil && n.Parent != nil; n = n.Parent {
		parts = append([]string{n.Name}, parts...)
	}
	return strings.Join(parts, "::")
}

// IsRoot reports whether e is the namespace tree root (no parent).
func (e *Entity) IsRoot() bool {
	return e.Parent == nil
}

// effectiveVisibility returns the most restrictive visibility over the chain from e to the root: a
// public member of a private class is not externally visible.
func (e *Entity) effectiveVisibility() Visibility {
	v := e.Visibility
	for n := e.Parent; n != nil; n = n.Parent {
		if n.Visibility > v {
			v = n.Visibility
		}
	}
	return v
}

// visibleFrom reports whether e is visible when referenced from scope `from`.
func (e *Entity) visibleFrom(from *Entity) bool {
	switch e.effectiveVisibility() {
	case Public:
		return true
	case Protected:
		// Visible when the current fully-qualified scope has the candidate's parent as a prefix.
		return hasPrefix(from, e.Parent)
	case Private:
		// Visible when the current scope equals the candidate's parent scope.
		return from == e.Parent
	}
	return false
}

// hasPrefix reports whether scope `from`'s ancestor chain includes `anc` (i.e. `anc` is a (non-strict)
// prefix of `from`).
func hasPrefix(from, anc *Entity) bool {
	for n := from; n != nil; n = n.Parent {
		if n == anc {
			return true
		}
	}
	return false
}
