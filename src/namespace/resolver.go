package namespace

import (
	"fmt"
	"strings"

	"jcc/src/source"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// ResolutionKind tags the four outcomes lookup can produce; the lexer picks a token class from it.
type ResolutionKind int

// Resolution is the result handed back to the lexer/parser on every identifier token and to the type
// resolver on every type specifier.
type Resolution struct {
	Kind   ResolutionKind
	Entity *Entity
}

// usingEntry is one `using namespace X [as Y]` alias in a scope's search path. Alias strings must be
// unique within a scope.
type usingEntry struct {
	Alias  string
	Target *Entity
}

// scopeFrame is one level of the scope stack: the namespace entity declarations land in, plus the
// ordered list of using-aliases visible at this level.
type scopeFrame struct {
	ns    *Entity
	using []usingEntry
}

// Resolver is the namespace tree plus the parser's current scope stack. One Resolver exists per
// translation unit and lives for the entire compilation.
type Resolver struct {
	Root  *Entity
	stack []*scopeFrame
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	Found ResolutionKind = iota
	NotFound
	NotFoundPrivate
	NotFoundProtected
)

// builtinPrimitives lists the names the root namespace is seeded with at compiler start-up.
var builtinPrimitives = []string{
	"u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64", "f32", "f64", "bool", "void",
}

// ---------------------
// ----- Functions -----
// ---------------------

// NewResolver creates a Resolver whose root namespace already contains the built-in primitive types.
func NewResolver() *Resolver {
	root := newEntity(nil, "", KindNamespace, Public, source.Ref{})
	r := &Resolver{Root: root}
	r.stack = []*scopeFrame{{ns: root}}
	for _, p := range builtinPrimitives {
		root.Children.Put(p, newEntity(root, p, KindType, Public, source.Ref{}))
	}
	return r
}

// current returns the innermost scope's namespace entity.
func (r *Resolver) current() *Entity {
	return r.stack[len(r.stack)-1].ns
}

// PushNamespace enters (creating if necessary) a child namespace of the current scope and pushes a
// fresh scope frame for it.
func (r *Resolver) PushNamespace(name string, ref source.Ref) *Entity {
	cur := r.current()
	child, ok := cur.Children.Get(name)
	if !ok {
		child = newEntity(cur, name, KindNamespace, Public, ref)
		cur.Children.Put(name, child)
	}
	r.stack = append(r.stack, &scopeFrame{ns: child})
	return child
}

// PushAnonymousScope pushes a scope frame that shares its parent's namespace entity (used for
// function bodies and compound statements, which are lexical scopes but not namespaces).
func (r *Resolver) PushAnonymousScope() {
	r.stack = append(r.stack, &scopeFrame{ns: r.current()})
}

// PopNamespace leaves the innermost scope.
func (r *Resolver) PopNamespace() {
	if len(r.stack) > 1 {
		r.stack = r.stack[:len(r.stack)-1]
	}
}

// AddUsing registers a `using namespace target [as alias]` in the current scope. alias defaults to
// target's own name. Duplicate aliases within the same scope are rejected.
func (r *Resolver) AddUsing(alias string, target *Entity) error {
	f := r.stack[len(r.stack)-1]
	if alias == "" {
		alias = target.Name
	}
	for _, u := range f.using {
		if u.Alias == alias {
			return fmt.Errorf("alias %q already in use in this scope", alias)
		}
	}
	f.using = append(f.using, usingEntry{Alias: alias, Target: target})
	return nil
}

// declare is the shared implementation behind DeclareNamespace/DeclareType/DeclareClass/
// DeclareIdentifier/DeclareLabel: it rejects a name already present in the immediate namespace.
func (r *Resolver) declare(name string, kind Kind, vis Visibility, ref source.Ref) (*Entity, *Entity) {
	cur := r.current()
	if existing, ok := cur.Children.Get(name); ok {
		return nil, existing
	}
	e := newEntity(cur, name, kind, vis, ref)
	cur.Children.Put(name, e)
	return e, nil
}

// DeclareNamespace registers a bare namespace entity without entering it (used for forward
// `namespace X;` style declarations some grammars allow; most callers use PushNamespace instead).
func (r *Resolver) DeclareNamespace(name string, ref source.Ref) (*Entity, *Entity) {
	return r.declare(name, KindNamespace, Public, ref)
}

// DeclareType registers a named type entity (primitive, typedef, enum) in the current scope.
func (r *Resolver) DeclareType(name string, vis Visibility, ref source.Ref) (*Entity, *Entity) {
	return r.declare(name, KindType, vis, ref)
}

// DeclareClass registers a class entity, which both is a type and introduces a child namespace.
func (r *Resolver) DeclareClass(name string, vis Visibility, ref source.Ref) (*Entity, *Entity) {
	return r.declare(name, KindClass, vis, ref)
}

// DeclareIdentifier registers a function or variable entity in the current scope.
func (r *Resolver) DeclareIdentifier(name string, vis Visibility, ref source.Ref) (*Entity, *Entity) {
	return r.declare(name, KindIdentifier, vis, ref)
}

// DeclareLabel registers a goto label in the current scope.
func (r *Resolver) DeclareLabel(name string, ref source.Ref) (*Entity, *Entity) {
	return r.declare(name, KindLabel, Public, ref)
}

// Lookup resolves a possibly-qualified name (e.g. "A::B::C", or "::A::B" to search strictly from the
// root): innermost scope outward, trying each level's own children before its using-aliases.
func (r *Resolver) Lookup(name string) Resolution {
	if strings.HasPrefix(name, "::") {
		return r.lookupFrom(r.Root, splitComponents(name[2:]))
	}

	parts := splitComponents(name)
	if len(parts) == 0 {
		return Resolution{Kind: NotFound}
	}

	for i := len(r.stack) - 1; i >= 0; i-- {
		f := r.stack[i]

		// Own children of this scope level.
		if anchor, ok := f.ns.Children.Get(parts[0]); ok {
			if res := r.walkAndCheck(anchor, parts[1:]); res.Kind != NotFound {
				return res
			}
		}

		// Using-aliases, in insertion order.
		for _, u := range f.using {
			if u.Alias == parts[0] {
				if res := r.walkAndCheck(u.Target, parts[1:]); res.Kind != NotFound {
					return res
				}
			}
		}
	}
	return Resolution{Kind: NotFound}
}

// lookupFrom performs a plain, scope-stack-free prefix walk anchored at root, used for `::`-prefixed
// names.
func (r *Resolver) lookupFrom(root *Entity, parts []string) Resolution {
	if len(parts) == 0 {
		return Resolution{Kind: NotFound}
	}
	anchor, ok := root.Children.Get(parts[0])
	if !ok {
		return Resolution{Kind: NotFound}
	}
	return r.walkAndCheck(anchor, parts[1:])
}

// walkAndCheck walks the remaining dotted components below anchor, then applies visibility.
func (r *Resolver) walkAndCheck(anchor *Entity, rest []string) Resolution {
	e := anchor
	for _, c := range rest {
		next, ok := e.Children.Get(c)
		if !ok {
			return Resolution{Kind: NotFound}
		}
		e = next
	}
	if e.visibleFrom(r.current()) {
		return Resolution{Kind: Found, Entity: e}
	}
	switch e.effectiveVisibility() {
	case Private:
		return Resolution{Kind: NotFoundPrivate, Entity: e}
	default:
		return Resolution{Kind: NotFoundProtected, Entity: e}
	}
}

// splitComponents splits a "::"-joined name into its parts, skipping empty leading/trailing pieces.
func splitComponents(name string) []string {
	raw := strings.Split(name, "::")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Describe renders a fully-qualified diagnostic description of e: "<kind> '<qualified name>'", used
// when error text needs to name an entity unambiguously.
func Describe(e *Entity) string {
	if e == nil {
		return "<nil entity>"
	}
	q := e.QualifiedName()
	if q == "" {
		q = "::"
	}
	return fmt.Sprintf("%s %q", e.Kind, q)
}
